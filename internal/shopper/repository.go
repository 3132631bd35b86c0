package shopper

import (
	"context"

	"github.com/fekuna/chronostore/internal/model"
)

const (
	CollectionCarts     = "carts"
	CollectionFavorites = "favorites"
	CollectionRecent    = "recently_viewed"
)

type Repository interface {
	// Reads return an empty value for an owner with nothing stored.
	Cart(ctx context.Context, owner string) (model.Cart, error)
	Favorites(ctx context.Context, owner string) (model.Favorites, error)
	RecentlyViewed(ctx context.Context, owner string) (model.RecentlyViewed, error)

	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

type Tx interface {
	Cart(owner string) model.Cart
	SaveCart(c model.Cart) error
	Favorites(owner string) model.Favorites
	SaveFavorites(f model.Favorites) error
	RecentlyViewed(owner string) model.RecentlyViewed
	SaveRecentlyViewed(r model.RecentlyViewed) error
}
