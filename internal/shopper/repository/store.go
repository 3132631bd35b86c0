package repository

import (
	"context"

	"github.com/fekuna/chronostore/internal/model"
	"github.com/fekuna/chronostore/internal/shopper"
	"github.com/fekuna/chronostore/internal/storage"
)

type StoreRepository struct {
	store     *storage.Store
	carts     *storage.Collection[model.Cart]
	favorites *storage.Collection[model.Favorites]
	recent    *storage.Collection[model.RecentlyViewed]
}

func NewStoreRepository(store *storage.Store) *StoreRepository {
	return &StoreRepository{
		store:     store,
		carts:     storage.NewCollection[model.Cart](store, shopper.CollectionCarts),
		favorites: storage.NewCollection[model.Favorites](store, shopper.CollectionFavorites),
		recent:    storage.NewCollection[model.RecentlyViewed](store, shopper.CollectionRecent),
	}
}

func (r *StoreRepository) Cart(_ context.Context, owner string) (model.Cart, error) {
	c, ok := r.carts.Get(owner)
	if !ok {
		return model.Cart{Owner: owner}, nil
	}
	return c, nil
}

func (r *StoreRepository) Favorites(_ context.Context, owner string) (model.Favorites, error) {
	f, ok := r.favorites.Get(owner)
	if !ok {
		return model.Favorites{Owner: owner}, nil
	}
	return f, nil
}

func (r *StoreRepository) RecentlyViewed(_ context.Context, owner string) (model.RecentlyViewed, error) {
	v, ok := r.recent.Get(owner)
	if !ok {
		return model.RecentlyViewed{Owner: owner}, nil
	}
	return v, nil
}

func (r *StoreRepository) WithTx(ctx context.Context, fn func(tx shopper.Tx) error) error {
	return r.store.Update(ctx, func(stx *storage.Tx) error {
		return fn(&storeTx{repo: r, tx: stx})
	})
}

type storeTx struct {
	repo *StoreRepository
	tx   *storage.Tx
}

func (t *storeTx) Cart(owner string) model.Cart {
	if c, ok := t.repo.carts.Find(t.tx, owner); ok {
		return c
	}
	return model.Cart{Owner: owner}
}

// SaveCart deletes the record once the cart is empty.
func (t *storeTx) SaveCart(c model.Cart) error {
	if len(c.Lines) == 0 {
		t.repo.carts.Delete(t.tx, c.Owner)
		return nil
	}
	return t.repo.carts.Put(t.tx, c)
}

func (t *storeTx) Favorites(owner string) model.Favorites {
	if f, ok := t.repo.favorites.Find(t.tx, owner); ok {
		return f
	}
	return model.Favorites{Owner: owner}
}

func (t *storeTx) SaveFavorites(f model.Favorites) error {
	if len(f.ProductIDs) == 0 {
		t.repo.favorites.Delete(t.tx, f.Owner)
		return nil
	}
	return t.repo.favorites.Put(t.tx, f)
}

func (t *storeTx) RecentlyViewed(owner string) model.RecentlyViewed {
	if v, ok := t.repo.recent.Find(t.tx, owner); ok {
		return v
	}
	return model.RecentlyViewed{Owner: owner}
}

func (t *storeTx) SaveRecentlyViewed(r model.RecentlyViewed) error {
	return t.repo.recent.Put(t.tx, r)
}
