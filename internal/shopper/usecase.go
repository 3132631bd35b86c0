package shopper

import (
	"context"
	"errors"

	"github.com/fekuna/chronostore/internal/model"
	"github.com/fekuna/chronostore/internal/shopper/dto"
)

var (
	ErrNoOwner            = errors.New("request has neither a user nor a session id")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInsufficientStock  = errors.New("not enough stock")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrPaymentDisabled    = errors.New("payment method is disabled")
)

// PaymentPolicy reports which payment methods the store accepts.
type PaymentPolicy interface {
	PaymentAllowed(ctx context.Context, m model.PaymentMethod) bool
}

type UseCase interface {
	Cart(ctx context.Context, owner string) (*dto.CartView, error)
	AddToCart(ctx context.Context, owner string, productID int64, quantity int) (*dto.CartView, error)
	// SetQuantity removes the line when quantity <= 0.
	SetQuantity(ctx context.Context, owner string, productID int64, quantity int) (*dto.CartView, error)
	RemoveFromCart(ctx context.Context, owner string, productID int64) (*dto.CartView, error)
	ClearCart(ctx context.Context, owner string) error

	ToggleFavorite(ctx context.Context, owner string, productID int64) (added bool, err error)
	Favorites(ctx context.Context, owner string) ([]model.Product, error)

	RecordView(ctx context.Context, owner string, productID int64) error
	RecentlyViewed(ctx context.Context, owner string) ([]model.Product, error)

	Checkout(ctx context.Context, owner string, input *dto.CheckoutInput) (*model.Order, error)
}
