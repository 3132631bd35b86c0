package inventory

import (
	"context"
	"errors"

	"github.com/fekuna/chronostore/internal/inventory/dto"
	"github.com/fekuna/chronostore/internal/model"
)

// ErrNothingAvailable rejects an order none of whose products is on sale.
var ErrNothingAvailable = errors.New("none of the ordered products is available")

type UseCase interface {
	PlaceOrder(ctx context.Context, input *dto.PlaceOrderInput) (*model.Order, error)
	UpdateStock(ctx context.Context, productID int64, newStock int) error
	RestoreFromArchive(ctx context.Context, productID int64, initialStock int) error
	DeleteFromArchive(ctx context.Context, productID int64) error
	DeleteProduct(ctx context.Context, productID int64) error
	UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	CreateProduct(ctx context.Context, input *dto.ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, productID int64, input *dto.ProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, productID int64) (*model.Product, error)
	ListActive(ctx context.Context) ([]model.Product, error)
	ListArchived(ctx context.Context) ([]model.Product, error)
	ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)
	GetOrder(ctx context.Context, orderID int64) (*model.Order, error)
}
