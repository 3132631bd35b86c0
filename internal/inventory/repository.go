package inventory

import (
	"context"

	"github.com/fekuna/chronostore/internal/model"
)

// Collection names in the durable store.
const (
	CollectionProducts = "products"
	CollectionArchive  = "archive"
	CollectionOrders   = "orders"
)

type Repository interface {
	// Lookups return (nil, nil) when the id is unknown.
	FindActive(ctx context.Context, id int64) (*model.Product, error)
	FindArchived(ctx context.Context, id int64) (*model.Product, error)
	FindOrder(ctx context.Context, id int64) (*model.Order, error)

	ListActive(ctx context.Context) ([]model.Product, error)
	ListArchived(ctx context.Context) ([]model.Product, error)
	ListOrders(ctx context.Context) ([]model.Order, error)

	// Snapshot reads all three collections at one consistent point.
	Snapshot(ctx context.Context) (*Snapshot, error)

	// WithTx applies every write made through tx atomically, or none of them.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

type Tx interface {
	FindActive(id int64) (*model.Product, bool)
	FindArchived(id int64) (*model.Product, bool)
	FindOrder(id int64) (*model.Order, bool)

	SaveActive(p model.Product) error
	SaveArchived(p model.Product) error
	SaveOrder(o model.Order) error

	RemoveActive(id int64) bool
	RemoveArchived(id int64) bool
}

type Snapshot struct {
	Active   []model.Product
	Archived []model.Product
	Orders   []model.Order
}
