package admin

import (
	"context"

	"github.com/fekuna/chronostore/internal/model"
)

const CollectionAdmins = "admins"

type Repository interface {
	FindByID(ctx context.Context, id string) (*model.Admin, error)
	FindByPhone(ctx context.Context, phone string) (*model.Admin, error)
	List(ctx context.Context) ([]model.Admin, error)

	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

type Tx interface {
	List() []model.Admin
	Save(a model.Admin) error
	Remove(id string) bool
}
