package repository

import (
	"context"

	"github.com/fekuna/chronostore/internal/admin"
	"github.com/fekuna/chronostore/internal/model"
	"github.com/fekuna/chronostore/internal/storage"
)

type StoreRepository struct {
	store  *storage.Store
	admins *storage.Collection[model.Admin]
}

func NewStoreRepository(store *storage.Store) *StoreRepository {
	return &StoreRepository{
		store:  store,
		admins: storage.NewCollection[model.Admin](store, admin.CollectionAdmins),
	}
}

func (r *StoreRepository) FindByID(_ context.Context, id string) (*model.Admin, error) {
	a, ok := r.admins.Get(id)
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *StoreRepository) FindByPhone(_ context.Context, phone string) (*model.Admin, error) {
	for _, a := range r.admins.List() {
		if a.Phone == phone {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *StoreRepository) List(_ context.Context) ([]model.Admin, error) {
	return r.admins.List(), nil
}

func (r *StoreRepository) WithTx(ctx context.Context, fn func(tx admin.Tx) error) error {
	return r.store.Update(ctx, func(stx *storage.Tx) error {
		return fn(&storeTx{admins: r.admins, tx: stx})
	})
}

type storeTx struct {
	admins *storage.Collection[model.Admin]
	tx     *storage.Tx
}

func (t *storeTx) List() []model.Admin {
	return t.admins.ListIn(t.tx)
}

func (t *storeTx) Save(a model.Admin) error {
	return t.admins.Put(t.tx, a)
}

func (t *storeTx) Remove(id string) bool {
	return t.admins.Delete(t.tx, id)
}
