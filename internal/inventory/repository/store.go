package repository

import (
	"context"

	"github.com/fekuna/chronostore/internal/inventory"
	"github.com/fekuna/chronostore/internal/model"
	"github.com/fekuna/chronostore/internal/storage"
)

type StoreRepository struct {
	store    *storage.Store
	products *storage.Collection[model.Product]
	archive  *storage.Collection[model.Product]
	orders   *storage.Collection[model.Order]
}

// NewStoreRepository registers the product, archive and order collections.
// Call it before store.Load.
func NewStoreRepository(store *storage.Store) *StoreRepository {
	return &StoreRepository{
		store:    store,
		products: storage.NewCollection[model.Product](store, inventory.CollectionProducts),
		archive:  storage.NewCollection[model.Product](store, inventory.CollectionArchive),
		orders:   storage.NewCollection[model.Order](store, inventory.CollectionOrders),
	}
}

func (r *StoreRepository) FindActive(_ context.Context, id int64) (*model.Product, error) {
	p, ok := r.products.Get(model.Key(id))
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *StoreRepository) FindArchived(_ context.Context, id int64) (*model.Product, error) {
	p, ok := r.archive.Get(model.Key(id))
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *StoreRepository) FindOrder(_ context.Context, id int64) (*model.Order, error) {
	o, ok := r.orders.Get(model.Key(id))
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *StoreRepository) ListActive(_ context.Context) ([]model.Product, error) {
	return r.products.List(), nil
}

func (r *StoreRepository) ListArchived(_ context.Context) ([]model.Product, error) {
	return r.archive.List(), nil
}

func (r *StoreRepository) ListOrders(_ context.Context) ([]model.Order, error) {
	return r.orders.List(), nil
}

func (r *StoreRepository) Snapshot(_ context.Context) (*inventory.Snapshot, error) {
	var snap inventory.Snapshot
	r.store.View(func() {
		snap.Active = r.products.List()
		snap.Archived = r.archive.List()
		snap.Orders = r.orders.List()
	})
	return &snap, nil
}

func (r *StoreRepository) WithTx(ctx context.Context, fn func(tx inventory.Tx) error) error {
	return r.store.Update(ctx, func(stx *storage.Tx) error {
		return fn(&storeTx{repo: r, tx: stx})
	})
}

type storeTx struct {
	repo *StoreRepository
	tx   *storage.Tx
}

func (t *storeTx) FindActive(id int64) (*model.Product, bool) {
	p, ok := t.repo.products.Find(t.tx, model.Key(id))
	return &p, ok
}

func (t *storeTx) FindArchived(id int64) (*model.Product, bool) {
	p, ok := t.repo.archive.Find(t.tx, model.Key(id))
	return &p, ok
}

func (t *storeTx) FindOrder(id int64) (*model.Order, bool) {
	o, ok := t.repo.orders.Find(t.tx, model.Key(id))
	return &o, ok
}

func (t *storeTx) SaveActive(p model.Product) error {
	p.Archived = false
	return t.repo.products.Put(t.tx, p)
}

func (t *storeTx) SaveArchived(p model.Product) error {
	p.Archived = true
	return t.repo.archive.Put(t.tx, p)
}

func (t *storeTx) SaveOrder(o model.Order) error {
	return t.repo.orders.Put(t.tx, o)
}

func (t *storeTx) RemoveActive(id int64) bool {
	return t.repo.products.Delete(t.tx, model.Key(id))
}

func (t *storeTx) RemoveArchived(id int64) bool {
	return t.repo.archive.Delete(t.tx, model.Key(id))
}
