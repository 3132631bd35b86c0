package repository

import (
	"context"

	"github.com/fekuna/chronostore/internal/model"
	"github.com/fekuna/chronostore/internal/settings"
	"github.com/fekuna/chronostore/internal/storage"
)

type StoreRepository struct {
	store    *storage.Store
	settings *storage.Collection[model.Settings]
}

func NewStoreRepository(store *storage.Store) *StoreRepository {
	return &StoreRepository{
		store:    store,
		settings: storage.NewCollection[model.Settings](store, settings.CollectionSettings),
	}
}

func (r *StoreRepository) Get(_ context.Context) (*model.Settings, error) {
	s, ok := r.settings.Get(model.SettingsKey)
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *StoreRepository) Save(ctx context.Context, s model.Settings) error {
	return r.store.Update(ctx, func(tx *storage.Tx) error {
		return r.settings.Put(tx, s)
	})
}
