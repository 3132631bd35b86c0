package settings

import (
	"context"

	"github.com/fekuna/chronostore/internal/model"
)

const CollectionSettings = "settings"

// Remote is the authoritative settings record shared by every instance.
type Remote interface {
	Fetch(ctx context.Context) (*model.Settings, error)
	Save(ctx context.Context, s model.Settings) error
}

// Local mirrors the last known settings in the durable store.
type Local interface {
	Get(ctx context.Context) (*model.Settings, error)
	Save(ctx context.Context, s model.Settings) error
}
