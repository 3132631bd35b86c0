package catalog

import (
	"context"
	"time"

	"github.com/fekuna/chronostore/internal/model"
)

type Query struct {
	Selection Selection `json:"selection,omitempty"`
	Sort      SortKey   `json:"sort,omitempty"`
	Search    string    `json:"search,omitempty"`
	Page      int       `json:"page,omitempty"`
	PageSize  int       `json:"page_size,omitempty"`
}

type Result struct {
	Products []model.Product              `json:"products"`
	Total    int                          `json:"total"`
	Facets   map[Attribute]map[string]int `json:"facets"`
}

// Searcher resolves free text to product ids.
type Searcher interface {
	SearchIDs(ctx context.Context, text string, limit int) ([]int64, error)
}

// Cache stores encoded catalog results.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

type UseCase interface {
	List(ctx context.Context, q Query) (*Result, error)
	// Get returns nil for unknown and archived products.
	Get(ctx context.Context, id int64) (*model.Product, error)
	// Invalidate retires every cached List result. It must be called
	// synchronously on each product change.
	Invalidate()
}
