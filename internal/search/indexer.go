package search

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/chronostore/internal/inventory"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/metrics"
	"github.com/fekuna/chronostore/internal/model"
	"github.com/fekuna/chronostore/internal/storage"
	"go.uber.org/zap"
)

const indexTimeout = 10 * time.Second

// Index is the part of ProductIndex the Indexer writes to.
type Index interface {
	EnsureIndex(ctx context.Context) error
	Put(ctx context.Context, p model.Product) error
	Remove(ctx context.Context, id int64) error
}

// Indexer keeps the search index in line with the active products. Change
// events only name the product; its current state is re-read when the
// queue is drained, so events arriving out of order still converge.
type Indexer struct {
	index   Index
	repo    inventory.Repository
	metrics *metrics.Registry
	logger  logger.ZapLogger

	mu      sync.Mutex
	pending map[int64]struct{}
	wake    chan struct{}
}

func NewIndexer(index Index, repo inventory.Repository, m *metrics.Registry, log logger.ZapLogger) *Indexer {
	return &Indexer{
		index:   index,
		repo:    repo,
		metrics: m,
		logger:  log,
		pending: make(map[int64]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// Reindex pushes every active product.
func (i *Indexer) Reindex(ctx context.Context) error {
	if err := i.index.EnsureIndex(ctx); err != nil {
		return err
	}
	products, err := i.repo.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		if err := i.index.Put(ctx, p); err != nil {
			i.metrics.IndexFailed()
			return err
		}
	}
	i.logger.Info("search index rebuilt", zap.Int("products", len(products)))
	return nil
}

// Watch subscribes to product changes before returning and indexes them in
// the background until ctx is done.
func (i *Indexer) Watch(ctx context.Context, bus *storage.Bus) {
	stopActive := bus.Subscribe(inventory.CollectionProducts, i.enqueue)
	stopArchive := bus.Subscribe(inventory.CollectionArchive, i.enqueue)
	go func() {
		defer stopActive()
		defer stopArchive()
		i.loop(ctx)
	}()
}

func (i *Indexer) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-i.wake:
			i.drain(ctx)
		}
	}
}

func (i *Indexer) enqueue(e storage.Event) {
	id, err := model.ParseKey(e.ID)
	if err != nil {
		return
	}
	i.mu.Lock()
	i.pending[id] = struct{}{}
	i.mu.Unlock()

	select {
	case i.wake <- struct{}{}:
	default:
	}
}

func (i *Indexer) drain(ctx context.Context) {
	i.mu.Lock()
	batch := i.pending
	i.pending = make(map[int64]struct{})
	i.mu.Unlock()

	for id := range batch {
		i.sync(ctx, id)
	}
}

func (i *Indexer) sync(parent context.Context, id int64) {
	ctx, cancel := context.WithTimeout(parent, indexTimeout)
	defer cancel()

	p, err := i.repo.FindActive(ctx, id)
	if err != nil {
		i.logger.Error("failed to read product for indexing", zap.Int64("product_id", id), zap.Error(err))
		return
	}
	if p != nil {
		err = i.index.Put(ctx, *p)
	} else {
		err = i.index.Remove(ctx, id)
	}
	if err != nil {
		i.metrics.IndexFailed()
		i.logger.Error("failed to sync product to search index", zap.Int64("product_id", id), zap.Error(err))
	}
}
