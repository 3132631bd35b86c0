package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/chronostore/internal/catalog"
	"github.com/fekuna/chronostore/internal/inventory"
	"github.com/fekuna/chronostore/internal/inventory/repository"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/metrics"
	"github.com/fekuna/chronostore/internal/model"
	"github.com/fekuna/chronostore/internal/storage"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *mapCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

type stubSearcher struct {
	ids []int64
	err error
}

func (s stubSearcher) SearchIDs(context.Context, string, int) ([]int64, error) { return s.ids, s.err }

func seed(t *testing.T) (*storage.Store, inventory.Repository) {
	t.Helper()
	store := storage.NewStore(storage.NewMemoryKV(), logger.NewNop())
	repo := repository.NewStoreRepository(store)
	err := repo.WithTx(context.Background(), func(tx inventory.Tx) error {
		for _, p := range []model.Product{
			{ID: 1, Brand: "Casio", Title: "G-Shock", Price: 60000, Stock: 3, Attributes: model.Attributes{Movement: "quartz"}},
			{ID: 2, Brand: "Seiko", Title: "Presage Cocktail", Price: 250000, Stock: 1, Attributes: model.Attributes{Movement: "automatic"}},
			{ID: 3, Brand: "Orient", Title: "Bambino", Price: 120000, Stock: 2, Attributes: model.Attributes{Movement: "automatic"}},
		} {
			if err := tx.SaveActive(p); err != nil {
				return err
			}
		}
		return tx.SaveArchived(model.Product{ID: 4, Brand: "Seiko", Title: "Alpinist", Archived: true})
	})
	if err != nil {
		t.Fatal(err)
	}
	return store, repo
}

func ids(products []model.Product) []int64 {
	out := make([]int64, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func equal(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestListFiltersSortsAndPages(t *testing.T) {
	_, repo := seed(t)
	uc := NewCatalogUseCase(repo, nil, nil, nil, logger.NewNop())
	ctx := context.Background()

	res, err := uc.List(ctx, catalog.Query{
		Selection: catalog.Selection{catalog.AttrMovement: {"automatic"}},
		Sort:      "price_asc",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(res.Products); !equal(got, []int64{3, 2}) || res.Total != 2 {
		t.Errorf("automatic by price = %v (total %d)", got, res.Total)
	}
	if res.Facets[catalog.AttrBrand]["Seiko"] != 1 {
		t.Errorf("facets count archived products: %v", res.Facets[catalog.AttrBrand])
	}

	res, _ = uc.List(ctx, catalog.Query{Sort: "bogus", Page: 2, PageSize: 2})
	if got := ids(res.Products); !equal(got, []int64{1}) || res.Total != 3 {
		t.Errorf("page 2 = %v (total %d)", got, res.Total)
	}
}

func TestSearchFallsBackToSubstring(t *testing.T) {
	_, repo := seed(t)
	ctx := context.Background()

	viaIndex := NewCatalogUseCase(repo, stubSearcher{ids: []int64{1, 4}}, nil, nil, logger.NewNop())
	res, _ := viaIndex.List(ctx, catalog.Query{Search: "anything"})
	if got := ids(res.Products); !equal(got, []int64{1}) {
		t.Errorf("index search = %v, want only active hit 1", got)
	}

	broken := NewCatalogUseCase(repo, stubSearcher{err: errors.New("down")}, nil, nil, logger.NewNop())
	res, _ = broken.List(ctx, catalog.Query{Search: " cocktail "})
	if got := ids(res.Products); !equal(got, []int64{2}) {
		t.Errorf("fallback search = %v, want [2]", got)
	}
}

func TestCacheHitAndInvalidation(t *testing.T) {
	store, repo := seed(t)
	cache := newMapCache()
	m := metrics.NewRegistry()
	uc := NewCatalogUseCase(repo, nil, cache, m, logger.NewNop())
	stop := Watch(store.Bus(), uc, cache, logger.NewNop())
	defer stop()
	ctx := context.Background()

	q := catalog.Query{Selection: catalog.Selection{catalog.AttrMovement: {"automatic", "quartz"}}}
	first, _ := uc.List(ctx, q)
	// Same selection in a different order maps to the same key.
	q.Selection[catalog.AttrMovement] = []string{"quartz", "automatic"}
	second, _ := uc.List(ctx, q)
	if first.Total != second.Total || cache.len() != 1 {
		t.Fatalf("cache entries = %d", cache.len())
	}
	if hits := testutil.ToFloat64(m.CatalogCache.WithLabelValues("hit")); hits != 1 {
		t.Errorf("cache hits = %v, want 1", hits)
	}

	if err := repo.WithTx(ctx, func(tx inventory.Tx) error { tx.RemoveActive(1); return nil }); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for cache.len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("cache not invalidated")
		}
		time.Sleep(5 * time.Millisecond)
	}
	res, _ := uc.List(ctx, q)
	if res.Total != 2 {
		t.Errorf("after delete total = %d, want 2", res.Total)
	}
}

func TestGetHidesArchived(t *testing.T) {
	_, repo := seed(t)
	uc := NewCatalogUseCase(repo, nil, nil, nil, logger.NewNop())
	if p, _ := uc.Get(context.Background(), 4); p != nil {
		t.Errorf("archived product visible: %+v", p)
	}
	if p, _ := uc.Get(context.Background(), 2); p == nil || p.Brand != "Seiko" {
		t.Errorf("Get(2) = %+v", p)
	}
}

// archivingRepo moves a product to the archive right after the active list
// is read, before the caller gets to cache its result.
type archivingRepo struct {
	inventory.Repository
	archiveID int64
}

func (r *archivingRepo) ListActive(ctx context.Context) ([]model.Product, error) {
	products, err := r.Repository.ListActive(ctx)
	if err != nil || r.archiveID == 0 {
		return products, err
	}
	id := r.archiveID
	r.archiveID = 0
	err = r.Repository.WithTx(ctx, func(tx inventory.Tx) error {
		p, ok := tx.FindActive(id)
		if !ok {
			return nil
		}
		tx.RemoveActive(id)
		p.Stock = 0
		p.Archived = true
		return tx.SaveArchived(*p)
	})
	return products, err
}

func TestCachedListNeverOutlivesArchive(t *testing.T) {
	store, repo := seed(t)
	cache := newMapCache()
	racing := &archivingRepo{Repository: repo, archiveID: 2}
	uc := NewCatalogUseCase(racing, nil, cache, nil, logger.NewNop())
	stop := Watch(store.Bus(), uc, cache, logger.NewNop())
	defer stop()
	ctx := context.Background()

	stale, err := uc.List(ctx, catalog.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(stale.Products); !equal(got, []int64{3, 2, 1}) {
		t.Fatalf("first list = %v", got)
	}
	if archived, _ := repo.FindArchived(ctx, 2); archived == nil {
		t.Fatal("product 2 was not archived")
	}

	res, err := uc.List(ctx, catalog.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(res.Products); !equal(got, []int64{3, 1}) {
		t.Errorf("list after archive = %v, want [3 1]", got)
	}
}
