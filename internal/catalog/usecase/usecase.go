package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fekuna/chronostore/internal/catalog"
	"github.com/fekuna/chronostore/internal/inventory"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/metrics"
	"github.com/fekuna/chronostore/internal/model"
	"github.com/fekuna/chronostore/internal/storage"
	"go.uber.org/zap"
)

const (
	cachePrefix = "catalog:list:"
	cacheTTL    = 5 * time.Minute
	searchLimit = 500
)

type catalogUseCase struct {
	repo     inventory.Repository
	searcher catalog.Searcher
	cache    catalog.Cache
	metrics  *metrics.Registry
	logger   logger.ZapLogger

	// generation is part of every cache key, so a result computed before a
	// product change can never be read after it.
	generation atomic.Uint64
}

// NewCatalogUseCase accepts a nil searcher or cache; search then falls back to
// substring matching and nothing is cached.
func NewCatalogUseCase(repo inventory.Repository, searcher catalog.Searcher, cache catalog.Cache, m *metrics.Registry, log logger.ZapLogger) catalog.UseCase {
	return &catalogUseCase{
		repo:     repo,
		searcher: searcher,
		cache:    cache,
		metrics:  m,
		logger:   log,
	}
}

func (uc *catalogUseCase) List(ctx context.Context, q catalog.Query) (*catalog.Result, error) {
	q = normalize(q)

	cacheKey := ""
	if uc.cache != nil {
		cacheKey = generateCacheKey(q, uc.generation.Load())
		if data, ok, err := uc.cache.Get(ctx, cacheKey); err == nil && ok {
			var res catalog.Result
			if err := json.Unmarshal(data, &res); err == nil {
				uc.metrics.CacheLookup(true)
				return &res, nil
			}
		} else if err != nil {
			uc.logger.Warn("catalog cache read failed", zap.Error(err))
		}
		uc.metrics.CacheLookup(false)
	}

	products, err := uc.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if q.Search != "" {
		products = uc.search(ctx, products, q.Search)
	}

	filtered := catalog.Apply(products, q.Selection, q.Sort)
	res := &catalog.Result{
		Total:  len(filtered),
		Facets: catalog.Facets(products),
	}
	res.Products = paginate(filtered, q.Page, q.PageSize)

	if cacheKey != "" {
		if data, err := json.Marshal(res); err == nil {
			if err := uc.cache.Set(ctx, cacheKey, data, cacheTTL); err != nil {
				uc.logger.Warn("catalog cache write failed", zap.Error(err))
			}
		}
	}
	return res, nil
}

func (uc *catalogUseCase) Get(ctx context.Context, id int64) (*model.Product, error) {
	return uc.repo.FindActive(ctx, id)
}

func (uc *catalogUseCase) Invalidate() {
	uc.generation.Add(1)
}

// search keeps the products matching text. The search index is tried first;
// when it is missing or failing a case-insensitive substring match is used.
func (uc *catalogUseCase) search(ctx context.Context, products []model.Product, text string) []model.Product {
	if uc.searcher != nil {
		ids, err := uc.searcher.SearchIDs(ctx, text, searchLimit)
		if err == nil {
			keep := make(map[int64]struct{}, len(ids))
			for _, id := range ids {
				keep[id] = struct{}{}
			}
			out := products[:0]
			for _, p := range products {
				if _, ok := keep[p.ID]; ok {
					out = append(out, p)
				}
			}
			return out
		}
		uc.logger.Error("search index query failed, falling back to substring match", zap.Error(err))
	}

	needle := strings.ToLower(text)
	out := products[:0]
	for _, p := range products {
		if strings.Contains(searchText(p), needle) {
			out = append(out, p)
		}
	}
	return out
}

func searchText(p model.Product) string {
	return strings.ToLower(strings.Join([]string{
		p.Brand, p.Title, p.Movement, p.DialColor, p.CaseMaterial, p.StrapMaterial,
	}, " "))
}

// Watch invalidates uc on every active or archived product change. Stale
// entries are also deleted from cache in the background to free space.
func Watch(bus *storage.Bus, uc catalog.UseCase, cache catalog.Cache, log logger.ZapLogger) (stop func()) {
	invalidate := func(storage.Event) {
		uc.Invalidate()
		if cache == nil {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := cache.DeletePrefix(ctx, cachePrefix); err != nil {
				log.Warn("catalog cache invalidation failed", zap.Error(err))
			}
		}()
	}
	stopActive := bus.Subscribe(inventory.CollectionProducts, invalidate)
	stopArchive := bus.Subscribe(inventory.CollectionArchive, invalidate)
	return func() {
		stopActive()
		stopArchive()
	}
}

func normalize(q catalog.Query) catalog.Query {
	q.Sort = catalog.ParseSortKey(string(q.Sort))
	q.Search = strings.TrimSpace(q.Search)
	sel := make(catalog.Selection, len(q.Selection))
	for attr, values := range q.Selection {
		if len(values) == 0 {
			continue
		}
		vs := append([]string(nil), values...)
		sort.Strings(vs)
		sel[attr] = vs
	}
	q.Selection = sel
	return q
}

func generateCacheKey(q catalog.Query, generation uint64) string {
	data, _ := json.Marshal(q)
	return fmt.Sprintf("%s%d:%x", cachePrefix, generation, md5.Sum(data))
}

func paginate(products []model.Product, page, size int) []model.Product {
	if size <= 0 {
		return products
	}
	page = max(page, 1)
	start := min((page-1)*size, len(products))
	end := min(start+size, len(products))
	return products[start:end]
}
