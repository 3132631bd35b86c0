package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry methods are safe to call on a nil *Registry.
type Registry struct {
	reg                  *prometheus.Registry
	OrdersPlaced         prometheus.Counter
	OrderValue           prometheus.Histogram
	ProductsArchived     prometheus.Counter
	ProductsRestored     prometheus.Counter
	NotificationFailures prometheus.Counter
	StockEventsApplied   *prometheus.CounterVec
	SearchIndexFailures  prometheus.Counter
	CatalogCache         *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{Name: "chronostore_orders_placed_total"})
	orderValue := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chronostore_order_value_kzt",
		Buckets: prometheus.ExponentialBuckets(10000, 2, 10),
	})
	archived := prometheus.NewCounter(prometheus.CounterOpts{Name: "chronostore_products_archived_total"})
	restored := prometheus.NewCounter(prometheus.CounterOpts{Name: "chronostore_products_restored_total"})
	notifyFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "chronostore_notification_failures_total"})
	stockEvents := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "chronostore_stock_events_total"}, []string{"result"})

	indexFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "chronostore_search_index_failures_total"})
	catalogCache := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "chronostore_catalog_cache_total"}, []string{"result"})

	r.MustRegister(ordersPlaced, orderValue, archived, restored, notifyFailed, stockEvents, indexFailed, catalogCache)
	return &Registry{
		reg:                  r,
		OrdersPlaced:         ordersPlaced,
		OrderValue:           orderValue,
		ProductsArchived:     archived,
		ProductsRestored:     restored,
		NotificationFailures: notifyFailed,
		StockEventsApplied:   stockEvents,
		SearchIndexFailures:  indexFailed,
		CatalogCache:         catalogCache,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func (r *Registry) OrderPlaced(total int64) {
	if r == nil {
		return
	}
	r.OrdersPlaced.Inc()
	r.OrderValue.Observe(float64(total))
}

func (r *Registry) Archived(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.ProductsArchived.Add(float64(n))
}

func (r *Registry) Restored() {
	if r == nil {
		return
	}
	r.ProductsRestored.Inc()
}

func (r *Registry) NotificationFailed() {
	if r == nil {
		return
	}
	r.NotificationFailures.Inc()
}

func (r *Registry) StockEvent(result string) {
	if r == nil {
		return
	}
	r.StockEventsApplied.WithLabelValues(result).Inc()
}

func (r *Registry) IndexFailed() {
	if r == nil {
		return
	}
	r.SearchIndexFailures.Inc()
}

// CacheLookup records a catalog cache hit or miss.
func (r *Registry) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.CatalogCache.WithLabelValues(result).Inc()
}
