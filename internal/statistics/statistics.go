// Package statistics folds products and orders into dashboard figures.
package statistics

import (
	"sort"
	"time"

	"github.com/fekuna/chronostore/internal/model"
)

const (
	SeriesDays = 7
	TopN       = 5
	dateLayout = "2006-01-02"
)

type DayStat struct {
	Date    string `json:"date"`
	Orders  int    `json:"orders"`
	Revenue int64  `json:"revenue"`
}

type ProductSales struct {
	ProductID int64  `json:"product_id"`
	Brand     string `json:"brand"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	Revenue   int64  `json:"revenue"`
}

type Snapshot struct {
	TotalProducts    int            `json:"total_products"`
	ArchivedProducts int            `json:"archived_products"`
	TotalOrders      int            `json:"total_orders"`
	TotalRevenue     int64          `json:"total_revenue"`
	PendingOrders    int            `json:"pending_orders"`
	CompletedOrders  int            `json:"completed_orders"`
	Daily            []DayStat      `json:"daily"`
	TopProducts      []ProductSales `json:"top_products"`
	LowStock         []int64        `json:"low_stock,omitempty"`
}

// Compute is a pure fold over the collections. Days are calendar days in
// loc; Daily is oldest first and ends with the day containing now.
// Orders are expected in creation order, which decides ties in TopProducts.
func Compute(active, archived []model.Product, orders []model.Order, now time.Time, loc *time.Location) Snapshot {
	if loc == nil {
		loc = time.UTC
	}
	s := Snapshot{
		TotalProducts:    len(active),
		ArchivedProducts: len(archived),
		TotalOrders:      len(orders),
		Daily:            make([]DayStat, SeriesDays),
		TopProducts:      []ProductSales{},
	}

	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayIndex := make(map[string]int, SeriesDays)
	for i := 0; i < SeriesDays; i++ {
		d := today.AddDate(0, 0, i-(SeriesDays-1)).Format(dateLayout)
		s.Daily[i] = DayStat{Date: d}
		dayIndex[d] = i
	}

	sales := map[int64]int{}
	for _, o := range orders {
		revenue := o.Status.RecognizesRevenue()
		if revenue {
			s.TotalRevenue += o.Total
		}
		if o.Status.Outstanding() {
			s.PendingOrders++
		}
		if revenue {
			s.CompletedOrders++
		}

		if i, ok := dayIndex[o.CreatedAt.In(loc).Format(dateLayout)]; ok {
			s.Daily[i].Orders++
			if revenue {
				s.Daily[i].Revenue += o.Total
			}
		}

		for _, it := range o.Items {
			idx, ok := sales[it.ProductID]
			if !ok {
				idx = len(s.TopProducts)
				sales[it.ProductID] = idx
				s.TopProducts = append(s.TopProducts, ProductSales{
					ProductID: it.ProductID,
					Brand:     it.Brand,
					Title:     it.Title,
				})
			}
			s.TopProducts[idx].Quantity += it.Quantity
			s.TopProducts[idx].Revenue += it.Subtotal()
		}
	}

	sort.SliceStable(s.TopProducts, func(i, j int) bool {
		return s.TopProducts[i].Quantity > s.TopProducts[j].Quantity
	})
	if len(s.TopProducts) > TopN {
		s.TopProducts = s.TopProducts[:TopN]
	}
	return s
}

// LowStock lists active products at or below threshold, lowest first.
func LowStock(active []model.Product, threshold int) []int64 {
	var low []model.Product
	for _, p := range active {
		if p.Stock <= threshold {
			low = append(low, p)
		}
	}
	sort.SliceStable(low, func(i, j int) bool { return low[i].Stock < low[j].Stock })
	ids := make([]int64, len(low))
	for i, p := range low {
		ids[i] = p.ID
	}
	return ids
}
