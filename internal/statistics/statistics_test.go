package statistics

import (
	"reflect"
	"testing"
	"time"

	"github.com/fekuna/chronostore/internal/model"
)

var almaty = time.FixedZone("ALMT", 5*60*60)

func order(id int64, status model.OrderStatus, created time.Time, items ...model.LineItem) model.Order {
	var total int64
	for _, it := range items {
		total += it.Subtotal()
	}
	return model.Order{ID: id, Status: status, Items: items, Total: total, BaseModel: model.BaseModel{CreatedAt: created}}
}

func item(productID int64, qty int, price int64) model.LineItem {
	return model.LineItem{ProductID: productID, Quantity: qty, Price: price, Title: "w"}
}

func TestComputeEmpty(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, almaty)
	s := Compute(nil, nil, nil, now, almaty)

	if s.TotalOrders != 0 || s.TotalRevenue != 0 || s.PendingOrders != 0 || len(s.TopProducts) != 0 {
		t.Errorf("unexpected snapshot %+v", s)
	}
	if s.TopProducts == nil {
		t.Error("TopProducts should be an empty list, not nil")
	}
	if len(s.Daily) != SeriesDays {
		t.Fatalf("daily len = %d", len(s.Daily))
	}
	for _, d := range s.Daily {
		if d.Orders != 0 || d.Revenue != 0 {
			t.Errorf("day %+v not zero", d)
		}
	}
	if s.Daily[0].Date != "2026-06-09" || s.Daily[6].Date != "2026-06-15" {
		t.Errorf("series spans %s..%s", s.Daily[0].Date, s.Daily[6].Date)
	}
}

func TestComputeRevenueAndSeries(t *testing.T) {
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, almaty)
	orders := []model.Order{
		order(1, model.OrderStatusCompleted, now.AddDate(0, 0, -10), item(1, 1, 1000)),
		order(2, model.OrderStatusDelivered, now.Add(-time.Hour), item(2, 2, 500)),
		order(3, model.OrderStatusPending, now.Add(-2*time.Hour), item(1, 1, 1000)),
		order(4, model.OrderStatusCancelled, now.AddDate(0, 0, -1), item(3, 9, 1)),
		order(5, model.OrderStatusNew, now.AddDate(0, 0, -6), item(2, 1, 500)),
		order(6, model.OrderStatusProcessing, now.AddDate(0, 0, -1), item(4, 1, 1)),
		// 23:30 UTC on the 14th is already the 15th in Almaty.
		order(7, model.OrderStatusCompleted, time.Date(2026, 6, 14, 23, 30, 0, 0, time.UTC), item(5, 1, 300)),
	}
	active := []model.Product{{ID: 1}, {ID: 2}}
	archived := []model.Product{{ID: 3}}

	s := Compute(active, archived, orders, now, almaty)

	if s.TotalProducts != 2 || s.ArchivedProducts != 1 || s.TotalOrders != 7 {
		t.Errorf("counts = %+v", s)
	}
	if s.TotalRevenue != 1000+1000+300 {
		t.Errorf("revenue = %d", s.TotalRevenue)
	}
	if s.PendingOrders != 3 {
		t.Errorf("pending = %d, want 3", s.PendingOrders)
	}
	if s.CompletedOrders != 3 {
		t.Errorf("completed = %d, want 3", s.CompletedOrders)
	}

	today := s.Daily[6]
	if today.Orders != 3 || today.Revenue != 1300 {
		t.Errorf("today = %+v, want 3 orders and 1300 revenue", today)
	}
	if s.Daily[5].Orders != 2 || s.Daily[5].Revenue != 0 {
		t.Errorf("yesterday = %+v", s.Daily[5])
	}
	if s.Daily[0].Orders != 1 {
		t.Errorf("six days ago = %+v", s.Daily[0])
	}
}

func TestTopProductsStableAndCapped(t *testing.T) {
	now := time.Now()
	var orders []model.Order
	// Products 10..16 each sell 1, except 13 which sells 3.
	for i, pid := range []int64{10, 11, 12, 13, 14, 15, 16} {
		qty := 1
		if pid == 13 {
			qty = 3
		}
		orders = append(orders, order(int64(i+1), model.OrderStatusCancelled, now, item(pid, qty, 10)))
	}

	s := Compute(nil, nil, orders, now, time.UTC)
	var got []int64
	for _, p := range s.TopProducts {
		got = append(got, p.ProductID)
	}
	if want := []int64{13, 10, 11, 12, 14}; !reflect.DeepEqual(got, want) {
		t.Errorf("top = %v, want %v", got, want)
	}
}

func TestComputeIsPure(t *testing.T) {
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	orders := []model.Order{order(1, model.OrderStatusCompleted, now, item(1, 2, 5))}
	a := Compute([]model.Product{{ID: 1}}, nil, orders, now, time.UTC)
	b := Compute([]model.Product{{ID: 1}}, nil, orders, now, time.UTC)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("results differ:\n%+v\n%+v", a, b)
	}
}

func TestLowStock(t *testing.T) {
	got := LowStock([]model.Product{{ID: 1, Stock: 5}, {ID: 2, Stock: 2}, {ID: 3, Stock: 1}}, 2)
	if want := []int64{3, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("LowStock() = %v, want %v", got, want)
	}
}
