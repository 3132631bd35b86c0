package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fekuna/chronostore/internal/auth"
	catUC "github.com/fekuna/chronostore/internal/catalog/usecase"
	"github.com/fekuna/chronostore/internal/currency"
	"github.com/fekuna/chronostore/internal/inventory"
	invDto "github.com/fekuna/chronostore/internal/inventory/dto"
	invRepo "github.com/fekuna/chronostore/internal/inventory/repository"
	invUC "github.com/fekuna/chronostore/internal/inventory/usecase"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/metrics"
	"github.com/fekuna/chronostore/internal/model"
	setRepo "github.com/fekuna/chronostore/internal/settings/repository"
	setUC "github.com/fekuna/chronostore/internal/settings/usecase"
	shopRepo "github.com/fekuna/chronostore/internal/shopper/repository"
	shopUC "github.com/fekuna/chronostore/internal/shopper/usecase"
	"github.com/fekuna/chronostore/internal/statistics"
	"github.com/gin-gonic/gin"
)

type staticAdmins map[string]bool

func (s staticAdmins) IsAdmin(_ context.Context, id string) (bool, error) { return s[id], nil }

type harness struct {
	handler http.Handler
	inv     inventory.UseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()

	store := storageFor(t)
	products := invRepo.NewStoreRepository(store)
	inv := invUC.NewInventoryUseCase(products, nil, nil, log)
	rates := currency.NewConverter(log)
	set := setUC.NewSettingsUseCase(setRepo.NewStoreRepository(store), nil, rates, log)
	if err := set.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	srv := NewServer(Deps{
		Catalog:    catUC.NewCatalogUseCase(products, nil, nil, nil, log),
		Shopper:    shopUC.NewShopperUseCase(shopRepo.NewStoreRepository(store), products, inv, set, log),
		Settings:   set,
		Statistics: statistics.NewAggregator(products, set, time.UTC, log),
		Currency:   rates,
		Resolver:   auth.NewResolver(staticAdmins{"owner": true}, log),
		Metrics:    metrics.NewRegistry(),
		Logger:     log,
	})
	return &harness{handler: srv.Handler(), inv: inv}
}

func (h *harness) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) product(t *testing.T, draft model.ProductDraft) model.Product {
	t.Helper()
	p, err := h.inv.CreateProduct(context.Background(), &invDto.ProductInput{ProductDraft: draft})
	if err != nil {
		t.Fatal(err)
	}
	return *p
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	if rec := h.do(t, http.MethodGet, "/api/health", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("health = %d", rec.Code)
	}
	rec := h.do(t, http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "chronostore_orders_placed_total") {
		t.Errorf("metrics = %d %s", rec.Code, rec.Body.String())
	}
}

func TestCatalogFiltersAndCurrency(t *testing.T) {
	h := newHarness(t)
	auto := h.product(t, model.ProductDraft{Brand: "Seiko", Title: "5 Sports", Price: 90000, Stock: 2, Attributes: model.Attributes{Movement: "automatic"}})
	h.product(t, model.ProductDraft{Brand: "Casio", Title: "Edifice", Price: 45000, Stock: 2, Attributes: model.Attributes{Movement: "quartz"}})

	rec := h.do(t, http.MethodGet, "/api/catalog?movement=automatic&currency=USD", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog = %d %s", rec.Code, rec.Body.String())
	}
	body := decode[struct {
		Products []struct {
			ID           int64  `json:"id"`
			DisplayPrice string `json:"display_price"`
		} `json:"products"`
		Total int `json:"total"`
	}](t, rec)
	if body.Total != 1 || body.Products[0].ID != auto.ID || body.Products[0].DisplayPrice != "200 $" {
		t.Errorf("catalog body = %+v", body)
	}

	rec = h.do(t, http.MethodGet, "/api/catalog?brand=Seiko,Casio&sort=price_asc", nil, nil)
	if got := decode[struct{ Total int }](t, rec); got.Total != 2 {
		t.Errorf("two brands total = %d", got.Total)
	}
}

func TestProductViewIsRecorded(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, model.ProductDraft{Brand: "Tissot", Title: "PRX", Price: 300000, Stock: 1})
	session := map[string]string{auth.HeaderSessionID: "s1"}

	if rec := h.do(t, http.MethodGet, "/api/catalog/"+itoa(p.ID), nil, session); rec.Code != http.StatusOK {
		t.Fatalf("get product = %d", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, "/api/catalog/123", nil, session); rec.Code != http.StatusNotFound {
		t.Errorf("unknown product = %d", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, "/api/catalog/abc", nil, session); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d", rec.Code)
	}

	recent := decode[struct {
		Products []model.Product `json:"products"`
	}](t, h.do(t, http.MethodGet, "/api/recent", nil, session))
	if len(recent.Products) != 1 || recent.Products[0].ID != p.ID {
		t.Errorf("recent = %+v", recent.Products)
	}
}

func TestCartAndCheckout(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, model.ProductDraft{Brand: "Longines", Title: "HydroConquest", Price: 1000000, Stock: 1})
	session := map[string]string{auth.HeaderSessionID: "cart-1"}

	if rec := h.do(t, http.MethodGet, "/api/cart", nil, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("cart without identity = %d", rec.Code)
	}

	rec := h.do(t, http.MethodPost, "/api/cart/items", map[string]any{"product_id": p.ID}, session)
	if rec.Code != http.StatusOK {
		t.Fatalf("add = %d %s", rec.Code, rec.Body.String())
	}
	if rec := h.do(t, http.MethodPut, "/api/cart/items/"+itoa(p.ID), map[string]any{"quantity": 5}, session); rec.Code != http.StatusConflict {
		t.Errorf("over stock = %d", rec.Code)
	}

	order := map[string]any{
		"customer":       map[string]string{"name": "Erlan", "phone": "+77017770000"},
		"payment_method": "transfer",
	}
	if rec := h.do(t, http.MethodPost, "/api/checkout", order, session); rec.Code != http.StatusBadRequest {
		t.Errorf("disabled payment = %d", rec.Code)
	}
	order["payment_method"] = "kaspi"
	rec = h.do(t, http.MethodPost, "/api/checkout", order, session)
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout = %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[model.Order](t, rec); got.Total != 1000000 {
		t.Errorf("order total = %d", got.Total)
	}

	cart := decode[struct{ Count int }](t, h.do(t, http.MethodGet, "/api/cart", nil, session))
	if cart.Count != 0 {
		t.Errorf("cart after checkout = %+v", cart)
	}
}

func TestStatisticsRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	if rec := h.do(t, http.MethodGet, "/api/admin/statistics", nil, map[string]string{
		auth.HeaderUserID: "intruder", auth.HeaderUserRole: "admin",
	}); rec.Code != http.StatusForbidden {
		t.Errorf("non-admin statistics = %d", rec.Code)
	}

	rec := h.do(t, http.MethodGet, "/api/admin/statistics", nil, map[string]string{
		auth.HeaderUserID: "owner", auth.HeaderUserRole: "admin",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin statistics = %d", rec.Code)
	}
	if got := decode[map[string]any](t, rec); got["total_revenue"] == nil {
		t.Errorf("statistics body = %v", got)
	}
}
