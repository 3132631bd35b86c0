package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fekuna/chronostore/internal/inventory"
	invDto "github.com/fekuna/chronostore/internal/inventory/dto"
	invRepo "github.com/fekuna/chronostore/internal/inventory/repository"
	invUC "github.com/fekuna/chronostore/internal/inventory/usecase"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/model"
	"github.com/fekuna/chronostore/internal/shopper"
	"github.com/fekuna/chronostore/internal/shopper/dto"
	"github.com/fekuna/chronostore/internal/shopper/repository"
	"github.com/fekuna/chronostore/internal/storage"
)

type allowList map[model.PaymentMethod]bool

func (a allowList) PaymentAllowed(_ context.Context, m model.PaymentMethod) bool { return a[m] }

type fixture struct {
	uc        shopper.UseCase
	inventory inventory.UseCase
	products  inventory.Repository
	repo      shopper.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewStore(storage.NewMemoryKV(), logger.NewNop())
	products := invRepo.NewStoreRepository(store)
	inv := invUC.NewInventoryUseCase(products, nil, nil, logger.NewNop())
	repo := repository.NewStoreRepository(store)
	uc := NewShopperUseCase(repo, products, inv,
		allowList{model.PaymentCard: true, model.PaymentKaspi: true}, logger.NewNop())
	return &fixture{uc: uc, inventory: inv, products: products, repo: repo}
}

func (f *fixture) product(t *testing.T, brand string, price int64, stock int) model.Product {
	t.Helper()
	p, err := f.inventory.CreateProduct(context.Background(), &invDto.ProductInput{ProductDraft: model.ProductDraft{
		Brand: brand, Title: brand + " watch", Price: price, Stock: stock,
	}})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	return *p
}

func TestCartLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "Casio", 50000, 5)
	b := f.product(t, "Seiko", 200000, 1)
	const owner = "session:abc"

	if _, err := f.uc.AddToCart(ctx, owner, a.ID, 2); err != nil {
		t.Fatal(err)
	}
	v, err := f.uc.AddToCart(ctx, owner, a.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Lines) != 1 || v.Lines[0].Quantity != 3 || v.Total != 150000 {
		t.Fatalf("merged cart = %+v", v)
	}

	if _, err := f.uc.AddToCart(ctx, owner, b.ID, 2); !errors.Is(err, shopper.ErrInsufficientStock) {
		t.Errorf("over-stock add: %v", err)
	}
	if _, err := f.uc.AddToCart(ctx, owner, b.ID, 0); !errors.Is(err, shopper.ErrInvalidQuantity) {
		t.Errorf("zero add: %v", err)
	}
	if _, err := f.uc.AddToCart(ctx, owner, 999, 1); !errors.Is(err, shopper.ErrProductUnavailable) {
		t.Errorf("unknown product: %v", err)
	}

	v, _ = f.uc.AddToCart(ctx, owner, b.ID, 1)
	if v.Count != 4 || v.Total != 350000 {
		t.Errorf("cart = %+v", v)
	}

	v, _ = f.uc.SetQuantity(ctx, owner, a.ID, 0)
	if len(v.Lines) != 1 || v.Lines[0].Product.ID != b.ID {
		t.Errorf("after removal = %+v", v)
	}

	// Archiving a product hides its line.
	if err := f.inventory.UpdateStock(ctx, b.ID, 0); err != nil {
		t.Fatal(err)
	}
	v, _ = f.uc.Cart(ctx, owner)
	if len(v.Lines) != 0 || v.Total != 0 {
		t.Errorf("cart with archived product = %+v", v)
	}

	if _, err := f.uc.Cart(ctx, ""); !errors.Is(err, shopper.ErrNoOwner) {
		t.Errorf("no owner: %v", err)
	}
}

func TestFavoritesAndRecentlyViewed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const owner = "user:42"
	var ids []int64
	for i := 0; i < model.RecentlyViewedLimit+2; i++ {
		ids = append(ids, f.product(t, "Tissot", 100000, 1).ID)
	}

	added, err := f.uc.ToggleFavorite(ctx, owner, ids[0])
	if err != nil || !added {
		t.Fatalf("toggle on: %v %v", added, err)
	}
	_, _ = f.uc.ToggleFavorite(ctx, owner, ids[1])
	added, _ = f.uc.ToggleFavorite(ctx, owner, ids[0])
	if added {
		t.Error("second toggle should remove")
	}
	favs, _ := f.uc.Favorites(ctx, owner)
	if len(favs) != 1 || favs[0].ID != ids[1] {
		t.Errorf("favorites = %v", favs)
	}

	for _, id := range ids {
		if err := f.uc.RecordView(ctx, owner, id); err != nil {
			t.Fatal(err)
		}
	}
	_ = f.uc.RecordView(ctx, owner, ids[5])
	recent, _ := f.uc.RecentlyViewed(ctx, owner)
	if len(recent) != model.RecentlyViewedLimit {
		t.Fatalf("recent len = %d", len(recent))
	}
	if recent[0].ID != ids[5] || recent[1].ID != ids[len(ids)-1] {
		t.Errorf("recent order = %d, %d", recent[0].ID, recent[1].ID)
	}

	anon, _ := f.uc.RecentlyViewed(ctx, "")
	if len(anon) != 0 {
		t.Errorf("anonymous recent = %v", anon)
	}
}

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "Orient", 120000, 2)
	b := f.product(t, "Citizen", 80000, 4)
	const owner = "session:xyz"
	customer := model.Customer{Name: "Aigerim", Phone: "+77010000000"}

	if _, err := f.uc.Checkout(ctx, owner, &dto.CheckoutInput{Customer: customer, PaymentMethod: model.PaymentCard}); !errors.Is(err, shopper.ErrEmptyCart) {
		t.Errorf("empty cart checkout: %v", err)
	}

	_, _ = f.uc.AddToCart(ctx, owner, a.ID, 2)
	_, _ = f.uc.AddToCart(ctx, owner, b.ID, 1)

	if _, err := f.uc.Checkout(ctx, owner, &dto.CheckoutInput{Customer: customer, PaymentMethod: model.PaymentCash}); !errors.Is(err, shopper.ErrPaymentDisabled) {
		t.Errorf("disabled payment: %v", err)
	}

	order, err := f.uc.Checkout(ctx, owner, &dto.CheckoutInput{Customer: customer, PaymentMethod: model.PaymentKaspi, Comment: "gift wrap"})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if order.Total != 320000 || len(order.Items) != 2 || order.Comment != "gift wrap" {
		t.Errorf("order = %+v", order)
	}

	// The two Orients sold out and moved to the archive.
	if p, _ := f.products.FindActive(ctx, a.ID); p != nil {
		t.Errorf("sold out product still active: %+v", p)
	}
	if p, _ := f.products.FindActive(ctx, b.ID); p == nil || p.Stock != 3 {
		t.Errorf("citizen = %+v", p)
	}
	if v, _ := f.uc.Cart(ctx, owner); len(v.Lines) != 0 {
		t.Errorf("cart not cleared: %+v", v)
	}
}

func TestCheckoutRejectsStaleCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Rado", 900000, 3)
	const owner = "user:7"
	_, _ = f.uc.AddToCart(ctx, owner, p.ID, 3)

	if err := f.inventory.UpdateStock(ctx, p.ID, 1); err != nil {
		t.Fatal(err)
	}
	_, err := f.uc.Checkout(ctx, owner, &dto.CheckoutInput{
		Customer:      model.Customer{Name: "Dana", Phone: "+77020000000"},
		PaymentMethod: model.PaymentCard,
	})
	if !errors.Is(err, shopper.ErrInsufficientStock) {
		t.Fatalf("stale cart checkout: %v", err)
	}
	orders, _, _ := f.inventory.ListOrders(ctx, nil)
	if len(orders) != 0 {
		t.Errorf("order recorded despite rejection: %v", orders)
	}
	if c, _ := f.repo.Cart(ctx, owner); len(c.Lines) != 1 || c.Lines[0].Quantity != 3 {
		t.Errorf("cart after rejected checkout = %+v, want the line back", c)
	}
}

func TestConcurrentCheckoutOrdersCartOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Tudor", 2000000, 10)
	const owner = "user:9"
	if _, err := f.uc.AddToCart(ctx, owner, p.ID, 2); err != nil {
		t.Fatal(err)
	}

	in := &dto.CheckoutInput{Customer: model.Customer{Name: "Ernar", Phone: "+77030000000"}, PaymentMethod: model.PaymentKaspi}
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Checkout(ctx, owner, in)
		}(i)
	}
	wg.Wait()

	placed := 0
	for _, err := range errs {
		switch {
		case err == nil:
			placed++
		case !errors.Is(err, shopper.ErrEmptyCart):
			t.Errorf("unexpected checkout error: %v", err)
		}
	}
	if placed != 1 {
		t.Errorf("successful checkouts = %d, want 1", placed)
	}
	orders, _, _ := f.inventory.ListOrders(ctx, nil)
	if len(orders) != 1 {
		t.Errorf("orders = %d, want 1", len(orders))
	}
	if left, _ := f.products.FindActive(ctx, p.ID); left == nil || left.Stock != 8 {
		t.Errorf("stock = %+v, want 8", left)
	}
}
