package usecase

import (
	"context"
	"fmt"

	"github.com/fekuna/chronostore/internal/inventory"
	invDto "github.com/fekuna/chronostore/internal/inventory/dto"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/model"
	"github.com/fekuna/chronostore/internal/shopper"
	"github.com/fekuna/chronostore/internal/shopper/dto"
	"go.uber.org/zap"
)

type shopperUseCase struct {
	repo      shopper.Repository
	products  inventory.Repository
	inventory inventory.UseCase
	payments  shopper.PaymentPolicy
	logger    logger.ZapLogger
}

// NewShopperUseCase accepts a nil payment policy; every known method is then
// accepted.
func NewShopperUseCase(repo shopper.Repository, products inventory.Repository, inv inventory.UseCase, payments shopper.PaymentPolicy, log logger.ZapLogger) shopper.UseCase {
	return &shopperUseCase{
		repo:      repo,
		products:  products,
		inventory: inv,
		payments:  payments,
		logger:    log,
	}
}

func (uc *shopperUseCase) Cart(ctx context.Context, owner string) (*dto.CartView, error) {
	if owner == "" {
		return nil, shopper.ErrNoOwner
	}
	c, err := uc.repo.Cart(ctx, owner)
	if err != nil {
		return nil, err
	}
	return uc.view(ctx, c)
}

func (uc *shopperUseCase) AddToCart(ctx context.Context, owner string, productID int64, quantity int) (*dto.CartView, error) {
	if quantity <= 0 {
		return nil, shopper.ErrInvalidQuantity
	}
	return uc.changeLine(ctx, owner, productID, func(current int) int { return current + quantity })
}

func (uc *shopperUseCase) SetQuantity(ctx context.Context, owner string, productID int64, quantity int) (*dto.CartView, error) {
	return uc.changeLine(ctx, owner, productID, func(int) int { return quantity })
}

func (uc *shopperUseCase) RemoveFromCart(ctx context.Context, owner string, productID int64) (*dto.CartView, error) {
	return uc.changeLine(ctx, owner, productID, func(int) int { return 0 })
}

func (uc *shopperUseCase) ClearCart(ctx context.Context, owner string) error {
	if owner == "" {
		return shopper.ErrNoOwner
	}
	return uc.repo.WithTx(ctx, func(tx shopper.Tx) error {
		return tx.SaveCart(model.Cart{Owner: owner})
	})
}

// changeLine sets the quantity of one cart line to next(current). Raising a
// line requires the product to be on sale with enough stock; lowering or
// removing it never does.
func (uc *shopperUseCase) changeLine(ctx context.Context, owner string, productID int64, next func(current int) int) (*dto.CartView, error) {
	if owner == "" {
		return nil, shopper.ErrNoOwner
	}
	p, err := uc.products.FindActive(ctx, productID)
	if err != nil {
		return nil, err
	}

	var saved model.Cart
	err = uc.repo.WithTx(ctx, func(tx shopper.Tx) error {
		c := tx.Cart(owner)
		idx, current := -1, 0
		for i, l := range c.Lines {
			if l.ProductID == productID {
				idx, current = i, l.Quantity
				break
			}
		}

		qty := next(current)
		if qty > current {
			if p == nil {
				return shopper.ErrProductUnavailable
			}
			if qty > p.Stock {
				return fmt.Errorf("%w: %d left", shopper.ErrInsufficientStock, p.Stock)
			}
		}

		switch {
		case qty <= 0 && idx >= 0:
			c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
		case qty > 0 && idx >= 0:
			c.Lines[idx].Quantity = qty
		case qty > 0:
			c.Lines = append(c.Lines, model.CartLine{ProductID: productID, Quantity: qty})
		}
		saved = c
		return tx.SaveCart(c)
	})
	if err != nil {
		return nil, err
	}
	return uc.view(ctx, saved)
}

func (uc *shopperUseCase) view(ctx context.Context, c model.Cart) (*dto.CartView, error) {
	v := &dto.CartView{Lines: []dto.CartViewLine{}}
	for _, l := range c.Lines {
		p, err := uc.products.FindActive(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			continue
		}
		sub := p.Price * int64(l.Quantity)
		v.Lines = append(v.Lines, dto.CartViewLine{Product: *p, Quantity: l.Quantity, Subtotal: sub})
		v.Count += l.Quantity
		v.Total += sub
	}
	return v, nil
}

func (uc *shopperUseCase) ToggleFavorite(ctx context.Context, owner string, productID int64) (bool, error) {
	if owner == "" {
		return false, shopper.ErrNoOwner
	}
	p, err := uc.products.FindActive(ctx, productID)
	if err != nil {
		return false, err
	}

	added := false
	err = uc.repo.WithTx(ctx, func(tx shopper.Tx) error {
		f := tx.Favorites(owner)
		for i, id := range f.ProductIDs {
			if id == productID {
				f.ProductIDs = append(f.ProductIDs[:i], f.ProductIDs[i+1:]...)
				return tx.SaveFavorites(f)
			}
		}
		if p == nil {
			return shopper.ErrProductUnavailable
		}
		added = true
		f.ProductIDs = append(f.ProductIDs, productID)
		return tx.SaveFavorites(f)
	})
	return added, err
}

func (uc *shopperUseCase) Favorites(ctx context.Context, owner string) ([]model.Product, error) {
	if owner == "" {
		return nil, shopper.ErrNoOwner
	}
	f, err := uc.repo.Favorites(ctx, owner)
	if err != nil {
		return nil, err
	}
	return uc.resolve(ctx, f.ProductIDs)
}

// RecordView ignores products that are not on sale.
func (uc *shopperUseCase) RecordView(ctx context.Context, owner string, productID int64) error {
	if owner == "" {
		return nil
	}
	p, err := uc.products.FindActive(ctx, productID)
	if err != nil || p == nil {
		return err
	}
	return uc.repo.WithTx(ctx, func(tx shopper.Tx) error {
		return tx.SaveRecentlyViewed(tx.RecentlyViewed(owner).Push(productID))
	})
}

func (uc *shopperUseCase) RecentlyViewed(ctx context.Context, owner string) ([]model.Product, error) {
	if owner == "" {
		return []model.Product{}, nil
	}
	r, err := uc.repo.RecentlyViewed(ctx, owner)
	if err != nil {
		return nil, err
	}
	return uc.resolve(ctx, r.ProductIDs)
}

// resolve keeps the order of ids and drops products no longer on sale.
func (uc *shopperUseCase) resolve(ctx context.Context, ids []int64) ([]model.Product, error) {
	out := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		p, err := uc.products.FindActive(ctx, id)
		if err != nil {
			return nil, err
		}
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

// Checkout places an order for the whole cart at current prices. The cart is
// taken and emptied in one transaction first, so concurrent checkouts of one
// cart cannot both order it; a failed checkout puts the lines back.
func (uc *shopperUseCase) Checkout(ctx context.Context, owner string, input *dto.CheckoutInput) (*model.Order, error) {
	if owner == "" {
		return nil, shopper.ErrNoOwner
	}
	if uc.payments != nil && !uc.payments.PaymentAllowed(ctx, input.PaymentMethod) {
		return nil, fmt.Errorf("%w: %s", shopper.ErrPaymentDisabled, input.PaymentMethod)
	}

	var taken model.Cart
	err := uc.repo.WithTx(ctx, func(tx shopper.Tx) error {
		taken = tx.Cart(owner).Clone()
		if len(taken.Lines) == 0 {
			return shopper.ErrEmptyCart
		}
		return tx.SaveCart(model.Cart{Owner: owner})
	})
	if err != nil {
		return nil, err
	}

	order, err := uc.placeOrder(ctx, taken, input)
	if err != nil {
		if rerr := uc.restoreCart(ctx, taken); rerr != nil {
			uc.logger.Error("failed to restore cart after checkout error", zap.String("owner", owner), zap.Error(rerr))
		}
		return nil, err
	}
	return order, nil
}

func (uc *shopperUseCase) placeOrder(ctx context.Context, c model.Cart, input *dto.CheckoutInput) (*model.Order, error) {
	items := make([]model.LineItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		p, err := uc.products.FindActive(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: product %d", shopper.ErrProductUnavailable, l.ProductID)
		}
		if l.Quantity > p.Stock {
			return nil, fmt.Errorf("%w: product %d has %d left", shopper.ErrInsufficientStock, p.ID, p.Stock)
		}
		items = append(items, model.LineItemFrom(*p, l.Quantity))
	}

	return uc.inventory.PlaceOrder(ctx, &invDto.PlaceOrderInput{
		Customer:      input.Customer,
		Items:         items,
		PaymentMethod: input.PaymentMethod,
		Comment:       input.Comment,
	})
}

// restoreCart puts taken lines back. Lines added while the checkout ran win
// over the restored ones.
func (uc *shopperUseCase) restoreCart(ctx context.Context, taken model.Cart) error {
	return uc.repo.WithTx(ctx, func(tx shopper.Tx) error {
		current := tx.Cart(taken.Owner).Clone()
		present := make(map[int64]bool, len(current.Lines))
		for _, l := range current.Lines {
			present[l.ProductID] = true
		}
		lines := current.Lines
		for _, l := range taken.Lines {
			if !present[l.ProductID] {
				lines = append(lines, l)
			}
		}
		return tx.SaveCart(model.Cart{Owner: taken.Owner, Lines: lines})
	})
}
