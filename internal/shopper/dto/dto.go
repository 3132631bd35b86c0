package dto

import "github.com/fekuna/chronostore/internal/model"

type CartViewLine struct {
	Product  model.Product `json:"product"`
	Quantity int           `json:"quantity"`
	Subtotal int64         `json:"subtotal"`
}

// CartView is a cart resolved against the live catalog. Lines whose product
// is no longer on sale are left out.
type CartView struct {
	Lines []CartViewLine `json:"lines"`
	Count int            `json:"count"`
	Total int64          `json:"total"`
}

type CartLineInput struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

type CheckoutInput struct {
	Customer      model.Customer      `json:"customer"`
	PaymentMethod model.PaymentMethod `json:"payment_method" binding:"required"`
	Comment       string              `json:"comment"`
}
