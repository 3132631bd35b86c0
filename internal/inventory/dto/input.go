package dto

import "github.com/fekuna/chronostore/internal/model"

type PlaceOrderInput struct {
	Customer      model.Customer      `json:"customer"`
	Items         []model.LineItem    `json:"items"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	Comment       string              `json:"comment"`
}

type ProductInput struct {
	model.ProductDraft
}

type UpdateStockInput struct {
	ProductID int64 `json:"product_id"`
	Stock     int   `json:"stock"`
}

type RestoreInput struct {
	ProductID    int64 `json:"product_id"`
	InitialStock int   `json:"initial_stock"`
}

type UpdateOrderStatusInput struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

type IDInput struct {
	ID int64 `json:"id"`
}
