package model

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidOrder = errors.New("order needs a customer name, a phone, a known payment method and at least one item with positive quantity")

type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// RecognizesRevenue reports whether the order total counts as realized revenue.
func (s OrderStatus) RecognizesRevenue() bool {
	return s == OrderStatusCompleted || s == OrderStatusDelivered
}

func (s OrderStatus) Outstanding() bool {
	return s == OrderStatusNew || s == OrderStatusPending || s == OrderStatusProcessing
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentKaspi    PaymentMethod = "kaspi"
	PaymentTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentKaspi, PaymentTransfer:
		return true
	}
	return false
}

type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// LineItem is a copy of the product taken at purchase time.
type LineItem struct {
	ProductID int64  `json:"product_id"`
	Brand     string `json:"brand"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image,omitempty"`
}

func (li LineItem) Subtotal() int64 {
	return li.Price * int64(li.Quantity)
}

func LineItemFrom(p Product, quantity int) LineItem {
	return LineItem{
		ProductID: p.ID,
		Brand:     p.Brand,
		Title:     p.Title,
		Price:     p.Price,
		Quantity:  quantity,
		Image:     p.Image,
	}
}

type Order struct {
	ID            int64         `json:"id"`
	Customer      Customer      `json:"customer"`
	Items         []LineItem    `json:"items"`
	Total         int64         `json:"total"`
	Status        OrderStatus   `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Comment       string        `json:"comment,omitempty"`
	BaseModel
}

// NewOrder freezes the items and computes the total. New orders start pending.
func NewOrder(id int64, customer Customer, items []LineItem, payment PaymentMethod, comment string, now time.Time) (Order, error) {
	if strings.TrimSpace(customer.Name) == "" || strings.TrimSpace(customer.Phone) == "" || len(items) == 0 || !payment.Valid() {
		return Order{}, ErrInvalidOrder
	}
	frozen := make([]LineItem, len(items))
	var total int64
	for i, it := range items {
		if it.Quantity <= 0 || it.Price < 0 {
			return Order{}, ErrInvalidOrder
		}
		frozen[i] = it
		total += it.Subtotal()
	}
	return Order{
		ID:            id,
		Customer:      customer,
		Items:         frozen,
		Total:         total,
		Status:        OrderStatusPending,
		PaymentMethod: payment,
		Comment:       comment,
		BaseModel:     BaseModel{CreatedAt: now, UpdatedAt: now},
	}, nil
}

func (o Order) Key() string { return Key(o.ID) }

func (o Order) Clone() Order {
	c := o
	c.Items = append([]LineItem(nil), o.Items...)
	return c
}
