package model

import (
	"errors"
	"math"
	"strings"
	"time"
)

var (
	ErrMissingTitle    = errors.New("brand and title are required")
	ErrInvalidPrice    = errors.New("price must be a positive amount in KZT")
	ErrInvalidOldPrice = errors.New("old price must be greater than price")
	ErrNegativeStock   = errors.New("stock must not be negative")
)

// Attributes are the filterable watch characteristics.
type Attributes struct {
	Diameter        string `json:"diameter,omitempty"`
	Gender          string `json:"gender,omitempty"`
	CaseShape       string `json:"case_shape,omitempty"`
	Movement        string `json:"movement,omitempty"`
	DialColor       string `json:"dial_color,omitempty"`
	CaseMaterial    string `json:"case_material,omitempty"`
	Glass           string `json:"glass,omitempty"`
	StrapMaterial   string `json:"strap_material,omitempty"`
	ClaspType       string `json:"clasp_type,omitempty"`
	WaterResistance string `json:"water_resistance,omitempty"`
}

// Product prices are whole tenge. There is no other price field.
type Product struct {
	ID       int64  `json:"id"`
	Brand    string `json:"brand"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	OldPrice *int64 `json:"old_price,omitempty"`
	Stock    int    `json:"stock"`
	IsNew    bool   `json:"is_new"`
	Image    string `json:"image,omitempty"`
	Attributes
	Archived bool `json:"archived"`
	BaseModel
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	RestoredAt *time.Time `json:"restored_at,omitempty"`
}

type ProductDraft struct {
	Brand      string     `json:"brand"`
	Title      string     `json:"title"`
	Price      int64      `json:"price"`
	OldPrice   *int64     `json:"old_price,omitempty"`
	Stock      int        `json:"stock"`
	IsNew      bool       `json:"is_new"`
	Image      string     `json:"image,omitempty"`
	Attributes Attributes `json:"attributes"`
}

func (d ProductDraft) Validate() error {
	if strings.TrimSpace(d.Brand) == "" || strings.TrimSpace(d.Title) == "" {
		return ErrMissingTitle
	}
	if d.Price <= 0 {
		return ErrInvalidPrice
	}
	if d.OldPrice != nil && *d.OldPrice <= d.Price {
		return ErrInvalidOldPrice
	}
	if d.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// NewProduct is the only way a product enters the catalog.
func NewProduct(id int64, d ProductDraft, now time.Time) (Product, error) {
	if err := d.Validate(); err != nil {
		return Product{}, err
	}
	p := Product{
		ID:         id,
		Brand:      strings.TrimSpace(d.Brand),
		Title:      strings.TrimSpace(d.Title),
		Price:      d.Price,
		Stock:      d.Stock,
		IsNew:      d.IsNew,
		Image:      d.Image,
		Attributes: d.Attributes,
		BaseModel:  BaseModel{CreatedAt: now, UpdatedAt: now},
	}
	if d.OldPrice != nil {
		old := *d.OldPrice
		p.OldPrice = &old
	}
	return p, nil
}

// DiscountPercent is the rounded markdown from OldPrice, or 0.
func (p Product) DiscountPercent() int {
	if p.OldPrice == nil || *p.OldPrice <= p.Price || *p.OldPrice == 0 {
		return 0
	}
	return int(math.Round(float64(*p.OldPrice-p.Price) * 100 / float64(*p.OldPrice)))
}

func (p Product) Key() string { return Key(p.ID) }

func (p Product) Clone() Product {
	c := p
	if p.OldPrice != nil {
		old := *p.OldPrice
		c.OldPrice = &old
	}
	c.ArchivedAt = timePtr(p.ArchivedAt)
	c.RestoredAt = timePtr(p.RestoredAt)
	return c
}
