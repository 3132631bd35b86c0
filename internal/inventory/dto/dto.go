package dto

import "github.com/fekuna/chronostore/internal/model"

type OrderFilters struct {
	Status   model.OrderStatus `json:"status"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

type ProductListResponse struct {
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
}

type OrderListResponse struct {
	Orders []model.Order `json:"orders"`
	Total  int           `json:"total"`
}
