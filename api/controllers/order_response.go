package controllers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/elida-shop/storefront-backend/pkg/db/models"
)

type orderResponse struct {
	Reference string              `json:"reference"`
	Email     string              `json:"email"`
	Shipping  shippingResponse    `json:"shipping"`
	Items     []orderItemResponse `json:"items"`
	Subtotal  decimal.Decimal     `json:"subtotal"`
	Total     decimal.Decimal     `json:"total"`
	Currency  string              `json:"currency"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

type shippingResponse struct {
	Method     string `json:"method"`
	Name       string `json:"name"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

type orderItemResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		})
	}
	return orderResponse{
		Reference: order.Reference,
		Email:     order.Email,
		Shipping: shippingResponse{
			Method:     string(order.Shipping.Method),
			Name:       order.Shipping.Name,
			Address:    order.Shipping.Address,
			City:       order.Shipping.City,
			PostalCode: order.Shipping.PostalCode,
			Phone:      order.Shipping.Phone,
		},
		Items:     items,
		Subtotal:  order.Subtotal,
		Total:     order.Total,
		Currency:  order.Currency,
		Status:    string(order.Status),
		CreatedAt: order.CreatedAt,
	}
}
