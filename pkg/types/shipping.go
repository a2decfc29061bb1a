package types

import "github.com/elida-shop/storefront-backend/pkg/enums"

// ShippingSnapshot captures the contact/delivery details at the moment an
// order is created. It is immutable once persisted; later catalog or profile
// edits never alter historical orders.
type ShippingSnapshot struct {
	Method     enums.DeliveryMethod `json:"method"`
	Name       string               `json:"name"`
	Address    string               `json:"address,omitempty"`
	City       string               `json:"city,omitempty"`
	PostalCode string               `json:"postal_code,omitempty"`
	Phone      string               `json:"phone,omitempty"`
}
