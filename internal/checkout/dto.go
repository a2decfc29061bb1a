package checkout

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/elida-shop/storefront-backend/pkg/db/models"
	"github.com/elida-shop/storefront-backend/pkg/enums"
	pkgerrors "github.com/elida-shop/storefront-backend/pkg/errors"
	"github.com/elida-shop/storefront-backend/pkg/types"
)

// ItemInput is one cart line as submitted by the storefront.
type ItemInput struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// ShippingInput is the delivery form. Address fields are meaningful only for
// the shipping method; pickup carries none.
type ShippingInput struct {
	Method     enums.DeliveryMethod
	Name       string
	Address    string
	City       string
	PostalCode string
	Phone      string
}

// Input is everything Execute needs for one checkout attempt.
type Input struct {
	Items    []ItemInput
	Email    string
	Shipping ShippingInput
	UserID   string
	Member   bool
	ClientIP string
}

// Result is returned to the API layer: the persisted order plus where to send
// the shopper next.
type Result struct {
	Order         *models.Order
	TransactionID string
	PaymentURL    string
}

func (in Input) validate() *pkgerrors.Error {
	if len(in.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}
	for _, item := range in.Items {
		switch {
		case strings.TrimSpace(item.ProductID) == "":
			return pkgerrors.New(pkgerrors.CodeValidation, "cart item product id required")
		case strings.TrimSpace(item.Name) == "":
			return pkgerrors.New(pkgerrors.CodeValidation, "cart item name required")
		case item.Quantity <= 0:
			return pkgerrors.New(pkgerrors.CodeValidation, "cart item quantity must be positive")
		case !item.Price.IsPositive():
			return pkgerrors.New(pkgerrors.CodeValidation, "cart item price must be positive")
		}
	}
	if strings.TrimSpace(in.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	return in.Shipping.validate()
}

func (s ShippingInput) validate() *pkgerrors.Error {
	if !s.Method.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery method")
	}
	if strings.TrimSpace(s.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient name required")
	}
	if s.Method.RequiresAddress() {
		switch {
		case strings.TrimSpace(s.Address) == "":
			return pkgerrors.New(pkgerrors.CodeValidation, "shipping address required")
		case strings.TrimSpace(s.City) == "":
			return pkgerrors.New(pkgerrors.CodeValidation, "shipping city required")
		case strings.TrimSpace(s.PostalCode) == "":
			return pkgerrors.New(pkgerrors.CodeValidation, "shipping postal code required")
		}
	}
	return nil
}

// snapshot freezes the form into the persisted shape. Pickup drops address
// fields so the stored variant carries only what the method uses.
func (s ShippingInput) snapshot() types.ShippingSnapshot {
	snap := types.ShippingSnapshot{
		Method: s.Method,
		Name:   strings.TrimSpace(s.Name),
		Phone:  strings.TrimSpace(s.Phone),
	}
	if s.Method.RequiresAddress() {
		snap.Address = strings.TrimSpace(s.Address)
		snap.City = strings.TrimSpace(s.City)
		snap.PostalCode = strings.TrimSpace(s.PostalCode)
	}
	return snap
}
