package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/elida-shop/storefront-backend/api/middleware"
	"github.com/elida-shop/storefront-backend/api/responses"
	"github.com/elida-shop/storefront-backend/api/validators"
	checkoutsvc "github.com/elida-shop/storefront-backend/internal/checkout"
	"github.com/elida-shop/storefront-backend/pkg/enums"
	pkgerrors "github.com/elida-shop/storefront-backend/pkg/errors"
	"github.com/elida-shop/storefront-backend/pkg/logger"
)

// Checkout turns the submitted cart into a local order plus a gateway
// transaction and hands back the hosted payment URL.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), checkoutsvc.Input{
			Items:    payload.items(),
			Email:    payload.Email,
			Shipping: payload.Shipping.input(),
			UserID:   middleware.UserIDFromContext(r.Context()),
			Member:   middleware.MemberFromContext(r.Context()),
			ClientIP: middleware.ClientIPFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			Order:         newOrderResponse(result.Order),
			TransactionID: result.TransactionID,
			PaymentURL:    result.PaymentURL,
		})
	}
}

type checkoutItemRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
}

type checkoutShippingRequest struct {
	Method     string `json:"method" validate:"required,oneof=shipping pickup"`
	Name       string `json:"name" validate:"required"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

type checkoutRequest struct {
	Items    []checkoutItemRequest   `json:"items" validate:"required,min=1,dive"`
	Email    string                  `json:"email" validate:"required,email"`
	Shipping checkoutShippingRequest `json:"shipping" validate:"required"`
}

type checkoutResponse struct {
	Order         orderResponse `json:"order"`
	TransactionID string        `json:"transaction_id"`
	PaymentURL    string        `json:"payment_url"`
}

func (r checkoutRequest) items() []checkoutsvc.ItemInput {
	items := make([]checkoutsvc.ItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, checkoutsvc.ItemInput{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}
	return items
}

func (s checkoutShippingRequest) input() checkoutsvc.ShippingInput {
	return checkoutsvc.ShippingInput{
		Method:     enums.DeliveryMethod(s.Method),
		Name:       s.Name,
		Address:    s.Address,
		City:       s.City,
		PostalCode: s.PostalCode,
		Phone:      s.Phone,
	}
}
