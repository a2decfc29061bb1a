package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/elida-shop/storefront-backend/api/responses"
	"github.com/elida-shop/storefront-backend/pkg/db/models"
	pkgerrors "github.com/elida-shop/storefront-backend/pkg/errors"
	"github.com/elida-shop/storefront-backend/pkg/logger"
)

type orderFinder interface {
	Find(ctx context.Context, reference string) (*models.Order, error)
}

// OrderDetail serves the storefront's order lookup on the success page.
func OrderDetail(svc orderFinder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reference := strings.TrimSpace(chi.URLParam(r, "reference"))
		if reference == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order reference required"))
			return
		}

		order, err := svc.Find(r.Context(), reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
