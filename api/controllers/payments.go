package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/elida-shop/storefront-backend/internal/payments"
	"github.com/elida-shop/storefront-backend/pkg/config"
	"github.com/elida-shop/storefront-backend/pkg/logger"
)

const paymentReferenceParam = "payment_reference"

type reconcileService interface {
	Reconcile(ctx context.Context, transactionID string) (*payments.Outcome, error)
}

// PaymentReturn is where the gateway sends the shopper after the hosted
// payment page. Completion is never trusted from the redirect alone; the
// transaction is re-verified before the shopper sees a success page.
func PaymentReturn(svc reconcileService, cfg config.AppConfig, logg *logger.Logger) http.HandlerFunc {
	storefront := strings.TrimRight(cfg.StorefrontBaseURL, "/")
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		transactionID := strings.TrimSpace(r.URL.Query().Get(paymentReferenceParam))
		if transactionID == "" {
			// forged or stray visit, nothing to verify
			if logg != nil {
				logg.Warn(ctx, "payment return without reference")
			}
			http.Redirect(w, r, storefront+"/", http.StatusFound)
			return
		}

		outcome, err := svc.Reconcile(ctx, transactionID)
		if err != nil || !outcome.Completed {
			if err != nil && logg != nil {
				logg.Error(ctx, "payment return reconciliation failed", err)
			}
			http.Redirect(w, r, storefront+"/payment/failed", http.StatusFound)
			return
		}

		http.Redirect(w, r, storefront+"/payment/success?reference="+outcome.Order.Reference, http.StatusFound)
	}
}

// PaymentCancel handles the gateway's cancel redirect. The order stays in
// created; nothing is verified or mutated on this path.
func PaymentCancel(cfg config.AppConfig, logg *logger.Logger) http.HandlerFunc {
	storefront := strings.TrimRight(cfg.StorefrontBaseURL, "/")
	return func(w http.ResponseWriter, r *http.Request) {
		if logg != nil {
			logg.Info(r.Context(), "payment cancelled by shopper")
		}
		http.Redirect(w, r, storefront+"/payment/failed", http.StatusFound)
	}
}
