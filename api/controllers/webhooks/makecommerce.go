package webhookcontrollers

import (
	"encoding/json"
	"net/http"

	"github.com/elida-shop/storefront-backend/api/responses"
	mcwebhook "github.com/elida-shop/storefront-backend/internal/webhooks/makecommerce"
	pkgerrors "github.com/elida-shop/storefront-backend/pkg/errors"
	"github.com/elida-shop/storefront-backend/pkg/logger"
)

// MakeCommerceWebhook receives the gateway's server-to-server payment
// notification and runs it through reconciliation.
func MakeCommerceWebhook(svc *mcwebhook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		// lenient decode: the gateway is free to add fields
		var notification mcwebhook.Notification
		if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification body"))
			return
		}

		if err := svc.HandleNotification(r.Context(), notification); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}
