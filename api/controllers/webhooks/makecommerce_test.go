package webhookcontrollers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elida-shop/storefront-backend/internal/payments"
	mcwebhook "github.com/elida-shop/storefront-backend/internal/webhooks/makecommerce"
	pkgerrors "github.com/elida-shop/storefront-backend/pkg/errors"
	"github.com/elida-shop/storefront-backend/pkg/logger"
)

type stubReconciler struct {
	calls []string
	err   error
}

func (s *stubReconciler) Reconcile(ctx context.Context, transactionID string) (*payments.Outcome, error) {
	s.calls = append(s.calls, transactionID)
	if s.err != nil {
		return nil, s.err
	}
	return &payments.Outcome{Completed: true}, nil
}

func newHandler(t *testing.T, rec *stubReconciler) http.HandlerFunc {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := mcwebhook.NewService(rec, nil, logg)
	require.NoError(t, err)
	return MakeCommerceWebhook(svc, logg)
}

func TestWebhookAcknowledgesNotification(t *testing.T) {
	rec := &stubReconciler{}
	handler := newHandler(t, rec)

	body := `{"transaction": "tx-1", "reference": "ORD-1", "status": "COMPLETED", "amount": "17.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/makecommerce", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"tx-1"}, rec.calls)
}

func TestWebhookRejectsMissingTransaction(t *testing.T) {
	rec := &stubReconciler{}
	handler := newHandler(t, rec)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/makecommerce", strings.NewReader(`{"reference": "ORD-1"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, rec.calls)
}

func TestWebhookSurfacesGatewayOutage(t *testing.T) {
	rec := &stubReconciler{err: pkgerrors.New(pkgerrors.CodeDependency, "gateway status query failed")}
	handler := newHandler(t, rec)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/makecommerce", strings.NewReader(`{"transaction": "tx-1"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	// non-2xx makes the gateway redeliver later
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	handler := newHandler(t, &stubReconciler{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/makecommerce", strings.NewReader(`{"transaction":`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
