package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elida-shop/storefront-backend/internal/payments"
	"github.com/elida-shop/storefront-backend/pkg/config"
	"github.com/elida-shop/storefront-backend/pkg/db/models"
	pkgerrors "github.com/elida-shop/storefront-backend/pkg/errors"
)

type stubReconciler struct {
	lastID  string
	calls   int
	outcome *payments.Outcome
	err     error
}

func (s *stubReconciler) Reconcile(ctx context.Context, transactionID string) (*payments.Outcome, error) {
	s.calls++
	s.lastID = transactionID
	if s.err != nil {
		return nil, s.err
	}
	return s.outcome, nil
}

func storefrontCfg() config.AppConfig {
	return config.AppConfig{StorefrontBaseURL: "https://shop.elida.example"}
}

func TestPaymentReturnRedirectsToSuccess(t *testing.T) {
	svc := &stubReconciler{outcome: &payments.Outcome{
		Order:     &models.Order{Reference: "ORD-1"},
		Completed: true,
	}}
	handler := PaymentReturn(svc, storefrontCfg(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/return?payment_reference=tx-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://shop.elida.example/payment/success?reference=ORD-1", rec.Header().Get("Location"))
	assert.Equal(t, "tx-1", svc.lastID)
}

func TestPaymentReturnRedirectsToFailureOnUnverified(t *testing.T) {
	svc := &stubReconciler{outcome: &payments.Outcome{Completed: false}}
	handler := PaymentReturn(svc, storefrontCfg(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/return?payment_reference=tx-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://shop.elida.example/payment/failed", rec.Header().Get("Location"))
}

func TestPaymentReturnRedirectsToFailureOnError(t *testing.T) {
	svc := &stubReconciler{err: pkgerrors.New(pkgerrors.CodeDependency, "gateway status query failed")}
	handler := PaymentReturn(svc, storefrontCfg(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/return?payment_reference=tx-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://shop.elida.example/payment/failed", rec.Header().Get("Location"))
}

func TestPaymentReturnWithoutReferenceGoesHome(t *testing.T) {
	svc := &stubReconciler{}
	handler := PaymentReturn(svc, storefrontCfg(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/return", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://shop.elida.example/", rec.Header().Get("Location"))
	// forged return must not trigger any verification work
	assert.Zero(t, svc.calls)
}

func TestPaymentCancelRedirectsToFailure(t *testing.T) {
	handler := PaymentCancel(storefrontCfg(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/cancel", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://shop.elida.example/payment/failed", rec.Header().Get("Location"))
}
