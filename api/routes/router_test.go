package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	checkoutsvc "github.com/elida-shop/storefront-backend/internal/checkout"
	"github.com/elida-shop/storefront-backend/internal/orders"
	"github.com/elida-shop/storefront-backend/internal/payments"
	mcwebhook "github.com/elida-shop/storefront-backend/internal/webhooks/makecommerce"
	"github.com/elida-shop/storefront-backend/pkg/config"
	"github.com/elida-shop/storefront-backend/pkg/db/models"
	"github.com/elida-shop/storefront-backend/pkg/enums"
	"github.com/elida-shop/storefront-backend/pkg/logger"
	"github.com/elida-shop/storefront-backend/pkg/makecommerce"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}}
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key], nil
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value.(string)
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }

type routerRepo struct {
	order *models.Order
}

func (r *routerRepo) WithTx(tx *gorm.DB) orders.Repository { return r }

func (r *routerRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	return order, nil
}

func (r *routerRepo) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	if r.order == nil || r.order.Reference != reference {
		return nil, gorm.ErrRecordNotFound
	}
	return r.order, nil
}

func (r *routerRepo) UpdateStatus(ctx context.Context, reference string, status enums.OrderStatus) (bool, error) {
	if r.order == nil || r.order.Reference != reference {
		return false, nil
	}
	if r.order.Status != enums.OrderStatusCreated {
		return false, nil
	}
	r.order.Status = status
	return true, nil
}

type routerGateway struct{}

func (routerGateway) GetTransaction(ctx context.Context, transactionID string) (*makecommerce.Transaction, error) {
	return &makecommerce.Transaction{
		ID:        transactionID,
		Reference: "ORD-1",
		Status:    enums.TransactionStatusCompleted,
		Amount:    "17.00",
		Currency:  "EUR",
	}, nil
}

type routerCheckout struct {
	calls int
}

func (s *routerCheckout) Execute(ctx context.Context, input checkoutsvc.Input) (*checkoutsvc.Result, error) {
	s.calls++
	return &checkoutsvc.Result{
		Order: &models.Order{
			Reference: "ORD-1",
			Email:     input.Email,
			Subtotal:  decimal.RequireFromString("20.00"),
			Total:     decimal.RequireFromString("20.00"),
			Currency:  "EUR",
			Status:    enums.OrderStatusCreated,
		},
		TransactionID: "tx-1",
		PaymentURL:    "https://pay.example/redirect",
	}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:               "test",
			Port:              "8080",
			PublicBaseURL:     "https://api.elida.example",
			StorefrontBaseURL: "https://shop.elida.example",
		},
	}
}

func newTestRouter(t *testing.T, checkoutService checkoutsvc.Service, repo orders.Repository, registry *prometheus.Registry) http.Handler {
	t.Helper()
	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	ordersService, err := orders.NewService(repo, logg)
	require.NoError(t, err)

	paymentsService, err := payments.NewService(repo, routerGateway{}, nil, logg, nil)
	require.NoError(t, err)

	webhookService, err := mcwebhook.NewService(paymentsService, nil, logg)
	require.NoError(t, err)

	return NewRouter(
		cfg, logg,
		okPinger{}, newFakeStore(), okPinger{},
		registry,
		checkoutService, ordersService, paymentsService, webhookService,
	)
}

const routerCheckoutBody = `{
	"items": [{"product_id": "prod-1", "name": "Hand Cream", "price": "10.00", "quantity": 2}],
	"email": "shopper@example.com",
	"shipping": {"method": "pickup", "name": "Jonas Petrauskas"}
}`

func TestRouterHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, &routerCheckout{}, &routerRepo{}, nil)

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterServesMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	router := newTestRouter(t, &routerCheckout{}, &routerRepo{}, registry)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterCheckoutRequiresIdempotencyKey(t *testing.T) {
	svc := &routerCheckout{}
	router := newTestRouter(t, svc, &routerRepo{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(routerCheckoutBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestRouterCheckoutReplaysStoredResponse(t *testing.T) {
	svc := &routerCheckout{}
	router := newTestRouter(t, svc, &routerRepo{}, nil)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(routerCheckoutBody))
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code)

	second := send()
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, svc.calls)
}

func TestRouterOrderDetail(t *testing.T) {
	repo := &routerRepo{order: &models.Order{
		Reference: "ORD-1",
		Email:     "shopper@example.com",
		Subtotal:  decimal.RequireFromString("20.00"),
		Total:     decimal.RequireFromString("17.00"),
		Currency:  "EUR",
		Status:    enums.OrderStatusCompleted,
	}}
	router := newTestRouter(t, &routerCheckout{}, repo, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/ORD-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Reference string `json:"reference"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "ORD-1", envelope.Data.Reference)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/ORD-missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterPaymentReturnCompletesOrder(t *testing.T) {
	repo := &routerRepo{order: &models.Order{
		Reference: "ORD-1",
		Status:    enums.OrderStatusCreated,
	}}
	router := newTestRouter(t, &routerCheckout{}, repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/return?payment_reference=tx-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://shop.elida.example/payment/success?reference=ORD-1", rec.Header().Get("Location"))
	assert.Equal(t, enums.OrderStatusCompleted, repo.order.Status)
}

func TestRouterWebhookReconciles(t *testing.T) {
	repo := &routerRepo{order: &models.Order{
		Reference: "ORD-1",
		Status:    enums.OrderStatusCreated,
	}}
	router := newTestRouter(t, &routerCheckout{}, repo, nil)

	body := `{"transaction": "tx-1", "reference": "ORD-1", "status": "COMPLETED"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/makecommerce", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, enums.OrderStatusCompleted, repo.order.Status)
}
