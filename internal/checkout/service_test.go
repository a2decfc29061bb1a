package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/elida-shop/storefront-backend/internal/orders"
	"github.com/elida-shop/storefront-backend/pkg/config"
	"github.com/elida-shop/storefront-backend/pkg/db/models"
	"github.com/elida-shop/storefront-backend/pkg/enums"
	pkgerrors "github.com/elida-shop/storefront-backend/pkg/errors"
	"github.com/elida-shop/storefront-backend/pkg/logger"
	"github.com/elida-shop/storefront-backend/pkg/makecommerce"
)

type stubRepo struct {
	created   *models.Order
	createErr error
	firstErr  error
}

func (s *stubRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if s.firstErr != nil {
		err := s.firstErr
		s.firstErr = nil
		return nil, err
	}
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = order
	return order, nil
}

func (s *stubRepo) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) UpdateStatus(ctx context.Context, reference string, status enums.OrderStatus) (bool, error) {
	return false, nil
}

type stubGateway struct {
	params    makecommerce.TransactionParams
	calls     int
	createErr error
}

func (s *stubGateway) CreateTransaction(ctx context.Context, params makecommerce.TransactionParams) (*makecommerce.Transaction, string, error) {
	s.calls++
	s.params = params
	if s.createErr != nil {
		return nil, "", s.createErr
	}
	return &makecommerce.Transaction{ID: "tx-1", Status: enums.TransactionStatusPending}, "https://pay.example/redirect", nil
}

type stubIP struct {
	ip  string
	err error
}

func (s *stubIP) Lookup(ctx context.Context) (string, error) { return s.ip, s.err }

func newTestService(t *testing.T, repo *stubRepo, gw *stubGateway, ip ipLookup) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(repo, gw, ip, logg, nil,
		config.AppConfig{PublicBaseURL: "https://api.elida.example/"},
		config.CheckoutConfig{MemberDiscountPercent: 15},
	)
	require.NoError(t, err)
	return svc
}

func validInput() Input {
	return Input{
		Items: []ItemInput{
			{ProductID: "prod-1", Name: "Hand Cream", Price: decimal.RequireFromString("5.00"), Quantity: 2},
			{ProductID: "prod-2", Name: "Face Serum", Price: decimal.RequireFromString("10.00"), Quantity: 1},
		},
		Email: "shopper@example.com",
		Shipping: ShippingInput{
			Method:     enums.DeliveryMethodShipping,
			Name:       "Jonas Petrauskas",
			Address:    "Gedimino pr. 1",
			City:       "Vilnius",
			PostalCode: "01103",
		},
		ClientIP: "203.0.113.7",
	}
}

func TestExecuteAnonymousChargesSubtotal(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGateway{}
	svc := newTestService(t, repo, gw, &stubIP{})

	result, err := svc.Execute(context.Background(), validInput())
	require.NoError(t, err)

	require.NotNil(t, repo.created)
	assert.True(t, repo.created.Subtotal.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, repo.created.Total.Equal(decimal.RequireFromString("20.00")))
	assert.False(t, repo.created.Discounted())
	assert.Equal(t, models.AnonymousUserID, repo.created.UserID)
	assert.Equal(t, enums.OrderStatusCreated, repo.created.Status)
	require.Len(t, repo.created.Items, 2)

	assert.Equal(t, "20.00", gw.params.Amount.StringFixed(2))
	assert.Equal(t, repo.created.Reference, gw.params.Reference)
	assert.Equal(t, "203.0.113.7", gw.params.CustomerIP)
	assert.Equal(t, "https://api.elida.example/api/v1/payments/return", gw.params.ReturnURL)
	assert.Equal(t, "https://api.elida.example/api/v1/payments/cancel", gw.params.CancelURL)
	assert.Equal(t, "https://api.elida.example/api/v1/webhooks/makecommerce", gw.params.NotificationURL)

	assert.Equal(t, "tx-1", result.TransactionID)
	assert.Equal(t, "https://pay.example/redirect", result.PaymentURL)
}

func TestExecuteMemberGetsDiscountedTotal(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGateway{}
	svc := newTestService(t, repo, gw, &stubIP{})

	input := validInput()
	input.UserID = "user-77"
	input.Member = true

	_, err := svc.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.True(t, repo.created.Subtotal.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, repo.created.Total.Equal(decimal.RequireFromString("17.00")))
	assert.True(t, repo.created.Discounted())
	assert.Equal(t, "user-77", repo.created.UserID)
	assert.Equal(t, "17.00", gw.params.Amount.StringFixed(2))
}

func TestExecuteDiscountRoundsToTwoDecimals(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGateway{}
	svc := newTestService(t, repo, gw, &stubIP{})

	input := validInput()
	input.Member = true
	input.Items = []ItemInput{
		{ProductID: "prod-1", Name: "Lip Balm", Price: decimal.RequireFromString("3.33"), Quantity: 3},
	}

	_, err := svc.Execute(context.Background(), input)
	require.NoError(t, err)

	// 9.99 * 0.85 = 8.4915, stored as 8.49
	assert.Equal(t, "8.49", repo.created.Total.StringFixed(2))
	assert.Equal(t, "8.49", gw.params.Amount.StringFixed(2))
}

func TestExecuteValidation(t *testing.T) {
	cases := map[string]func(*Input){
		"empty cart":           func(in *Input) { in.Items = nil },
		"zero quantity":        func(in *Input) { in.Items[0].Quantity = 0 },
		"negative price":       func(in *Input) { in.Items[0].Price = decimal.RequireFromString("-1") },
		"missing email":        func(in *Input) { in.Email = " " },
		"missing address":      func(in *Input) { in.Shipping.Address = "" },
		"missing city":         func(in *Input) { in.Shipping.City = "" },
		"missing postal code":  func(in *Input) { in.Shipping.PostalCode = "" },
		"unknown method":       func(in *Input) { in.Shipping.Method = "drone" },
		"missing recipient":    func(in *Input) { in.Shipping.Name = "" },
		"missing product name": func(in *Input) { in.Items[1].Name = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &stubRepo{}
			gw := &stubGateway{}
			svc := newTestService(t, repo, gw, &stubIP{})

			input := validInput()
			mutate(&input)

			_, err := svc.Execute(context.Background(), input)
			require.Error(t, err)
			var coded *pkgerrors.Error
			require.True(t, errors.As(err, &coded))
			assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
			assert.Nil(t, repo.created)
			assert.Zero(t, gw.calls)
		})
	}
}

func TestExecutePickupNeedsNoAddress(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGateway{}
	svc := newTestService(t, repo, gw, &stubIP{})

	input := validInput()
	input.Shipping = ShippingInput{Method: enums.DeliveryMethodPickup, Name: "Jonas Petrauskas"}

	_, err := svc.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryMethodPickup, repo.created.Shipping.Method)
	assert.Empty(t, repo.created.Shipping.Address)
}

func TestExecutePickupDropsStaleAddressFields(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGateway{}
	svc := newTestService(t, repo, gw, &stubIP{})

	input := validInput()
	input.Shipping.Method = enums.DeliveryMethodPickup

	_, err := svc.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, repo.created.Shipping.Address)
	assert.Empty(t, repo.created.Shipping.City)
	assert.Empty(t, repo.created.Shipping.PostalCode)
}

func TestExecutePersistFailureSkipsGateway(t *testing.T) {
	repo := &stubRepo{createErr: errors.New("connection refused")}
	gw := &stubGateway{}
	svc := newTestService(t, repo, gw, &stubIP{})

	_, err := svc.Execute(context.Background(), validInput())
	require.Error(t, err)

	var coded *pkgerrors.Error
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, pkgerrors.CodeDependency, coded.Code())
	assert.Zero(t, gw.calls)
}

func TestExecuteRetriesReferenceCollision(t *testing.T) {
	repo := &stubRepo{firstErr: fmt.Errorf("duplicate key value violates unique constraint %q (SQLSTATE 23505)", orders.ReferenceConstraint)}
	gw := &stubGateway{}
	svc := newTestService(t, repo, gw, &stubIP{})

	result, err := svc.Execute(context.Background(), validInput())
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, repo.created.Reference, result.Order.Reference)
	assert.Equal(t, repo.created.Reference, gw.params.Reference)
}

func TestExecuteGatewayFailureLeavesOrderCreated(t *testing.T) {
	gatewayErr := pkgerrors.Wrap(pkgerrors.CodeDependency, makecommerce.ErrPaymentURLMissing, "gateway offered no redirect flow")
	repo := &stubRepo{}
	gw := &stubGateway{createErr: gatewayErr}
	svc := newTestService(t, repo, gw, &stubIP{})

	_, err := svc.Execute(context.Background(), validInput())
	require.Error(t, err)
	assert.True(t, errors.Is(err, makecommerce.ErrPaymentURLMissing))

	// the row was written before the gateway call and is left for later
	// reconciliation
	require.NotNil(t, repo.created)
	assert.Equal(t, enums.OrderStatusCreated, repo.created.Status)
}

func TestExecuteFallsBackToIPLookup(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGateway{}
	svc := newTestService(t, repo, gw, &stubIP{ip: "198.51.100.9"})

	input := validInput()
	input.ClientIP = ""

	_, err := svc.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.9", gw.params.CustomerIP)
}

func TestExecuteToleratesIPLookupFailure(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGateway{}
	svc := newTestService(t, repo, gw, &stubIP{err: errors.New("timeout")})

	input := validInput()
	input.ClientIP = ""

	_, err := svc.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, gw.params.CustomerIP)
}

func TestReferencesArePairwiseDistinct(t *testing.T) {
	seen := make(map[string]struct{}, 200)
	for i := 0; i < 200; i++ {
		ref := newReference()
		assert.True(t, strings.HasPrefix(ref, "ORD-"))
		_, dup := seen[ref]
		require.False(t, dup, "duplicate reference %s", ref)
		seen[ref] = struct{}{}
	}
}
