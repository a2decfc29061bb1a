package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/elida-shop/storefront-backend/internal/orders"
	"github.com/elida-shop/storefront-backend/pkg/config"
	"github.com/elida-shop/storefront-backend/pkg/db"
	"github.com/elida-shop/storefront-backend/pkg/db/models"
	"github.com/elida-shop/storefront-backend/pkg/enums"
	pkgerrors "github.com/elida-shop/storefront-backend/pkg/errors"
	"github.com/elida-shop/storefront-backend/pkg/logger"
	"github.com/elida-shop/storefront-backend/pkg/makecommerce"
	"github.com/elida-shop/storefront-backend/pkg/metrics"
)

type gatewayClient interface {
	CreateTransaction(ctx context.Context, params makecommerce.TransactionParams) (*makecommerce.Transaction, string, error)
}

type ipLookup interface {
	Lookup(ctx context.Context) (string, error)
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, input Input) (*Result, error)
}

type service struct {
	repo     orders.Repository
	gateway  gatewayClient
	ip       ipLookup
	logger   *logger.Logger
	metrics  *metrics.PaymentMetrics
	baseURL  string
	discount decimal.Decimal
}

// NewService builds the checkout service. The discount percent and callback
// base URL come from configuration.
func NewService(
	repo orders.Repository,
	gateway gatewayClient,
	ip ipLookup,
	logg *logger.Logger,
	pm *metrics.PaymentMetrics,
	appCfg config.AppConfig,
	checkoutCfg config.CheckoutConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if checkoutCfg.MemberDiscountPercent < 0 || checkoutCfg.MemberDiscountPercent > 100 {
		return nil, fmt.Errorf("member discount percent out of range: %d", checkoutCfg.MemberDiscountPercent)
	}
	return &service{
		repo:     repo,
		gateway:  gateway,
		ip:       ip,
		logger:   logg,
		metrics:  pm,
		baseURL:  strings.TrimRight(appCfg.PublicBaseURL, "/"),
		discount: decimal.NewFromInt(int64(checkoutCfg.MemberDiscountPercent)),
	}, nil
}

func (s *service) Execute(ctx context.Context, input Input) (*Result, error) {
	if err := input.validate(); err != nil {
		s.metrics.IncCheckout("validation_error")
		return nil, err
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		items = append(items, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}

	total := subtotal
	if input.Member {
		factor := decimal.NewFromInt(100).Sub(s.discount).Div(decimal.NewFromInt(100))
		total = subtotal.Mul(factor).Round(2)
	}

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		userID = models.AnonymousUserID
	}

	reference := newReference()
	ctx = s.logger.WithReference(ctx, reference)

	order := &models.Order{
		Reference: reference,
		UserID:    userID,
		Email:     input.Email,
		Shipping:  input.Shipping.snapshot(),
		Subtotal:  subtotal,
		Total:     total,
		Currency:  makecommerce.Currency,
		Status:    enums.OrderStatusCreated,
		Items:     items,
	}

	// The order row exists before the gateway hears about the payment. A
	// gateway transaction without a matching order could never be reconciled.
	if _, err := s.repo.Create(ctx, order); err != nil {
		if db.IsUniqueViolation(err, orders.ReferenceConstraint) {
			// Millisecond timestamp plus 4 random bytes colliding is rare
			// enough that a single retry settles it.
			order.Reference = newReference()
			ctx = s.logger.WithReference(ctx, order.Reference)
			reference = order.Reference
			_, err = s.repo.Create(ctx, order)
		}
		if err != nil {
			s.metrics.IncCheckout("persist_error")
			s.logger.Error(ctx, "persisting order failed", err)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}
	}

	tx, paymentURL, err := s.gateway.CreateTransaction(ctx, makecommerce.TransactionParams{
		Amount:          total,
		Reference:       reference,
		Email:           input.Email,
		CustomerIP:      s.customerIP(ctx, input.ClientIP),
		ReturnURL:       s.baseURL + "/api/v1/payments/return",
		CancelURL:       s.baseURL + "/api/v1/payments/cancel",
		NotificationURL: s.baseURL + "/api/v1/webhooks/makecommerce",
	})
	if err != nil {
		// Order stays in created; a later reconciliation can still settle it.
		s.metrics.IncCheckout("gateway_error")
		s.logger.Error(ctx, "opening gateway transaction failed", err)
		return nil, err
	}

	s.metrics.IncCheckout("ok")
	s.logger.Info(s.logger.WithTransactionID(ctx, tx.ID), "checkout completed")

	return &Result{Order: order, TransactionID: tx.ID, PaymentURL: paymentURL}, nil
}

// customerIP prefers the address the request arrived from and falls back to
// the echo service when the storefront gave us nothing usable.
func (s *service) customerIP(ctx context.Context, clientIP string) string {
	if ip := strings.TrimSpace(clientIP); ip != "" {
		return ip
	}
	if s.ip == nil {
		return ""
	}
	ip, err := s.ip.Lookup(ctx)
	if err != nil {
		s.logger.Warn(ctx, "ip lookup fallback failed")
		return ""
	}
	return ip
}
