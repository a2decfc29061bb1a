package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/elida-shop/storefront-backend/internal/orders"
	"github.com/elida-shop/storefront-backend/pkg/db/models"
	"github.com/elida-shop/storefront-backend/pkg/enums"
	pkgerrors "github.com/elida-shop/storefront-backend/pkg/errors"
	"github.com/elida-shop/storefront-backend/pkg/logger"
	"github.com/elida-shop/storefront-backend/pkg/makecommerce"
	"github.com/elida-shop/storefront-backend/pkg/metrics"
)

// ErrVerificationFailed marks a gateway-confirmed payment that cannot be
// matched to a reconcilable local order.
var ErrVerificationFailed = errors.New("payment verification failed")

type gatewayClient interface {
	GetTransaction(ctx context.Context, transactionID string) (*makecommerce.Transaction, error)
}

type completionNotifier interface {
	Notify(ctx context.Context, order *models.Order, tx *makecommerce.Transaction)
}

// Outcome reports what a reconciliation attempt concluded.
type Outcome struct {
	Order            *models.Order
	Transaction      *makecommerce.Transaction
	Completed        bool
	AlreadyCompleted bool
}

// Service verifies gateway transactions and settles local orders.
type Service struct {
	repo     orders.Repository
	gateway  gatewayClient
	notifier completionNotifier
	logger   *logger.Logger
	metrics  *metrics.PaymentMetrics
}

func NewService(repo orders.Repository, gateway gatewayClient, notifier completionNotifier, logg *logger.Logger, pm *metrics.PaymentMetrics) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{repo: repo, gateway: gateway, notifier: notifier, logger: logg, metrics: pm}, nil
}

// Reconcile re-verifies the transaction against the gateway and completes the
// matching order when the gateway says the money moved. Safe to invoke any
// number of times for the same transaction; only the first completion
// notifies downstream.
func (s *Service) Reconcile(ctx context.Context, transactionID string) (*Outcome, error) {
	id := strings.TrimSpace(transactionID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	ctx = s.logger.WithTransactionID(ctx, id)

	tx, err := s.gateway.GetTransaction(ctx, id)
	if err != nil {
		s.metrics.IncReconciliation("gateway_error")
		return nil, err
	}
	ctx = s.logger.WithReference(ctx, tx.Reference)

	if tx.Status != enums.TransactionStatusCompleted {
		s.metrics.IncReconciliation("not_completed")
		s.logger.Info(ctx, fmt.Sprintf("transaction not completed, status %s", tx.Status))
		return &Outcome{Transaction: tx}, nil
	}

	order, err := s.repo.FindByReference(ctx, tx.Reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncReconciliation("unknown_reference")
			s.logger.Error(ctx, "no local order for completed transaction", err)
			return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrVerificationFailed, "no order for gateway reference")
		}
		s.metrics.IncReconciliation("persist_error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order for reconciliation")
	}

	changed, err := s.repo.UpdateStatus(ctx, order.Reference, enums.OrderStatusCompleted)
	if err != nil {
		s.metrics.IncReconciliation("persist_error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete order")
	}

	if changed {
		order.Status = enums.OrderStatusCompleted
		s.metrics.IncReconciliation("completed")
		s.logger.Info(ctx, "order completed")
		if s.notifier != nil {
			s.notifier.Notify(ctx, order, tx)
		}
		return &Outcome{Order: order, Transaction: tx, Completed: true}, nil
	}

	// Zero rows means the order already left created. Re-read to tell a
	// replayed completion apart from a genuinely conflicting state.
	current, err := s.repo.FindByReference(ctx, order.Reference)
	if err != nil {
		s.metrics.IncReconciliation("persist_error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order for reconciliation")
	}
	if current.Status == enums.OrderStatusCompleted {
		s.metrics.IncReconciliation("replay")
		s.logger.Info(ctx, "order already completed")
		return &Outcome{Order: current, Transaction: tx, Completed: true, AlreadyCompleted: true}, nil
	}

	s.metrics.IncReconciliation("conflict")
	s.logger.Error(ctx, fmt.Sprintf("completed transaction against order in status %s", current.Status), ErrVerificationFailed)
	return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrVerificationFailed, "order not reconcilable")
}
