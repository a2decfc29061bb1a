package mcwebhook

import (
	"context"
	"fmt"
	"strings"

	"github.com/elida-shop/storefront-backend/internal/payments"
	pkgerrors "github.com/elida-shop/storefront-backend/pkg/errors"
	"github.com/elida-shop/storefront-backend/pkg/logger"
)

type reconciler interface {
	Reconcile(ctx context.Context, transactionID string) (*payments.Outcome, error)
}

// Notification is the gateway's server-to-server payment notification.
type Notification struct {
	Transaction string `json:"transaction" validate:"required"`
	Reference   string `json:"reference"`
	Status      string `json:"status"`
}

// Service feeds gateway notifications into reconciliation.
type Service struct {
	reconciler reconciler
	guard      *IdempotencyGuard
	logger     *logger.Logger
}

func NewService(rec reconciler, guard *IdempotencyGuard, logg *logger.Logger) (*Service, error) {
	if rec == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{reconciler: rec, guard: guard, logger: logg}, nil
}

// HandleNotification reconciles the notified transaction. Deliveries are
// deduped through Redis when a guard is wired; without one (or with Redis
// down) replays still land on the idempotent reconcile path.
func (s *Service) HandleNotification(ctx context.Context, notification Notification) error {
	transactionID := strings.TrimSpace(notification.Transaction)
	if transactionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification transaction id required")
	}
	ctx = s.logger.WithTransactionID(ctx, transactionID)

	if s.guard != nil {
		duplicate, err := s.guard.CheckAndMark(ctx, transactionID)
		if err != nil {
			s.logger.Warn(ctx, "notification dedup unavailable")
		} else if duplicate {
			s.logger.Info(ctx, "duplicate notification skipped")
			return nil
		}
	}

	if _, err := s.reconciler.Reconcile(ctx, transactionID); err != nil {
		if s.guard != nil {
			// release the mark so the gateway's retry is not swallowed
			if delErr := s.guard.Delete(ctx, transactionID); delErr != nil {
				s.logger.Warn(ctx, "releasing notification mark failed")
			}
		}
		return err
	}
	return nil
}
