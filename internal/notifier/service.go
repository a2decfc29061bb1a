package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elida-shop/storefront-backend/pkg/config"
	"github.com/elida-shop/storefront-backend/pkg/db/models"
	"github.com/elida-shop/storefront-backend/pkg/logger"
	"github.com/elida-shop/storefront-backend/pkg/makecommerce"
)

const eventPaymentCompleted = "PAYMENT_COMPLETED"

// Service pushes completed-payment events to the configured downstream
// webhook. Delivery is best effort: failures are logged and dropped, a
// completed order never waits on (or rolls back for) the listener.
type Service struct {
	httpClient *http.Client
	url        string
	logger     *logger.Logger
}

func NewService(cfg config.NotifierConfig, logg *logger.Logger) (*Service, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		httpClient: &http.Client{Timeout: timeout},
		url:        strings.TrimSpace(cfg.WebhookURL),
		logger:     logg,
	}, nil
}

// Enabled reports whether a webhook URL is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.url != ""
}

type orderPayload struct {
	Reference string `json:"reference"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Subtotal  string `json:"subtotal"`
	Total     string `json:"total"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
}

type transactionPayload struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
}

type eventPayload struct {
	Type        string             `json:"type"`
	Order       orderPayload       `json:"order"`
	Transaction transactionPayload `json:"transaction"`
}

// Notify delivers a PAYMENT_COMPLETED event.
func (s *Service) Notify(ctx context.Context, order *models.Order, tx *makecommerce.Transaction) {
	if !s.Enabled() || order == nil || tx == nil {
		return
	}
	ctx = s.logger.WithReference(ctx, order.Reference)

	payload := eventPayload{
		Type: eventPaymentCompleted,
		Order: orderPayload{
			Reference: order.Reference,
			UserID:    order.UserID,
			Email:     order.Email,
			Subtotal:  order.Subtotal.StringFixed(2),
			Total:     order.Total.StringFixed(2),
			Currency:  order.Currency,
			Status:    string(order.Status),
		},
		Transaction: transactionPayload{
			ID:        tx.ID,
			Status:    string(tx.Status),
			Reference: tx.Reference,
		},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error(ctx, "encoding completion event failed", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(encoded))
	if err != nil {
		s.logger.Error(ctx, "building completion webhook request failed", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error(ctx, "delivering completion event failed", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Error(ctx, "completion event rejected", fmt.Errorf("webhook returned status %d", resp.StatusCode))
		return
	}
	s.logger.Info(ctx, "completion event delivered")
}
