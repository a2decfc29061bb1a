package mcwebhook

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type notificationStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	WebhookEventKey(eventID string) string
}

// IdempotencyGuard dedupes gateway notification deliveries. The gateway
// retries notifications at least once; reconciliation is idempotent on its
// own, the guard just keeps replays from doing redundant gateway lookups.
type IdempotencyGuard struct {
	store notificationStore
	ttl   time.Duration
}

func NewIdempotencyGuard(store notificationStore, ttl time.Duration) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("notification store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &IdempotencyGuard{
		store: store,
		ttl:   ttl,
	}, nil
}

// CheckAndMark returns true when the event was already seen.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	key := g.store.WebhookEventKey(eventID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set notification key: %w", err)
	}
	return !set, nil
}

// Delete releases the mark so a failed delivery can be retried.
func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	key := g.store.WebhookEventKey(eventID)
	return g.store.Del(ctx, key)
}
