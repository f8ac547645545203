package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/ticketing-backend/pkg/redis"
)

// Manager claims keys with SETNX so that a unit of work runs at most once per TTL.
// Consumer keys follow `tix:idempotency:evt:processed:<consumer>:<event_id>`.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// Claim reports whether the caller now owns scope/id. A false result means
// another delivery already claimed it within the TTL.
func (m *Manager) Claim(ctx context.Context, scope, id string) (bool, error) {
	key, err := m.key(scope, id)
	if err != nil {
		return false, err
	}
	return m.store.SetNX(ctx, key, "1", m.ttl)
}

// Release drops a claim so a retry can run the work again.
func (m *Manager) Release(ctx context.Context, scope, id string) error {
	key, err := m.key(scope, id)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// CheckAndMarkProcessed returns true if the event was already processed by consumer.
func (m *Manager) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	scope, err := consumerScope(consumer, eventID)
	if err != nil {
		return false, err
	}
	claimed, err := m.Claim(ctx, scope, eventID.String())
	if err != nil {
		return false, err
	}
	return !claimed, nil
}

func (m *Manager) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	scope, err := consumerScope(consumer, eventID)
	if err != nil {
		return err
	}
	return m.Release(ctx, scope, eventID.String())
}

func (m *Manager) key(scope, id string) (string, error) {
	if strings.TrimSpace(scope) == "" {
		return "", errors.New("scope is required")
	}
	if strings.TrimSpace(id) == "" {
		return "", errors.New("id is required")
	}
	return m.store.IdempotencyKey(scope, id), nil
}

func consumerScope(consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return fmt.Sprintf("evt:processed:%s", consumer), nil
}
