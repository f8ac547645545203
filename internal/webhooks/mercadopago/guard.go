package mercadopagowebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/ticketing-backend/pkg/redis"
)

// GuardScope namespaces webhook delivery keys in Redis.
const GuardScope = "webhook:mercadopago"

// Guard drops deliveries that repeat a payment state already being handled.
type Guard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewGuard(store redis.IdempotencyStore, ttl time.Duration) (*Guard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	return &Guard{store: store, ttl: ttl}, nil
}

// Claim reports whether this delivery owns paymentID in the given state.
func (g *Guard) Claim(ctx context.Context, paymentID, status string) (bool, error) {
	if paymentID == "" || status == "" {
		return false, errors.New("payment id and status are required")
	}
	set, err := g.store.SetNX(ctx, g.key(paymentID, status), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set webhook guard: %w", err)
	}
	return set, nil
}

// Release lets the provider's retry of a failed delivery run again.
func (g *Guard) Release(ctx context.Context, paymentID, status string) error {
	return g.store.Del(ctx, g.key(paymentID, status))
}

func (g *Guard) key(paymentID, status string) string {
	return g.store.IdempotencyKey(GuardScope, paymentID+":"+status)
}
