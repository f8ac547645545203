package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/angelmondragon/ticketing-backend/api/responses"
	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
	"github.com/angelmondragon/ticketing-backend/pkg/logger"
)

type rateStore interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	RateKey(rule, subject string) string
}

// RateRule limits each caller to Limit requests per Window.
type RateRule struct {
	Name   string
	Limit  int
	Window time.Duration
}

// RateLimit enforces rule per authenticated user, falling back to the remote
// address for anonymous callers. Redis outages fail open: a door scanner
// must keep working when the cache is down.
func RateLimit(store rateStore, logg *logger.Logger, rule RateRule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || rule.Limit <= 0 || rule.Window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			subject := UserIDFromContext(ctx)
			if subject == "" {
				subject = r.RemoteAddr
			}

			count, reset, err := store.Hit(ctx, store.RateKey(rule.Name, subject), rule.Window)
			if err != nil {
				logError(ctx, logg, "rate limit check failed", err)
				next.ServeHTTP(w, r)
				return
			}

			remaining := max(int64(rule.Limit)-count, 0)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if count > int64(rule.Limit) {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(reset.Seconds()))))
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests, retry later").
					WithDetails(map[string]any{"rule": rule.Name, "limit": rule.Limit, "window_seconds": int(rule.Window.Seconds())}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
