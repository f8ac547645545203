package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/ticketing-backend/pkg/enums"
)

type memRateStore struct {
	counts map[string]int64
	err    error
}

func (m *memRateStore) Hit(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if m.err != nil {
		return 0, 0, m.err
	}
	m.counts[key]++
	return m.counts[key], window / 2, nil
}

func (m *memRateStore) RateKey(rule, subject string) string { return rule + ":" + subject }

func TestRateLimitRejectsOverLimit(t *testing.T) {
	store := &memRateStore{counts: map[string]int64{}}
	rule := RateRule{Name: "ticket-transfer", Limit: 2, Window: time.Hour}
	handler := RateLimit(store, nil, rule)(okHandler())
	caller := Principal{UserID: uuid.New(), Role: enums.RoleCustomer}

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/tickets/x/transfer", nil)
		req = req.WithContext(WithPrincipal(req.Context(), caller))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "1800", rec.Header().Get("Retry-After"))
			assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, int64(3), store.counts["ticket-transfer:"+caller.UserID.String()])
}

func TestRateLimitFailsOpen(t *testing.T) {
	store := &memRateStore{err: errors.New("redis down")}
	handler := RateLimit(store, nil, RateRule{Name: "ticket-validate", Limit: 1, Window: time.Minute})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitDisabledRule(t *testing.T) {
	handler := RateLimit(&memRateStore{counts: map[string]int64{}}, nil, RateRule{Name: "off"})(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}
