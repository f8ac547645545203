package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgAuth "github.com/angelmondragon/ticketing-backend/pkg/auth"
	"github.com/angelmondragon/ticketing-backend/pkg/config"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
	"github.com/angelmondragon/ticketing-backend/pkg/logger"
	"github.com/angelmondragon/ticketing-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.App.CORSOrigins = []string{"http://localhost:3000"}
	cfg.JWT = config.JWTConfig{Secret: "router-secret", Issuer: "tix-identity", ExpirationMinutes: 15}
	return cfg
}

func newTestRouter(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	metrics.NewCheckoutMetrics(reg).IncPurchase("created")
	handler := NewRouter(RouterParams{
		Config:   cfg,
		Logger:   logger.New(logger.Options{ServiceName: "router-test"}),
		DB:       stubPinger{},
		Gatherer: reg,
	})
	return handler, cfg
}

func bearer(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.NewVerifier(cfg.JWT).Mint(time.Now(), pkgAuth.AccessTokenPayload{UserID: uuid.New(), Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(handler http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	handler, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, serve(handler, http.MethodGet, "/health/live", "").Code)
	assert.Equal(t, http.StatusOK, serve(handler, http.MethodGet, "/health/ready", "").Code)

	rec := serve(handler, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tix_purchases_created_total")
}

func TestResponsesCarryRequestID(t *testing.T) {
	handler, _ := newTestRouter(t)
	rec := serve(handler, http.MethodGet, "/health/live", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestAuthenticatedRoutesRequireToken(t *testing.T) {
	handler, cfg := newTestRouter(t)
	id := uuid.NewString()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/cart"},
		{http.MethodPost, "/api/v1/cart/lines"},
		{http.MethodPatch, "/api/v1/cart/lines/" + id},
		{http.MethodDelete, "/api/v1/cart"},
		{http.MethodPost, "/api/v1/purchases"},
		{http.MethodGet, "/api/v1/purchases"},
		{http.MethodGet, "/api/v1/purchases/" + id},
		{http.MethodGet, "/api/v1/purchases/" + id + "/status"},
		{http.MethodGet, "/api/v1/tickets"},
		{http.MethodGet, "/api/v1/tickets/unused"},
		{http.MethodGet, "/api/v1/tickets/transferred"},
		{http.MethodPost, "/api/v1/tickets/" + id + "/transfer"},
		{http.MethodGet, "/api/v1/tickets/" + id + "/qr.png"},
	}
	for _, rt := range routes {
		assert.Equal(t, http.StatusUnauthorized, serve(handler, rt.method, rt.path, "").Code, "%s %s", rt.method, rt.path)

		// services are not wired in this router, so reaching the handler yields 500
		rec := serve(handler, rt.method, rt.path, bearer(t, cfg, enums.RoleCustomer))
		assert.Equal(t, http.StatusInternalServerError, rec.Code, "%s %s", rt.method, rt.path)
	}
}

func TestDoorRoutesRequireStaff(t *testing.T) {
	handler, cfg := newTestRouter(t)

	for _, path := range []string{"/api/v1/tickets/validate", "/api/v1/tickets/qr/ABC-1-2-3-XYZ"} {
		method := http.MethodPost
		if strings.Contains(path, "/qr/") {
			method = http.MethodGet
		}
		assert.Equal(t, http.StatusForbidden, serve(handler, method, path, bearer(t, cfg, enums.RoleCustomer)).Code, path)
		assert.Equal(t, http.StatusInternalServerError, serve(handler, method, path, bearer(t, cfg, enums.RoleStaff)).Code, path)
		assert.Equal(t, http.StatusInternalServerError, serve(handler, method, path, bearer(t, cfg, enums.RoleAdmin)).Code, path)
	}
}

func TestSpecialTicketsAreAdminOnly(t *testing.T) {
	handler, cfg := newTestRouter(t)

	assert.Equal(t, http.StatusForbidden, serve(handler, http.MethodPost, "/api/v1/tickets/special", bearer(t, cfg, enums.RoleStaff)).Code)
	assert.Equal(t, http.StatusInternalServerError, serve(handler, http.MethodPost, "/api/v1/tickets/special", bearer(t, cfg, enums.RoleAdmin)).Code)
}

func TestWebhookIsPublic(t *testing.T) {
	handler, _ := newTestRouter(t)
	// no token required; the unwired service surfaces as 500 rather than 401
	assert.Equal(t, http.StatusInternalServerError, serve(handler, http.MethodPost, "/api/v1/webhooks/mercadopago", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	handler, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
