package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/ticketing-backend/pkg/auth"
	"github.com/angelmondragon/ticketing-backend/pkg/config"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "tix-identity", ExpirationMinutes: 60}

func mintTestToken(t *testing.T, userID uuid.UUID, role enums.Role) string {
	t.Helper()
	token, err := auth.NewVerifier(testJWT).Mint(time.Now(), auth.AccessTokenPayload{UserID: userID, Role: role})
	require.NoError(t, err)
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingOrInvalidToken(t *testing.T) {
	handler := Auth(auth.NewVerifier(testJWT), nil)(okHandler())

	for _, header := range []string{"", "Bearer ", "Bearer invalid", "Basic dXNlcjpwYXNz", mintTestToken(t, uuid.New(), enums.RoleAdmin)} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	}
}

func TestAuthRejectsTokenFromOtherIssuer(t *testing.T) {
	other := testJWT
	other.Issuer = "someone-else"
	token, err := auth.NewVerifier(other).Mint(time.Now(), auth.AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleCustomer})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	Auth(auth.NewVerifier(testJWT), nil)(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthSeedsContext(t *testing.T) {
	userID := uuid.New()
	var gotUser uuid.UUID
	var gotRole enums.Role
	handler := Auth(auth.NewVerifier(testJWT), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		gotUser, err = UserUUID(r.Context())
		require.NoError(t, err)
		p, _ := PrincipalFrom(r.Context())
		gotRole = p.Role
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+mintTestToken(t, userID, enums.RoleStaff))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotUser)
	assert.Equal(t, enums.RoleStaff, gotRole)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(nil, enums.RoleStaff, enums.RoleAdmin)(okHandler())

	cases := map[enums.Role]int{
		enums.RoleAdmin:    http.StatusOK,
		enums.RoleStaff:    http.StatusOK,
		enums.RoleCustomer: http.StatusForbidden,
		"":                 http.StatusForbidden,
	}
	for role, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithPrincipal(req.Context(), Principal{UserID: uuid.New(), Role: role}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "role %q", role)
	}
}

func TestUserUUIDWithoutContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := UserUUID(req.Context())
	assert.Error(t, err)
}

func TestRecovererReturns500(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestIDEchoesOrGenerates(t *testing.T) {
	handler := RequestID(nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))

	for _, bad := range []string{"", "has space", "tab\tid", strings.Repeat("x", 129)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if bad != "" {
			req.Header.Set(requestIDHeader, bad)
		}
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
		assert.NoError(t, err, "header %q", bad)
	}
}

func TestRecovererRepanicsOnAbort(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithError(t, http.ErrAbortHandler.Error(), func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
