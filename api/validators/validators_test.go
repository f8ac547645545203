package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
)

type transferBody struct {
	Email    string `json:"email" validate:"required,email"`
	Quantity int    `json:"quantity" validate:"gt=0"`
	Kind     string `json:"kind" validate:"oneof=ticket package"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@example.com","quantity":2,"kind":"ticket"}`))
	var body transferBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, 2, body.Quantity)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@example.com","quantity":1,"kind":"ticket","extra":true}`))
	var body transferBody
	err := DecodeJSONBody(req, &body)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","quantity":0,"kind":"box"}`))
	var body transferBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be greater than 0", details["quantity"])
	assert.Equal(t, "must be one of [ticket package]", details["kind"])
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestPathUUID(t *testing.T) {
	id := uuid.New()
	got, err := PathUUID(withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", id.String()), "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = PathUUID(withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "abc"), "id")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = PathUUID(httptest.NewRequest(http.MethodGet, "/", nil), "id")
	assert.Error(t, err)
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?size=256&bad=x", nil)
	v, err := ParseQueryInt(req, "size", 512, 128, 1024)
	require.NoError(t, err)
	assert.Equal(t, 256, v)

	v, err = ParseQueryInt(req, "missing", 512, 128, 1024)
	require.NoError(t, err)
	assert.Equal(t, 512, v)

	_, err = ParseQueryInt(req, "bad", 512, 128, 1024)
	assert.Error(t, err)

	_, err = ParseQueryInt(httptest.NewRequest(http.MethodGet, "/?size=4096", nil), "size", 512, 128, 1024)
	assert.Error(t, err)
}

func TestDecodeJSONBodyRequiresBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	var body transferBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "request body required")
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abcdef ", 3))
	assert.Equal(t, "abc", SanitizeString(" abc ", 0))
	assert.Equal(t, "José Pérez", SanitizeString("  José \t  Pérez ", 0))
	assert.Equal(t, "Pé", SanitizeString("Pérez", 2))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@example.com", NormalizeEmail("  Ana@Example.COM "))
}

func TestDecodeJSONBodyRejectsBlankStrings(t *testing.T) {
	type recipient struct {
		Name string `json:"name" validate:"notblank"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"   "}`))
	var body recipient
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.Equal(t, map[string]string{"name": "is required"}, pkgerrors.As(err).Details())
}
