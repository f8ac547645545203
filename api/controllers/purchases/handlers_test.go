package purchases

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/ticketing-backend/api/middleware"
	purchasesvc "github.com/angelmondragon/ticketing-backend/internal/purchases"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
	"github.com/angelmondragon/ticketing-backend/pkg/pagination"
)

type stubPurchaseService struct {
	checkout  *purchasesvc.Checkout
	view      *purchasesvc.PurchaseView
	status    *purchasesvc.Status
	err       error
	gotCart   uuid.UUID
	gotBuyer  purchasesvc.Buyer
	gotParams pagination.Params
	gotID     uuid.UUID
}

func (s *stubPurchaseService) CreatePurchase(_ context.Context, _ uuid.UUID, cartID uuid.UUID, buyer purchasesvc.Buyer) (*purchasesvc.Checkout, error) {
	s.gotCart = cartID
	s.gotBuyer = buyer
	return s.checkout, s.err
}

func (s *stubPurchaseService) ListPurchases(_ context.Context, _ uuid.UUID, params pagination.Params) (pagination.Page[purchasesvc.PurchaseView], error) {
	s.gotParams = params
	if s.err != nil {
		return pagination.Page[purchasesvc.PurchaseView]{}, s.err
	}
	return pagination.NewPage(params, 1, []purchasesvc.PurchaseView{*s.view}), nil
}

func (s *stubPurchaseService) GetPurchase(_ context.Context, _ uuid.UUID, id uuid.UUID) (*purchasesvc.PurchaseView, error) {
	s.gotID = id
	return s.view, s.err
}

func (s *stubPurchaseService) GetPurchaseStatus(_ context.Context, _ uuid.UUID, id uuid.UUID) (*purchasesvc.Status, error) {
	s.gotID = id
	return s.status, s.err
}

func (s *stubPurchaseService) ExpireOverdue(context.Context, *uuid.UUID, int) (int64, error) {
	return 0, s.err
}

func request(method, target, body string, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	return req.WithContext(middleware.WithPrincipal(ctx, middleware.Principal{UserID: uuid.New(), Role: enums.RoleCustomer}))
}

func TestPurchaseCreate(t *testing.T) {
	cartID := uuid.New()
	svc := &stubPurchaseService{checkout: &purchasesvc.Checkout{PurchaseID: uuid.New(), PreferenceID: "pref-1", InitPoint: "https://mp.test/init"}}
	body := fmt.Sprintf(`{"cart_id":"%s","buyer":{"first_name":" Ana ","last_name":"Gómez","document":"1020","email":"ana@example.com"}}`, cartID)

	rec := httptest.NewRecorder()
	PurchaseCreate(svc, nil).ServeHTTP(rec, request(http.MethodPost, "/api/v1/purchases", body, nil))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, cartID, svc.gotCart)
	assert.Equal(t, "Ana", svc.gotBuyer.FirstName)
	assert.Contains(t, rec.Body.String(), `"preference_id":"pref-1"`)
}

func TestPurchaseCreateRejectsBadEmail(t *testing.T) {
	body := fmt.Sprintf(`{"cart_id":"%s","buyer":{"email":"nope"}}`, uuid.New())
	rec := httptest.NewRecorder()
	PurchaseCreate(&stubPurchaseService{}, nil).ServeHTTP(rec, request(http.MethodPost, "/api/v1/purchases", body, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurchaseCreateMapsServiceErrors(t *testing.T) {
	svc := &stubPurchaseService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")}
	body := fmt.Sprintf(`{"cart_id":"%s","buyer":{"first_name":"a","last_name":"b","document":"1","email":"a@b.co"}}`, uuid.New())
	rec := httptest.NewRecorder()
	PurchaseCreate(svc, nil).ServeHTTP(rec, request(http.MethodPost, "/api/v1/purchases", body, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPurchaseList(t *testing.T) {
	svc := &stubPurchaseService{view: &purchasesvc.PurchaseView{ID: uuid.New(), Status: enums.PurchaseStatusPending}}
	rec := httptest.NewRecorder()
	PurchaseList(svc, nil).ServeHTTP(rec, request(http.MethodGet, "/api/v1/purchases?page=2&limit=5", "", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, svc.gotParams.Page)
	assert.Equal(t, 5, svc.gotParams.Limit)

	var envelope struct {
		Data pagination.Page[purchasesvc.PurchaseView] `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Items, 1)
	assert.Equal(t, svc.view.ID, envelope.Data.Items[0].ID)
}

func TestPurchaseDetailAndStatus(t *testing.T) {
	id := uuid.New()
	paidAt := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	svc := &stubPurchaseService{
		view:   &purchasesvc.PurchaseView{ID: id},
		status: &purchasesvc.Status{ID: id, Status: enums.PurchaseStatusPaid, PaidAt: &paidAt, TotalPrice: "107080.50"},
	}

	rec := httptest.NewRecorder()
	PurchaseDetail(svc, nil).ServeHTTP(rec, request(http.MethodGet, "/api/v1/purchases/"+id.String(), "", map[string]string{"id": id.String()}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, svc.gotID)

	rec = httptest.NewRecorder()
	PurchaseStatus(svc, nil).ServeHTTP(rec, request(http.MethodGet, "/api/v1/purchases/"+id.String()+"/status", "", map[string]string{"id": id.String()}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"paid"`)
	assert.Contains(t, rec.Body.String(), `"total_price":"107080.50"`)
}

func TestPurchaseDetailNotFound(t *testing.T) {
	id := uuid.New()
	svc := &stubPurchaseService{err: pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")}
	rec := httptest.NewRecorder()
	PurchaseDetail(svc, nil).ServeHTTP(rec, request(http.MethodGet, "/", "", map[string]string{"id": id.String()}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
