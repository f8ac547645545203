package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ticketing-backend/api/middleware"
	cartsvc "github.com/angelmondragon/ticketing-backend/internal/cart"
	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
)

type stubCartService struct {
	cart      *models.Cart
	err       error
	lastInput cartsvc.AddLineInput
	lastLine  uuid.UUID
	lastQty   int
	userID    uuid.UUID
}

func (s *stubCartService) GetOrCreateCart(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	s.userID = userID
	return s.cart, s.err
}

func (s *stubCartService) AddLine(_ context.Context, userID uuid.UUID, input cartsvc.AddLineInput) (*models.Cart, error) {
	s.userID = userID
	s.lastInput = input
	return s.cart, s.err
}

func (s *stubCartService) UpdateLine(_ context.Context, userID, lineID uuid.UUID, quantity int) (*models.Cart, error) {
	s.userID = userID
	s.lastLine = lineID
	s.lastQty = quantity
	return s.cart, s.err
}

func (s *stubCartService) RemoveLine(_ context.Context, userID, lineID uuid.UUID) (*models.Cart, error) {
	s.userID = userID
	s.lastLine = lineID
	return s.cart, s.err
}

func (s *stubCartService) ClearCart(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	s.userID = userID
	return s.cart, s.err
}

func (s *stubCartService) RecomputeTotals(context.Context, uuid.UUID) (*models.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartService) MarkAbandoned(context.Context, uuid.UUID) error {
	return s.err
}

func sampleCart(userID uuid.UUID) *models.Cart {
	return &models.Cart{
		ID:          uuid.New(),
		UserID:      userID,
		Status:      enums.CartStatusActive,
		Subtotal:    decimal.RequireFromString("100000"),
		ServiceFee:  decimal.RequireFromString("7080.50"),
		Total:       decimal.RequireFromString("107080.50"),
		TicketCount: 2,
	}
}

func authed(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithPrincipal(req.Context(), middleware.Principal{UserID: userID, Role: enums.RoleCustomer}))
}

func withLineID(req *http.Request, lineID string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add("lineId", lineID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestCartFetchSuccess(t *testing.T) {
	userID := uuid.New()
	c := sampleCart(userID)
	svc := &stubCartService{cart: c}

	req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), userID)
	resp := httptest.NewRecorder()
	CartFetch(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data cartsvc.View `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != c.ID {
		t.Fatalf("unexpected cart id: %s", envelope.Data.ID)
	}
	if !envelope.Data.Total.Equal(c.Total) {
		t.Fatalf("unexpected total %s", envelope.Data.Total)
	}
	if svc.userID != userID {
		t.Fatalf("service called for wrong user %s", svc.userID)
	}
}

func TestCartFetchRequiresUser(t *testing.T) {
	resp := httptest.NewRecorder()
	CartFetch(&stubCartService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddLine(t *testing.T) {
	userID := uuid.New()
	eventID := uuid.New()
	stageID := uuid.New()
	svc := &stubCartService{cart: sampleCart(userID)}

	body := fmt.Sprintf(`{"kind":"ticket","event_id":"%s","stage_id":"%s","ticket_type":"general","quantity":2}`, eventID, stageID)
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/lines", strings.NewReader(body)), userID)
	resp := httptest.NewRecorder()
	CartAddLine(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	in := svc.lastInput
	if in.Kind != enums.CartLineKindTicket || in.EventID != eventID || in.Quantity != 2 {
		t.Fatalf("unexpected input %+v", in)
	}
	if in.StageID == nil || *in.StageID != stageID {
		t.Fatalf("stage id not forwarded")
	}
}

func TestCartAddLineWithoutQuantityLeavesDefaultToService(t *testing.T) {
	userID := uuid.New()
	svc := &stubCartService{cart: sampleCart(userID)}

	body := fmt.Sprintf(`{"kind":"package","event_id":"%s","package_id":"%s"}`, uuid.New(), uuid.New())
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/lines", strings.NewReader(body)), userID)
	resp := httptest.NewRecorder()
	CartAddLine(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastInput.Kind != enums.CartLineKindPackage || svc.lastInput.Quantity != 0 {
		t.Fatalf("unexpected input %+v", svc.lastInput)
	}
}

func TestCartAddLineRejectsClientPrices(t *testing.T) {
	userID := uuid.New()
	svc := &stubCartService{cart: sampleCart(userID)}
	body := fmt.Sprintf(`{"kind":"ticket","event_id":"%s","quantity":1,"unit_price":"1"}`, uuid.New())
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/lines", strings.NewReader(body)), userID)
	resp := httptest.NewRecorder()
	CartAddLine(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddLineValidatesQuantityAndKind(t *testing.T) {
	userID := uuid.New()
	for _, body := range []string{
		fmt.Sprintf(`{"kind":"ticket","event_id":"%s","quantity":-1}`, uuid.New()),
		fmt.Sprintf(`{"kind":"seat","event_id":"%s","quantity":1}`, uuid.New()),
	} {
		req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/lines", strings.NewReader(body)), userID)
		resp := httptest.NewRecorder()
		CartAddLine(&stubCartService{}, nil).ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s got %d", body, resp.Code)
		}
	}
}

func TestCartUpdateLine(t *testing.T) {
	userID := uuid.New()
	lineID := uuid.New()
	svc := &stubCartService{cart: sampleCart(userID)}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/lines/"+lineID.String(), strings.NewReader(`{"quantity":3}`))
	req = authed(withLineID(req, lineID.String()), userID)
	resp := httptest.NewRecorder()
	CartUpdateLine(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastLine != lineID || svc.lastQty != 3 {
		t.Fatalf("unexpected update %s qty %d", svc.lastLine, svc.lastQty)
	}
}

func TestCartRemoveLineBadID(t *testing.T) {
	userID := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/lines/abc", nil)
	req = authed(withLineID(req, "abc"), userID)
	resp := httptest.NewRecorder()
	CartRemoveLine(&stubCartService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartRemoveLineNotFound(t *testing.T) {
	userID := uuid.New()
	lineID := uuid.New()
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/lines/"+lineID.String(), nil)
	req = authed(withLineID(req, lineID.String()), userID)
	resp := httptest.NewRecorder()
	CartRemoveLine(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartClear(t *testing.T) {
	userID := uuid.New()
	c := sampleCart(userID)
	c.Subtotal, c.ServiceFee, c.Total, c.TicketCount = decimal.Zero, decimal.Zero, decimal.Zero, 0
	svc := &stubCartService{cart: c}

	req := authed(httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil), userID)
	resp := httptest.NewRecorder()
	CartClear(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"ticket_count":0`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestCartRecompute(t *testing.T) {
	userID := uuid.New()
	svc := &stubCartService{cart: sampleCart(userID)}

	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/recompute", nil), userID)
	resp := httptest.NewRecorder()
	CartRecompute(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"107080.5`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestCartAbandon(t *testing.T) {
	userID := uuid.New()
	svc := &stubCartService{}

	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/abandon", nil), userID)
	resp := httptest.NewRecorder()
	CartAbandon(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}

	svc.err = cartsvc.ErrCartNotActive
	resp = httptest.NewRecorder()
	CartAbandon(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}
