package webhooks

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mpwebhook "github.com/angelmondragon/ticketing-backend/internal/webhooks/mercadopago"
	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
	"github.com/angelmondragon/ticketing-backend/pkg/mercadopago"
)

const testSecret = "mp-webhook-secret"

type fakeWebhookService struct {
	calls   int
	last    mpwebhook.Notification
	outcome mpwebhook.Outcome
	err     error
}

func (f *fakeWebhookService) HandleNotification(_ context.Context, n mpwebhook.Notification) (mpwebhook.Outcome, error) {
	f.calls++
	f.last = n
	return f.outcome, f.err
}

func signedRequest(target, body, dataID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	ts := "1742505638683"
	requestID := "req-1"
	sig := mercadopago.Sign(testSecret, mercadopago.Manifest(dataID, requestID, ts))
	req.Header.Set("x-signature", "ts="+ts+",v1="+sig)
	req.Header.Set("x-request-id", requestID)
	return req
}

func TestMercadoPagoWebhookDispatchesPayment(t *testing.T) {
	svc := &fakeWebhookService{outcome: mpwebhook.OutcomePaid}
	handler := MercadoPagoWebhook(svc, testSecret, nil)

	req := signedRequest("/api/v1/webhooks/mercadopago?data.id=123456&type=payment",
		`{"id":98765,"type":"payment","action":"payment.updated","data":{"id":"123456"},"live_mode":true}`, "123456")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.calls != 1 {
		t.Fatalf("expected one call, got %d", svc.calls)
	}
	want := mpwebhook.Notification{ID: "98765", Type: "payment", Action: "payment.updated", DataID: "123456"}
	if svc.last != want {
		t.Fatalf("unexpected notification %+v", svc.last)
	}
	if !strings.Contains(rec.Body.String(), `"outcome":"paid"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestMercadoPagoWebhookNumericDataID(t *testing.T) {
	svc := &fakeWebhookService{outcome: mpwebhook.OutcomePending}
	req := signedRequest("/api/v1/webhooks/mercadopago", `{"type":"payment","data":{"id":555}}`, "555")
	rec := httptest.NewRecorder()
	MercadoPagoWebhook(svc, testSecret, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.last.DataID != "555" {
		t.Fatalf("unexpected data id %q", svc.last.DataID)
	}
}

func TestMercadoPagoWebhookRejectsBadSignature(t *testing.T) {
	svc := &fakeWebhookService{}
	req := signedRequest("/api/v1/webhooks/mercadopago?data.id=1", `{"type":"payment","data":{"id":"1"}}`, "2")
	rec := httptest.NewRecorder()
	MercadoPagoWebhook(svc, testSecret, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("service must not run on a forged notification")
	}
}

func TestMercadoPagoWebhookMissingSignature(t *testing.T) {
	svc := &fakeWebhookService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago", strings.NewReader(`{"type":"payment","data":{"id":"1"}}`))
	rec := httptest.NewRecorder()
	MercadoPagoWebhook(svc, testSecret, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestMercadoPagoWebhookWithoutSecretSkipsVerification(t *testing.T) {
	svc := &fakeWebhookService{outcome: mpwebhook.OutcomeIgnored}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago", strings.NewReader(`{"type":"merchant_order","data":{"id":"77"}}`))
	rec := httptest.NewRecorder()
	MercadoPagoWebhook(svc, "", nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.last.Type != "merchant_order" {
		t.Fatalf("unexpected type %q", svc.last.Type)
	}
}

func TestMercadoPagoWebhookPropagatesFailures(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{err: pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found"), want: http.StatusNotFound},
		{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("timeout"), "get payment"), want: http.StatusServiceUnavailable},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		svc := &fakeWebhookService{err: tc.err}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago", strings.NewReader(`{"type":"payment","data":{"id":"1"}}`))
		rec := httptest.NewRecorder()
		MercadoPagoWebhook(svc, "", nil).ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%v: expected %d got %d", tc.err, tc.want, rec.Code)
		}
	}
}

func TestMercadoPagoWebhookRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago", strings.NewReader(`{"type":`))
	rec := httptest.NewRecorder()
	MercadoPagoWebhook(&fakeWebhookService{}, "", nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
