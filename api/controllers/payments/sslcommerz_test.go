package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	internalpayments "github.com/refurbmart/refurbmart-backend/internal/payments"
	"github.com/refurbmart/refurbmart-backend/pkg/enums"
	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
)

type stubHandler struct {
	calls  []internalpayments.Callback
	result *internalpayments.CallbackResult
	err    error
}

func (s *stubHandler) Handle(_ context.Context, cb internalpayments.Callback) (*internalpayments.CallbackResult, error) {
	s.calls = append(s.calls, cb)
	return s.result, s.err
}

const frontend = "https://shop.example/"

func post(h http.HandlerFunc, kind string, form url.Values) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Post("/api/payments/sslcommerz/{kind}", h)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/sslcommerz/"+kind, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestSuccessCallbackRedirectsToStorefront(t *testing.T) {
	orderID := uuid.New()
	stub := &stubHandler{result: &internalpayments.CallbackResult{
		OrderID:       orderID,
		TransactionID: "TXN-1",
		Status:        enums.TransactionStatusCompleted,
		PaymentStatus: enums.PaymentStatusPaid,
	}}

	form := url.Values{"tran_id": {"TXN-1"}, "val_id": {"VAL-9"}, "amount": {"225.99"}, "currency": {"BDT"}, "status": {"VALID"}}
	resp := post(SSLCommerzCallback(stub, frontend, nil), "success", form)

	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302 got %d", resp.Code)
	}
	loc, err := url.Parse(resp.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if loc.Host != "shop.example" || loc.Path != "/payment/success" {
		t.Fatalf("unexpected redirect %s", loc)
	}
	if loc.Query().Get("order_id") != orderID.String() || loc.Query().Get("status") != "completed" {
		t.Fatalf("unexpected query %s", loc.RawQuery)
	}

	if len(stub.calls) != 1 {
		t.Fatalf("expected one call, got %d", len(stub.calls))
	}
	cb := stub.calls[0]
	if cb.Kind != internalpayments.CallbackSuccess || cb.ValID != "VAL-9" || cb.Amount != "225.99" || cb.Payload["currency"] != "BDT" {
		t.Fatalf("unexpected callback %+v", cb)
	}
}

func TestCancelCallbackRedirect(t *testing.T) {
	stub := &stubHandler{result: &internalpayments.CallbackResult{
		OrderID:       uuid.New(),
		TransactionID: "TXN-2",
		Status:        enums.TransactionStatusFailed,
		PaymentStatus: enums.PaymentStatusFailed,
	}}
	resp := post(SSLCommerzCallback(stub, frontend, nil), "cancel", url.Values{"tran_id": {"TXN-2"}})
	if !strings.Contains(resp.Header().Get("Location"), "/payment/cancelled?") {
		t.Fatalf("unexpected redirect %q", resp.Header().Get("Location"))
	}
}

func TestCallbackErrorRedirectsToFailure(t *testing.T) {
	stub := &stubHandler{err: pkgerrors.New(pkgerrors.CodeNotFound, "payment transaction not found")}
	resp := post(SSLCommerzCallback(stub, frontend, nil), "fail", url.Values{"tran_id": {"TXN-404"}})
	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302 got %d", resp.Code)
	}
	loc := resp.Header().Get("Location")
	if !strings.HasPrefix(loc, "https://shop.example/payment/failed?") || !strings.Contains(loc, "status=error") {
		t.Fatalf("unexpected redirect %q", loc)
	}
}

func TestIPNAnswersJSON(t *testing.T) {
	stub := &stubHandler{result: &internalpayments.CallbackResult{TransactionID: "TXN-3", Status: enums.TransactionStatusCompleted}}
	resp := post(SSLCommerzCallback(stub, frontend, nil), "ipn", url.Values{"tran_id": {"TXN-3"}, "status": {"VALID"}})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"transaction_id":"TXN-3"`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}

	stub.err = pkgerrors.New(pkgerrors.CodeDependency, "validator down")
	resp = post(SSLCommerzCallback(stub, frontend, nil), "ipn", url.Values{"tran_id": {"TXN-3"}})
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 so the gateway retries, got %d", resp.Code)
	}
}

func TestUnknownCallbackKind(t *testing.T) {
	stub := &stubHandler{}
	resp := post(SSLCommerzCallback(stub, frontend, nil), "refund", url.Values{})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if len(stub.calls) != 0 {
		t.Fatalf("handler should not be called")
	}
}
