package sslcommerz

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestInitSessionPostsForm(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/gwprocess/v4/api.php" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Fatalf("unexpected content type %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		form = r.PostForm
		_, _ = io.WriteString(w, `{"status":"SUCCESS","sessionkey":"SK1","GatewayPageURL":"https://pay.test/SK1"}`)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/", "store", "secret")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	session, err := client.InitSession(context.Background(), SessionRequest{
		TransactionID: "TXN-1",
		Amount:        "225.99",
		Currency:      "BDT",
		SuccessURL:    "http://api.test/success",
		NumItems:      2,
		CustomerName:  "Rahim",
	})
	if err != nil {
		t.Fatalf("init session: %v", err)
	}
	if !session.OK() || session.SessionKey != "SK1" || session.GatewayPageURL != "https://pay.test/SK1" {
		t.Fatalf("unexpected session %+v", session)
	}
	checks := map[string]string{
		"store_id":     "store",
		"store_passwd": "secret",
		"total_amount": "225.99",
		"currency":     "BDT",
		"tran_id":      "TXN-1",
		"num_of_item":  "2",
		"cus_name":     "Rahim",
	}
	for key, want := range checks {
		if got := form.Get(key); got != want {
			t.Fatalf("form %s = %q, want %q", key, got, want)
		}
	}
}

func TestInitSessionFailureIsNotAnError(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"status":"FAILED","failedreason":"Store Credential Error"}`)),
			Header:     http.Header{},
		}, nil
	})
	client, err := NewClient("http://ssl.test", "store", "secret", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	session, err := client.InitSession(context.Background(), SessionRequest{TransactionID: "TXN-2", Amount: "10.00"})
	if err != nil {
		t.Fatalf("init session: %v", err)
	}
	if session.OK() || session.FailedReason != "Store Credential Error" {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestValidateReadsMixedTypes(t *testing.T) {
	var query url.Values
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/validator/api/validationserverAPI.php" {
			t.Fatalf("unexpected path %q", req.URL.Path)
		}
		query = req.URL.Query()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"status":"VALID","tran_id":"TXN-3","val_id":"V1","amount":225.99,"currency":"BDT","bank_tran_id":"B1"}`)),
			Header:     http.Header{},
		}, nil
	})
	client, _ := NewClient("http://ssl.test", "store", "secret", WithHTTPClient(&http.Client{Transport: rt}))

	v, err := client.Validate(context.Background(), " V1 ")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if query.Get("val_id") != "V1" || query.Get("format") != "json" || query.Get("store_id") != "store" {
		t.Fatalf("unexpected query %v", query)
	}
	if !v.Valid() || v.TransactionID != "TXN-3" || v.Amount != "225.99" || v.BankTranID != "B1" {
		t.Fatalf("unexpected validation %+v", v)
	}
}

func TestQueryTransactionListsElements(t *testing.T) {
	var query url.Values
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/validator/api/merchantTransIDvalidationAPI.php" {
			t.Fatalf("unexpected path %q", req.URL.Path)
		}
		query = req.URL.Query()
		body := `{"APIConnect":"DONE","no_of_trans_found":2,"element":[` +
			`{"status":"FAILED","tran_id":"TXN-4","val_id":"V0","amount":"225.99","currency":"BDT"},` +
			`{"status":"VALIDATED","tran_id":"TXN-4","val_id":"V1","amount":"27500.00","currency":"BDT","currency_type":"USD","currency_amount":"225.99"}]}`
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(body)), Header: http.Header{}}, nil
	})
	client, _ := NewClient("http://ssl.test", "store", "secret", WithHTTPClient(&http.Client{Transport: rt}))

	found, err := client.QueryTransaction(context.Background(), "TXN-4")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if query.Get("tran_id") != "TXN-4" || query.Get("store_passwd") != "secret" {
		t.Fatalf("unexpected query %v", query)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(found))
	}
	if !found[0].Failed() || found[0].Valid() {
		t.Fatalf("first element should be failed: %+v", found[0])
	}
	if !found[1].Valid() || found[1].CurrencyType != "USD" || found[1].CurrencyAmount != "225.99" {
		t.Fatalf("unexpected second element %+v", found[1])
	}
}

func TestQueryTransactionRejectedConnect(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"APIConnect":"INVALID_REQUEST"}`)),
			Header:     http.Header{},
		}, nil
	})
	client, _ := NewClient("http://ssl.test", "store", "secret", WithHTTPClient(&http.Client{Transport: rt}))

	if _, err := client.QueryTransaction(context.Background(), "TXN-5"); !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNonOKStatusIsDependencyError(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       io.NopCloser(strings.NewReader("upstream down")),
			Header:     http.Header{},
		}, nil
	})
	client, _ := NewClient("http://ssl.test", "store", "secret", WithHTTPClient(&http.Client{Transport: rt}))

	_, err := client.Validate(context.Background(), "V1")
	if !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if cause := pkgerrors.As(err).Unwrap(); cause == nil || !strings.Contains(cause.Error(), "502") {
		t.Fatalf("expected status in cause, got %v", cause)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient("", "s", "p"); err == nil {
		t.Fatalf("expected base url error")
	}
	if _, err := NewClient("http://x", " ", "p"); err == nil {
		t.Fatalf("expected store id error")
	}
	if _, err := NewClient("http://x", "s", ""); err == nil {
		t.Fatalf("expected password error")
	}
	var nilClient *Client
	if _, err := nilClient.Validate(context.Background(), "V"); !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error from nil client, got %v", err)
	}
}
