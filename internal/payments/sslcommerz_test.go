package payments

import (
	"context"
	"testing"

	"github.com/refurbmart/refurbmart-backend/pkg/enums"
	"github.com/refurbmart/refurbmart-backend/pkg/sslcommerz"
)

type fakeSessionClient struct {
	lastSession sslcommerz.SessionRequest
	session     *sslcommerz.Session
	validation  *sslcommerz.Validation
	records     []sslcommerz.Validation
}

func (f *fakeSessionClient) InitSession(_ context.Context, req sslcommerz.SessionRequest) (*sslcommerz.Session, error) {
	f.lastSession = req
	return f.session, nil
}

func (f *fakeSessionClient) Validate(context.Context, string) (*sslcommerz.Validation, error) {
	return f.validation, nil
}

func (f *fakeSessionClient) QueryTransaction(context.Context, string) ([]sslcommerz.Validation, error) {
	return f.records, nil
}

func TestSSLCommerzInitiateBuildsSession(t *testing.T) {
	client := &fakeSessionClient{session: &sslcommerz.Session{Status: "SUCCESS", SessionKey: "SK", GatewayPageURL: "https://pay.test/SK"}}
	gw, err := NewSSLCommerzGateway(client, "https://api.refurbmart.test/")
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	res, err := gw.Initiate(context.Background(), InitiateRequest{
		TransactionID: "TXN-1",
		AmountCents:   22599,
		Currency:      "BDT",
		Method:        enums.PaymentMethodCard,
		Customer:      Customer{Name: "Karim", City: "Dhaka"},
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if res.Outcome != OutcomePending || res.RedirectURL != "https://pay.test/SK" || res.SessionKey != "SK" {
		t.Fatalf("unexpected result %+v", res)
	}
	sent := client.lastSession
	if sent.Amount != "225.99" {
		t.Fatalf("amount sent as %q", sent.Amount)
	}
	if sent.IPNURL != "https://api.refurbmart.test/api/payments/sslcommerz/ipn" {
		t.Fatalf("unexpected ipn url %q", sent.IPNURL)
	}
	if sent.TransactionID != "TXN-1" || sent.CustomerCity != "Dhaka" {
		t.Fatalf("unexpected session request %+v", sent)
	}
}

func TestSSLCommerzInitiateFailedSession(t *testing.T) {
	client := &fakeSessionClient{session: &sslcommerz.Session{Status: "FAILED", FailedReason: "Invalid store"}}
	gw, _ := NewSSLCommerzGateway(client, "https://api.test")

	res, err := gw.Initiate(context.Background(), InitiateRequest{TransactionID: "TXN-2", AmountCents: 100})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if res.Outcome != OutcomeFailed || res.Message != "Invalid store" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSSLCommerzValidateConvertsAmount(t *testing.T) {
	client := &fakeSessionClient{validation: &sslcommerz.Validation{
		Status: "VALIDATED", TransactionID: "TXN-3", ValID: "VAL", Amount: "225.9900", Currency: "BDT",
	}}
	gw, _ := NewSSLCommerzGateway(client, "https://api.test")

	v, err := gw.Validate(context.Background(), "VAL")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !v.Valid || v.AmountCents != 22599 || v.TransactionID != "TXN-3" {
		t.Fatalf("unexpected validation %+v", v)
	}
	if v.Reference != "VAL" {
		t.Fatalf("expected val_id fallback reference, got %q", v.Reference)
	}
}

func TestSSLCommerzValidateUsesSessionCurrency(t *testing.T) {
	client := &fakeSessionClient{validation: &sslcommerz.Validation{
		Status: "VALID", TransactionID: "TXN-6", Amount: "27500.00", Currency: "BDT",
		CurrencyType: "USD", CurrencyAmount: "225.99",
	}}
	gw, _ := NewSSLCommerzGateway(client, "https://api.test")

	v, err := gw.Validate(context.Background(), "VAL")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if v.Currency != "USD" || v.AmountCents != 22599 {
		t.Fatalf("expected session currency amount, got %s %d", v.Currency, v.AmountCents)
	}
}

func TestSSLCommerzLookup(t *testing.T) {
	client := &fakeSessionClient{}
	gw, _ := NewSSLCommerzGateway(client, "https://api.test")

	v, err := gw.Lookup(context.Background(), "TXN-7")
	if err != nil || v != nil {
		t.Fatalf("expected no record, got %+v (%v)", v, err)
	}

	client.records = []sslcommerz.Validation{
		{Status: "FAILED", TransactionID: "TXN-7", Amount: "225.99", Currency: "BDT"},
		{Status: "VALIDATED", TransactionID: "TXN-7", ValID: "V2", Amount: "225.99", Currency: "BDT", BankTranID: "B2"},
	}
	v, err = gw.Lookup(context.Background(), "TXN-7")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !v.Valid || v.Failed || v.Reference != "B2" || v.AmountCents != 22599 {
		t.Fatalf("expected validated record, got %+v", v)
	}

	client.records = client.records[:1]
	v, _ = gw.Lookup(context.Background(), "TXN-7")
	if v.Valid || !v.Failed {
		t.Fatalf("expected failed record, got %+v", v)
	}
}
