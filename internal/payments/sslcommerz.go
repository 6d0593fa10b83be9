package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/refurbmart/refurbmart-backend/pkg/enums"
	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
	"github.com/refurbmart/refurbmart-backend/pkg/money"
	"github.com/refurbmart/refurbmart-backend/pkg/sslcommerz"
)

const CallbackPathPrefix = "/api/payments/sslcommerz"

type sessionClient interface {
	InitSession(ctx context.Context, req sslcommerz.SessionRequest) (*sslcommerz.Session, error)
	Validate(ctx context.Context, valID string) (*sslcommerz.Validation, error)
	QueryTransaction(ctx context.Context, transactionID string) ([]sslcommerz.Validation, error)
}

// SSLCommerzGateway adapts the hosted payment page flow. Initiate only opens
// a session; settlement arrives later through callbacks.
type SSLCommerzGateway struct {
	client      sessionClient
	callbackURL string
}

// NewSSLCommerzGateway builds the adapter. callbackBaseURL is this API's
// public origin; the gateway posts results to CallbackPathPrefix under it.
func NewSSLCommerzGateway(client sessionClient, callbackBaseURL string) (*SSLCommerzGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("sslcommerz client required")
	}
	base := strings.TrimRight(strings.TrimSpace(callbackBaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("callback base url required")
	}
	return &SSLCommerzGateway{client: client, callbackURL: base + CallbackPathPrefix}, nil
}

func (g *SSLCommerzGateway) Name() enums.PaymentGateway {
	return enums.PaymentGatewaySSLCommerz
}

func (g *SSLCommerzGateway) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	session, err := g.client.InitSession(ctx, sslcommerz.SessionRequest{
		TransactionID:    req.TransactionID,
		Amount:           money.Format(req.AmountCents),
		Currency:         req.Currency,
		SuccessURL:       g.callbackURL + "/success",
		FailURL:          g.callbackURL + "/fail",
		CancelURL:        g.callbackURL + "/cancel",
		IPNURL:           g.callbackURL + "/ipn",
		ProductName:      req.ProductName,
		NumItems:         req.NumItems,
		CustomerName:     req.Customer.Name,
		CustomerPhone:    req.Customer.Phone,
		CustomerAddress:  req.Customer.Address,
		CustomerCity:     req.Customer.City,
		CustomerPostcode: req.Customer.PostalCode,
		CustomerCountry:  req.Customer.Country,
	})
	if err != nil {
		return nil, err
	}
	if !session.OK() {
		reason := session.FailedReason
		if reason == "" {
			reason = "payment session could not be created"
		}
		return &InitiateResult{
			TransactionID: req.TransactionID,
			Outcome:       OutcomeFailed,
			Message:       reason,
			Raw:           session.Raw,
		}, nil
	}
	return &InitiateResult{
		TransactionID: req.TransactionID,
		SessionKey:    session.SessionKey,
		RedirectURL:   session.GatewayPageURL,
		Outcome:       OutcomePending,
		Message:       "Redirect to complete payment",
		Raw:           session.Raw,
	}, nil
}

func (g *SSLCommerzGateway) Validate(ctx context.Context, valID string) (*Validation, error) {
	v, err := g.client.Validate(ctx, valID)
	if err != nil {
		return nil, err
	}
	return toValidation(v)
}

// Lookup prefers a validated record when the gateway holds several attempts
// for one transaction id.
func (g *SSLCommerzGateway) Lookup(ctx context.Context, transactionID string) (*Validation, error) {
	found, err := g.client.QueryTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	pick := &found[0]
	for i := range found {
		if found[i].Valid() {
			pick = &found[i]
			break
		}
	}
	return toValidation(pick)
}

// toValidation reports the amount in the session currency. The gateway's
// amount field is always in the store currency; currency_amount holds the
// original when the session used another one.
func toValidation(v *sslcommerz.Validation) (*Validation, error) {
	out := &Validation{
		Valid:         v.Valid(),
		Failed:        v.Failed(),
		Status:        v.Status,
		TransactionID: v.TransactionID,
		Currency:      v.Currency,
		Reference:     v.BankTranID,
		Raw:           v.Raw,
	}
	if out.Reference == "" {
		out.Reference = v.ValID
	}
	amount := v.Amount
	if v.CurrencyType != "" && v.CurrencyAmount != "" {
		out.Currency = v.CurrencyType
		amount = v.CurrencyAmount
	}
	if amount != "" {
		cents, err := money.Parse(amount)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse validated amount")
		}
		out.AmountCents = cents
	}
	return out, nil
}
