package payments

import (
	"context"

	"github.com/google/uuid"

	"github.com/refurbmart/refurbmart-backend/pkg/enums"
)

// Outcome is a gateway's immediate answer to an initiation.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomePending   Outcome = "pending"
	OutcomeFailed    Outcome = "failed"
)

// Customer carries the shipping contact forwarded to hosted payment pages.
type Customer struct {
	Name       string
	Phone      string
	Address    string
	City       string
	PostalCode string
	Country    string
}

// InitiateRequest describes one payment attempt.
type InitiateRequest struct {
	TransactionID string
	OrderID       uuid.UUID
	OrderNumber   string
	Method        enums.PaymentMethod
	AmountCents   int64
	Currency      string
	ProductName   string
	NumItems      int
	Customer      Customer
}

// InitiateResult is what a gateway reports back. TransactionID replaces the
// provisional id when set.
type InitiateResult struct {
	TransactionID string
	SessionKey    string
	RedirectURL   string
	Outcome       Outcome
	Reference     string
	Message       string
	Raw           map[string]any
}

// Gateway starts payments for one provider.
type Gateway interface {
	Name() enums.PaymentGateway
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
}

// Validation is a gateway-confirmed view of a redirect payment. AmountCents
// and Currency are in the currency the session was opened in.
type Validation struct {
	Valid         bool
	Failed        bool
	Status        string
	TransactionID string
	AmountCents   int64
	Currency      string
	Reference     string
	Raw           map[string]any
}

// Verifier confirms redirect payments server-to-server before they are
// trusted. Lookup returns nil when the gateway has no record of the
// transaction yet.
type Verifier interface {
	Validate(ctx context.Context, valID string) (*Validation, error)
	Lookup(ctx context.Context, transactionID string) (*Validation, error)
}
