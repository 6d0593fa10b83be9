package payments

import (
	"context"

	"github.com/google/uuid"

	"github.com/refurbmart/refurbmart-backend/pkg/enums"
)

// MockGateway settles every payment synchronously. It backs cash on
// delivery and demo checkouts.
type MockGateway struct {
	newID func() string
}

func NewMockGateway() *MockGateway {
	return &MockGateway{newID: func() string { return "MOCK-" + uuid.NewString() }}
}

func (m *MockGateway) Name() enums.PaymentGateway {
	return enums.PaymentGatewayMock
}

func (m *MockGateway) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := m.newID()
	message := "Payment processed successfully"
	if req.Method == enums.PaymentMethodCashOnDelivery {
		message = "Cash on delivery confirmed"
	}
	return &InitiateResult{
		TransactionID: id,
		Outcome:       OutcomeCompleted,
		Reference:     id,
		Message:       message,
		Raw: map[string]any{
			"gateway":        string(enums.PaymentGatewayMock),
			"payment_method": string(req.Method),
			"amount_cents":   req.AmountCents,
		},
	}, nil
}
