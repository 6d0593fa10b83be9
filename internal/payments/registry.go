package payments

import (
	"fmt"

	"github.com/refurbmart/refurbmart-backend/pkg/enums"
	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
)

// Registry maps payment methods to gateways.
type Registry struct {
	gateways map[enums.PaymentMethod]Gateway
}

// NewRegistry routes cash on delivery and demo payments to mock. Card and
// wallet payments go to redirect, or to mock when redirect is nil and
// demoMode is set. With neither, those methods are rejected at checkout.
func NewRegistry(mock Gateway, redirect Gateway, demoMode bool) (*Registry, error) {
	if mock == nil {
		return nil, fmt.Errorf("mock gateway required")
	}
	r := &Registry{gateways: map[enums.PaymentMethod]Gateway{
		enums.PaymentMethodCashOnDelivery: mock,
		enums.PaymentMethodDemo:           mock,
	}}
	online := redirect
	if demoMode {
		online = mock
	}
	if online != nil {
		r.gateways[enums.PaymentMethodCard] = online
		r.gateways[enums.PaymentMethodMobileWallet] = online
	}
	return r, nil
}

// Resolve returns the gateway for a method.
func (r *Registry) Resolve(method enums.PaymentMethod) (Gateway, error) {
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]any{"payment_method": "must be one of cash_on_delivery, card, mobile_wallet, demo"})
	}
	if r != nil {
		if gw, ok := r.gateways[method]; ok {
			return gw, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("payment method %s is not available", method)).
		WithDetails(map[string]any{"payment_method": "not available"})
}
