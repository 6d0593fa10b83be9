package enums

import "fmt"

// PaymentMethod is what the buyer picks at checkout.
type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodMobileWallet   PaymentMethod = "mobile_wallet"
	PaymentMethodDemo           PaymentMethod = "demo"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCashOnDelivery,
	PaymentMethodCard,
	PaymentMethodMobileWallet,
	PaymentMethodDemo,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}

// PaymentGateway names the adapter that processed a transaction.
type PaymentGateway string

const (
	PaymentGatewayMock       PaymentGateway = "mock"
	PaymentGatewaySSLCommerz PaymentGateway = "sslcommerz"
)

func (p PaymentGateway) String() string {
	return string(p)
}
