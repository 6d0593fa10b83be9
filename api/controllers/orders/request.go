package orders

import (
	"strings"

	"github.com/google/uuid"

	"github.com/refurbmart/refurbmart-backend/api/validators"
	checkoutsvc "github.com/refurbmart/refurbmart-backend/internal/checkout"
	internalorders "github.com/refurbmart/refurbmart-backend/internal/orders"
	"github.com/refurbmart/refurbmart-backend/pkg/enums"
	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
)

// Free-text field caps, in runes.
const (
	maxNameLen  = 100
	maxPhoneLen = 32
	maxCodeLen  = 20
	maxTextLen  = 1000
)

type createOrderRequest struct {
	ProductID          *uuid.UUID `json:"product_id" validate:"required_without=UseCart,excluded_with=UseCart"`
	Quantity           int        `json:"quantity" validate:"omitempty,min=1"`
	UseCart            bool       `json:"use_cart"`
	ShippingName       string     `json:"shipping_name" validate:"required"`
	ShippingPhone      string     `json:"shipping_phone" validate:"required"`
	ShippingAddress    string     `json:"shipping_address" validate:"required"`
	ShippingCity       string     `json:"shipping_city" validate:"required"`
	ShippingPostalCode string     `json:"shipping_postal_code" validate:"required"`
	ShippingCountry    string     `json:"shipping_country" validate:"required"`
	PaymentMethod      string     `json:"payment_method" validate:"required"`
	Notes              *string    `json:"notes"`
}

func (r createOrderRequest) toInput() (checkoutsvc.Input, error) {
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(r.PaymentMethod))
	if err != nil {
		return checkoutsvc.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method").
			WithDetails(map[string]string{"payment_method": "is not supported"})
	}
	qty := r.Quantity
	if !r.UseCart && qty == 0 {
		qty = 1
	}
	return checkoutsvc.Input{
		ProductID: r.ProductID,
		Quantity:  qty,
		UseCart:   r.UseCart,
		Shipping: checkoutsvc.Shipping{
			Name:       validators.SanitizeString(r.ShippingName, maxNameLen),
			Phone:      validators.SanitizeString(r.ShippingPhone, maxPhoneLen),
			Address:    validators.SanitizeString(r.ShippingAddress, maxTextLen),
			City:       validators.SanitizeString(r.ShippingCity, maxNameLen),
			PostalCode: validators.SanitizeString(r.ShippingPostalCode, maxCodeLen),
			Country:    validators.SanitizeString(r.ShippingCountry, maxNameLen),
		},
		PaymentMethod: method,
		Notes:         validators.SanitizeOptional(r.Notes, maxTextLen),
	}, nil
}

type updateStatusRequest struct {
	Status          string  `json:"status" validate:"required"`
	TrackingNumber  *string `json:"tracking_number"`
	ShippingCarrier *string `json:"shipping_carrier"`
}

func (r updateStatusRequest) toInput() (internalorders.StatusInput, error) {
	status, err := enums.ParseOrderStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return internalorders.StatusInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status").
			WithDetails(map[string]string{"status": "is not a known order status"})
	}
	return internalorders.StatusInput{
		Status:          status,
		TrackingNumber:  validators.SanitizeOptional(r.TrackingNumber, maxNameLen),
		ShippingCarrier: validators.SanitizeOptional(r.ShippingCarrier, maxNameLen),
	}, nil
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type retryPaymentRequest struct {
	PaymentMethod string `json:"payment_method"`
}

func (r retryPaymentRequest) method() (enums.PaymentMethod, error) {
	raw := strings.TrimSpace(r.PaymentMethod)
	if raw == "" {
		return "", nil
	}
	method, err := enums.ParsePaymentMethod(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method").
			WithDetails(map[string]string{"payment_method": "is not supported"})
	}
	return method, nil
}
