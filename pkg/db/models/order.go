package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/refurbmart/refurbmart-backend/pkg/enums"
)

// Order is the single-seller purchase header. Amounts are in cents and
// FinalAmountCents always equals subtotal + shipping + tax - discount.
type Order struct {
	ID                    uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber           string               `gorm:"column:order_number;not null;uniqueIndex:idx_orders_order_number"`
	BuyerID               uuid.UUID            `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID              uuid.UUID            `gorm:"column:seller_id;type:uuid;not null;index"`
	SubtotalCents         int64                `gorm:"column:subtotal_cents;not null"`
	ShippingCents         int64                `gorm:"column:shipping_cents;not null;default:0"`
	TaxCents              int64                `gorm:"column:tax_cents;not null;default:0"`
	DiscountCents         int64                `gorm:"column:discount_cents;not null;default:0"`
	FinalAmountCents      int64                `gorm:"column:final_amount_cents;not null"`
	Status                enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus         enums.PaymentStatus  `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMethod         enums.PaymentMethod  `gorm:"column:payment_method;type:text;not null"`
	PaymentReference      *string              `gorm:"column:payment_reference"`
	ShippingName          string               `gorm:"column:shipping_name;not null"`
	ShippingPhone         string               `gorm:"column:shipping_phone;not null"`
	ShippingAddress       string               `gorm:"column:shipping_address;not null"`
	ShippingCity          string               `gorm:"column:shipping_city;not null"`
	ShippingPostalCode    string               `gorm:"column:shipping_postal_code;not null"`
	ShippingCountry       string               `gorm:"column:shipping_country;not null"`
	TrackingNumber        *string              `gorm:"column:tracking_number"`
	ShippingCarrier       *string              `gorm:"column:shipping_carrier"`
	Notes                 *string              `gorm:"column:notes"`
	CancellationReason    *string              `gorm:"column:cancellation_reason"`
	EstimatedDeliveryDate *time.Time           `gorm:"column:estimated_delivery_date"`
	PaidAt                *time.Time           `gorm:"column:paid_at"`
	ConfirmedAt           *time.Time           `gorm:"column:confirmed_at"`
	ShippedAt             *time.Time           `gorm:"column:shipped_at"`
	DeliveredAt           *time.Time           `gorm:"column:delivered_at"`
	CancelledAt           *time.Time           `gorm:"column:cancelled_at"`
	Items                 []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Transactions          []PaymentTransaction `gorm:"foreignKey:OrderID"`
	CreatedAt             time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// AmountsBalance reports whether the stored final amount matches its parts.
func (o Order) AmountsBalance() bool {
	return o.FinalAmountCents == o.SubtotalCents+o.ShippingCents+o.TaxCents-o.DiscountCents
}

// VisibleTo reports whether the account is a party to the order.
func (o Order) VisibleTo(accountID uuid.UUID) bool {
	return o.BuyerID == accountID || o.SellerID == accountID
}
