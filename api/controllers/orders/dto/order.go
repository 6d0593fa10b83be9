package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/refurbmart/refurbmart-backend/pkg/db/models"
	"github.com/refurbmart/refurbmart-backend/pkg/enums"
	"github.com/refurbmart/refurbmart-backend/pkg/money"
)

// OrderSummary is the list view of an order.
type OrderSummary struct {
	ID                    uuid.UUID           `json:"id"`
	OrderNumber           string              `json:"order_number"`
	BuyerID               uuid.UUID           `json:"buyer_id"`
	SellerID              uuid.UUID           `json:"seller_id"`
	Status                enums.OrderStatus   `json:"status"`
	PaymentStatus         enums.PaymentStatus `json:"payment_status"`
	PaymentMethod         enums.PaymentMethod `json:"payment_method"`
	SubtotalCents         int64               `json:"subtotal_cents"`
	ShippingCents         int64               `json:"shipping_cents"`
	TaxCents              int64               `json:"tax_cents"`
	DiscountCents         int64               `json:"discount_cents"`
	FinalAmountCents      int64               `json:"final_amount_cents"`
	FinalAmount           string              `json:"final_amount"`
	EstimatedDeliveryDate *time.Time          `json:"estimated_delivery_date,omitempty"`
	CreatedAt             time.Time           `json:"created_at"`
}

// OrderDetail adds shipping, fulfillment, item snapshots and payment attempts.
type OrderDetail struct {
	OrderSummary
	PaymentReference   *string              `json:"payment_reference,omitempty"`
	Shipping           Shipping             `json:"shipping"`
	TrackingNumber     *string              `json:"tracking_number,omitempty"`
	ShippingCarrier    *string              `json:"shipping_carrier,omitempty"`
	Notes              *string              `json:"notes,omitempty"`
	CancellationReason *string              `json:"cancellation_reason,omitempty"`
	PaidAt             *time.Time           `json:"paid_at,omitempty"`
	ConfirmedAt        *time.Time           `json:"confirmed_at,omitempty"`
	ShippedAt          *time.Time           `json:"shipped_at,omitempty"`
	DeliveredAt        *time.Time           `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time           `json:"cancelled_at,omitempty"`
	Items              []OrderItem          `json:"items"`
	Transactions       []PaymentTransaction `json:"transactions"`
}

type Shipping struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type OrderItem struct {
	ID              uuid.UUID  `json:"id"`
	ProductID       *uuid.UUID `json:"product_id,omitempty"`
	ProductTitle    string     `json:"product_title"`
	SKU             string     `json:"sku"`
	Condition       string     `json:"condition"`
	ImageURL        *string    `json:"image_url,omitempty"`
	UnitPriceCents  int64      `json:"unit_price_cents"`
	Quantity        int        `json:"quantity"`
	TotalPriceCents int64      `json:"total_price_cents"`
}

type PaymentTransaction struct {
	TransactionID string                  `json:"transaction_id"`
	Gateway       enums.PaymentGateway    `json:"gateway"`
	PaymentMethod enums.PaymentMethod     `json:"payment_method"`
	Status        enums.TransactionStatus `json:"status"`
	AmountCents   int64                   `json:"amount_cents"`
	Currency      string                  `json:"currency"`
	Reference     *string                 `json:"gateway_reference,omitempty"`
	CompletedAt   *time.Time              `json:"completed_at,omitempty"`
	FailedAt      *time.Time              `json:"failed_at,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

func NewOrderSummary(o *models.Order) OrderSummary {
	return OrderSummary{
		ID:                    o.ID,
		OrderNumber:           o.OrderNumber,
		BuyerID:               o.BuyerID,
		SellerID:              o.SellerID,
		Status:                o.Status,
		PaymentStatus:         o.PaymentStatus,
		PaymentMethod:         o.PaymentMethod,
		SubtotalCents:         o.SubtotalCents,
		ShippingCents:         o.ShippingCents,
		TaxCents:              o.TaxCents,
		DiscountCents:         o.DiscountCents,
		FinalAmountCents:      o.FinalAmountCents,
		FinalAmount:           money.Format(o.FinalAmountCents),
		EstimatedDeliveryDate: o.EstimatedDeliveryDate,
		CreatedAt:             o.CreatedAt,
	}
}

func NewOrderSummaries(list []models.Order) []OrderSummary {
	out := make([]OrderSummary, 0, len(list))
	for i := range list {
		out = append(out, NewOrderSummary(&list[i]))
	}
	return out
}

func NewOrderDetail(o *models.Order) OrderDetail {
	detail := OrderDetail{
		OrderSummary:     NewOrderSummary(o),
		PaymentReference: o.PaymentReference,
		Shipping: Shipping{
			Name:       o.ShippingName,
			Phone:      o.ShippingPhone,
			Address:    o.ShippingAddress,
			City:       o.ShippingCity,
			PostalCode: o.ShippingPostalCode,
			Country:    o.ShippingCountry,
		},
		TrackingNumber:     o.TrackingNumber,
		ShippingCarrier:    o.ShippingCarrier,
		Notes:              o.Notes,
		CancellationReason: o.CancellationReason,
		PaidAt:             o.PaidAt,
		ConfirmedAt:        o.ConfirmedAt,
		ShippedAt:          o.ShippedAt,
		DeliveredAt:        o.DeliveredAt,
		CancelledAt:        o.CancelledAt,
		Items:              make([]OrderItem, 0, len(o.Items)),
		Transactions:       make([]PaymentTransaction, 0, len(o.Transactions)),
	}
	for _, item := range o.Items {
		detail.Items = append(detail.Items, OrderItem{
			ID:              item.ID,
			ProductID:       item.ProductID,
			ProductTitle:    item.ProductTitle,
			SKU:             item.SKU,
			Condition:       item.Condition,
			ImageURL:        item.ImageURL,
			UnitPriceCents:  item.UnitPriceCents,
			Quantity:        item.Quantity,
			TotalPriceCents: item.TotalPriceCents,
		})
	}
	for _, txn := range o.Transactions {
		detail.Transactions = append(detail.Transactions, PaymentTransaction{
			TransactionID: txn.TransactionID,
			Gateway:       txn.Gateway,
			PaymentMethod: txn.PaymentMethod,
			Status:        txn.Status,
			AmountCents:   txn.AmountCents,
			Currency:      txn.Currency,
			Reference:     txn.GatewayRef,
			CompletedAt:   txn.CompletedAt,
			FailedAt:      txn.FailedAt,
			CreatedAt:     txn.CreatedAt,
		})
	}
	return detail
}
