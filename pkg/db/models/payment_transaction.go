package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/refurbmart/refurbmart-backend/pkg/db/types"
	"github.com/refurbmart/refurbmart-backend/pkg/enums"
)

// PaymentTransaction is one append-only payment attempt for an order.
// TransactionID is the identifier the gateway echoes back in callbacks.
type PaymentTransaction struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	Gateway         enums.PaymentGateway    `gorm:"column:gateway;type:text;not null"`
	PaymentMethod   enums.PaymentMethod     `gorm:"column:payment_method;type:text;not null"`
	TransactionID   string                  `gorm:"column:transaction_id;not null;uniqueIndex:idx_payment_transactions_transaction_id"`
	SessionKey      *string                 `gorm:"column:session_key"`
	Status          enums.TransactionStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	AmountCents     int64                   `gorm:"column:amount_cents;not null"`
	Currency        string                  `gorm:"column:currency;not null"`
	GatewayRef      *string                 `gorm:"column:gateway_reference"`
	GatewayResponse dbtypes.JSONMap         `gorm:"column:gateway_response;type:jsonb"`
	CompletedAt     *time.Time              `gorm:"column:completed_at"`
	FailedAt        *time.Time              `gorm:"column:failed_at"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PaymentTransaction) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
