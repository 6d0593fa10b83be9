package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/refurbmart/refurbmart-backend/pkg/enums"
)

// Product is a seller's refurbished listing. QuantityAvailable never drops
// below zero; the check constraint backs the conditional decrement.
type Product struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SellerID          uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	Title             string              `gorm:"column:title;not null"`
	SKU               string              `gorm:"column:sku;not null"`
	Condition         string              `gorm:"column:condition;not null;default:'good'"`
	ImageURL          *string             `gorm:"column:image_url"`
	PriceCents        int64               `gorm:"column:price_cents;not null"`
	QuantityAvailable int                 `gorm:"column:quantity_available;not null;default:0;check:chk_products_quantity_available,quantity_available >= 0"`
	Status            enums.ProductStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	SoldAt            *time.Time          `gorm:"column:sold_at"`
	SoldTo            *uuid.UUID          `gorm:"column:sold_to;type:uuid"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// Purchasable reports whether qty units can be sold right now.
func (p Product) Purchasable(qty int) bool {
	return p.Status == enums.ProductStatusActive && qty > 0 && qty <= p.QuantityAvailable
}
