package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderItem snapshots the product as sold. Rows are written once with the
// order and never updated; ProductID is kept only for stock restoration.
type OrderItem struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID       *uuid.UUID `gorm:"column:product_id;type:uuid"`
	ProductTitle    string     `gorm:"column:product_title;not null"`
	SKU             string     `gorm:"column:sku;not null"`
	Condition       string     `gorm:"column:condition;not null"`
	ImageURL        *string    `gorm:"column:image_url"`
	UnitPriceCents  int64      `gorm:"column:unit_price_cents;not null"`
	Quantity        int        `gorm:"column:quantity;not null;check:chk_order_items_quantity,quantity >= 1"`
	TotalPriceCents int64      `gorm:"column:total_price_cents;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// SnapshotOrderItem copies the sale-time view of a product.
func SnapshotOrderItem(orderID uuid.UUID, p Product, qty int) OrderItem {
	productID := p.ID
	return OrderItem{
		OrderID:         orderID,
		ProductID:       &productID,
		ProductTitle:    p.Title,
		SKU:             p.SKU,
		Condition:       p.Condition,
		ImageURL:        p.ImageURL,
		UnitPriceCents:  p.PriceCents,
		Quantity:        qty,
		TotalPriceCents: p.PriceCents * int64(qty),
	}
}
