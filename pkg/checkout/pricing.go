package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/refurbmart/refurbmart-backend/pkg/money"
)

// Line is a priced quantity of one product.
type Line struct {
	UnitPriceCents int64
	Quantity       int
}

// Totals are the order amounts in cents.
type Totals struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	ShippingCents int64 `json:"shipping_cents"`
	TaxCents      int64 `json:"tax_cents"`
	DiscountCents int64 `json:"discount_cents"`
	FinalCents    int64 `json:"final_amount_cents"`
}

// Policy prices an order: a flat shipping fee per order and a tax rate on
// the subtotal. Discounts are not offered yet and are always zero.
type Policy struct {
	ShippingFeeCents int64
	TaxRate          decimal.Decimal
}

func (p Policy) Price(lines []Line) Totals {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.UnitPriceCents * int64(l.Quantity)
	}
	t := Totals{
		SubtotalCents: subtotal,
		ShippingCents: p.ShippingFeeCents,
		TaxCents:      money.ApplyRate(subtotal, p.TaxRate),
	}
	t.FinalCents = t.SubtotalCents + t.ShippingCents + t.TaxCents - t.DiscountCents
	return t
}
