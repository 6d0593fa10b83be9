package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPolicyPrice(t *testing.T) {
	policy := Policy{ShippingFeeCents: 999, TaxRate: decimal.RequireFromString("0.08")}

	cases := []struct {
		name  string
		lines []Line
		want  Totals
	}{
		{
			name:  "two units",
			lines: []Line{{UnitPriceCents: 10000, Quantity: 2}},
			want:  Totals{SubtotalCents: 20000, ShippingCents: 999, TaxCents: 1600, FinalCents: 22599},
		},
		{
			name:  "tax rounds half up",
			lines: []Line{{UnitPriceCents: 1999, Quantity: 1}, {UnitPriceCents: 12, Quantity: 2}},
			// 2023 * 0.08 = 161.84
			want: Totals{SubtotalCents: 2023, ShippingCents: 999, TaxCents: 162, FinalCents: 3184},
		},
		{
			name:  "empty",
			lines: nil,
			want:  Totals{ShippingCents: 999, FinalCents: 999},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := policy.Price(tc.lines)
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
			if got.FinalCents != got.SubtotalCents+got.ShippingCents+got.TaxCents-got.DiscountCents {
				t.Fatalf("final amount does not balance: %+v", got)
			}
		})
	}
}
