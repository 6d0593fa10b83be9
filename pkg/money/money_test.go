package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormat(t *testing.T) {
	cases := map[int64]string{0: "0.00", 5: "0.05", 22599: "225.99", 100000: "1000.00"}
	for cents, want := range cases {
		if got := Format(cents); got != want {
			t.Fatalf("Format(%d): expected %s got %s", cents, want, got)
		}
	}
}

func TestParse(t *testing.T) {
	cents, err := Parse("225.99")
	if err != nil || cents != 22599 {
		t.Fatalf("expected 22599, got %d err=%v", cents, err)
	}
	if cents, err := Parse("225.9"); err != nil || cents != 22590 {
		t.Fatalf("expected 22590, got %d err=%v", cents, err)
	}
	if _, err := Parse("1.005"); err == nil {
		t.Fatalf("expected sub-cent error")
	}
	if _, err := Parse("abc"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestApplyRateRoundsHalfUp(t *testing.T) {
	rate := decimal.RequireFromString("0.08")
	if got := ApplyRate(20000, rate); got != 1600 {
		t.Fatalf("8%% of 200.00: expected 1600 got %d", got)
	}
	// 0.08 * 1006 = 80.48 -> 80
	if got := ApplyRate(1006, rate); got != 80 {
		t.Fatalf("expected 80 got %d", got)
	}
	// 0.08 * 1025 = 82.00; 0.08 * 1031 = 82.48; 0.08 * 1032 = 82.56 -> 83
	if got := ApplyRate(1032, rate); got != 83 {
		t.Fatalf("expected 83 got %d", got)
	}
	// 0.5 boundary: 0.1 * 5 = 0.5 -> 1
	if got := ApplyRate(5, decimal.RequireFromString("0.1")); got != 1 {
		t.Fatalf("expected half to round up, got %d", got)
	}
}
