package pricecheck

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return v
}

func dp(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	v := d(t, s)
	return &v
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func TestCheck_PriceDeviation(t *testing.T) {
	c := NewChecker(0.10)

	// Entry 50000 vs market 50200: well within 10%.
	tags := c.Check(true, d(t, "50000"), dp(t, "55000"), dp(t, "48000"), dp(t, "50200"))
	if len(tags) != 0 {
		t.Fatalf("tags = %v, want none", tags)
	}

	// Entry 50000 vs market 60000: 16.7% off.
	tags = c.Check(true, d(t, "50000"), dp(t, "55000"), dp(t, "48000"), dp(t, "60000"))
	if !hasTag(tags, TagPriceDeviationTooHigh) {
		t.Fatalf("tags = %v, want %s", tags, TagPriceDeviationTooHigh)
	}
}

func TestCheck_NoMarketPriceSkipsDeviation(t *testing.T) {
	c := NewChecker(0.10)
	tags := c.Check(true, d(t, "50000"), dp(t, "55000"), dp(t, "48000"), nil)
	if hasTag(tags, TagPriceDeviationTooHigh) {
		t.Fatalf("tags = %v, deviation must not fire without a quote", tags)
	}
}

func TestCheck_SideTags(t *testing.T) {
	c := NewChecker(0.10)

	// Long with target below entry.
	tags := c.Check(true, d(t, "50000"), dp(t, "48000"), nil, nil)
	if !hasTag(tags, TagTargetNotBeyondEntry) {
		t.Fatalf("tags = %v, want %s", tags, TagTargetNotBeyondEntry)
	}

	// Short with stop below entry.
	tags = c.Check(false, d(t, "3200"), dp(t, "3000"), dp(t, "3100"), nil)
	if !hasTag(tags, TagStopNotBehindEntry) {
		t.Fatalf("tags = %v, want %s", tags, TagStopNotBehindEntry)
	}

	// Correct short layout.
	tags = c.Check(false, d(t, "3200"), dp(t, "3000"), dp(t, "3300"), nil)
	if len(tags) != 0 {
		t.Fatalf("tags = %v, want none", tags)
	}
}
