// Package pricecheck validates an extracted candidate against live market
// data. Validation never rejects a message outright, it only tags problems;
// tagged signals survive with a forced POOR tier so the accuracy tracker can
// still observe them.
package pricecheck

import "github.com/shopspring/decimal"

const (
	TagPriceDeviationTooHigh = "price_deviation_too_high"
	TagTargetNotBeyondEntry  = "target_not_beyond_entry"
	TagStopNotBehindEntry    = "stop_not_behind_entry"
)

type Checker struct {
	// MaxDeviation is the tolerated |entry-market|/market fraction, e.g. 0.10.
	MaxDeviation float64
}

func NewChecker(maxDeviation float64) *Checker {
	return &Checker{MaxDeviation: maxDeviation}
}

// Check returns the validation tags for a candidate. market may be nil when
// no quote is available; the deviation check is then skipped rather than
// failed, so a dead price feed degrades scoring, not ingestion.
func (c *Checker) Check(long bool, entry decimal.Decimal, target, stop, market *decimal.Decimal) []string {
	var tags []string

	if market != nil && market.Sign() > 0 {
		dev := entry.Sub(*market).Abs().Div(*market)
		if dev.InexactFloat64() > c.MaxDeviation {
			tags = append(tags, TagPriceDeviationTooHigh)
		}
	}

	if target != nil {
		wrong := target.Cmp(entry) <= 0
		if !long {
			wrong = target.Cmp(entry) >= 0
		}
		if wrong {
			tags = append(tags, TagTargetNotBeyondEntry)
		}
	}

	if stop != nil {
		wrong := stop.Cmp(entry) >= 0
		if !long {
			wrong = stop.Cmp(entry) <= 0
		}
		if wrong {
			tags = append(tags, TagStopNotBehindEntry)
		}
	}

	return tags
}
