// Package dedup collapses near-duplicate signals inside a batch. Two signals
// duplicate each other when they share channel, asset and trade side and
// their entry prices sit within a relative tolerance; the higher-confidence
// one survives.
package dedup

import (
	"github.com/shopspring/decimal"

	"signalscout/internal/models"
)

type Deduper struct {
	// Tolerance is the relative entry-price tolerance, e.g. 0.001 for 0.1%.
	Tolerance decimal.Decimal
}

func NewDeduper(tolerance float64) *Deduper {
	return &Deduper{Tolerance: decimal.NewFromFloat(tolerance)}
}

// Collapse removes near-duplicates from a batch, preserving input order of
// the survivors. On a confidence tie the earlier signal wins, keeping a
// repeated scan deterministic.
func (d *Deduper) Collapse(signals []*models.Signal) []*models.Signal {
	out := make([]*models.Signal, 0, len(signals))
	for _, s := range signals {
		replaced := false
		dup := -1
		for i, kept := range out {
			if !d.sameSetup(kept, s) {
				continue
			}
			dup = i
			if s.ConfidenceScore > kept.ConfidenceScore {
				out[i] = s
				replaced = true
			}
			break
		}
		if dup == -1 && !replaced {
			out = append(out, s)
		}
	}
	return out
}

func (d *Deduper) sameSetup(a, b *models.Signal) bool {
	// BUY/SELL are the same side as LONG/SHORT, so compare the side, not the
	// literal direction word.
	if a.Channel != b.Channel || a.Asset != b.Asset || a.IsLong() != b.IsLong() {
		return false
	}
	ref := a.EntryPrice
	if ref.Sign() <= 0 {
		return a.EntryPrice.Equal(b.EntryPrice)
	}
	diff := a.EntryPrice.Sub(b.EntryPrice).Abs().Div(ref)
	return diff.Cmp(d.Tolerance) <= 0
}
