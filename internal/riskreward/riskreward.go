// Package riskreward computes direction-aware risk/reward figures for a
// signal. Profit and loss are expressed per unit of the asset; leverage does
// not change the ratio and is handled by position-risk scoring instead.
package riskreward

import "github.com/shopspring/decimal"

// Result carries the raw figures. Profit and Loss are nil when the
// corresponding input (target, stop) was never extracted. Ratio is defined
// only when both sides exist and the loss side is positive; a stop on the
// wrong side of entry leaves it nil, which keeps ratio consumers from
// dividing by a non-positive denominator.
type Result struct {
	Profit *decimal.Decimal
	Loss   *decimal.Decimal
	Ratio  *decimal.Decimal
}

// Compute derives profit and loss from entry, target and stop. For longs
// profit = target - entry and loss = entry - stop; shorts are mirrored.
// A nil target or stop leaves that side nil.
func Compute(long bool, entry decimal.Decimal, target, stop *decimal.Decimal) Result {
	var r Result
	if target != nil {
		p := target.Sub(entry)
		if !long {
			p = entry.Sub(*target)
		}
		r.Profit = &p
	}
	if stop != nil {
		l := entry.Sub(*stop)
		if !long {
			l = stop.Sub(entry)
		}
		r.Loss = &l
	}
	if r.Profit != nil && r.Loss != nil && r.Loss.Sign() > 0 {
		ratio := r.Profit.Div(*r.Loss)
		r.Ratio = &ratio
	}
	return r
}

// Bucket maps a ratio onto a [0,1] scoring factor via a step function that
// saturates at 1.0 for ratios of 4.0 and above. A nil ratio gets a
// below-neutral 0.25 rather than zero: an unknown ratio is weak evidence, not
// proof of a bad trade.
func Bucket(ratio *decimal.Decimal) float64 {
	if ratio == nil {
		return 0.25
	}
	v, _ := ratio.Float64()
	switch {
	case v >= 4.0:
		return 1.0
	case v >= 3.0:
		return 0.85
	case v >= 2.0:
		return 0.7
	case v >= 1.5:
		return 0.55
	case v >= 1.0:
		return 0.4
	case v >= 0.5:
		return 0.3
	default:
		return 0.2
	}
}
