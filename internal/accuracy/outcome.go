package accuracy

import (
	"github.com/shopspring/decimal"

	"signalscout/internal/models"
)

// ResolveOutcome classifies a signal against the market price observed at its
// resolution horizon. Longs succeed at or above target and fail at or below
// stop; shorts are mirrored. Anything in between is PARTIAL, scored by how
// far the price travelled from entry toward target, clamped to [0,1].
//
// A signal with no target can never be SUCCESS: it either fails at the stop
// or goes PARTIAL with a binary favourable/unfavourable score.
func ResolveOutcome(s *models.Signal, price decimal.Decimal) (string, *float64) {
	long := s.IsLong()

	if s.Target != nil {
		hit := price.Cmp(*s.Target) >= 0
		if !long {
			hit = price.Cmp(*s.Target) <= 0
		}
		if hit {
			return models.OutcomeSuccess, floatPtr(1.0)
		}
	}
	if s.StopLoss != nil {
		stopped := price.Cmp(*s.StopLoss) <= 0
		if !long {
			stopped = price.Cmp(*s.StopLoss) >= 0
		}
		if stopped {
			return models.OutcomeFailed, floatPtr(0.0)
		}
	}

	if s.Target == nil {
		favourable := price.Cmp(s.EntryPrice) > 0
		if !long {
			favourable = price.Cmp(s.EntryPrice) < 0
		}
		if favourable {
			return models.OutcomePartial, floatPtr(1.0)
		}
		return models.OutcomePartial, floatPtr(0.0)
	}

	span := s.Target.Sub(s.EntryPrice)
	if span.Sign() == 0 {
		return models.OutcomePartial, floatPtr(0.0)
	}
	progress, _ := price.Sub(s.EntryPrice).Div(span).Float64()
	return models.OutcomePartial, floatPtr(clamp01(progress))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func floatPtr(v float64) *float64 { return &v }
