// Package scoring turns an extracted and validated candidate into a
// confidence score and a quality tier. Six weighted factors, each clamped to
// [0,1], compose into a 0-100 score that is then clamped to the configured
// floor and ceiling so no signal ever reads as a certainty in either
// direction.
package scoring

import (
	"github.com/shopspring/decimal"

	"signalscout/internal/config"
	"signalscout/internal/riskreward"
)

// Inputs collects everything the factor functions look at. Optional inputs
// are pointers; a nil value pushes the owning factor to its degraded default
// instead of failing the score.
type Inputs struct {
	Long     bool
	Entry    decimal.Decimal
	Target   *decimal.Decimal
	Stop     *decimal.Decimal
	Market   *decimal.Decimal
	Ratio    *decimal.Decimal
	Leverage int
	// Trend is a hint from the price feed: +1 rising, -1 falling, 0 flat or
	// unknown.
	Trend int
	// ChannelAccuracyPct is the historical accuracy of the posting channel,
	// nil for channels with no resolved history.
	ChannelAccuracyPct *float64
}

// Factors is the per-factor breakdown, kept for the API layer and tests.
type Factors struct {
	RiskReward   float64 `json:"risk_reward"`
	Volatility   float64 `json:"volatility"`
	Direction    float64 `json:"direction"`
	Market       float64 `json:"market_conditions"`
	PositionRisk float64 `json:"position_risk"`
	Base         float64 `json:"base_confidence"`
}

type Scorer struct {
	cfg config.ScoringConfig
	q   config.QualityConfig
}

func NewScorer(cfg config.ScoringConfig, q config.QualityConfig) *Scorer {
	return &Scorer{cfg: cfg, q: q}
}

// Score computes the weighted confidence score and the factor breakdown.
func (s *Scorer) Score(in Inputs) (float64, Factors) {
	f := Factors{
		RiskReward:   clamp01(riskreward.Bucket(in.Ratio)),
		Volatility:   clamp01(volatilityFactor(in)),
		Direction:    clamp01(directionFactor(in)),
		Market:       clamp01(marketFactor(in)),
		PositionRisk: clamp01(positionRiskFactor(in)),
		Base:         clamp01(baseFactor(in)),
	}
	raw := 100 * (s.cfg.WeightRiskReward*f.RiskReward +
		s.cfg.WeightVolatility*f.Volatility +
		s.cfg.WeightDirection*f.Direction +
		s.cfg.WeightMarket*f.Market +
		s.cfg.WeightPositionRisk*f.PositionRisk +
		s.cfg.WeightBaseConfidence*f.Base)
	return clamp(raw, s.cfg.MinScore, s.cfg.MaxScore), f
}

// Classify maps a score onto a quality tier. Invalid signals are forced to
// POOR regardless of score; they stay in the dataset but are never surfaced
// as trustworthy.
func (s *Scorer) Classify(valid bool, score float64) string {
	if !valid {
		return "POOR"
	}
	switch {
	case score >= s.q.ExcellentCutoff:
		return "EXCELLENT"
	case score >= s.q.GoodCutoff:
		return "GOOD"
	case score >= s.q.AverageCutoff:
		return "AVERAGE"
	case score >= s.q.PoorCutoff:
		return "POOR"
	default:
		return "UNRELIABLE"
	}
}

// volatilityFactor rewards tight setups: the wider the entry/target/stop
// band relative to entry, the lower the factor. With neither target nor stop
// there is nothing to measure, so the factor sits at neutral.
func volatilityFactor(in Inputs) float64 {
	if in.Target == nil && in.Stop == nil {
		return 0.5
	}
	min, max := in.Entry, in.Entry
	for _, p := range []*decimal.Decimal{in.Target, in.Stop} {
		if p == nil {
			continue
		}
		if p.Cmp(min) < 0 {
			min = *p
		}
		if p.Cmp(max) > 0 {
			max = *p
		}
	}
	if in.Entry.Sign() <= 0 {
		return 0.5
	}
	spread := max.Sub(min).Div(in.Entry).InexactFloat64()
	return 1 - spread
}

// directionFactor starts from a mild long bias and tilts by the current
// price trend when it agrees or disagrees with the call.
func directionFactor(in Inputs) float64 {
	base := 0.6
	if !in.Long {
		base = 0.4
	}
	agree := (in.Long && in.Trend > 0) || (!in.Long && in.Trend < 0)
	disagree := (in.Long && in.Trend < 0) || (!in.Long && in.Trend > 0)
	switch {
	case agree:
		return base + 0.1
	case disagree:
		return base - 0.1
	default:
		return base
	}
}

// marketFactor uses price magnitude as a liquidity proxy: majors trading in
// the tens of thousands score higher than sub-dollar alts. No quote at all
// is the worst case.
func marketFactor(in Inputs) float64 {
	if in.Market == nil || in.Market.Sign() <= 0 {
		return 0.3
	}
	v := in.Market.InexactFloat64()
	switch {
	case v >= 10000:
		return 0.9
	case v >= 1000:
		return 0.8
	case v >= 100:
		return 0.7
	case v >= 1:
		return 0.55
	default:
		return 0.4
	}
}

// positionRiskFactor bands the leveraged distance to the stop. A missing
// stop is an unbounded position and scores below every banded outcome except
// the widest.
func positionRiskFactor(in Inputs) float64 {
	if in.Stop == nil || in.Entry.Sign() <= 0 {
		return 0.4
	}
	lev := in.Leverage
	if lev < 1 {
		lev = 1
	}
	frac := in.Stop.Sub(in.Entry).Abs().Div(in.Entry).InexactFloat64() * float64(lev)
	switch {
	case frac <= 0.02:
		return 1.0
	case frac <= 0.05:
		return 0.75
	case frac <= 0.10:
		return 0.5
	default:
		return 0.25
	}
}

// baseFactor seeds the score with the channel's historical accuracy, falling
// back to the neutral prior for channels we have never resolved a signal
// for.
func baseFactor(in Inputs) float64 {
	if in.ChannelAccuracyPct == nil {
		return 0.5
	}
	return *in.ChannelAccuracyPct / 100
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
