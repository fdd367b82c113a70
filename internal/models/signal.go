package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Direction values as they appear in source text. BUY/SELL are accepted on
// extraction and treated as LONG/SHORT equivalents everywhere downstream.
const (
	DirectionLong  = "LONG"
	DirectionShort = "SHORT"
	DirectionBuy   = "BUY"
	DirectionSell  = "SELL"
)

// Outcome lifecycle of a signal. A signal is PENDING until a later price check
// resolves it; outcome and outcome_score are written exactly once.
const (
	OutcomePending = "PENDING"
	OutcomeSuccess = "SUCCESS"
	OutcomeFailed  = "FAILED"
	OutcomePartial = "PARTIAL"
)

// Quality tiers produced by the classifier.
const (
	TierExcellent  = "EXCELLENT"
	TierGood       = "GOOD"
	TierAverage    = "AVERAGE"
	TierPoor       = "POOR"
	TierUnreliable = "UNRELIABLE"
)

// TimeframeUnknown is the default when no timeframe label was extracted.
const TimeframeUnknown = "UNKNOWN"

// Signal is a structured trading-idea candidate extracted from free text.
// Entry price is the only field guaranteed present on a valid signal; target,
// stop and everything derived from them may be null.
type Signal struct {
	ID      string `gorm:"type:varchar(120);primaryKey"`
	Channel string `gorm:"type:varchar(100);not null;index"`
	Asset   string `gorm:"type:varchar(20);not null;index"`

	Direction  string           `gorm:"type:varchar(10);not null"`
	EntryPrice decimal.Decimal  `gorm:"type:numeric(30,10);not null"`
	Target     *decimal.Decimal `gorm:"type:numeric(30,10)"`
	StopLoss   *decimal.Decimal `gorm:"type:numeric(30,10)"`
	// AllTargets keeps every extracted target; the first is promoted to Target.
	AllTargets datatypes.JSON `gorm:"type:jsonb"`
	Leverage   int            `gorm:"not null;default:1"`
	Timeframe  string         `gorm:"type:varchar(20);not null;default:'UNKNOWN'"`

	RawText        string `gorm:"type:text"`
	NormalizedText string `gorm:"type:text"`

	ConfidenceScore  float64        `gorm:"not null"`
	QualityTier      string         `gorm:"type:varchar(20);not null;index"`
	IsValid          bool           `gorm:"not null"`
	ValidationErrors datatypes.JSON `gorm:"type:jsonb"`

	RiskRewardRatio *decimal.Decimal `gorm:"type:numeric(20,10)"`
	PotentialProfit *decimal.Decimal `gorm:"type:numeric(30,10)"`
	PotentialLoss   *decimal.Decimal `gorm:"type:numeric(30,10)"`

	CreatedAt            time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	ExpectedResolutionAt time.Time `gorm:"type:timestamptz;not null;index"`

	Outcome      string     `gorm:"type:varchar(10);not null;default:'PENDING';index"`
	OutcomeScore *float64   `gorm:""`
	ResolvedAt   *time.Time `gorm:"type:timestamptz"`
}

func (Signal) TableName() string {
	return "signals"
}

// IsLong reports whether the signal direction is long-side (LONG or BUY).
func (s *Signal) IsLong() bool {
	d := strings.ToUpper(strings.TrimSpace(s.Direction))
	return d == DirectionLong || d == DirectionBuy
}

// Resolved reports whether an outcome has been written.
func (s *Signal) Resolved() bool {
	return s.Outcome != "" && s.Outcome != OutcomePending
}
