package models

import (
	"time"

	"gorm.io/datatypes"
)

// ChannelStats is the per-channel accuracy ledger snapshot. It is always
// recomputed from the full resolved-signal set, never mutated incrementally,
// so rounding error cannot compound across updates.
type ChannelStats struct {
	ChannelID string `gorm:"type:varchar(100);primaryKey"`

	TotalSignals      int     `gorm:"not null;default:0"`
	ResolvedSignals   int     `gorm:"not null;default:0"`
	SuccessfulSignals int     `gorm:"not null;default:0"`
	AccuracyPct       float64 `gorm:"not null;default:50"`
	AvgConfidence     float64 `gorm:"not null;default:0"`
	CompositeScore    float64 `gorm:"not null;default:0;index"`

	// MonthlyBreakdown maps "2006-01" (month of expected resolution, not
	// creation) to MonthlyStat.
	MonthlyBreakdown datatypes.JSON `gorm:"type:jsonb"`

	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (ChannelStats) TableName() string {
	return "channel_stats"
}

// MonthlyStat is one bucket of the monthly breakdown.
type MonthlyStat struct {
	Total      int     `json:"total"`
	Successful int     `json:"successful"`
	Accuracy   float64 `json:"accuracy"`
}
