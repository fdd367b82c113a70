package models

import (
	"time"
)

// SourceChannel stores fetch-adapter configuration and health state for one
// originating source (chat channel, forum, social feed).
type SourceChannel struct {
	ID           uint64     `gorm:"primaryKey;autoIncrement"`
	Name         string     `gorm:"type:varchar(100);uniqueIndex;not null"`
	SourceType   string     `gorm:"type:varchar(30);not null"`
	Endpoint     string     `gorm:"type:varchar(500)"`
	Enabled      bool       `gorm:"default:true"`
	LastFetchAt  *time.Time `gorm:"type:timestamptz"`
	LastError    *string    `gorm:"type:text"`
	HealthStatus string     `gorm:"type:varchar(20);default:'unknown'"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (SourceChannel) TableName() string {
	return "source_channels"
}
