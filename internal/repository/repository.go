package repository

import (
	"context"
	"time"

	"signalscout/internal/models"
)

// ListSignalsParams filters signal listings. Nil pointer fields are not
// applied.
type ListSignalsParams struct {
	Channel *string
	Asset   *string
	Tier    *string
	Outcome *string
	Since   *time.Time

	OrderBy string
	Asc     bool
	Limit   int
	Offset  int
}

// ListChannelStatsParams orders and pages the channel ranking.
type ListChannelStatsParams struct {
	OrderBy string
	Asc     bool
	Limit   int
	Offset  int
}

// SignalRepository is the persistence boundary for signals, channel
// statistics and source channels. Implementations must treat a signal's
// outcome as write-once: UpdateSignalOutcome only moves PENDING rows.
type SignalRepository interface {
	InsertSignal(ctx context.Context, s *models.Signal) error
	GetSignalByID(ctx context.Context, id string) (*models.Signal, error)
	ListSignals(ctx context.Context, p ListSignalsParams) ([]*models.Signal, error)
	CountSignals(ctx context.Context, p ListSignalsParams) (int64, error)

	// ListDuePendingSignals returns PENDING signals whose expected resolution
	// time is at or before now.
	ListDuePendingSignals(ctx context.Context, now time.Time, limit int) ([]*models.Signal, error)
	// UpdateSignalOutcome resolves a signal exactly once. It returns false
	// when the signal was already resolved (or does not exist), without error.
	UpdateSignalOutcome(ctx context.Context, id, outcome string, score *float64, resolvedAt time.Time) (bool, error)
	// ListResolvedByChannel returns every resolved signal for a channel with
	// an expected resolution time at or after since.
	ListResolvedByChannel(ctx context.Context, channel string, since time.Time) ([]*models.Signal, error)
	DistinctChannels(ctx context.Context) ([]string, error)

	UpsertChannelStats(ctx context.Context, st *models.ChannelStats) error
	GetChannelStats(ctx context.Context, channelID string) (*models.ChannelStats, error)
	ListChannelStats(ctx context.Context, p ListChannelStatsParams) ([]*models.ChannelStats, error)

	UpsertSourceChannel(ctx context.Context, sc *models.SourceChannel) error
	ListSourceChannels(ctx context.Context, enabledOnly bool) ([]*models.SourceChannel, error)
}
