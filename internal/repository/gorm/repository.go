package gormrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"signalscout/internal/models"
	"signalscout/internal/repository"
)

// Repository is the gorm-backed implementation of
// repository.SignalRepository.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) InsertSignal(ctx context.Context, s *models.Signal) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repository) GetSignalByID(ctx context.Context, id string) (*models.Signal, error) {
	var s models.Signal
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) signalQuery(ctx context.Context, p repository.ListSignalsParams) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Signal{})
	if p.Channel != nil {
		q = q.Where("channel = ?", *p.Channel)
	}
	if p.Asset != nil {
		q = q.Where("asset = ?", *p.Asset)
	}
	if p.Tier != nil {
		q = q.Where("quality_tier = ?", *p.Tier)
	}
	if p.Outcome != nil {
		q = q.Where("outcome = ?", *p.Outcome)
	}
	if p.Since != nil {
		q = q.Where("created_at >= ?", *p.Since)
	}
	return q
}

func (r *Repository) ListSignals(ctx context.Context, p repository.ListSignalsParams) ([]*models.Signal, error) {
	q := r.signalQuery(ctx, p)
	order := "created_at"
	switch p.OrderBy {
	case "confidence":
		order = "confidence_score"
	case "created_at", "":
	default:
		order = p.OrderBy
	}
	dir := " DESC"
	if p.Asc {
		dir = " ASC"
	}
	q = q.Order(order + dir)
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	var out []*models.Signal
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) CountSignals(ctx context.Context, p repository.ListSignalsParams) (int64, error) {
	var n int64
	err := r.signalQuery(ctx, p).Count(&n).Error
	return n, err
}

func (r *Repository) ListDuePendingSignals(ctx context.Context, now time.Time, limit int) ([]*models.Signal, error) {
	q := r.db.WithContext(ctx).
		Where("outcome = ?", models.OutcomePending).
		Where("expected_resolution_at <= ?", now).
		Order("expected_resolution_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*models.Signal
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) UpdateSignalOutcome(ctx context.Context, id, outcome string, score *float64, resolvedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Signal{}).
		Where("id = ? AND outcome = ?", id, models.OutcomePending).
		Updates(map[string]any{
			"outcome":       outcome,
			"outcome_score": score,
			"resolved_at":   resolvedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) ListResolvedByChannel(ctx context.Context, channel string, since time.Time) ([]*models.Signal, error) {
	var out []*models.Signal
	err := r.db.WithContext(ctx).
		Where("channel = ?", channel).
		Where("outcome <> ?", models.OutcomePending).
		Where("expected_resolution_at >= ?", since).
		Order("expected_resolution_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) DistinctChannels(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Model(&models.Signal{}).
		Distinct("channel").
		Order("channel ASC").
		Pluck("channel", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) UpsertChannelStats(ctx context.Context, st *models.ChannelStats) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "channel_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_signals", "resolved_signals", "successful_signals",
			"accuracy_pct", "avg_confidence", "composite_score",
			"monthly_breakdown", "updated_at",
		}),
	}).Create(st).Error
}

func (r *Repository) GetChannelStats(ctx context.Context, channelID string) (*models.ChannelStats, error) {
	var st models.ChannelStats
	err := r.db.WithContext(ctx).First(&st, "channel_id = ?", channelID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *Repository) ListChannelStats(ctx context.Context, p repository.ListChannelStatsParams) ([]*models.ChannelStats, error) {
	q := r.db.WithContext(ctx).Model(&models.ChannelStats{})
	order := "composite_score"
	if p.OrderBy != "" {
		order = p.OrderBy
	}
	dir := " DESC"
	if p.Asc {
		dir = " ASC"
	}
	q = q.Order(order + dir)
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	var out []*models.ChannelStats
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) UpsertSourceChannel(ctx context.Context, sc *models.SourceChannel) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"source_type", "endpoint", "enabled",
			"last_fetch_at", "last_error", "health_status", "updated_at",
		}),
	}).Create(sc).Error
}

func (r *Repository) ListSourceChannels(ctx context.Context, enabledOnly bool) ([]*models.SourceChannel, error) {
	q := r.db.WithContext(ctx).Model(&models.SourceChannel{})
	if enabledOnly {
		q = q.Where("enabled = ?", true)
	}
	var out []*models.SourceChannel
	if err := q.Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
