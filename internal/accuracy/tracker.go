package accuracy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"signalscout/internal/config"
	"signalscout/internal/models"
	"signalscout/internal/repository"
)

// PriceProvider is the slice of the market feed the tracker needs.
type PriceProvider interface {
	Price(ctx context.Context, asset string) (*decimal.Decimal, error)
}

// Tracker resolves due signals and maintains per-channel accuracy
// statistics. Statistics are always recomputed from the full resolved set
// inside the rolling window, never updated incrementally, so a replayed or
// repaired signal cannot leave the rollup drifted.
type Tracker struct {
	Repo   repository.SignalRepository
	Prices PriceProvider
	Log    *zap.Logger
	Cfg    config.AccuracyConfig

	// ResolveBatch bounds one resolution pass. Zero means no limit.
	ResolveBatch int
}

func NewTracker(repo repository.SignalRepository, prices PriceProvider, log *zap.Logger, cfg config.AccuracyConfig) *Tracker {
	return &Tracker{Repo: repo, Prices: prices, Log: log, Cfg: cfg, ResolveBatch: 500}
}

// RunOnce performs a resolution pass and recomputes stats for every channel
// whose signals changed.
func (t *Tracker) RunOnce(ctx context.Context, now time.Time) error {
	touched, err := t.resolveDue(ctx, now)
	if err != nil {
		return err
	}
	for channel := range touched {
		if err := t.Recompute(ctx, channel, now); err != nil {
			t.Log.Warn("recompute channel stats", zap.String("channel", channel), zap.Error(err))
		}
	}
	return nil
}

func (t *Tracker) resolveDue(ctx context.Context, now time.Time) (map[string]struct{}, error) {
	due, err := t.Repo.ListDuePendingSignals(ctx, now, t.ResolveBatch)
	if err != nil {
		return nil, fmt.Errorf("list due signals: %w", err)
	}
	touched := make(map[string]struct{})
	for _, s := range due {
		var outcome string
		var score *float64
		price, err := t.Prices.Price(ctx, s.Asset)
		switch {
		case err == nil && price != nil:
			outcome, score = ResolveOutcome(s, *price)
		case t.Cfg.ExpiryGrace > 0 && now.Sub(s.ExpectedResolutionAt) > t.Cfg.ExpiryGrace:
			// Price feed never recovered inside the grace window; expire the
			// signal rather than keeping it PENDING forever.
			outcome = models.OutcomePartial
			t.Log.Warn("signal expired without price",
				zap.String("id", s.ID), zap.String("asset", s.Asset))
		default:
			// Leave it PENDING; the next pass retries.
			t.Log.Warn("no price for due signal",
				zap.String("id", s.ID), zap.String("asset", s.Asset), zap.Error(err))
			continue
		}
		ok, err := t.Repo.UpdateSignalOutcome(ctx, s.ID, outcome, score, now)
		if err != nil {
			return nil, fmt.Errorf("resolve signal %s: %w", s.ID, err)
		}
		if !ok {
			// Already resolved by a concurrent pass.
			continue
		}
		touched[s.Channel] = struct{}{}
		t.Log.Info("signal resolved",
			zap.String("id", s.ID),
			zap.String("channel", s.Channel),
			zap.String("outcome", outcome))
	}
	return touched, nil
}

// RecomputeAll rebuilds statistics for every channel that ever posted a
// signal, regardless of whether the last pass touched it. Used to repair the
// rollup after manual data changes.
func (t *Tracker) RecomputeAll(ctx context.Context, now time.Time) error {
	channels, err := t.Repo.DistinctChannels(ctx)
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}
	for _, channel := range channels {
		if err := t.Recompute(ctx, channel, now); err != nil {
			return fmt.Errorf("recompute %s: %w", channel, err)
		}
	}
	return nil
}

// Recompute rebuilds a channel's statistics from its resolved signals inside
// the trailing window and upserts the row.
func (t *Tracker) Recompute(ctx context.Context, channel string, now time.Time) error {
	since := now.AddDate(0, -t.Cfg.RollingWindowMonths, 0)
	resolved, err := t.Repo.ListResolvedByChannel(ctx, channel, since)
	if err != nil {
		return err
	}
	total, err := t.Repo.CountSignals(ctx, repository.ListSignalsParams{Channel: &channel})
	if err != nil {
		return err
	}

	st := t.Snapshot(channel, resolved, total, now)

	breakdown, err := json.Marshal(monthly(resolved, t.Cfg.PartialSuccessThreshold))
	if err != nil {
		return err
	}
	st.MonthlyBreakdown = breakdown

	return t.Repo.UpsertChannelStats(ctx, st)
}

// Snapshot computes the stats row from a resolved-signal snapshot. Pure
// except for UpdatedAt.
func (t *Tracker) Snapshot(channel string, resolved []*models.Signal, total int64, now time.Time) *models.ChannelStats {
	st := &models.ChannelStats{
		ChannelID:       channel,
		TotalSignals:    int(total),
		ResolvedSignals: len(resolved),
		UpdatedAt:       now,
	}

	var confSum float64
	for _, s := range resolved {
		if successful(s, t.Cfg.PartialSuccessThreshold) {
			st.SuccessfulSignals++
		}
		confSum += s.ConfidenceScore
	}

	if st.ResolvedSignals == 0 {
		st.AccuracyPct = t.Cfg.NeutralPriorPct
	} else {
		st.AccuracyPct = float64(st.SuccessfulSignals) / float64(st.ResolvedSignals) * 100
		st.AvgConfidence = confSum / float64(st.ResolvedSignals)
	}

	activity := float64(st.TotalSignals) / float64(t.Cfg.ActivityFloor)
	if activity > 1 {
		activity = 1
	}
	st.CompositeScore = st.AccuracyPct / 100 * st.AvgConfidence * activity
	return st
}

func successful(s *models.Signal, partialThreshold float64) bool {
	switch s.Outcome {
	case models.OutcomeSuccess:
		return true
	case models.OutcomePartial:
		return s.OutcomeScore != nil && *s.OutcomeScore >= partialThreshold
	default:
		return false
	}
}

// monthly buckets resolved signals by their expected resolution month; a
// late actual resolution does not move a signal between months.
func monthly(resolved []*models.Signal, partialThreshold float64) map[string]models.MonthlyStat {
	out := make(map[string]models.MonthlyStat)
	for _, s := range resolved {
		key := s.ExpectedResolutionAt.Format("2006-01")
		m := out[key]
		m.Total++
		if successful(s, partialThreshold) {
			m.Successful++
		}
		m.Accuracy = float64(m.Successful) / float64(m.Total) * 100
		out[key] = m
	}
	return out
}
