// Package pipeline wires extraction, validation, scoring and persistence
// into the scan flow. Processor handles one message; ScanService fans out
// over sources and runs batches.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"signalscout/internal/config"
	"signalscout/internal/extract"
	"signalscout/internal/models"
	"signalscout/internal/pricecheck"
	"signalscout/internal/repository"
	"signalscout/internal/riskreward"
	"signalscout/internal/scoring"
	"signalscout/internal/source"
	"signalscout/internal/textnorm"
)

// MarketData is the price-feed surface the processor needs.
type MarketData interface {
	Price(ctx context.Context, asset string) (*decimal.Decimal, error)
	Trend(asset string) int
}

// Processor turns one raw message into a scored signal. Every stage degrades
// rather than fails: a dead price feed still produces a signal, just a
// lower-scored one.
type Processor struct {
	Extractor *extract.Extractor
	Checker   *pricecheck.Checker
	Scorer    *scoring.Scorer
	Market    MarketData
	Repo      repository.SignalRepository
	Log       *zap.Logger

	Horizons       map[string]time.Duration
	DefaultHorizon time.Duration
}

func NewProcessor(cfg config.Config, market MarketData, repo repository.SignalRepository, log *zap.Logger) *Processor {
	return &Processor{
		Extractor:      extract.NewExtractor(cfg.Extraction.DefaultLeverage),
		Checker:        pricecheck.NewChecker(cfg.Validation.MaxPriceDeviation),
		Scorer:         scoring.NewScorer(cfg.Scoring, cfg.Quality),
		Market:         market,
		Repo:           repo,
		Log:            log,
		Horizons:       cfg.Extraction.ResolutionHorizons,
		DefaultHorizon: cfg.Extraction.DefaultHorizon,
	}
}

// Process extracts, validates and scores one message. It returns nil with no
// error when the message is not a signal.
func (p *Processor) Process(ctx context.Context, msg source.RawMessage) (*models.Signal, error) {
	norm := textnorm.Normalize(msg.Text)
	cand, ok := p.Extractor.Extract(norm)
	if !ok {
		return nil, nil
	}

	long := cand.Direction == models.DirectionLong || cand.Direction == models.DirectionBuy
	target := cand.Target()

	var market *decimal.Decimal
	trend := 0
	if p.Market != nil {
		quote, err := p.Market.Price(ctx, cand.Asset)
		if err != nil {
			p.Log.Debug("no market quote", zap.String("asset", cand.Asset), zap.Error(err))
		} else {
			market = quote
			trend = p.Market.Trend(cand.Asset)
		}
	}

	rr := riskreward.Compute(long, cand.EntryPrice, target, cand.StopLoss)
	tags := p.Checker.Check(long, cand.EntryPrice, target, cand.StopLoss, market)
	valid := len(tags) == 0

	var accuracyPct *float64
	if p.Repo != nil {
		if st, err := p.Repo.GetChannelStats(ctx, msg.Channel); err == nil && st != nil && st.ResolvedSignals > 0 {
			accuracyPct = &st.AccuracyPct
		}
	}

	score, _ := p.Scorer.Score(scoring.Inputs{
		Long:               long,
		Entry:              cand.EntryPrice,
		Target:             target,
		Stop:               cand.StopLoss,
		Market:             market,
		Ratio:              rr.Ratio,
		Leverage:           cand.Leverage,
		Trend:              trend,
		ChannelAccuracyPct: accuracyPct,
	})
	tier := p.Scorer.Classify(valid, score)

	createdAt := msg.PostedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	s := &models.Signal{
		ID:                   signalID(msg.Channel, cand.Asset, createdAt),
		Channel:              msg.Channel,
		Asset:                cand.Asset,
		Direction:            cand.Direction,
		EntryPrice:           cand.EntryPrice,
		Target:               target,
		StopLoss:             cand.StopLoss,
		Leverage:             cand.Leverage,
		Timeframe:            cand.Timeframe,
		RawText:              msg.Text,
		NormalizedText:       norm.Matchable,
		ConfidenceScore:      score,
		QualityTier:          tier,
		IsValid:              valid,
		CreatedAt:            createdAt,
		ExpectedResolutionAt: createdAt.Add(p.horizon(cand.Timeframe)),
		Outcome:              models.OutcomePending,
	}

	if len(cand.Targets) > 0 {
		if raw, err := json.Marshal(cand.Targets); err == nil {
			s.AllTargets = raw
		}
	}
	if len(tags) > 0 {
		if raw, err := json.Marshal(tags); err == nil {
			s.ValidationErrors = raw
		}
	}

	s.PotentialProfit = rr.Profit
	s.PotentialLoss = rr.Loss
	s.RiskRewardRatio = rr.Ratio

	return s, nil
}

func (p *Processor) horizon(timeframe string) time.Duration {
	if d, ok := p.Horizons[strings.ToUpper(timeframe)]; ok {
		return d
	}
	return p.DefaultHorizon
}

func signalID(channel, asset string, ts time.Time) string {
	frag := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s-%s-%d-%s", sanitize(channel), asset, ts.Unix(), frag)
}

func sanitize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
}
