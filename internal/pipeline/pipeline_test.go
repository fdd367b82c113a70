package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"signalscout/internal/config"
	"signalscout/internal/models"
	"signalscout/internal/repository"
	"signalscout/internal/source"
)

type stubMarket struct {
	prices map[string]string
	trend  int
}

func (m *stubMarket) Price(ctx context.Context, asset string) (*decimal.Decimal, error) {
	raw, ok := m.prices[asset]
	if !ok {
		return nil, context.DeadlineExceeded
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (m *stubMarket) Trend(asset string) int { return m.trend }

type stubRepo struct {
	repository.SignalRepository

	stats    map[string]*models.ChannelStats
	inserted []*models.Signal
	sources  []*models.SourceChannel
}

func (r *stubRepo) InsertSignal(ctx context.Context, s *models.Signal) error {
	r.inserted = append(r.inserted, s)
	return nil
}

func (r *stubRepo) GetChannelStats(ctx context.Context, channelID string) (*models.ChannelStats, error) {
	return r.stats[channelID], nil
}

func (r *stubRepo) UpsertSourceChannel(ctx context.Context, sc *models.SourceChannel) error {
	r.sources = append(r.sources, sc)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		Scan: config.ScanConfig{FetchTimeout: 5 * time.Second, MaxParallel: 4},
		Extraction: config.ExtractionConfig{
			DefaultLeverage: 1,
			ResolutionHorizons: map[string]time.Duration{
				"1H": 24 * time.Hour,
				"4H": 72 * time.Hour,
				"1D": 168 * time.Hour,
			},
			DefaultHorizon: 168 * time.Hour,
		},
		Validation: config.ValidationConfig{MaxPriceDeviation: 0.10},
		Scoring: config.ScoringConfig{
			WeightRiskReward:     0.30,
			WeightVolatility:     0.20,
			WeightDirection:      0.15,
			WeightMarket:         0.15,
			WeightPositionRisk:   0.10,
			WeightBaseConfidence: 0.10,
			MinScore:             5,
			MaxScore:             95,
		},
		Quality: config.QualityConfig{
			ExcellentCutoff: 85,
			GoodCutoff:      70,
			AverageCutoff:   55,
			PoorCutoff:      40,
		},
		Dedup: config.DedupConfig{EntryTolerancePct: 0.001},
	}
}

func TestProcess_ValidSignal(t *testing.T) {
	repo := &stubRepo{}
	proc := NewProcessor(testConfig(), &stubMarket{prices: map[string]string{"BTC": "50200"}}, repo, zap.NewNop())

	msg := source.RawMessage{
		Channel:  "alpha-calls",
		Text:     "BTC/USDT LONG Entry: 50000 Target: 55000 Stop: 48000",
		PostedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
	sig, err := proc.Process(context.Background(), msg)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if sig == nil {
		t.Fatal("expected a signal")
	}
	if !sig.IsValid {
		t.Fatalf("signal invalid, tags %s", sig.ValidationErrors)
	}
	if sig.RiskRewardRatio == nil || !sig.RiskRewardRatio.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("ratio = %v, want 2.5", sig.RiskRewardRatio)
	}
	if sig.QualityTier != models.TierGood && sig.QualityTier != models.TierExcellent {
		t.Fatalf("tier = %s (score %v), want GOOD or better", sig.QualityTier, sig.ConfidenceScore)
	}
	if sig.Outcome != models.OutcomePending {
		t.Fatalf("outcome = %s, want PENDING", sig.Outcome)
	}
	// No timeframe extracted: default horizon.
	if want := msg.PostedAt.Add(168 * time.Hour); !sig.ExpectedResolutionAt.Equal(want) {
		t.Fatalf("expected resolution = %v, want %v", sig.ExpectedResolutionAt, want)
	}
}

func TestProcess_NoTargetLeavesProfitAndRatioNil(t *testing.T) {
	repo := &stubRepo{}
	proc := NewProcessor(testConfig(), &stubMarket{prices: map[string]string{"BTC": "50200"}}, repo, zap.NewNop())

	sig, err := proc.Process(context.Background(), source.RawMessage{
		Channel: "alpha-calls",
		Text:    "BTC/USDT LONG Entry: 50000 Stop: 48000",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if sig == nil {
		t.Fatal("expected a signal")
	}
	if sig.PotentialProfit != nil {
		t.Fatalf("potential profit = %v, want nil without a target", sig.PotentialProfit)
	}
	if sig.RiskRewardRatio != nil {
		t.Fatalf("ratio = %v, want nil without a target", sig.RiskRewardRatio)
	}
	if sig.PotentialLoss == nil || !sig.PotentialLoss.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("potential loss = %v, want 2000", sig.PotentialLoss)
	}
}

func TestProcess_PriceDeviationForcesPoor(t *testing.T) {
	repo := &stubRepo{}
	proc := NewProcessor(testConfig(), &stubMarket{prices: map[string]string{"BTC": "60000"}}, repo, zap.NewNop())

	sig, err := proc.Process(context.Background(), source.RawMessage{
		Channel: "alpha-calls",
		Text:    "BTC/USDT LONG Entry: 50000 Target: 55000 Stop: 48000",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if sig == nil {
		t.Fatal("expected a signal")
	}
	if sig.IsValid {
		t.Fatal("signal must be invalid at 16% deviation")
	}
	if sig.QualityTier != models.TierPoor {
		t.Fatalf("tier = %s, want POOR forced by invalidity", sig.QualityTier)
	}
}

func TestProcess_NonSignal(t *testing.T) {
	proc := NewProcessor(testConfig(), &stubMarket{}, &stubRepo{}, zap.NewNop())
	sig, err := proc.Process(context.Background(), source.RawMessage{
		Channel: "alpha-calls",
		Text:    "gm, market looks wild today",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if sig != nil {
		t.Fatalf("got %+v, want no signal", sig)
	}
}

func TestProcess_NoQuoteStillProduces(t *testing.T) {
	proc := NewProcessor(testConfig(), &stubMarket{}, &stubRepo{}, zap.NewNop())
	sig, err := proc.Process(context.Background(), source.RawMessage{
		Channel: "alpha-calls",
		Text:    "BTC/USDT LONG Entry: 50000 Target: 55000 Stop: 48000 4H",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if sig == nil {
		t.Fatal("expected a signal despite missing quote")
	}
	if !sig.IsValid {
		t.Fatal("deviation check must be skipped without a quote")
	}
	if want := sig.CreatedAt.Add(72 * time.Hour); !sig.ExpectedResolutionAt.Equal(want) {
		t.Fatalf("expected resolution = %v, want 4H horizon %v", sig.ExpectedResolutionAt, want)
	}
}

func TestProcess_ChannelAccuracyFeedsScore(t *testing.T) {
	cfg := testConfig()
	strong := &stubRepo{stats: map[string]*models.ChannelStats{
		"alpha": {ChannelID: "alpha", ResolvedSignals: 20, AccuracyPct: 90},
	}}
	weak := &stubRepo{stats: map[string]*models.ChannelStats{
		"alpha": {ChannelID: "alpha", ResolvedSignals: 20, AccuracyPct: 10},
	}}
	market := &stubMarket{prices: map[string]string{"BTC": "50200"}}
	msg := source.RawMessage{Channel: "alpha", Text: "BTC/USDT LONG Entry: 50000 Target: 55000 Stop: 48000"}

	sigStrong, err := NewProcessor(cfg, market, strong, zap.NewNop()).Process(context.Background(), msg)
	if err != nil || sigStrong == nil {
		t.Fatalf("strong: %v %v", sigStrong, err)
	}
	sigWeak, err := NewProcessor(cfg, market, weak, zap.NewNop()).Process(context.Background(), msg)
	if err != nil || sigWeak == nil {
		t.Fatalf("weak: %v %v", sigWeak, err)
	}
	if sigStrong.ConfidenceScore <= sigWeak.ConfidenceScore {
		t.Fatalf("strong channel %v must outscore weak channel %v",
			sigStrong.ConfidenceScore, sigWeak.ConfidenceScore)
	}
}

func TestScanRunOnce_DedupsAndStores(t *testing.T) {
	cfg := testConfig()
	repo := &stubRepo{}
	market := &stubMarket{prices: map[string]string{"BTC": "50200", "ETH": "3200"}}
	proc := NewProcessor(cfg, market, repo, zap.NewNop())
	svc := NewScanService(proc, repo, nil, zap.NewNop(), cfg)

	now := time.Now().UTC()
	svc.Register(source.NewStaticFetcher("alpha",
		source.RawMessage{Channel: "alpha", Text: "BTC/USDT LONG Entry: 50000 Target: 55000 Stop: 48000", PostedAt: now},
		source.RawMessage{Channel: "alpha", Text: "BTC/USDT LONG Entry: 50010 Target: 55000 Stop: 48000", PostedAt: now}, // dup within 0.1%
		source.RawMessage{Channel: "alpha", Text: "nothing to see here", PostedAt: now},
	))
	svc.Register(source.NewStaticFetcher("beta",
		source.RawMessage{Channel: "beta", Text: "$ETH SHORT @ 3200 TP1: 3000 SL: 3300", PostedAt: now},
	))

	res, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.Sources != 2 || res.Messages != 4 {
		t.Fatalf("sources/messages = %d/%d, want 2/4", res.Sources, res.Messages)
	}
	if res.Extracted != 3 {
		t.Fatalf("extracted = %d, want 3", res.Extracted)
	}
	if res.Stored != 2 {
		t.Fatalf("stored = %d, want 2 after dedup", res.Stored)
	}
	if len(repo.inserted) != 2 {
		t.Fatalf("inserted = %d, want 2", len(repo.inserted))
	}
	if len(repo.sources) != 2 {
		t.Fatalf("source health rows = %d, want 2", len(repo.sources))
	}
}

type failingFetcher struct{ name string }

func (f *failingFetcher) Name() string { return f.name }

func (f *failingFetcher) Fetch(ctx context.Context) ([]source.RawMessage, error) {
	return nil, context.DeadlineExceeded
}

func (f *failingFetcher) Health() source.HealthStatus {
	return source.HealthStatus{Status: "unhealthy"}
}

func TestScanRunOnce_AllSourcesFailing(t *testing.T) {
	cfg := testConfig()
	repo := &stubRepo{}
	proc := NewProcessor(cfg, &stubMarket{}, repo, zap.NewNop())
	svc := NewScanService(proc, repo, nil, zap.NewNop(), cfg)
	svc.Register(&failingFetcher{name: "alpha"})
	svc.Register(&failingFetcher{name: "beta"})

	if _, err := svc.RunOnce(context.Background()); err == nil {
		t.Fatal("expected an error when every source fails")
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("inserted = %d, want none", len(repo.inserted))
	}
}
