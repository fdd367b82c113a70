package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"signalscout/internal/config"
	"signalscout/internal/dedup"
	"signalscout/internal/metrics"
	"signalscout/internal/models"
	"signalscout/internal/publish"
	"signalscout/internal/repository"
	"signalscout/internal/source"
)

// ScanService runs full scan passes: fetch from every source in parallel,
// process each message, collapse duplicates, persist and optionally publish.
type ScanService struct {
	Processor *Processor
	Deduper   *dedup.Deduper
	Repo      repository.SignalRepository
	Publisher *publish.Publisher
	Log       *zap.Logger
	Cfg       config.ScanConfig

	mu       sync.Mutex
	fetchers []source.Fetcher
}

func NewScanService(proc *Processor, repo repository.SignalRepository, pub *publish.Publisher, log *zap.Logger, cfg config.Config) *ScanService {
	return &ScanService{
		Processor: proc,
		Deduper:   dedup.NewDeduper(cfg.Dedup.EntryTolerancePct),
		Repo:      repo,
		Publisher: pub,
		Log:       log,
		Cfg:       cfg.Scan,
	}
}

// Register adds a source fetcher. Safe to call while scans run.
func (s *ScanService) Register(f source.Fetcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchers = append(s.fetchers, f)
}

func (s *ScanService) snapshot() []source.Fetcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]source.Fetcher, len(s.fetchers))
	copy(out, s.fetchers)
	return out
}

// ScanResult summarizes one pass.
type ScanResult struct {
	Sources   int `json:"sources"`
	Messages  int `json:"messages"`
	Extracted int `json:"extracted"`
	Stored    int `json:"stored"`
}

// RunOnce performs one scan pass. Per-source failures and timeouts are
// absorbed: the batch is whatever the healthy sources produced. The pass
// itself fails only when every registered source failed to fetch.
func (s *ScanService) RunOnce(ctx context.Context) (ScanResult, error) {
	started := time.Now()
	defer func() {
		metrics.ScanDuration.Observe(time.Since(started).Seconds())
	}()

	fetchers := s.snapshot()
	res := ScanResult{Sources: len(fetchers)}

	msgs, fetched := s.fetchAll(ctx, fetchers)
	if len(fetchers) > 0 && fetched == 0 {
		return res, fmt.Errorf("all %d sources failed to fetch", len(fetchers))
	}
	res.Messages = len(msgs)

	batch := make([]*models.Signal, 0, len(msgs))
	for _, msg := range msgs {
		metrics.MessagesScanned.WithLabelValues(msg.Channel).Inc()
		sig, err := s.Processor.Process(ctx, msg)
		if err != nil {
			s.Log.Warn("process message", zap.String("channel", msg.Channel), zap.Error(err))
			continue
		}
		if sig == nil {
			continue
		}
		metrics.SignalsExtracted.WithLabelValues(sig.Channel, sig.QualityTier).Inc()
		batch = append(batch, sig)
	}
	res.Extracted = len(batch)

	for _, sig := range s.Deduper.Collapse(batch) {
		if err := s.Repo.InsertSignal(ctx, sig); err != nil {
			s.Log.Warn("insert signal", zap.String("id", sig.ID), zap.Error(err))
			continue
		}
		res.Stored++
		if s.Publisher != nil {
			if err := s.Publisher.PublishSignal(ctx, sig); err != nil {
				s.Log.Warn("publish signal", zap.String("id", sig.ID), zap.Error(err))
			}
		}
	}

	s.Log.Info("scan pass done",
		zap.Int("sources", res.Sources),
		zap.Int("messages", res.Messages),
		zap.Int("extracted", res.Extracted),
		zap.Int("stored", res.Stored))
	return res, nil
}

// fetchAll fans out over the fetchers with bounded parallelism and a
// per-fetch timeout, returning the combined batch and how many sources
// fetched successfully. Order of the batch follows fetcher registration
// order so repeated scans stay deterministic.
func (s *ScanService) fetchAll(ctx context.Context, fetchers []source.Fetcher) ([]source.RawMessage, int) {
	maxParallel := s.Cfg.MaxParallel
	if maxParallel < 1 {
		maxParallel = 1
	}
	sem := make(chan struct{}, maxParallel)
	results := make([][]source.RawMessage, len(fetchers))
	ok := make([]bool, len(fetchers))

	var wg sync.WaitGroup
	for i, f := range fetchers {
		wg.Add(1)
		go func(i int, f source.Fetcher) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			fetchCtx := ctx
			if s.Cfg.FetchTimeout > 0 {
				var cancel context.CancelFunc
				fetchCtx, cancel = context.WithTimeout(ctx, s.Cfg.FetchTimeout)
				defer cancel()
			}
			msgs, err := f.Fetch(fetchCtx)
			if err != nil {
				metrics.FetchErrors.WithLabelValues(f.Name()).Inc()
				s.Log.Warn("source fetch failed", zap.String("source", f.Name()), zap.Error(err))
				return
			}
			results[i] = msgs
			ok[i] = true
		}(i, f)
	}
	wg.Wait()

	var out []source.RawMessage
	fetched := 0
	for i, r := range results {
		out = append(out, r...)
		if ok[i] {
			fetched++
		}
	}
	s.syncSourceHealth(ctx, fetchers)
	return out, fetched
}

// syncSourceHealth mirrors fetcher health into the source_channels table for
// the API.
func (s *ScanService) syncSourceHealth(ctx context.Context, fetchers []source.Fetcher) {
	now := time.Now().UTC()
	for _, f := range fetchers {
		h := f.Health()
		sc := &models.SourceChannel{
			Name:         f.Name(),
			SourceType:   "fetcher",
			Enabled:      true,
			LastFetchAt:  h.LastFetchAt,
			LastError:    h.LastError,
			HealthStatus: h.Status,
			UpdatedAt:    now,
		}
		if err := s.Repo.UpsertSourceChannel(ctx, sc); err != nil {
			s.Log.Debug("upsert source channel", zap.String("source", f.Name()), zap.Error(err))
		}
	}
}
