package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// miniTicker is the per-symbol payload of a combined-stream message.
type miniTicker struct {
	Symbol string `json:"s"`
	Close  string `json:"c"`
}

type streamFrame struct {
	Stream string     `json:"stream"`
	Data   miniTicker `json:"data"`
}

// StreamOptions configures a price stream. Assets lists base assets to
// subscribe (BTC, ETH, ...); the quote suffix mirrors the ticker provider.
type StreamOptions struct {
	URL         string
	Assets      []string
	QuoteSuffix string
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	Logger      *zap.Logger
}

// Stream keeps a TickerProvider's cache warm from an exchange websocket. It
// reconnects with jittered exponential backoff and never returns except on
// context cancellation.
type Stream struct {
	opts      StreamOptions
	cache     *TickerProvider
	seenFirst bool
}

func NewStream(opts StreamOptions, cache *TickerProvider) *Stream {
	if opts.QuoteSuffix == "" {
		opts.QuoteSuffix = "USDT"
	}
	if opts.BackoffMin == 0 {
		opts.BackoffMin = 1 * time.Second
	}
	if opts.BackoffMax == 0 {
		opts.BackoffMax = 30 * time.Second
	}
	return &Stream{opts: opts, cache: cache}
}

func (s *Stream) Run(ctx context.Context) error {
	if s == nil || s.opts.URL == "" || len(s.opts.Assets) == 0 {
		return fmt.Errorf("stream not configured")
	}
	url := s.combinedURL()
	backoff := s.opts.BackoffMin
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, _, err := websocket.Dial(ctx, url, nil)
		if err != nil {
			if s.opts.Logger != nil {
				s.opts.Logger.Warn("price ws connect failed", zap.Error(err))
			}
			if err := sleepWithJitter(ctx, backoff); err != nil {
				return err
			}
			backoff = nextBackoff(backoff, s.opts.BackoffMax)
			continue
		}
		conn.SetReadLimit(1 << 20)
		if s.opts.Logger != nil {
			s.opts.Logger.Info("price ws connected", zap.Int("assets", len(s.opts.Assets)))
		}
		backoff = s.opts.BackoffMin

		err = s.consume(ctx, conn)
		_ = conn.Close(websocket.StatusNormalClosure, "reconnect")
		if err == nil || errors.Is(err, context.Canceled) {
			return err
		}
		if err := sleepWithJitter(ctx, backoff); err != nil {
			return err
		}
		backoff = nextBackoff(backoff, s.opts.BackoffMax)
	}
}

func (s *Stream) consume(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if s.opts.Logger != nil && !errors.Is(err, context.Canceled) {
				s.opts.Logger.Warn("price ws read failed", zap.Error(err))
			}
			return err
		}
		var frame streamFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		asset := strings.TrimSuffix(strings.ToUpper(frame.Data.Symbol), s.opts.QuoteSuffix)
		price, err := decimal.NewFromString(frame.Data.Close)
		if err != nil || asset == "" {
			continue
		}
		if !s.seenFirst {
			s.seenFirst = true
			if s.opts.Logger != nil {
				s.opts.Logger.Info("price ws first tick", zap.String("asset", asset))
			}
		}
		s.cache.Record(asset, price, time.Now().UTC())
	}
}

func (s *Stream) combinedURL() string {
	streams := make([]string, 0, len(s.opts.Assets))
	for _, a := range s.opts.Assets {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		streams = append(streams, strings.ToLower(a+s.opts.QuoteSuffix)+"@miniTicker")
	}
	return strings.TrimRight(s.opts.URL, "/") + "?streams=" + strings.Join(streams, "/")
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func sleepWithJitter(ctx context.Context, base time.Duration) error {
	if base <= 0 {
		return nil
	}
	jitter := time.Duration(rand.Int63n(int64(base / 2)))
	timer := time.NewTimer(base + jitter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
