// Package market supplies live prices and a coarse trend hint. Quotes come
// from a REST ticker endpoint on demand, with an optional websocket stream
// keeping the cache warm; both feed the same per-asset series that backs the
// trend computation.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"signalscout/internal/config"
)

type point struct {
	ts    time.Time
	price decimal.Decimal
}

// TickerProvider serves spot prices with a TTL cache. A cache miss or stale
// entry triggers a single REST fetch; every observed quote, REST or stream,
// lands in the per-asset series used for the trend hint.
type TickerProvider struct {
	HTTP *http.Client
	Log  *zap.Logger
	Cfg  config.MarketConfig

	// QuoteSuffix is appended to the asset to form the exchange symbol,
	// e.g. BTC -> BTCUSDT.
	QuoteSuffix string

	mu     sync.Mutex
	series map[string][]point
}

func NewTickerProvider(cfg config.MarketConfig, log *zap.Logger) *TickerProvider {
	return &TickerProvider{
		HTTP:        &http.Client{Timeout: cfg.Timeout},
		Log:         log,
		Cfg:         cfg,
		QuoteSuffix: "USDT",
		series:      make(map[string][]point),
	}
}

// Price returns the current price for an asset, fetching over REST when the
// cached quote is older than the TTL. A nil price with nil error never
// happens; failures are returned as errors so callers can degrade.
func (p *TickerProvider) Price(ctx context.Context, asset string) (*decimal.Decimal, error) {
	asset = strings.ToUpper(strings.TrimSpace(asset))
	if asset == "" {
		return nil, fmt.Errorf("empty asset")
	}

	now := time.Now().UTC()
	p.mu.Lock()
	pts := p.series[asset]
	if n := len(pts); n > 0 && now.Sub(pts[n-1].ts) <= p.Cfg.CacheTTL {
		price := pts[n-1].price
		p.mu.Unlock()
		return &price, nil
	}
	p.mu.Unlock()

	price, err := p.fetch(ctx, asset)
	if err != nil {
		return nil, err
	}
	p.Record(asset, price, now)
	return &price, nil
}

// Trend reports the drift over the trend window: +1 when the price rose more
// than the trigger percentage, -1 when it fell more, 0 when flat or when the
// series is too short to tell.
func (p *TickerProvider) Trend(asset string) int {
	asset = strings.ToUpper(strings.TrimSpace(asset))
	p.mu.Lock()
	defer p.mu.Unlock()
	pts := p.series[asset]
	if len(pts) < 2 {
		return 0
	}
	base := pts[0]
	last := pts[len(pts)-1]
	if base.price.Sign() <= 0 {
		return 0
	}
	pct, _ := last.price.Sub(base.price).Div(base.price).Mul(decimal.NewFromInt(100)).Float64()
	switch {
	case pct >= p.Cfg.TrendTriggerPct:
		return 1
	case pct <= -p.Cfg.TrendTriggerPct:
		return -1
	default:
		return 0
	}
}

// Record appends an observed quote and prunes points that fell out of the
// trend window. The stream feeder calls this directly.
func (p *TickerProvider) Record(asset string, price decimal.Decimal, ts time.Time) {
	asset = strings.ToUpper(strings.TrimSpace(asset))
	if asset == "" || price.Sign() <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	pts := append(p.series[asset], point{ts: ts, price: price})
	cut := ts.Add(-p.Cfg.TrendWindow)
	j := 0
	for ; j < len(pts)-1; j++ {
		if pts[j].ts.After(cut) {
			break
		}
	}
	p.series[asset] = pts[j:]
}

func (p *TickerProvider) fetch(ctx context.Context, asset string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s?symbol=%s%s", strings.TrimRight(p.Cfg.Endpoint, "?"), asset, p.QuoteSuffix)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Decimal{}, err
	}
	resp, err := p.HTTP.Do(req)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decimal.Decimal{}, fmt.Errorf("ticker %s: http %d", asset, resp.StatusCode)
	}
	var parsed struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return decimal.Decimal{}, err
	}
	d, err := decimal.NewFromString(parsed.Price)
	if err != nil || d.Sign() <= 0 {
		return decimal.Decimal{}, fmt.Errorf("ticker %s: invalid price %q", asset, parsed.Price)
	}
	return d, nil
}
