package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"signalscout/internal/config"
)

func testProvider(endpoint string) *TickerProvider {
	return NewTickerProvider(config.MarketConfig{
		Endpoint:        endpoint,
		Timeout:         2 * time.Second,
		CacheTTL:        time.Minute,
		TrendWindow:     15 * time.Minute,
		TrendTriggerPct: 1.0,
	}, zap.NewNop())
}

func TestPrice_FetchAndCache(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol = %q, want BTCUSDT", got)
		}
		fmt.Fprint(w, `{"symbol":"BTCUSDT","price":"50200.10"}`)
	}))
	defer srv.Close()

	p := testProvider(srv.URL)
	price, err := p.Price(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("50200.10")) {
		t.Fatalf("price = %s, want 50200.10", price)
	}

	// Second call inside TTL must hit the cache.
	if _, err := p.Price(context.Background(), "BTC"); err != nil {
		t.Fatalf("cached Price: %v", err)
	}
	if calls != 1 {
		t.Fatalf("http calls = %d, want 1", calls)
	}
}

func TestPrice_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := testProvider(srv.URL)
	if _, err := p.Price(context.Background(), "BTC"); err == nil {
		t.Fatal("expected error on http 502")
	}
}

func TestTrend(t *testing.T) {
	p := testProvider("")
	now := time.Now().UTC()

	if got := p.Trend("BTC"); got != 0 {
		t.Fatalf("empty series trend = %d, want 0", got)
	}

	p.Record("BTC", decimal.NewFromInt(50000), now.Add(-10*time.Minute))
	p.Record("BTC", decimal.NewFromInt(50700), now) // +1.4%
	if got := p.Trend("BTC"); got != 1 {
		t.Fatalf("trend = %d, want +1", got)
	}

	p.Record("ETH", decimal.NewFromInt(3300), now.Add(-10*time.Minute))
	p.Record("ETH", decimal.NewFromInt(3250), now) // -1.5%
	if got := p.Trend("ETH"); got != -1 {
		t.Fatalf("trend = %d, want -1", got)
	}

	p.Record("SOL", decimal.NewFromInt(150), now.Add(-10*time.Minute))
	p.Record("SOL", decimal.RequireFromString("150.5"), now)
	if got := p.Trend("SOL"); got != 0 {
		t.Fatalf("trend = %d, want 0 inside trigger", got)
	}
}
