package extract

import (
	"testing"

	"github.com/shopspring/decimal"

	"signalscout/internal/textnorm"
)

func mustExtract(t *testing.T, text string) *Candidate {
	t.Helper()
	c, ok := NewExtractor(1).Extract(textnorm.Normalize(text))
	if !ok {
		t.Fatalf("Extract(%q) returned no candidate", text)
	}
	return c
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestExtract_FullSignal(t *testing.T) {
	c := mustExtract(t, "BTC/USDT LONG Entry: 50000 Target: 55000 Stop: 48000")
	if c.Asset != "BTC" {
		t.Fatalf("asset = %q, want BTC", c.Asset)
	}
	if c.Direction != "LONG" {
		t.Fatalf("direction = %q, want LONG", c.Direction)
	}
	if !c.EntryPrice.Equal(dec(t, "50000")) {
		t.Fatalf("entry = %s, want 50000", c.EntryPrice)
	}
	if c.Target() == nil || !c.Target().Equal(dec(t, "55000")) {
		t.Fatalf("target = %v, want 55000", c.Target())
	}
	if c.StopLoss == nil || !c.StopLoss.Equal(dec(t, "48000")) {
		t.Fatalf("stop = %v, want 48000", c.StopLoss)
	}
}

func TestExtract_ThousandsSeparators(t *testing.T) {
	c := mustExtract(t, "Bitcoin LONG Entry: 110,500.50 TP: 120,000 SL: 105,000")
	if c.Asset != "BTC" {
		t.Fatalf("asset = %q, want BTC (alias)", c.Asset)
	}
	if !c.EntryPrice.Equal(dec(t, "110500.50")) {
		t.Fatalf("entry = %s, want 110500.50", c.EntryPrice)
	}
	if c.StopLoss == nil || !c.StopLoss.Equal(dec(t, "105000")) {
		t.Fatalf("stop = %v, want 105000", c.StopLoss)
	}
}

func TestExtract_MultipleTargets(t *testing.T) {
	c := mustExtract(t, "$ETH SHORT @ 3200 TP1: 3000 TP2: 2800 TP3: 2500 SL: 3350 10x")
	if c.Asset != "ETH" {
		t.Fatalf("asset = %q, want ETH", c.Asset)
	}
	if c.Direction != "SHORT" {
		t.Fatalf("direction = %q, want SHORT", c.Direction)
	}
	if len(c.Targets) != 3 {
		t.Fatalf("targets = %v, want 3", c.Targets)
	}
	if !c.Targets[0].Equal(dec(t, "3000")) {
		t.Fatalf("primary target = %s, want 3000", c.Targets[0])
	}
	if c.Leverage != 10 {
		t.Fatalf("leverage = %d, want 10", c.Leverage)
	}
}

func TestExtract_InlineEntry(t *testing.T) {
	c := mustExtract(t, "#SOL buy 145.50 target 160")
	if c.Asset != "SOL" || c.Direction != "BUY" {
		t.Fatalf("got %s %s, want SOL BUY", c.Asset, c.Direction)
	}
	if !c.EntryPrice.Equal(dec(t, "145.50")) {
		t.Fatalf("entry = %s, want 145.50", c.EntryPrice)
	}
}

func TestExtract_Timeframe(t *testing.T) {
	c := mustExtract(t, "BTC LONG entry 50000 4H chart")
	if c.Timeframe != "4H" {
		t.Fatalf("timeframe = %q, want 4H", c.Timeframe)
	}
	c = mustExtract(t, "BTC LONG entry 50000 daily setup")
	if c.Timeframe != "1D" {
		t.Fatalf("timeframe = %q, want 1D", c.Timeframe)
	}
	c = mustExtract(t, "BTC LONG entry 50000")
	if c.Timeframe != "UNKNOWN" {
		t.Fatalf("timeframe = %q, want UNKNOWN", c.Timeframe)
	}
}

func TestExtract_NotASignal(t *testing.T) {
	ex := NewExtractor(1)
	cases := []string{
		"",
		"gm everyone, market looks crazy today",
		"BTC is pumping!",                // no direction, no entry
		"LONG the dip",                   // no asset, no entry
		"BTC LONG when we break out",     // no entry price
		"check out my new NFT collection @ opensea",
	}
	for _, text := range cases {
		if c, ok := ex.Extract(textnorm.Normalize(text)); ok {
			t.Fatalf("Extract(%q) = %+v, want no candidate", text, c)
		}
	}
}

func TestExtract_DefaultLeverage(t *testing.T) {
	c := mustExtract(t, "BTC LONG entry 50000")
	if c.Leverage != 1 {
		t.Fatalf("leverage = %d, want default 1", c.Leverage)
	}
}
