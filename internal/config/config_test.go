package config

import (
	"testing"
	"time"
)

func TestLoad_EnvOnlyDefaults(t *testing.T) {
	cfg, err := Load("", true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPAddr != ":8080" {
		t.Fatalf("http_addr = %q, want :8080", cfg.Server.HTTPAddr)
	}
	if cfg.Validation.MaxPriceDeviation != 0.10 {
		t.Fatalf("max_price_deviation = %v, want 0.10", cfg.Validation.MaxPriceDeviation)
	}
	if cfg.Scoring.MinScore != 5 || cfg.Scoring.MaxScore != 95 {
		t.Fatalf("score clamp = %v..%v, want 5..95", cfg.Scoring.MinScore, cfg.Scoring.MaxScore)
	}
	if cfg.Accuracy.RollingWindowMonths != 12 {
		t.Fatalf("rolling window = %d, want 12", cfg.Accuracy.RollingWindowMonths)
	}
	if got := cfg.Extraction.ResolutionHorizons["4H"]; got != 72*time.Hour {
		t.Fatalf("4H horizon = %v, want 72h", got)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SC_SCAN_MAX_PARALLEL", "3")
	cfg, err := Load("", true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scan.MaxParallel != 3 {
		t.Fatalf("max_parallel = %d, want 3 from env", cfg.Scan.MaxParallel)
	}
}

func TestValidate_WeightsMustSumToOne(t *testing.T) {
	cfg, err := Load("", true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Scoring.WeightRiskReward = 0.5
	if err := cfg.validate(); err == nil {
		t.Fatal("expected weight-sum validation error")
	}
}

func TestValidate_CutoffOrder(t *testing.T) {
	cfg, err := Load("", true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Quality.GoodCutoff = 90
	if err := cfg.validate(); err == nil {
		t.Fatal("expected cutoff-order validation error")
	}
}
