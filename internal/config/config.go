package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Cron   CronConfig   `mapstructure:"cron"`

	Scan       ScanConfig       `mapstructure:"scan"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Validation ValidationConfig `mapstructure:"validation"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Quality    QualityConfig    `mapstructure:"quality"`
	Accuracy   AccuracyConfig   `mapstructure:"accuracy"`
	Dedup      DedupConfig      `mapstructure:"dedup"`
	Market     MarketConfig     `mapstructure:"market"`
	Publish    PublishConfig    `mapstructure:"publish"`

	Sources []SourceEntry `mapstructure:"sources"`
}

// SourceEntry configures one feed adapter. Type selects the fetcher
// implementation ("http_json" or "static").
type SourceEntry struct {
	Name     string `mapstructure:"name"`
	Type     string `mapstructure:"type"`
	Endpoint string `mapstructure:"endpoint"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Cron specs (robfig v3, with seconds field).
	Scan       string `mapstructure:"scan"`
	Resolution string `mapstructure:"resolution"`
}

type ScanConfig struct {
	// FetchTimeout bounds each source's fetch call; a timed-out source yields
	// zero candidates for the pass, it does not fail the batch.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	MaxParallel  int           `mapstructure:"max_parallel" validate:"gte=1"`
}

type ExtractionConfig struct {
	DefaultLeverage int `mapstructure:"default_leverage" validate:"gte=1"`
	// ResolutionHorizons maps a timeframe label to how long after creation the
	// signal is expected to resolve. Unknown labels fall back to DefaultHorizon.
	ResolutionHorizons map[string]time.Duration `mapstructure:"resolution_horizons"`
	DefaultHorizon     time.Duration            `mapstructure:"default_horizon"`
}

type ValidationConfig struct {
	// MaxPriceDeviation is the fraction of market price beyond which the entry
	// gets the price_deviation_too_high tag.
	MaxPriceDeviation float64 `mapstructure:"max_price_deviation" validate:"gt=0,lte=1"`
}

// ScoringConfig carries the confidence-factor weights. They were tuned
// empirically; preserve them as configuration, the validator only enforces
// that they still sum to 1.
type ScoringConfig struct {
	WeightRiskReward     float64 `mapstructure:"weight_risk_reward" validate:"gte=0,lte=1"`
	WeightVolatility     float64 `mapstructure:"weight_volatility" validate:"gte=0,lte=1"`
	WeightDirection      float64 `mapstructure:"weight_direction" validate:"gte=0,lte=1"`
	WeightMarket         float64 `mapstructure:"weight_market" validate:"gte=0,lte=1"`
	WeightPositionRisk   float64 `mapstructure:"weight_position_risk" validate:"gte=0,lte=1"`
	WeightBaseConfidence float64 `mapstructure:"weight_base_confidence" validate:"gte=0,lte=1"`

	// Final score clamp. Never absolute 0 or 100: scores carry irreducible
	// uncertainty.
	MinScore float64 `mapstructure:"min_score" validate:"gte=0"`
	MaxScore float64 `mapstructure:"max_score" validate:"lte=100"`
}

type QualityConfig struct {
	ExcellentCutoff float64 `mapstructure:"excellent_cutoff"`
	GoodCutoff      float64 `mapstructure:"good_cutoff"`
	AverageCutoff   float64 `mapstructure:"average_cutoff"`
	PoorCutoff      float64 `mapstructure:"poor_cutoff"`
}

type AccuracyConfig struct {
	// RollingWindowMonths bounds the accuracy rollup (trailing window).
	RollingWindowMonths int `mapstructure:"rolling_window_months" validate:"gte=1"`
	// PartialSuccessThreshold classifies a PARTIAL outcome as successful in
	// accuracy statistics. Distinct from any other 0.5 in the system.
	PartialSuccessThreshold float64 `mapstructure:"partial_success_threshold" validate:"gte=0,lte=1"`
	// NeutralPriorPct is the accuracy reported for channels with no resolved
	// signals yet.
	NeutralPriorPct float64 `mapstructure:"neutral_prior_pct" validate:"gte=0,lte=100"`
	// ActivityFloor is the resolved-signal count below which the composite
	// ranking score is penalized proportionally.
	ActivityFloor int `mapstructure:"activity_floor" validate:"gte=1"`
	// ExpiryGrace is how long past its expected resolution a signal may stay
	// PENDING waiting for a price before it is force-resolved.
	ExpiryGrace time.Duration `mapstructure:"expiry_grace"`
}

type DedupConfig struct {
	// EntryTolerancePct collapses candidates whose entries differ by less than
	// this fraction of the entry price.
	EntryTolerancePct float64 `mapstructure:"entry_tolerance_pct" validate:"gt=0,lt=1"`
}

type MarketConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	StreamURL    string        `mapstructure:"stream_url"`
	StreamAssets []string      `mapstructure:"stream_assets"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	// TrendWindow is the sliding window used to derive the trend hint.
	TrendWindow time.Duration `mapstructure:"trend_window"`
	// TrendTriggerPct is the drift (percent) that flips the hint off neutral.
	TrendTriggerPct float64 `mapstructure:"trend_trigger_pct"`
}

type PublishConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Broker  string `mapstructure:"broker"`
	Topic   string `mapstructure:"topic"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.scan", "0 0 * * * *")
	v.SetDefault("cron.resolution", "0 30 * * * *")

	v.SetDefault("scan.fetch_timeout", "30s")
	v.SetDefault("scan.max_parallel", 8)

	v.SetDefault("extraction.default_leverage", 1)
	v.SetDefault("extraction.default_horizon", "168h")
	v.SetDefault("extraction.resolution_horizons", map[string]string{
		"15M": "6h",
		"30M": "12h",
		"1H":  "24h",
		"4H":  "72h",
		"1D":  "168h",
		"1W":  "720h",
	})

	v.SetDefault("validation.max_price_deviation", 0.10)

	v.SetDefault("scoring.weight_risk_reward", 0.30)
	v.SetDefault("scoring.weight_volatility", 0.20)
	v.SetDefault("scoring.weight_direction", 0.15)
	v.SetDefault("scoring.weight_market", 0.15)
	v.SetDefault("scoring.weight_position_risk", 0.10)
	v.SetDefault("scoring.weight_base_confidence", 0.10)
	v.SetDefault("scoring.min_score", 5.0)
	v.SetDefault("scoring.max_score", 95.0)

	v.SetDefault("quality.excellent_cutoff", 85.0)
	v.SetDefault("quality.good_cutoff", 70.0)
	v.SetDefault("quality.average_cutoff", 55.0)
	v.SetDefault("quality.poor_cutoff", 40.0)

	v.SetDefault("accuracy.rolling_window_months", 12)
	v.SetDefault("accuracy.partial_success_threshold", 0.5)
	v.SetDefault("accuracy.neutral_prior_pct", 50.0)
	v.SetDefault("accuracy.activity_floor", 10)
	v.SetDefault("accuracy.expiry_grace", "72h")

	v.SetDefault("dedup.entry_tolerance_pct", 0.001)

	v.SetDefault("market.endpoint", "https://api.binance.com/api/v3/ticker/price")
	v.SetDefault("market.stream_url", "")
	v.SetDefault("market.timeout", "10s")
	v.SetDefault("market.poll_interval", "15s")
	v.SetDefault("market.cache_ttl", "1m")
	v.SetDefault("market.trend_window", "15m")
	v.SetDefault("market.trend_trigger_pct", 1.0)

	v.SetDefault("publish.enabled", false)
	v.SetDefault("publish.broker", "localhost:9092")
	v.SetDefault("publish.topic", "signals")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	sum := c.Scoring.WeightRiskReward + c.Scoring.WeightVolatility +
		c.Scoring.WeightDirection + c.Scoring.WeightMarket +
		c.Scoring.WeightPositionRisk + c.Scoring.WeightBaseConfidence
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("scoring weights sum to %.4f, want 1.0", sum)
	}
	if c.Scoring.MinScore >= c.Scoring.MaxScore {
		return fmt.Errorf("scoring.min_score %.1f must be below max_score %.1f", c.Scoring.MinScore, c.Scoring.MaxScore)
	}
	q := c.Quality
	if !(q.ExcellentCutoff > q.GoodCutoff && q.GoodCutoff > q.AverageCutoff && q.AverageCutoff > q.PoorCutoff) {
		return fmt.Errorf("quality cutoffs must be strictly descending: %v/%v/%v/%v",
			q.ExcellentCutoff, q.GoodCutoff, q.AverageCutoff, q.PoorCutoff)
	}
	return nil
}
