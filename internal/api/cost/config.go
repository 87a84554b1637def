package cost

import (
	"time"

	"github.com/caarlos0/env/v6"
)

// Unit rates and recommendation thresholds are billing configuration;
// the savings percentages are heuristic estimates, kept overridable.
type envConfig struct {
	UsageWindow time.Duration `env:"COST_USAGE_WINDOW" envDefault:"2160h"` // 90 days
	MinRecords  int           `env:"COST_MIN_USAGE_RECORDS" envDefault:"30"`
	ResultTTL   time.Duration `env:"COST_RESULT_TTL" envDefault:"1h"`

	RateCPUHour     float64 `env:"COST_RATE_CPU_HOUR" envDefault:"0.05"`
	RateBandwidthGB float64 `env:"COST_RATE_BANDWIDTH_GB" envDefault:"0.09"`
	RateStorageGB   float64 `env:"COST_RATE_STORAGE_GB" envDefault:"0.023"`
	RateBuild       float64 `env:"COST_RATE_BUILD" envDefault:"0.10"`

	BandwidthDailyThresholdGB float64 `env:"COST_BANDWIDTH_DAILY_THRESHOLD_GB" envDefault:"50"`
	BuildsDailyThreshold      float64 `env:"COST_BUILDS_DAILY_THRESHOLD" envDefault:"50"`
	MonthlyCostThreshold      float64 `env:"COST_MONTHLY_THRESHOLD" envDefault:"1000"`

	CDNSavingsPct        float64 `env:"COST_CDN_SAVINGS_PCT" envDefault:"20"`
	BuildCacheSavingsPct float64 `env:"COST_BUILD_CACHE_SAVINGS_PCT" envDefault:"15"`
	ReservedSavingsPct   float64 `env:"COST_RESERVED_SAVINGS_PCT" envDefault:"25"`

	// SlopeTolerance bounds the "stable" classification of a usage trend.
	SlopeTolerance float64 `env:"COST_SLOPE_TOLERANCE" envDefault:"0.01"`
}

func newConfig() (*envConfig, error) {
	cfg := &envConfig{}
	if err := env.Parse(cfg, env.Options{}); err != nil {
		return nil, err
	}
	return cfg, nil
}
