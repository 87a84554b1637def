package scaling

import (
	"time"

	"github.com/caarlos0/env/v6"
)

// All scaling knobs are tunables, not business logic. Defaults mirror the
// platform's standard replica sizing.
type envConfig struct {
	MinSamples            int           `env:"SCALING_MIN_SAMPLES" envDefault:"168"`
	HorizonHours          int           `env:"SCALING_HORIZON_HOURS" envDefault:"168"`
	MinReplicas           int           `env:"SCALING_MIN_REPLICAS" envDefault:"2"`
	PerReplicaCPUFraction float64       `env:"SCALING_PER_REPLICA_CPU_FRACTION" envDefault:"0.5"`
	TargetUtilization     float64       `env:"SCALING_TARGET_UTILIZATION" envDefault:"0.7"`
	Confidence            float64       `env:"SCALING_CONFIDENCE" envDefault:"0.7"`
	ForecastTTL           time.Duration `env:"SCALING_FORECAST_TTL" envDefault:"1h"`
	ModelTTL              time.Duration `env:"SCALING_MODEL_TTL" envDefault:"1h"`
}

func newConfig() (*envConfig, error) {
	cfg := &envConfig{}
	if err := env.Parse(cfg, env.Options{}); err != nil {
		return nil, err
	}
	return cfg, nil
}
