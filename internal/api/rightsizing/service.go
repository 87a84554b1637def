package rightsizing

import (
	"context"
	"math"
	"time"

	"github.com/caarlos0/env/v6"
	"go.uber.org/zap"

	commonerrors "foresight-api-server/internal/api/common/errors"
	"foresight-api-server/internal/api/common/stats"
	"foresight-api-server/internal/cache"
	"foresight-api-server/internal/timeseries"
)

// Platform defaults and rounding steps are configuration, not business
// logic baked into the computation.
type envConfig struct {
	Window     time.Duration `env:"RIGHTSIZING_WINDOW" envDefault:"720h"` // 30 days
	MinSamples int           `env:"RIGHTSIZING_MIN_SAMPLES" envDefault:"24"`
	ResultTTL  time.Duration `env:"RIGHTSIZING_RESULT_TTL" envDefault:"1h"`

	DefaultCPUMilli  int `env:"RIGHTSIZING_DEFAULT_CPU_MILLI" envDefault:"1000"`
	DefaultMemoryMi  int `env:"RIGHTSIZING_DEFAULT_MEMORY_MI" envDefault:"512"`
	CPUStepMilli     int `env:"RIGHTSIZING_CPU_STEP_MILLI" envDefault:"100"`
	MemoryStepMi     int `env:"RIGHTSIZING_MEMORY_STEP_MI" envDefault:"64"`
	PerReplicaMilli  int `env:"RIGHTSIZING_PER_REPLICA_MILLI" envDefault:"500"`
	MinReplicas      int `env:"RIGHTSIZING_MIN_REPLICAS" envDefault:"2"`
	TargetCPUPct     int `env:"RIGHTSIZING_TARGET_CPU_PCT" envDefault:"70"`
	TargetMemoryPct  int `env:"RIGHTSIZING_TARGET_MEMORY_PCT" envDefault:"75"`
}

type rightsizingService struct {
	cache  *cache.Cache
	remote *cache.RemoteCache
	reader timeseries.Reader
	cfg    *envConfig
	logger *zap.Logger
}

var _ RightsizingService = (*rightsizingService)(nil)

func NewRightsizingService(
	cache *cache.Cache,
	remote *cache.RemoteCache,
	reader timeseries.Reader,
	logger *zap.Logger) (RightsizingService, error) {
	cfg := &envConfig{}
	if err := env.Parse(cfg, env.Options{}); err != nil {
		return nil, err
	}

	return &rightsizingService{
		cache:  cache,
		remote: remote,
		reader: reader,
		cfg:    cfg,
		logger: logger,
	}, nil
}

func resultKey(projectID string) string {
	return "rightsizing:project:" + projectID
}

// Recommend derives requests, reservations and autoscaling bounds from the
// 30-day usage percentiles of a project.
func (rs *rightsizingService) Recommend(ctx context.Context, projectID string) (*ResourceRecommendation, error) {
	rs.logger.Debug("rightsizing project", zap.String("project", projectID))

	if item, exist := rs.cache.Get(resultKey(projectID)); exist {
		return item.(*ResourceRecommendation), nil
	}

	samples, err := rs.reader.FetchProjectMetrics(ctx, projectID, timeseries.WindowEndingNow(rs.cfg.Window))
	if err != nil {
		rs.logger.Error("failed to get metric samples from database", zap.Error(err))
		return nil, err
	}
	if len(samples) < rs.cfg.MinSamples {
		return nil, commonerrors.InsufficientDataErr("hourly metric sample", rs.cfg.MinSamples, len(samples))
	}

	cpuMilli := make([]float64, len(samples))
	memoryMi := make([]float64, len(samples))
	peakCPUMilli := make([]float64, len(samples))
	for i, sample := range samples {
		// percent of the platform default allocation, converted to
		// absolute units
		cpuMilli[i] = sample.AvgCPUPct / 100 * float64(rs.cfg.DefaultCPUMilli)
		memoryMi[i] = sample.AvgMemoryPct / 100 * float64(rs.cfg.DefaultMemoryMi)
		peakCPUMilli[i] = sample.MaxCPUPct / 100 * float64(rs.cfg.DefaultCPUMilli)
	}

	cpuStats := statsOf(cpuMilli)
	memoryStats := statsOf(memoryMi)

	recommendation := &ResourceRecommendation{
		ProjectID:   projectID,
		GeneratedAt: time.Now(),
		CPUStats:    cpuStats,
		MemoryStats: memoryStats,
		CPU:         rs.sizing(cpuStats, rs.cfg.DefaultCPUMilli, rs.cfg.CPUStepMilli),
		Memory:      rs.sizing(memoryStats, rs.cfg.DefaultMemoryMi, rs.cfg.MemoryStepMi),
		Autoscaling: AutoscalingBounds{
			MinReplicas:             rs.cfg.MinReplicas,
			MaxReplicas:             rs.maxReplicas(stats.Max(peakCPUMilli)),
			TargetCPUUtilization:    rs.cfg.TargetCPUPct,
			TargetMemoryUtilization: rs.cfg.TargetMemoryPct,
		},
	}

	rs.cache.SetWithTTL(resultKey(projectID), recommendation, rs.cfg.ResultTTL)
	if err := rs.remote.SetEx(ctx, resultKey(projectID), recommendation, rs.cfg.ResultTTL); err != nil {
		rs.logger.Warn("remote cache write failed", zap.Error(err))
	}

	return recommendation, nil
}

func statsOf(values []float64) ResourceStats {
	return ResourceStats{
		Avg: stats.Mean(values),
		Max: stats.Max(values),
		P95: stats.Percentile(values, 95),
		P99: stats.Percentile(values, 99),
	}
}

// sizing rounds P95 up to the recommended request and the average up to the
// reservation, both on the configured step. The recommendation is clamped to
// stay at or above the reservation so a skewed distribution cannot invert
// them.
func (rs *rightsizingService) sizing(s ResourceStats, current, step int) Sizing {
	reservation := int(stats.CeilToStep(s.Avg, float64(step)))
	recommended := int(stats.CeilToStep(s.P95, float64(step)))
	if recommended < reservation {
		recommended = reservation
	}

	savings := 0.0
	if current > 0 && recommended < current {
		savings = float64(current-recommended) / float64(current) * 100
	}

	return Sizing{
		Current:     current,
		Recommended: recommended,
		Reservation: reservation,
		SavingsPct:  savings,
	}
}

func (rs *rightsizingService) maxReplicas(peakCPUMilli float64) int {
	if rs.cfg.PerReplicaMilli <= 0 {
		return rs.cfg.MinReplicas
	}

	replicas := int(math.Ceil(peakCPUMilli / float64(rs.cfg.PerReplicaMilli)))
	if replicas < rs.cfg.MinReplicas {
		replicas = rs.cfg.MinReplicas
	}
	return replicas
}
