package anomaly

import (
	"context"
	"time"

	"github.com/caarlos0/env/v6"
	"go.uber.org/zap"

	"foresight-api-server/internal/cache"
	"foresight-api-server/internal/models"
	"foresight-api-server/internal/timeseries"
)

type envConfig struct {
	RecentWindow   time.Duration `env:"ANOMALY_RECENT_WINDOW" envDefault:"1h"`
	BaselineWindow time.Duration `env:"ANOMALY_BASELINE_WINDOW" envDefault:"168h"`
	ResultTTL      time.Duration `env:"ANOMALY_RESULT_TTL" envDefault:"5m"`

	CPUScoreThreshold     float64 `env:"ANOMALY_CPU_SCORE_THRESHOLD" envDefault:"3"`
	LatencyScoreThreshold float64 `env:"ANOMALY_LATENCY_SCORE_THRESHOLD" envDefault:"3"`
	ErrorScoreThreshold   float64 `env:"ANOMALY_ERROR_SCORE_THRESHOLD" envDefault:"2"`

	// Floors keep the deviation denominators away from zero for near-idle
	// baselines.
	CPUBaselineFloor     float64 `env:"ANOMALY_CPU_BASELINE_FLOOR" envDefault:"1"`
	LatencyStddevFloor   float64 `env:"ANOMALY_LATENCY_STDDEV_FLOOR" envDefault:"10"`
	ErrorRateFloor       float64 `env:"ANOMALY_ERROR_RATE_FLOOR" envDefault:"0.01"`
	BaselineScaleFactor  float64 `env:"ANOMALY_BASELINE_SCALE_FACTOR" envDefault:"0.1"`
}

type anomalyService struct {
	cache      *cache.Cache
	remote     *cache.RemoteCache
	reader     timeseries.Reader
	repository AnomalyRepository
	notifier   Notifier
	cfg        *envConfig
	logger     *zap.Logger
}

var _ AnomalyService = (*anomalyService)(nil)

func NewAnomalyService(
	cache *cache.Cache,
	remote *cache.RemoteCache,
	reader timeseries.Reader,
	r AnomalyRepository,
	notifier Notifier,
	logger *zap.Logger) (AnomalyService, error) {
	cfg := &envConfig{}
	if err := env.Parse(cfg, env.Options{}); err != nil {
		return nil, err
	}

	return &anomalyService{
		cache:      cache,
		remote:     remote,
		reader:     reader,
		repository: r,
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

func resultKey(teamID string) string {
	return "anomaly:team:" + teamID
}

// Detect scores each of the team's deployments against its own rolling
// baseline. Safe to run repeatedly; a pass over unchanged history yields the
// same anomalies. Deployments without baseline history are skipped.
func (as *anomalyService) Detect(ctx context.Context, teamID string) ([]Anomaly, error) {
	as.logger.Debug("anomaly detection pass", zap.String("team", teamID))

	if item, exist := as.cache.Get(resultKey(teamID)); exist {
		return item.([]Anomaly), nil
	}

	pairs, err := as.reader.FetchRecentAndBaseline(ctx, teamID,
		timeseries.WindowEndingNow(as.cfg.RecentWindow),
		timeseries.WindowEndingNow(as.cfg.BaselineWindow))
	if err != nil {
		as.logger.Error("failed to get deployment aggregates from database", zap.Error(err))
		return nil, err
	}

	anomalies := make([]Anomaly, 0)
	for deploymentID, pair := range pairs {
		if pair.Baseline == nil {
			// new deployment, no baseline to deviate from
			continue
		}
		anomalies = append(anomalies, as.score(deploymentID, pair.Recent, pair.Baseline)...)
	}

	as.cache.SetWithTTL(resultKey(teamID), anomalies, as.cfg.ResultTTL)
	if err := as.remote.SetEx(ctx, resultKey(teamID), anomalies, as.cfg.ResultTTL); err != nil {
		as.logger.Warn("remote cache write failed", zap.Error(err))
	}

	as.alertOnCritical(ctx, teamID, anomalies)

	return anomalies, nil
}

// DeploymentMetrics returns the raw hourly samples behind a flagged
// deployment, for drill-down after a detection pass.
func (as *anomalyService) DeploymentMetrics(ctx context.Context, deploymentID string, w timeseries.Window) ([]models.MetricSample, error) {
	samples, err := as.reader.FetchMetrics(ctx, deploymentID, w)
	if err != nil {
		as.logger.Error("failed to get metric samples from database", zap.Error(err))
		return nil, err
	}
	return samples, nil
}

func (as *anomalyService) score(deploymentID string, recent, baseline *models.DeploymentAggregate) []Anomaly {
	var anomalies []Anomaly

	cpuScore := (recent.AvgCPUPct - baseline.AvgCPUPct) /
		max(baseline.AvgCPUPct*as.cfg.BaselineScaleFactor, as.cfg.CPUBaselineFloor)
	if cpuScore > as.cfg.CPUScoreThreshold {
		anomalies = append(anomalies, Anomaly{
			DeploymentID:   deploymentID,
			Type:           TypeHighCPU,
			Severity:       SeverityWarning,
			Current:        recent.AvgCPUPct,
			Baseline:       baseline.AvgCPUPct,
			Score:          cpuScore,
			Recommendation: recommendations[TypeHighCPU],
		})
	}

	latencyScore := (recent.AvgLatencyMs - baseline.AvgLatencyMs) /
		max(baseline.LatencyStddevMs, as.cfg.LatencyStddevFloor)
	if latencyScore > as.cfg.LatencyScoreThreshold {
		anomalies = append(anomalies, Anomaly{
			DeploymentID:   deploymentID,
			Type:           TypeHighLatency,
			Severity:       SeverityWarning,
			Current:        recent.AvgLatencyMs,
			Baseline:       baseline.AvgLatencyMs,
			Score:          latencyScore,
			Recommendation: recommendations[TypeHighLatency],
		})
	}

	recentRate := errorRate(recent.ErrorCount, recent.RequestCount)
	baselineRate := errorRate(baseline.ErrorCount, baseline.RequestCount)
	errorScore := (recentRate - baselineRate) /
		max(baselineRate*as.cfg.BaselineScaleFactor, as.cfg.ErrorRateFloor)
	if errorScore > as.cfg.ErrorScoreThreshold {
		anomalies = append(anomalies, Anomaly{
			DeploymentID:   deploymentID,
			Type:           TypeHighErrorRate,
			Severity:       SeverityCritical,
			Current:        recentRate,
			Baseline:       baselineRate,
			Score:          errorScore,
			Recommendation: recommendations[TypeHighErrorRate],
		})
	}

	return anomalies
}

// alertOnCritical posts the webhook when any critical anomaly exists.
// Delivery failures degrade notification only, never detection.
func (as *anomalyService) alertOnCritical(ctx context.Context, teamID string, anomalies []Anomaly) {
	critical := false
	for _, a := range anomalies {
		if a.Severity == SeverityCritical {
			critical = true
			break
		}
	}
	if !critical {
		return
	}

	url, err := as.repository.GetTeamWebhook(ctx, teamID)
	if err != nil {
		as.logger.Warn("failed to resolve team webhook", zap.String("team", teamID), zap.Error(err))
		return
	}
	if url == "" {
		return
	}

	as.notifier.Notify(url, AlertPayload{
		Alert:     criticalAlert,
		Anomalies: anomalies,
		Timestamp: time.Now(),
	})
}

func errorRate(errors, requests int64) float64 {
	if requests <= 0 {
		return 0
	}
	return float64(errors) / float64(requests)
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
