package rightsizing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	commonerrors "foresight-api-server/internal/api/common/errors"
	"foresight-api-server/internal/cache"
	"foresight-api-server/internal/models"
	"foresight-api-server/internal/timeseries"
)

type stubReader struct {
	samples []models.MetricSample
}

var _ timeseries.Reader = (*stubReader)(nil)

func (r *stubReader) FetchMetrics(ctx context.Context, deploymentID string, w timeseries.Window) ([]models.MetricSample, error) {
	return nil, nil
}

func (r *stubReader) FetchProjectMetrics(ctx context.Context, projectID string, w timeseries.Window) ([]models.MetricSample, error) {
	return r.samples, nil
}

func (r *stubReader) FetchRecentAndBaseline(ctx context.Context, teamID string, recent, baseline timeseries.Window) (map[string]*timeseries.RecentBaseline, error) {
	return nil, nil
}

func (r *stubReader) FetchUsage(ctx context.Context, teamID string, w timeseries.Window) ([]models.UsageRecord, error) {
	return nil, nil
}

func (r *stubReader) FetchBuilds(ctx context.Context, projectID string, limit int) ([]models.BuildRecord, error) {
	return nil, nil
}

func newTestService(t *testing.T, samples []models.MetricSample) RightsizingService {
	t.Helper()

	c, err := cache.NewCache()
	require.NoError(t, err)

	service, err := NewRightsizingService(c, nil, &stubReader{samples: samples}, zap.NewNop())
	require.NoError(t, err)
	return service
}

func constantSamples(n int, avgCPU, maxCPU, avgMemory float64) []models.MetricSample {
	samples := make([]models.MetricSample, 0, n)
	start := time.Now().Add(-time.Duration(n) * time.Hour)
	for i := 0; i < n; i++ {
		samples = append(samples, models.MetricSample{
			Bucket:       start.Add(time.Duration(i) * time.Hour),
			DeploymentID: "deploy-a",
			AvgCPUPct:    avgCPU,
			MaxCPUPct:    maxCPU,
			AvgMemoryPct: avgMemory,
			MaxMemoryPct: avgMemory,
		})
	}
	return samples
}

func TestRecommendInsufficientSamples(t *testing.T) {
	service := newTestService(t, constantSamples(10, 30, 80, 50))

	_, err := service.Recommend(context.Background(), "proj-sparse")
	require.Error(t, err)
	assert.IsType(t, commonerrors.InsufficientDataError{}, err)
}

func TestRecommendOverprovisionedProject(t *testing.T) {
	// flat 30% CPU on the 1000m default, flat 50% memory on the 512Mi default
	service := newTestService(t, constantSamples(100, 30, 80, 50))

	recommendation, err := service.Recommend(context.Background(), "proj-idle")
	require.NoError(t, err)

	assert.Equal(t, 1000, recommendation.CPU.Current)
	assert.Equal(t, 300, recommendation.CPU.Recommended)
	assert.Equal(t, 300, recommendation.CPU.Reservation)
	assert.InDelta(t, 70.0, recommendation.CPU.SavingsPct, 1e-9)

	assert.Equal(t, 512, recommendation.Memory.Current)
	assert.Equal(t, 256, recommendation.Memory.Recommended)
	assert.Equal(t, 256, recommendation.Memory.Reservation)
	assert.InDelta(t, 50.0, recommendation.Memory.SavingsPct, 1e-9)

	assert.Equal(t, 2, recommendation.Autoscaling.MinReplicas)
	// peak 800m on 500m per replica rounds up to two replicas
	assert.Equal(t, 2, recommendation.Autoscaling.MaxReplicas)
	assert.Equal(t, 70, recommendation.Autoscaling.TargetCPUUtilization)
	assert.Equal(t, 75, recommendation.Autoscaling.TargetMemoryUtilization)
}

func TestRecommendPercentileStats(t *testing.T) {
	samples := make([]models.MetricSample, 0, 100)
	start := time.Now().Add(-100 * time.Hour)
	for i := 0; i < 100; i++ {
		samples = append(samples, models.MetricSample{
			Bucket:       start.Add(time.Duration(i) * time.Hour),
			DeploymentID: "deploy-b",
			AvgCPUPct:    float64(i + 1),
			MaxCPUPct:    float64(i + 1),
			AvgMemoryPct: 50,
		})
	}
	service := newTestService(t, samples)

	recommendation, err := service.Recommend(context.Background(), "proj-spread")
	require.NoError(t, err)

	assert.InDelta(t, 505.0, recommendation.CPUStats.Avg, 1e-9)
	assert.InDelta(t, 950.0, recommendation.CPUStats.P95, 1e-9)
	assert.InDelta(t, 990.0, recommendation.CPUStats.P99, 1e-9)
	assert.InDelta(t, 1000.0, recommendation.CPUStats.Max, 1e-9)

	// P95 of 950m rounds up to the full default, so no savings
	assert.Equal(t, 1000, recommendation.CPU.Recommended)
	assert.Equal(t, 600, recommendation.CPU.Reservation)
	assert.Zero(t, recommendation.CPU.SavingsPct)

	assert.GreaterOrEqual(t, recommendation.CPU.Recommended, recommendation.CPU.Reservation)
	assert.GreaterOrEqual(t, recommendation.Memory.Recommended, recommendation.Memory.Reservation)
}

func TestRecommendBurstyPeakWidensAutoscaling(t *testing.T) {
	service := newTestService(t, constantSamples(48, 40, 250, 60))

	recommendation, err := service.Recommend(context.Background(), "proj-bursty")
	require.NoError(t, err)

	// 2500m peak over 500m per replica
	assert.Equal(t, 5, recommendation.Autoscaling.MaxReplicas)
	assert.Equal(t, 2, recommendation.Autoscaling.MinReplicas)
}
