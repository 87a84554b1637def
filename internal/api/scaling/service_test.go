package scaling

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
	return r.samples, nil
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

func hourlySamples(n int) []models.MetricSample {
	start := time.Now().Truncate(time.Hour).Add(-time.Duration(n) * time.Hour)

	samples := make([]models.MetricSample, n)
	for i := range samples {
		bucket := start.Add(time.Duration(i) * time.Hour)
		samples[i] = models.MetricSample{
			Bucket:       bucket,
			DeploymentID: "deploy-1",
			AvgCPUPct:    30 + float64(bucket.Hour()),
			AvgMemoryPct: 45 + float64(bucket.Hour())/2,
			RequestCount: 1000,
		}
	}
	return samples
}

func newTestService(t *testing.T, samples []models.MetricSample) ScalingService {
	t.Helper()

	c, err := cache.NewCache()
	require.NoError(t, err)

	service, err := NewScalingService(c, nil, nil, &stubReader{samples: samples}, zap.NewNop())
	require.NoError(t, err)
	return service
}

func TestComputeForecastInsufficientData(t *testing.T) {
	service := newTestService(t, hourlySamples(167))

	_, err := service.ComputeForecast(context.Background(), "proj-short", timeseries.WindowEndingNow(7*24*time.Hour))
	require.Error(t, err)
	assert.IsType(t, commonerrors.InsufficientDataError{}, err)
}

func TestComputeForecastHorizon(t *testing.T) {
	samples := hourlySamples(168)
	service := newTestService(t, samples)

	forecast, err := service.ComputeForecast(context.Background(), "proj-1", timeseries.WindowEndingNow(7*24*time.Hour))
	require.NoError(t, err)

	require.Len(t, forecast.Points, 168)

	horizonStart := samples[len(samples)-1].Bucket.Add(time.Hour)
	for i, point := range forecast.Points {
		assert.Equal(t, horizonStart.Add(time.Duration(i)*time.Hour), point.Timestamp)
		assert.GreaterOrEqual(t, point.RecommendedReplicas, 2)
		assert.GreaterOrEqual(t, point.EstimatedCPUPct, 0.0)
		assert.Equal(t, forecast.Confidence, point.Confidence)
	}

	assert.Equal(t, 2, forecast.Summary.RecommendedMinReplicas)
	assert.GreaterOrEqual(t, forecast.Summary.RecommendedMaxReplicas, forecast.Summary.RecommendedMinReplicas)
	assert.GreaterOrEqual(t, forecast.Summary.PeakCPUPredicted, forecast.Summary.AvgCPUPredicted)
}

func TestComputeForecastDeterministic(t *testing.T) {
	samples := hourlySamples(168)

	first, err := newTestService(t, samples).
		ComputeForecast(context.Background(), "proj-a", timeseries.WindowEndingNow(7*24*time.Hour))
	require.NoError(t, err)
	second, err := newTestService(t, samples).
		ComputeForecast(context.Background(), "proj-b", timeseries.WindowEndingNow(7*24*time.Hour))
	require.NoError(t, err)

	require.Len(t, second.Points, len(first.Points))
	for i := range first.Points {
		assert.Equal(t, first.Points[i].EstimatedCPUPct, second.Points[i].EstimatedCPUPct)
		assert.Equal(t, first.Points[i].RecommendedReplicas, second.Points[i].RecommendedReplicas)
	}
}

func TestEncodeDecodeForecastRoundTrip(t *testing.T) {
	forecast, err := newTestService(t, hourlySamples(168)).
		ComputeForecast(context.Background(), "proj-codec", timeseries.WindowEndingNow(7*24*time.Hour))
	require.NoError(t, err)

	encoded, err := EncodeForecast(forecast)
	require.NoError(t, err)

	decoded, err := DecodeForecast(encoded)
	require.NoError(t, err)
	assert.Equal(t, forecast.ProjectID, decoded.ProjectID)
	require.Len(t, decoded.Points, len(forecast.Points))
	assert.Equal(t, forecast.Points[0].RecommendedReplicas, decoded.Points[0].RecommendedReplicas)
}
