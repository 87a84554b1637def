package cost

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	commonerrors "foresight-api-server/internal/api/common/errors"
	"foresight-api-server/internal/cache"
	"foresight-api-server/internal/models"
	"foresight-api-server/internal/timeseries"
)

type stubReader struct {
	usage []models.UsageRecord
}

var _ timeseries.Reader = (*stubReader)(nil)

func (r *stubReader) FetchMetrics(ctx context.Context, deploymentID string, w timeseries.Window) ([]models.MetricSample, error) {
	return nil, nil
}

func (r *stubReader) FetchProjectMetrics(ctx context.Context, projectID string, w timeseries.Window) ([]models.MetricSample, error) {
	return nil, nil
}

func (r *stubReader) FetchRecentAndBaseline(ctx context.Context, teamID string, recent, baseline timeseries.Window) (map[string]*timeseries.RecentBaseline, error) {
	return nil, nil
}

func (r *stubReader) FetchUsage(ctx context.Context, teamID string, w timeseries.Window) ([]models.UsageRecord, error) {
	return r.usage, nil
}

func (r *stubReader) FetchBuilds(ctx context.Context, projectID string, limit int) ([]models.BuildRecord, error) {
	return nil, nil
}

type stubRepository struct {
	previous decimal.Decimal
}

func (r *stubRepository) GetPreviousMonthCost(ctx context.Context, teamID string, now time.Time) (decimal.Decimal, error) {
	return r.previous, nil
}

func newTestService(t *testing.T, usage []models.UsageRecord, previous decimal.Decimal) CostService {
	t.Helper()

	c, err := cache.NewCache()
	require.NoError(t, err)

	service, err := NewCostService(c, nil, &stubReader{usage: usage},
		&stubRepository{previous: previous}, zap.NewNop())
	require.NoError(t, err)
	return service
}

// dailyUsage builds one record per day with quantities stepping linearly
// from first to last.
func dailyUsage(metricType string, days int, first, last float64) []models.UsageRecord {
	step := 0.0
	if days > 1 {
		step = (last - first) / float64(days-1)
	}
	records := make([]models.UsageRecord, 0, days)
	start := time.Now().AddDate(0, 0, -days)
	for i := 0; i < days; i++ {
		records = append(records, models.UsageRecord{
			TeamID:     "team-a",
			MetricType: metricType,
			Quantity:   first + step*float64(i),
			BilledAt:   start.AddDate(0, 0, i),
		})
	}
	return records
}

func TestForecastInsufficientData(t *testing.T) {
	service := newTestService(t, dailyUsage(models.MetricBandwidthGB, 10, 50, 60), decimal.Zero)

	_, err := service.Forecast(context.Background(), "team-sparse")
	require.Error(t, err)
	assert.IsType(t, commonerrors.InsufficientDataError{}, err)
}

func TestForecastBandwidthGrowth(t *testing.T) {
	usage := dailyUsage(models.MetricBandwidthGB, 90, 50, 140)
	service := newTestService(t, usage, decimal.NewFromInt(120))

	forecast, err := service.Forecast(context.Background(), "team-growth")
	require.NoError(t, err)

	require.Len(t, forecast.Metrics, 1)
	metric := forecast.Metrics[0]
	assert.Equal(t, models.MetricBandwidthGB, metric.MetricType)
	assert.Equal(t, "increasing", metric.TrendDirection)
	assert.InDelta(t, 95.0, metric.DailyAverage, 0.01)
	// slope 90/89 GB/day projected 30 days past the intercept
	assert.InDelta(t, 80.34, metric.ProjectedMonthlyUsage, 0.01)

	cost, _ := metric.ProjectedCost.Float64()
	assert.InDelta(t, 7.23, cost, 0.01)
	assert.True(t, forecast.ProjectedCost.Equal(metric.ProjectedCost))

	require.NotNil(t, forecast.CostChangePct)
	assert.False(t, forecast.NewSpend)
	assert.InDelta(t, -93.98, *forecast.CostChangePct, 0.01)

	require.Len(t, forecast.Recommendations, 1)
	rec := forecast.Recommendations[0]
	assert.Contains(t, rec.Action, "CDN")
	assert.Equal(t, 20.0, rec.EstimatedSavingsPct)
	assert.True(t, rec.EstimatedSavings.Equal(pctOf(forecast.ProjectedCost, 20)))
}

func TestForecastNewSpend(t *testing.T) {
	usage := dailyUsage(models.MetricCPUHours, 30, 10, 10)
	service := newTestService(t, usage, decimal.Zero)

	forecast, err := service.Forecast(context.Background(), "team-new")
	require.NoError(t, err)

	assert.Nil(t, forecast.CostChangePct)
	assert.True(t, forecast.NewSpend)
}

func TestForecastSkipsShortSeries(t *testing.T) {
	usage := dailyUsage(models.MetricCPUHours, 60, 100, 100)
	usage = append(usage, models.UsageRecord{
		TeamID:     "team-a",
		MetricType: models.MetricStorageGB,
		Quantity:   5,
		BilledAt:   time.Now(),
	})
	service := newTestService(t, usage, decimal.NewFromInt(150))

	forecast, err := service.Forecast(context.Background(), "team-mixed")
	require.NoError(t, err)

	// the single-point storage series cannot be fitted but never aborts
	require.Len(t, forecast.Metrics, 1)
	assert.Equal(t, models.MetricCPUHours, forecast.Metrics[0].MetricType)
	assert.Equal(t, "stable", forecast.Metrics[0].TrendDirection)
}

func TestForecastReservedCapacityRecommendation(t *testing.T) {
	usage := dailyUsage(models.MetricCPUHours, 45, 30000, 30000)
	service := newTestService(t, usage, decimal.NewFromInt(1400))

	forecast, err := service.Forecast(context.Background(), "team-big")
	require.NoError(t, err)

	// flat 30000 CPU-hours projects to 1500/month at the default rate
	cost, _ := forecast.ProjectedCost.Float64()
	assert.InDelta(t, 1500.0, cost, 0.01)

	require.Len(t, forecast.Recommendations, 1)
	assert.Contains(t, forecast.Recommendations[0].Action, "reserved")
	assert.Equal(t, 25.0, forecast.Recommendations[0].EstimatedSavingsPct)
}
