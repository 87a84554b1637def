package cost

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	commonerrors "foresight-api-server/internal/api/common/errors"
	"foresight-api-server/internal/api/common/stats"
	"foresight-api-server/internal/api/common/trend"
	"foresight-api-server/internal/cache"
	"foresight-api-server/internal/models"
	"foresight-api-server/internal/timeseries"
)

const projectionDays = 30

type costService struct {
	cache      *cache.Cache
	remote     *cache.RemoteCache
	reader     timeseries.Reader
	repository CostRepository
	cfg        *envConfig
	logger     *zap.Logger
}

var _ CostService = (*costService)(nil)

func NewCostService(
	cache *cache.Cache,
	remote *cache.RemoteCache,
	reader timeseries.Reader,
	r CostRepository,
	logger *zap.Logger) (CostService, error) {
	cfg, err := newConfig()
	if err != nil {
		return nil, err
	}

	return &costService{
		cache:      cache,
		remote:     remote,
		reader:     reader,
		repository: r,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

func resultKey(teamID string) string {
	return "cost:forecast:" + teamID
}

func (cs *costService) rateFor(metricType string) decimal.Decimal {
	switch metricType {
	case models.MetricCPUHours:
		return decimal.NewFromFloat(cs.cfg.RateCPUHour)
	case models.MetricBandwidthGB:
		return decimal.NewFromFloat(cs.cfg.RateBandwidthGB)
	case models.MetricStorageGB:
		return decimal.NewFromFloat(cs.cfg.RateStorageGB)
	case models.MetricBuilds:
		return decimal.NewFromFloat(cs.cfg.RateBuild)
	}
	return decimal.Zero
}

// Forecast projects next-period spend per metric type from the 90-day usage
// window and compares it against the previous calendar month's invoice.
func (cs *costService) Forecast(ctx context.Context, teamID string) (*CostForecast, error) {
	cs.logger.Debug("cost forecast", zap.String("team", teamID))

	if item, exist := cs.cache.Get(resultKey(teamID)); exist {
		return item.(*CostForecast), nil
	}

	records, err := cs.reader.FetchUsage(ctx, teamID, timeseries.WindowEndingNow(cs.cfg.UsageWindow))
	if err != nil {
		cs.logger.Error("failed to get usage records from database", zap.Error(err))
		return nil, err
	}
	if len(records) < cs.cfg.MinRecords {
		return nil, commonerrors.InsufficientDataErr("usage record", cs.cfg.MinRecords, len(records))
	}

	grouped := groupByMetricType(records)

	forecast := &CostForecast{
		TeamID:      teamID,
		GeneratedAt: time.Now(),
		Metrics:     make([]MetricForecast, 0, len(grouped)),
	}

	total := decimal.Zero
	dailyAverages := make(map[string]float64)
	for _, metricType := range sortedKeys(grouped) {
		quantities := grouped[metricType]

		slope, intercept, err := trend.Fit(quantities)
		if err != nil {
			// a single short series never aborts the whole forecast
			cs.logger.Warn("trend fit skipped",
				zap.String("metric_type", metricType),
				zap.Error(err))
			continue
		}

		projectedUsage := slope*projectionDays + intercept
		if projectedUsage < 0 {
			projectedUsage = 0
		}

		dailyAverage := stats.Mean(quantities)
		dailyAverages[metricType] = dailyAverage

		projectedCost := cs.rateFor(metricType).Mul(decimal.NewFromFloat(projectedUsage)).Round(2)
		total = total.Add(projectedCost)

		forecast.Metrics = append(forecast.Metrics, MetricForecast{
			MetricType:            metricType,
			DailyAverage:          dailyAverage,
			TrendDirection:        trend.Direction(slope, cs.cfg.SlopeTolerance),
			ProjectedMonthlyUsage: projectedUsage,
			ProjectedCost:         projectedCost,
		})
	}
	forecast.ProjectedCost = total

	previous, err := cs.repository.GetPreviousMonthCost(ctx, teamID, time.Now())
	if err != nil {
		cs.logger.Error("failed to get previous invoice total", zap.Error(err))
		return nil, err
	}
	forecast.PreviousMonthCost = previous

	if previous.IsPositive() {
		change, _ := total.Sub(previous).
			Div(previous).
			Mul(decimal.NewFromInt(100)).
			Round(2).
			Float64()
		forecast.CostChangePct = &change
	} else {
		// no invoiced history: percent change is undefined, not zero
		forecast.NewSpend = true
	}

	forecast.Recommendations = cs.recommend(dailyAverages, total)

	cs.cache.SetWithTTL(resultKey(teamID), forecast, cs.cfg.ResultTTL)
	if err := cs.remote.SetEx(ctx, resultKey(teamID), forecast, cs.cfg.ResultTTL); err != nil {
		cs.logger.Warn("remote cache write failed", zap.Error(err))
	}

	return forecast, nil
}

// recommend applies the fixed savings rules. Estimated savings are the
// configured heuristic percentage of the total projected cost.
func (cs *costService) recommend(dailyAverages map[string]float64, total decimal.Decimal) []CostRecommendation {
	recs := make([]CostRecommendation, 0)

	if dailyAverages[models.MetricBandwidthGB] > cs.cfg.BandwidthDailyThresholdGB {
		recs = append(recs, CostRecommendation{
			Action: "enable CDN caching for static assets",
			Reason: fmt.Sprintf("daily bandwidth averages %.1f GB, above the %.0f GB threshold",
				dailyAverages[models.MetricBandwidthGB], cs.cfg.BandwidthDailyThresholdGB),
			EstimatedSavingsPct: cs.cfg.CDNSavingsPct,
			EstimatedSavings:    pctOf(total, cs.cfg.CDNSavingsPct),
		})
	}

	if dailyAverages[models.MetricBuilds] > cs.cfg.BuildsDailyThreshold {
		recs = append(recs, CostRecommendation{
			Action: "enable build caching to cut rebuild work",
			Reason: fmt.Sprintf("builds average %.1f per day, above the %.0f threshold",
				dailyAverages[models.MetricBuilds], cs.cfg.BuildsDailyThreshold),
			EstimatedSavingsPct: cs.cfg.BuildCacheSavingsPct,
			EstimatedSavings:    pctOf(total, cs.cfg.BuildCacheSavingsPct),
		})
	}

	if total.GreaterThan(decimal.NewFromFloat(cs.cfg.MonthlyCostThreshold)) {
		recs = append(recs, CostRecommendation{
			Action: "switch steady workloads to reserved capacity",
			Reason: fmt.Sprintf("projected monthly cost %s exceeds the %.0f threshold",
				total.StringFixed(2), cs.cfg.MonthlyCostThreshold),
			EstimatedSavingsPct: cs.cfg.ReservedSavingsPct,
			EstimatedSavings:    pctOf(total, cs.cfg.ReservedSavingsPct),
		})
	}

	return recs
}

func pctOf(total decimal.Decimal, pct float64) decimal.Decimal {
	return total.Mul(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(100)).Round(2)
}

// groupByMetricType keys the day-ordered quantity series per metric type.
// Records arrive sorted by billed_at, so each series keeps daily order.
func groupByMetricType(records []models.UsageRecord) map[string][]float64 {
	grouped := make(map[string][]float64)
	for _, record := range records {
		grouped[record.MetricType] = append(grouped[record.MetricType], record.Quantity)
	}
	return grouped
}

func sortedKeys(grouped map[string][]float64) []string {
	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
