package timeseries

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	commonerrors "foresight-api-server/internal/api/common/errors"
	"foresight-api-server/internal/models"
)

const queryTimeout = 10 * time.Second

// Window is a half-open [Start, End) query interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowEndingNow covers the last span ending at the current time.
func WindowEndingNow(span time.Duration) Window {
	end := time.Now()
	return Window{Start: end.Add(-span), End: end}
}

// RecentBaseline pairs a deployment's short recent aggregate with its longer
// rolling baseline. Baseline is nil when the deployment has no history in the
// baseline window.
type RecentBaseline struct {
	Recent   *models.DeploymentAggregate
	Baseline *models.DeploymentAggregate
}

// Reader is the engine's read contract against the metrics store. It applies
// no minimum-sample thresholds of its own; callers decide those.
type Reader interface {
	FetchMetrics(ctx context.Context, deploymentID string, w Window) ([]models.MetricSample, error)
	FetchProjectMetrics(ctx context.Context, projectID string, w Window) ([]models.MetricSample, error)
	FetchRecentAndBaseline(ctx context.Context, teamID string, recent, baseline Window) (map[string]*RecentBaseline, error)
	FetchUsage(ctx context.Context, teamID string, w Window) ([]models.UsageRecord, error)
	FetchBuilds(ctx context.Context, projectID string, limit int) ([]models.BuildRecord, error)
}

type gormReader struct {
	db *gorm.DB
}

var _ Reader = (*gormReader)(nil)

func NewReader(db *gorm.DB) Reader {
	return &gormReader{
		db: db,
	}
}

func (r *gormReader) FetchMetrics(ctx context.Context, deploymentID string, w Window) ([]models.MetricSample, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var samples []models.MetricSample
	err := r.db.WithContext(ctx).
		Where("deployment_id = ?", deploymentID).
		Where("bucket >= ? AND bucket < ?", w.Start, w.End).
		Order("bucket").
		Find(&samples).
		Error
	if err != nil {
		return nil, commonerrors.UpstreamReadErr("fetch metric samples", err)
	}
	return samples, nil
}

const projectMetricQuery = `SELECT m.bucket,
m.deployment_id,
m.avg_cpu_pct,
m.avg_memory_pct,
m.max_cpu_pct,
m.max_memory_pct,
m.avg_latency_ms,
m.latency_stddev_ms,
m.error_count,
m.request_count
FROM metric_samples m
JOIN deployments d ON d.id = m.deployment_id
WHERE d.project_id = ? AND m.bucket >= ? AND m.bucket < ?
ORDER BY m.bucket`

// FetchProjectMetrics returns one sample per bucket for the whole project,
// collapsing the project's deployments bucket by bucket.
func (r *gormReader) FetchProjectMetrics(ctx context.Context, projectID string, w Window) ([]models.MetricSample, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var samples []models.MetricSample
	err := r.db.WithContext(ctx).
		Raw(projectMetricQuery, projectID, w.Start, w.End).
		Find(&samples).
		Error
	if err != nil {
		return nil, commonerrors.UpstreamReadErr("fetch project metric samples", err)
	}
	return mergeProjectBuckets(samples), nil
}

// mergeProjectBuckets collapses per-deployment rows sharing a bucket into a
// single project-level sample: averages of averages, maxima of maxima, summed
// counts. Rows must arrive ordered by bucket.
func mergeProjectBuckets(rows []models.MetricSample) []models.MetricSample {
	if len(rows) == 0 {
		return rows
	}

	merged := make([]models.MetricSample, 0, len(rows))
	var (
		acc models.MetricSample
		n   float64
	)
	flush := func() {
		acc.DeploymentID = ""
		acc.AvgCPUPct /= n
		acc.AvgMemoryPct /= n
		acc.AvgLatencyMs /= n
		acc.LatencyStddevMs /= n
		merged = append(merged, acc)
	}

	for _, row := range rows {
		if n == 0 || !row.Bucket.Equal(acc.Bucket) {
			if n > 0 {
				flush()
			}
			acc = row
			n = 1
			continue
		}

		acc.AvgCPUPct += row.AvgCPUPct
		acc.AvgMemoryPct += row.AvgMemoryPct
		acc.AvgLatencyMs += row.AvgLatencyMs
		acc.LatencyStddevMs += row.LatencyStddevMs
		if row.MaxCPUPct > acc.MaxCPUPct {
			acc.MaxCPUPct = row.MaxCPUPct
		}
		if row.MaxMemoryPct > acc.MaxMemoryPct {
			acc.MaxMemoryPct = row.MaxMemoryPct
		}
		acc.ErrorCount += row.ErrorCount
		acc.RequestCount += row.RequestCount
		n++
	}
	flush()

	return merged
}

const deploymentAggregateQuery = `SELECT m.deployment_id,
avg(m.avg_cpu_pct) avg_cpu_pct,
avg(m.avg_memory_pct) avg_memory_pct,
avg(m.avg_latency_ms) avg_latency_ms,
avg(m.latency_stddev_ms) latency_stddev_ms,
sum(m.error_count) error_count,
sum(m.request_count) request_count
FROM metric_samples m
JOIN deployments d ON d.id = m.deployment_id
WHERE d.team_id = ? AND m.bucket >= ? AND m.bucket < ?
GROUP BY m.deployment_id`

func (r *gormReader) FetchRecentAndBaseline(ctx context.Context, teamID string, recent, baseline Window) (map[string]*RecentBaseline, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		recentRows   []models.DeploymentAggregate
		baselineRows []models.DeploymentAggregate
		ctxDB        = r.db.WithContext(ctx)
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ctxDB.Raw(deploymentAggregateQuery, teamID, recent.Start, recent.End).
			Find(&recentRows).
			Error
	})
	g.Go(func() error {
		return ctxDB.Raw(deploymentAggregateQuery, teamID, baseline.Start, baseline.End).
			Find(&baselineRows).
			Error
	})
	if err := g.Wait(); err != nil {
		return nil, commonerrors.UpstreamReadErr("fetch deployment aggregates", err)
	}

	pairs := make(map[string]*RecentBaseline)
	for i := range recentRows {
		row := recentRows[i]
		pairs[row.DeploymentID] = &RecentBaseline{Recent: &row}
	}
	for i := range baselineRows {
		row := baselineRows[i]
		pair, exist := pairs[row.DeploymentID]
		if !exist {
			// baseline without recent data means an idle deployment,
			// nothing to score
			continue
		}
		pair.Baseline = &row
	}
	return pairs, nil
}

func (r *gormReader) FetchUsage(ctx context.Context, teamID string, w Window) ([]models.UsageRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var records []models.UsageRecord
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Where("billed_at >= ? AND billed_at < ?", w.Start, w.End).
		Order("billed_at").
		Find(&records).
		Error
	if err != nil {
		return nil, commonerrors.UpstreamReadErr("fetch usage records", err)
	}
	return records, nil
}

func (r *gormReader) FetchBuilds(ctx context.Context, projectID string, limit int) ([]models.BuildRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var builds []models.BuildRecord
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Limit(limit).
		Find(&builds).
		Error
	if err != nil {
		return nil, commonerrors.UpstreamReadErr("fetch build records", err)
	}
	return builds, nil
}
