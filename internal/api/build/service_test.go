package build

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/ffjson/ffjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	commonerrors "foresight-api-server/internal/api/common/errors"
	"foresight-api-server/internal/models"
	"foresight-api-server/internal/timeseries"
)

type stubReader struct {
	builds []models.BuildRecord
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
	return nil, nil
}

func (r *stubReader) FetchBuilds(ctx context.Context, projectID string, limit int) ([]models.BuildRecord, error) {
	if limit < len(r.builds) {
		return r.builds[:limit], nil
	}
	return r.builds, nil
}

type stubRepository struct {
	saved *models.BuildAnalysis
}

func (r *stubRepository) SaveAnalysis(ctx context.Context, analysis *models.BuildAnalysis) error {
	r.saved = analysis
	return nil
}

func newTestService(t *testing.T, builds []models.BuildRecord) (BuildService, *stubRepository) {
	t.Helper()

	repository := &stubRepository{}
	service, err := NewBuildService(&stubReader{builds: builds}, repository, zap.NewNop())
	require.NoError(t, err)
	return service, repository
}

func buildRecords(n int, duration, artifactMB, cacheHit float64) []models.BuildRecord {
	records := make([]models.BuildRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, models.BuildRecord{
			ID:              int64(i + 1),
			ProjectID:       "proj-a",
			Status:          "succeeded",
			DurationSeconds: duration,
			ArtifactSizeMB:  artifactMB,
			CacheHitRate:    cacheHit,
			CreatedAt:       time.Now().Add(-time.Duration(i) * time.Hour),
		})
	}
	return records
}

func actions(recs []Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Action)
	}
	return out
}

func TestAnalyzeNoBuilds(t *testing.T) {
	service, repository := newTestService(t, nil)

	_, err := service.Analyze(context.Background(), "proj-empty")
	require.Error(t, err)
	assert.IsType(t, commonerrors.InsufficientDataError{}, err)
	assert.Nil(t, repository.saved)
}

func TestAnalyzeLowCacheHit(t *testing.T) {
	service, _ := newTestService(t, buildRecords(10, 300, 200, 0.3))

	report, err := service.Analyze(context.Background(), "proj-cold")
	require.NoError(t, err)

	assert.Equal(t, 10, report.Stats.Builds)
	assert.InDelta(t, 0.3, report.Stats.AvgCacheHitRate, 1e-9)

	got := actions(report.Recommendations)
	assert.Contains(t, got, "reorder Dockerfile layers to improve layer caching")
	assert.Contains(t, got, "enable BuildKit with parallel multi-stage builds")

	// first recommendation is the high-priority cache fix
	assert.Equal(t, PriorityHigh, report.Recommendations[0].Priority)
	assert.Equal(t, 40.0, report.Recommendations[0].EstimatedTimeSavingPct)
}

func TestAnalyzeHealthyCacheHit(t *testing.T) {
	service, _ := newTestService(t, buildRecords(10, 300, 200, 0.9))

	report, err := service.Analyze(context.Background(), "proj-warm")
	require.NoError(t, err)

	got := actions(report.Recommendations)
	assert.NotContains(t, got, "reorder Dockerfile layers to improve layer caching")
	// the BuildKit suggestion is unconditional
	assert.Contains(t, got, "enable BuildKit with parallel multi-stage builds")
}

func TestAnalyzeLargeArtifact(t *testing.T) {
	service, _ := newTestService(t, buildRecords(5, 300, 1500, 0.9))

	report, err := service.Analyze(context.Background(), "proj-fat")
	require.NoError(t, err)

	got := actions(report.Recommendations)
	require.Contains(t, got, "switch to a slimmer base image")

	for _, rec := range report.Recommendations {
		if rec.Action == "switch to a slimmer base image" {
			assert.InDelta(t, 450.0, rec.EstimatedSizeReductionMB, 1e-9)
		}
	}
}

func TestAnalyzePersistsSnapshot(t *testing.T) {
	service, repository := newTestService(t, buildRecords(3, 120, 100, 0.8))

	report, err := service.Analyze(context.Background(), "proj-audit")
	require.NoError(t, err)

	require.NotNil(t, repository.saved)
	assert.NotEmpty(t, repository.saved.ID)
	assert.Equal(t, "proj-audit", repository.saved.ProjectID)
	assert.Equal(t, report.GeneratedAt, repository.saved.CreatedAt)

	var snapshot AnalysisReport
	require.NoError(t, ffjson.Unmarshal([]byte(repository.saved.AnalysisJSON), &snapshot))
	assert.Equal(t, report.Stats, snapshot.Stats)
}
