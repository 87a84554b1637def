package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foresight-api-server/internal/models"
)

func TestMergeProjectBucketsCollapsesDeployments(t *testing.T) {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	rows := make([]models.MetricSample, 0, 6)
	for hour := 0; hour < 3; hour++ {
		bucket := base.Add(time.Duration(hour) * time.Hour)
		rows = append(rows,
			models.MetricSample{
				Bucket:          bucket,
				DeploymentID:    "deploy-a",
				AvgCPUPct:       40,
				AvgMemoryPct:    50,
				MaxCPUPct:       90,
				MaxMemoryPct:    70,
				AvgLatencyMs:    100,
				LatencyStddevMs: 20,
				ErrorCount:      3,
				RequestCount:    1000,
			},
			models.MetricSample{
				Bucket:          bucket,
				DeploymentID:    "deploy-b",
				AvgCPUPct:       20,
				AvgMemoryPct:    30,
				MaxCPUPct:       60,
				MaxMemoryPct:    80,
				AvgLatencyMs:    200,
				LatencyStddevMs: 40,
				ErrorCount:      7,
				RequestCount:    3000,
			})
	}

	merged := mergeProjectBuckets(rows)

	// two deployments over three hours yield three buckets, not six rows
	require.Len(t, merged, 3)
	for hour, sample := range merged {
		assert.True(t, sample.Bucket.Equal(base.Add(time.Duration(hour)*time.Hour)))
		assert.Empty(t, sample.DeploymentID)
		assert.InDelta(t, 30.0, sample.AvgCPUPct, 1e-9)
		assert.InDelta(t, 40.0, sample.AvgMemoryPct, 1e-9)
		assert.InDelta(t, 90.0, sample.MaxCPUPct, 1e-9)
		assert.InDelta(t, 80.0, sample.MaxMemoryPct, 1e-9)
		assert.InDelta(t, 150.0, sample.AvgLatencyMs, 1e-9)
		assert.InDelta(t, 30.0, sample.LatencyStddevMs, 1e-9)
		assert.Equal(t, int64(10), sample.ErrorCount)
		assert.Equal(t, int64(4000), sample.RequestCount)
	}
}

func TestMergeProjectBucketsSingleDeploymentUnchangedValues(t *testing.T) {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	rows := []models.MetricSample{
		{Bucket: base, DeploymentID: "deploy-a", AvgCPUPct: 55, MaxCPUPct: 80, RequestCount: 500},
		{Bucket: base.Add(time.Hour), DeploymentID: "deploy-a", AvgCPUPct: 65, MaxCPUPct: 95, RequestCount: 700},
	}

	merged := mergeProjectBuckets(rows)

	require.Len(t, merged, 2)
	assert.InDelta(t, 55.0, merged[0].AvgCPUPct, 1e-9)
	assert.InDelta(t, 65.0, merged[1].AvgCPUPct, 1e-9)
	assert.InDelta(t, 95.0, merged[1].MaxCPUPct, 1e-9)
	assert.Equal(t, int64(700), merged[1].RequestCount)
}

func TestMergeProjectBucketsEmpty(t *testing.T) {
	assert.Empty(t, mergeProjectBuckets(nil))
}
