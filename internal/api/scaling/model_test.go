package scaling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"foresight-api-server/internal/api/common/calendar"
	"foresight-api-server/internal/models"
)

func TestTrainModelSeasonalSlots(t *testing.T) {
	cal := calendar.US{}

	// two full weeks, flat 50% CPU except a daily noon spike to 90%
	start := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC) // a Monday
	var samples []models.MetricSample
	for h := 0; h < 14*24; h++ {
		bucket := start.Add(time.Duration(h) * time.Hour)
		cpu := 50.0
		if bucket.Hour() == 12 {
			cpu = 90
		}
		samples = append(samples, models.MetricSample{
			Bucket:       bucket,
			AvgCPUPct:    cpu,
			AvgMemoryPct: 60,
			RequestCount: 500,
		})
	}

	model := trainModel(samples, cal)

	noon := time.Date(2025, time.March, 17, 12, 0, 0, 0, time.UTC)
	midnight := time.Date(2025, time.March, 17, 0, 0, 0, 0, time.UTC)

	noonCPU, _ := model.Predict(noon, model.avgRequestCount, cal)
	midnightCPU, memory := model.Predict(midnight, model.avgRequestCount, cal)

	assert.InDelta(t, 0.9, noonCPU, 1e-9)
	assert.InDelta(t, 0.5, midnightCPU, 1e-9)
	assert.InDelta(t, 0.6, memory, 1e-9)
}

func TestPredictClampsFractions(t *testing.T) {
	cal := calendar.US{}

	samples := []models.MetricSample{
		{Bucket: time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC), AvgCPUPct: 400, AvgMemoryPct: 20},
		{Bucket: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC), AvgCPUPct: 400, AvgMemoryPct: 20},
	}
	model := trainModel(samples, cal)

	cpu, _ := model.Predict(time.Date(2025, time.March, 17, 9, 0, 0, 0, time.UTC), 0, cal)
	assert.Equal(t, 1.5, cpu)
}

func TestTrainModelEmptyInput(t *testing.T) {
	model := trainModel(nil, calendar.US{})

	cpu, memory := model.Predict(time.Now(), 0, calendar.US{})
	assert.Equal(t, 0.0, cpu)
	assert.Equal(t, 0.0, memory)
}
