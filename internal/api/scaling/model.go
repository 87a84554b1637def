package scaling

import (
	"time"

	"foresight-api-server/internal/api/common/calendar"
	"foresight-api-server/internal/models"
)

const hourOfWeekSlots = 7 * 24

// seasonalModel is a weekly seasonal-average regressor over the feature
// buckets (hour of day, day of week, weekend, holiday). It smooths the
// repeating weekly pattern in the training window; it is not a causal
// simulator, and its output is only as good as that pattern.
type seasonalModel struct {
	cpu    [hourOfWeekSlots]float64
	memory [hourOfWeekSlots]float64
	weight [hourOfWeekSlots]float64

	meanCPU    float64
	meanMemory float64

	holidayCPURatio    float64
	holidayMemoryRatio float64

	// avgRequestCount is the assumed request rate for future buckets,
	// since their real rate is not yet known.
	avgRequestCount float64
}

func slotOf(t time.Time) int {
	return int(t.Weekday())*24 + t.Hour()
}

// trainModel fits the seasonal averages over normalized [0,1] utilization.
// Holiday buckets are kept out of the weekly slots and summarized as a
// single utilization ratio against the overall mean.
func trainModel(samples []models.MetricSample, cal calendar.Calendar) *seasonalModel {
	m := &seasonalModel{
		holidayCPURatio:    1,
		holidayMemoryRatio: 1,
	}

	var (
		sumCPU, sumMemory               float64
		holidaySumCPU, holidaySumMemory float64
		holidayCount                    float64
		sumRequests                     float64
	)

	for _, sample := range samples {
		cpu := sample.AvgCPUPct / 100
		memory := sample.AvgMemoryPct / 100

		sumCPU += cpu
		sumMemory += memory
		sumRequests += float64(sample.RequestCount)

		if cal.IsHoliday(sample.Bucket) {
			holidaySumCPU += cpu
			holidaySumMemory += memory
			holidayCount++
			continue
		}

		slot := slotOf(sample.Bucket)
		m.cpu[slot] += cpu
		m.memory[slot] += memory
		m.weight[slot]++
	}

	if len(samples) > 0 {
		n := float64(len(samples))
		m.meanCPU = sumCPU / n
		m.meanMemory = sumMemory / n
		m.avgRequestCount = sumRequests / n
	}

	if holidayCount > 0 && m.meanCPU > 0 {
		m.holidayCPURatio = (holidaySumCPU / holidayCount) / m.meanCPU
	}
	if holidayCount > 0 && m.meanMemory > 0 {
		m.holidayMemoryRatio = (holidaySumMemory / holidayCount) / m.meanMemory
	}

	return m
}

// Predict returns normalized cpu/memory fractions for the bucket at t,
// assuming requestCount requests in it. Fractions are clamped to [0, 1.5];
// utilization above 100% is possible during bursts.
func (m *seasonalModel) Predict(t time.Time, requestCount float64, cal calendar.Calendar) (cpuFraction, memoryFraction float64) {
	slot := slotOf(t)

	cpuFraction = m.meanCPU
	memoryFraction = m.meanMemory
	if m.weight[slot] > 0 {
		cpuFraction = m.cpu[slot] / m.weight[slot]
		memoryFraction = m.memory[slot] / m.weight[slot]
	}

	if cal.IsHoliday(t) {
		cpuFraction *= m.holidayCPURatio
		memoryFraction *= m.holidayMemoryRatio
	}

	if m.avgRequestCount > 0 && requestCount > 0 {
		load := clamp(requestCount/m.avgRequestCount, 0.5, 2)
		cpuFraction *= load
	}

	return clamp(cpuFraction, 0, 1.5), clamp(memoryFraction, 0, 1.5)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
