package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean, zero for an empty series.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Max returns the largest value, zero for an empty series.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Percentile computes the p-th percentile (0 < p <= 100) by the nearest-rank
// method on a sorted copy of the input. Zero for an empty series.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// CeilToStep rounds value up to the nearest positive multiple of step.
func CeilToStep(value, step float64) float64 {
	if step <= 0 || value <= 0 {
		return 0
	}
	return math.Ceil(value/step) * step
}
