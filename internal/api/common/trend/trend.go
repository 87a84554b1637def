package trend

import (
	commonerrors "foresight-api-server/internal/api/common/errors"
)

// Fit computes an ordinary least-squares line over values indexed 0..n-1 and
// returns its slope and intercept. Deterministic: identical input always
// yields identical coefficients.
func Fit(values []float64) (slope, intercept float64, err error) {
	n := len(values)
	if n <= 1 {
		return 0, 0, commonerrors.InsufficientDataErr("trend datapoint", 2, n)
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	den := float64(n)*sumXX - sumX*sumX
	if den == 0 {
		return 0, 0, commonerrors.InsufficientDataErr("trend datapoint", 2, n)
	}

	slope = (float64(n)*sumXY - sumX*sumY) / den
	intercept = (sumY - slope*sumX) / float64(n)
	return slope, intercept, nil
}

// Direction classifies a slope as "increasing", "decreasing" or "stable"
// given a tolerance around zero.
func Direction(slope, tolerance float64) string {
	switch {
	case slope > tolerance:
		return "increasing"
	case slope < -tolerance:
		return "decreasing"
	default:
		return "stable"
	}
}
