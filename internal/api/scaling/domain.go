package scaling

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/pquerna/ffjson/ffjson"

	"foresight-api-server/internal/api/common/query"
	"foresight-api-server/internal/timeseries"
)

type ScalingService interface {
	Forecast(query query.Query) (string, error)
	GetForecastStatus(projectID string) (string, error)
	GetForecastResult(projectID string) (*Forecast, error)
	GetForecastStatusByID(uuid string) (string, error)
	GetForecastResultByID(uuid string) (*Forecast, error)
	ComputeForecast(ctx context.Context, projectID string, w timeseries.Window) (*Forecast, error)
}

// ForecastPoint is one projected hourly bucket.
type ForecastPoint struct {
	Timestamp           time.Time `json:"timestamp"`
	EstimatedCPUPct     float64   `json:"estimated_cpu_pct"`
	EstimatedMemoryPct  float64   `json:"estimated_memory_pct"`
	RecommendedReplicas int       `json:"recommended_replicas"`
	Confidence          float64   `json:"confidence"`
}

type ForecastSummary struct {
	AvgCPUPredicted        float64 `json:"avg_cpu_predicted"`
	PeakCPUPredicted       float64 `json:"peak_cpu_predicted"`
	RecommendedMinReplicas int     `json:"recommended_min_replicas"`
	RecommendedMaxReplicas int     `json:"recommended_max_replicas"`
}

// Forecast is the full 168-hour projection for a project. Derived and
// recomputable; each recomputation supersedes the previous one entirely.
type Forecast struct {
	ProjectID   string          `json:"project_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Points      []ForecastPoint `json:"points"`
	Summary     ForecastSummary `json:"summary"`
	// Confidence is an engine-level validation figure, not a posterior
	// probability of any single point.
	Confidence float64 `json:"confidence"`
}

// EncodeForecast packs a forecast for the task result backend.
func EncodeForecast(forecast *Forecast) (string, error) {
	buf, err := ffjson.Marshal(forecast)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func DecodeForecast(data string) (*Forecast, error) {
	var forecast Forecast

	b64Decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}
	if err := ffjson.Unmarshal(b64Decoded, &forecast); err != nil {
		return nil, err
	}
	return &forecast, nil
}
