package build

import (
	"context"
	"time"

	"foresight-api-server/internal/models"
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
)

type BuildService interface {
	Analyze(ctx context.Context, projectID string) (*AnalysisReport, error)
}

type BuildRepository interface {
	SaveAnalysis(ctx context.Context, analysis *models.BuildAnalysis) error
}

// BuildStats summarizes the analyzed build window.
type BuildStats struct {
	Builds             int     `json:"builds"`
	AvgDurationSeconds float64 `json:"avg_duration_seconds"`
	AvgCacheHitRate    float64 `json:"avg_cache_hit_rate"`
	AvgArtifactSizeMB  float64 `json:"avg_artifact_size_mb"`
}

// Recommendation is one prioritized suggestion. Estimated savings are
// heuristic figures, not measured ones.
type Recommendation struct {
	Priority                 string  `json:"priority"`
	Action                   string  `json:"action"`
	Reason                   string  `json:"reason"`
	EstimatedTimeSavingPct   float64 `json:"estimated_time_saving_pct,omitempty"`
	EstimatedSizeReductionMB float64 `json:"estimated_size_reduction_mb,omitempty"`
}

// AnalysisReport is the result of one analysis pass. A snapshot of it is
// persisted for audit history.
type AnalysisReport struct {
	ProjectID       string           `json:"project_id"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Stats           BuildStats       `json:"stats"`
	Recommendations []Recommendation `json:"recommendations"`
}
