package models

import (
	"time"
)

// BuildRecord is one finished build as recorded by the CI pipeline.
type BuildRecord struct {
	ID              int64     `gorm:"column:id"                json:"id"`
	ProjectID       string    `gorm:"column:project_id"        json:"project_id"`
	Status          string    `gorm:"column:status"            json:"status"`
	DurationSeconds float64   `gorm:"column:duration_seconds"  json:"duration_seconds"`
	ArtifactSizeMB  float64   `gorm:"column:artifact_size_mb"  json:"artifact_size_mb"`
	CacheHitRate    float64   `gorm:"column:cache_hit_rate"    json:"cache_hit_rate"`
	CreatedAt       time.Time `gorm:"column:created_at"        json:"created_at"`
}

func (BuildRecord) TableName() string {
	return "builds"
}

// BuildAnalysis is the persisted snapshot of one build-analysis pass, kept
// for audit and history. The only write this engine performs.
type BuildAnalysis struct {
	ID           string    `gorm:"column:id;primaryKey" json:"id"`
	ProjectID    string    `gorm:"column:project_id"    json:"project_id"`
	AnalysisJSON string    `gorm:"column:analysis_json" json:"analysis_json"`
	CreatedAt    time.Time `gorm:"column:created_at"    json:"created_at"`
}

func (BuildAnalysis) TableName() string {
	return "build_analyses"
}
