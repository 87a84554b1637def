package models

import (
	"time"
)

// MetricSample is one aggregated bucket produced by the ingestion pipeline.
// Percent values may exceed 100 during bursts.
type MetricSample struct {
	Bucket          time.Time `gorm:"column:bucket"            json:"timestamp"`
	DeploymentID    string    `gorm:"column:deployment_id"     json:"deployment_id"`
	AvgCPUPct       float64   `gorm:"column:avg_cpu_pct"       json:"avg_cpu_pct"`
	AvgMemoryPct    float64   `gorm:"column:avg_memory_pct"    json:"avg_memory_pct"`
	MaxCPUPct       float64   `gorm:"column:max_cpu_pct"       json:"max_cpu_pct"`
	MaxMemoryPct    float64   `gorm:"column:max_memory_pct"    json:"max_memory_pct"`
	AvgLatencyMs    float64   `gorm:"column:avg_latency_ms"    json:"avg_latency_ms"`
	LatencyStddevMs float64   `gorm:"column:latency_stddev_ms" json:"latency_stddev_ms"`
	ErrorCount      int64     `gorm:"column:error_count"       json:"error_count"`
	RequestCount    int64     `gorm:"column:request_count"     json:"request_count"`
}

func (MetricSample) TableName() string {
	return "metric_samples"
}

// DeploymentAggregate is a windowed aggregate over metric_samples for one
// deployment, used by the anomaly detector.
type DeploymentAggregate struct {
	DeploymentID    string  `gorm:"column:deployment_id"     json:"deployment_id"`
	AvgCPUPct       float64 `gorm:"column:avg_cpu_pct"       json:"avg_cpu_pct"`
	AvgMemoryPct    float64 `gorm:"column:avg_memory_pct"    json:"avg_memory_pct"`
	AvgLatencyMs    float64 `gorm:"column:avg_latency_ms"    json:"avg_latency_ms"`
	LatencyStddevMs float64 `gorm:"column:latency_stddev_ms" json:"latency_stddev_ms"`
	ErrorCount      int64   `gorm:"column:error_count"       json:"error_count"`
	RequestCount    int64   `gorm:"column:request_count"     json:"request_count"`
}
