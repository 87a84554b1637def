package rightsizing

import (
	"context"
	"time"
)

type RightsizingService interface {
	Recommend(ctx context.Context, projectID string) (*ResourceRecommendation, error)
}

// ResourceStats holds the 30-day percentile statistics one sizing decision
// is derived from.
type ResourceStats struct {
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// Sizing is the derived request/reservation pair for one resource, in
// milli-cores for CPU and Mi for memory. Recommended is never below
// Reservation.
type Sizing struct {
	Current     int     `json:"current"`
	Recommended int     `json:"recommended"`
	Reservation int     `json:"reservation"`
	SavingsPct  float64 `json:"savings_pct"`
}

type AutoscalingBounds struct {
	MinReplicas             int `json:"min_replicas"`
	MaxReplicas             int `json:"max_replicas"`
	TargetCPUUtilization    int `json:"target_cpu_utilization"`
	TargetMemoryUtilization int `json:"target_memory_utilization"`
}

type ResourceRecommendation struct {
	ProjectID   string            `json:"project_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	CPUStats    ResourceStats     `json:"cpu_stats"`
	MemoryStats ResourceStats     `json:"memory_stats"`
	CPU         Sizing            `json:"cpu"`
	Memory      Sizing            `json:"memory"`
	Autoscaling AutoscalingBounds `json:"autoscaling"`
}
