package models

import (
	"time"
)

// Billable metric types recorded by the usage pipeline.
const (
	MetricCPUHours    = "cpu_hours"
	MetricBandwidthGB = "bandwidth_gb"
	MetricStorageGB   = "storage_gb"
	MetricBuilds      = "builds"
)

// UsageRecord is an append-only billing usage row, one per metric type per day.
type UsageRecord struct {
	TeamID     string    `gorm:"column:team_id"     json:"team_id"`
	MetricType string    `gorm:"column:metric_type" json:"metric_type"`
	Quantity   float64   `gorm:"column:quantity"    json:"quantity"`
	BilledAt   time.Time `gorm:"column:billed_at"   json:"billed_at"`
}

func (UsageRecord) TableName() string {
	return "usage_records"
}

// Invoice holds a settled billing period total. Read-only from this engine;
// used as the prior-month comparison base for cost forecasts.
type Invoice struct {
	TeamID      string    `gorm:"column:team_id"      json:"team_id"`
	PeriodStart time.Time `gorm:"column:period_start" json:"period_start"`
	PeriodEnd   time.Time `gorm:"column:period_end"   json:"period_end"`
	TotalCost   float64   `gorm:"column:total_cost"   json:"total_cost"`
}

func (Invoice) TableName() string {
	return "invoices"
}
