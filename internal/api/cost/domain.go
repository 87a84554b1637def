package cost

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CostService interface {
	Forecast(ctx context.Context, teamID string) (*CostForecast, error)
}

type CostRepository interface {
	GetPreviousMonthCost(ctx context.Context, teamID string, now time.Time) (decimal.Decimal, error)
}

// MetricForecast is the 30-day projection for one billable metric type.
type MetricForecast struct {
	MetricType            string          `json:"metric_type"`
	DailyAverage          float64         `json:"daily_average"`
	TrendDirection        string          `json:"trend_direction"`
	ProjectedMonthlyUsage float64         `json:"projected_monthly_usage"`
	ProjectedCost         decimal.Decimal `json:"projected_cost"`
}

// CostRecommendation carries a fixed-rule saving suggestion. The savings
// percentages are unmeasured heuristics, not observed figures.
type CostRecommendation struct {
	Action              string          `json:"action"`
	Reason              string          `json:"reason"`
	EstimatedSavingsPct float64         `json:"estimated_savings_pct"`
	EstimatedSavings    decimal.Decimal `json:"estimated_savings"`
}

// CostForecast summarizes next-period spend. CostChangePct is nil when the
// previous month had no invoiced cost; NewSpend marks that case instead of a
// divide-by-zero artifact.
type CostForecast struct {
	TeamID            string               `json:"team_id"`
	GeneratedAt       time.Time            `json:"generated_at"`
	Metrics           []MetricForecast     `json:"metrics"`
	PreviousMonthCost decimal.Decimal      `json:"previous_month_cost"`
	ProjectedCost     decimal.Decimal      `json:"projected_cost"`
	CostChangePct     *float64             `json:"cost_change_pct,omitempty"`
	NewSpend          bool                 `json:"new_spend,omitempty"`
	Recommendations   []CostRecommendation `json:"recommendations"`
}
