package anomaly

import (
	"context"
	"time"

	"foresight-api-server/internal/models"
	"foresight-api-server/internal/timeseries"
)

const (
	TypeHighCPU       = "high_cpu"
	TypeHighLatency   = "high_latency"
	TypeHighErrorRate = "high_error_rate"

	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Fixed remediation hints per anomaly type; operators get the same advice
// for the same signal.
var recommendations = map[string]string{
	TypeHighCPU:       "scale horizontally or raise the CPU limit",
	TypeHighLatency:   "check downstream dependencies and consider scaling horizontally",
	TypeHighErrorRate: "inspect the latest release and trigger an immediate rollback if needed",
}

// Anomaly is one deviation flagged against a deployment's own 7-day
// baseline. Ephemeral: regenerated per detection pass, cached for minutes,
// never retained here.
type Anomaly struct {
	DeploymentID   string  `json:"deployment_id"`
	Type           string  `json:"type"`
	Severity       string  `json:"severity"`
	Current        float64 `json:"current"`
	Baseline       float64 `json:"baseline"`
	Score          float64 `json:"score"`
	Recommendation string  `json:"recommendation"`
}

// AlertPayload is the webhook body sent when a detection pass finds any
// critical anomaly.
type AlertPayload struct {
	Alert     string    `json:"alert"`
	Anomalies []Anomaly `json:"anomalies"`
	Timestamp time.Time `json:"timestamp"`
}

const criticalAlert = "CRITICAL_ANOMALY_DETECTED"

type AnomalyService interface {
	Detect(ctx context.Context, teamID string) ([]Anomaly, error)
	DeploymentMetrics(ctx context.Context, deploymentID string, w timeseries.Window) ([]models.MetricSample, error)
}

type AnomalyRepository interface {
	GetTeamWebhook(ctx context.Context, teamID string) (string, error)
}

// Notifier delivers an alert payload without ever failing the caller.
type Notifier interface {
	Notify(url string, payload interface{})
}
