package models

// Deployment maps a deployment to its owning project and team. The engine
// only reads this mapping to scope time-series queries.
type Deployment struct {
	ID        string `gorm:"column:id;primaryKey" json:"id"`
	ProjectID string `gorm:"column:project_id"    json:"project_id"`
	TeamID    string `gorm:"column:team_id"       json:"team_id"`
	Name      string `gorm:"column:name"          json:"name"`
}

func (Deployment) TableName() string {
	return "deployments"
}

// TeamSettings carries the operator-configured alert webhook per team.
type TeamSettings struct {
	TeamID          string `gorm:"column:team_id;primaryKey" json:"team_id"`
	AlertWebhookURL string `gorm:"column:alert_webhook_url"  json:"alert_webhook_url"`
}

func (TeamSettings) TableName() string {
	return "team_settings"
}
