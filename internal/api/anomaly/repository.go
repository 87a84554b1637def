package anomaly

import (
	"context"
	"errors"

	"gorm.io/gorm"

	commonerrors "foresight-api-server/internal/api/common/errors"
	"foresight-api-server/internal/models"
)

type anomalyRepository struct {
	db *gorm.DB
}

var _ AnomalyRepository = (*anomalyRepository)(nil)

func NewAnomalyRepository(db *gorm.DB) AnomalyRepository {
	return &anomalyRepository{
		db: db,
	}
}

// GetTeamWebhook returns the configured alert webhook, empty when the team
// has not configured one.
func (r *anomalyRepository) GetTeamWebhook(ctx context.Context, teamID string) (string, error) {
	var settings models.TeamSettings
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		First(&settings).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", commonerrors.UpstreamReadErr("fetch team settings", err)
	}
	return settings.AlertWebhookURL, nil
}
