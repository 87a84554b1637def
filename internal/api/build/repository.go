package build

import (
	"context"

	"gorm.io/gorm"

	commonerrors "foresight-api-server/internal/api/common/errors"
	"foresight-api-server/internal/models"
)

type buildRepository struct {
	db *gorm.DB
}

var _ BuildRepository = (*buildRepository)(nil)

func NewBuildRepository(db *gorm.DB) BuildRepository {
	return &buildRepository{
		db: db,
	}
}

func (r *buildRepository) SaveAnalysis(ctx context.Context, analysis *models.BuildAnalysis) error {
	if err := r.db.WithContext(ctx).Create(analysis).Error; err != nil {
		return commonerrors.UpstreamReadErr("persist build analysis", err)
	}
	return nil
}
