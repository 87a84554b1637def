package cost

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	commonerrors "foresight-api-server/internal/api/common/errors"
)

type costRepository struct {
	db *gorm.DB
}

var _ CostRepository = (*costRepository)(nil)

func NewCostRepository(db *gorm.DB) CostRepository {
	return &costRepository{
		db: db,
	}
}

const previousMonthQuery = `SELECT coalesce(sum(total_cost), 0)
FROM invoices
WHERE team_id = ? AND period_start >= ? AND period_start < ?`

// GetPreviousMonthCost sums the invoices of the calendar month before the
// one containing now. Zero when no invoice exists yet.
func (r *costRepository) GetPreviousMonthCost(ctx context.Context, teamID string, now time.Time) (decimal.Decimal, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	previousStart := monthStart.AddDate(0, -1, 0)

	var total float64
	err := r.db.WithContext(ctx).
		Raw(previousMonthQuery, teamID, previousStart, monthStart).
		Scan(&total).
		Error
	if err != nil {
		return decimal.Zero, commonerrors.UpstreamReadErr("fetch previous invoice total", err)
	}
	return decimal.NewFromFloat(total), nil
}
