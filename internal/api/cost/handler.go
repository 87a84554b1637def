package cost

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	commonerrors "foresight-api-server/internal/api/common/errors"
)

type CostHandler struct {
	cs     CostService
	logger *zap.Logger
}

func CostRouter(route fiber.Router, cs CostService, logger *zap.Logger) {
	handler := &CostHandler{
		cs:     cs,
		logger: logger,
	}

	route.Get("/teams/:team/cost-forecast", handler.forecast)
}

// @Summary Project next-period spend for a team
// @Description 30-day projection per billable metric type from the 90-day usage window.
// @Accept  json
// @Produce json
// @Param team path string true "the team id"
// @Success 200 {object} CostForecast
// @Failure 422 {object} nil
// @Failure 500 {object} nil
// @Router /api/v1/teams/{team}/cost-forecast [get]
func (h *CostHandler) forecast(c *fiber.Ctx) error {
	forecast, err := h.cs.Forecast(c.Context(), c.Params("team"))
	if err != nil {
		if _, insufficient := err.(commonerrors.InsufficientDataError); insufficient {
			// needs more history, not a system failure
			return c.Status(fiber.StatusUnprocessableEntity).JSON(map[string]interface{}{
				"message": err.Error(),
			})
		}
		h.logger.Error("cost forecast failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(err)
	}

	return c.Status(fiber.StatusOK).JSON(forecast)
}
