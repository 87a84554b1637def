package rightsizing

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	commonerrors "foresight-api-server/internal/api/common/errors"
)

type RightsizingHandler struct {
	rs     RightsizingService
	logger *zap.Logger
}

func RightsizingRouter(route fiber.Router, rs RightsizingService, logger *zap.Logger) {
	handler := &RightsizingHandler{
		rs:     rs,
		logger: logger,
	}

	route.Get("/projects/:project/rightsizing", handler.recommend)
}

// @Summary Derive right-sized resource requests for a project
// @Description Requests, reservations and autoscaling bounds from 30-day usage percentiles.
// @Accept  json
// @Produce json
// @Param project path string true "the project id"
// @Success 200 {object} ResourceRecommendation
// @Failure 422 {object} nil
// @Failure 500 {object} nil
// @Router /api/v1/projects/{project}/rightsizing [get]
func (h *RightsizingHandler) recommend(c *fiber.Ctx) error {
	recommendation, err := h.rs.Recommend(c.Context(), c.Params("project"))
	if err != nil {
		if _, insufficient := err.(commonerrors.InsufficientDataError); insufficient {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(map[string]interface{}{
				"message": err.Error(),
			})
		}
		h.logger.Error("rightsizing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(err)
	}

	return c.Status(fiber.StatusOK).JSON(recommendation)
}
