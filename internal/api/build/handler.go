package build

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	commonerrors "foresight-api-server/internal/api/common/errors"
)

type BuildHandler struct {
	bs     BuildService
	logger *zap.Logger
}

func BuildRouter(route fiber.Router, bs BuildService, logger *zap.Logger) {
	handler := &BuildHandler{
		bs:     bs,
		logger: logger,
	}

	route.Get("/projects/:project/build-analysis", handler.analyze)
}

// @Summary Analyze a project's recent builds
// @Description Summarizes the last 20 builds and returns prioritized recommendations.
// @Accept  json
// @Produce json
// @Param project path string true "the project id"
// @Success 200 {object} AnalysisReport
// @Failure 422 {object} nil
// @Failure 500 {object} nil
// @Router /api/v1/projects/{project}/build-analysis [get]
func (h *BuildHandler) analyze(c *fiber.Ctx) error {
	report, err := h.bs.Analyze(c.Context(), c.Params("project"))
	if err != nil {
		if _, insufficient := err.(commonerrors.InsufficientDataError); insufficient {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(map[string]interface{}{
				"message": err.Error(),
			})
		}
		h.logger.Error("build analysis failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(err)
	}

	return c.Status(fiber.StatusOK).JSON(report)
}
