package anomaly

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"foresight-api-server/internal/api/common/query"
	"foresight-api-server/internal/timeseries"
)

// defaultDrilldownSpan bounds the sample window when no start/end is given.
const defaultDrilldownSpan = 24 * time.Hour

type AnomalyHandler struct {
	as     AnomalyService
	logger *zap.Logger
}

func AnomalyRouter(route fiber.Router, as AnomalyService, logger *zap.Logger) {
	handler := &AnomalyHandler{
		as:     as,
		logger: logger,
	}

	route.Get("/teams/:team/anomalies", handler.detect)
	route.Get("/deployments/:deployment/metrics", handler.deploymentMetrics)
}

// @Summary Run an anomaly detection pass over a team's deployments
// @Description Compares each deployment's last hour against its own 7-day baseline.
// @Accept  json
// @Produce json
// @Param team path string true "the team id"
// @Success 200 {object} object
// @Failure 500 {object} nil
// @Router /api/v1/teams/{team}/anomalies [get]
func (h *AnomalyHandler) detect(c *fiber.Ctx) error {
	anomalies, err := h.as.Detect(c.Context(), c.Params("team"))
	if err != nil {
		h.logger.Error("detection pass failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(err)
	}

	return c.Status(fiber.StatusOK).JSON(map[string]interface{}{
		"anomalies": anomalies,
	})
}

// @Summary Hourly metric samples for one deployment
// @Description Drill-down behind a flagged anomaly; defaults to the last 24 hours.
// @Produce json
// @Param deployment path  string true  "the deployment id"
// @Param start      query string false "window start"
// @Param end        query string false "window end"
// @Success 200 {object} object
// @Failure 400 {object} nil
// @Failure 500 {object} nil
// @Router /api/v1/deployments/{deployment}/metrics [get]
func (h *AnomalyHandler) deploymentMetrics(c *fiber.Ctx) error {
	q, err := query.ParseAndValidate(c, "deployment", defaultDrilldownSpan)
	if err != nil {
		h.logger.Debug("query parser error", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(err)
	}

	samples, err := h.as.DeploymentMetrics(c.Context(), q.Scope,
		timeseries.Window{Start: q.StartTime, End: q.EndTime})
	if err != nil {
		h.logger.Error("failed to get deployment metrics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(err)
	}

	return c.Status(fiber.StatusOK).JSON(map[string]interface{}{
		"metrics": samples,
	})
}
