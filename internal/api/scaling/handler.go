package scaling

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"foresight-api-server/internal/api/common/query"
)

// defaultTrainingSpan covers the 168 hourly buckets the forecaster needs.
const defaultTrainingSpan = 7 * 24 * time.Hour

type ScalingHandler struct {
	ss     ScalingService
	logger *zap.Logger
}

func ScalingRouter(route fiber.Router, ss ScalingService, logger *zap.Logger) {
	handler := &ScalingHandler{
		ss:     ss,
		logger: logger,
	}

	route.Get("/projects/:project/scaling/forecast", handler.forecast)
	route.Post("/projects/:project/scaling/forecast", handler.forecast)
	route.Get("/projects/:project/scaling/forecast/status", handler.getForecastStatus)
	route.Get("/projects/:project/scaling/forecast/result", handler.getForecastResult)

	rg := route.Group("/scaling/forecast")
	rg.Get("/:uuid/status", handler.getForecastStatusByID)
	rg.Get("/:uuid/result", handler.getForecastResultByID)
}

// @Summary Enqueue a 7-day utilization forecast for a project
// @Description Returns the UUID of the forecast task; poll status/result with it.
// @Accept  json
// @Produce json
// @Param project path  string true  "the project id"
// @Param start   query string false "training window start"
// @Param end     query string false "training window end"
// @Success 200 {object} object
// @Failure 400 {object} nil
// @Failure 500 {object} nil
// @Router /api/v1/projects/{project}/scaling/forecast [get]
func (h *ScalingHandler) forecast(c *fiber.Ctx) error {
	query, err := query.ParseAndValidate(c, "project", defaultTrainingSpan)
	if err != nil {
		h.logger.Debug("query parser error", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(err)
	}

	uuid, err := h.ss.Forecast(query)
	if err != nil {
		h.logger.Error("failed to enqueue forecast", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(err)
	}

	return c.Status(fiber.StatusOK).JSON(map[string]interface{}{
		"uuid": uuid,
	})
}

// @Summary Forecast task status for a project
// @Produce json
// @Param project path string true "the project id"
// @Success 200 {object} object
// @Failure 500 {object} nil
// @Router /api/v1/projects/{project}/scaling/forecast/status [get]
func (h *ScalingHandler) getForecastStatus(c *fiber.Ctx) error {
	status, err := h.ss.GetForecastStatus(c.Params("project"))
	if err != nil {
		h.logger.Debug("failed to get status", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(err)
	}

	return c.Status(fiber.StatusOK).JSON(map[string]interface{}{
		"status": status,
	})
}

// @Summary Forecast result for a project
// @Description Responds 204 while the forecast task is still running.
// @Produce json
// @Param project path string true "the project id"
// @Success 200 {object} Forecast
// @Failure 500 {object} nil
// @Router /api/v1/projects/{project}/scaling/forecast/result [get]
func (h *ScalingHandler) getForecastResult(c *fiber.Ctx) error {
	forecast, err := h.ss.GetForecastResult(c.Params("project"))
	if err != nil {
		h.logger.Debug("failed to get result", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(err)
	}
	if forecast == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	return c.Status(fiber.StatusOK).JSON(map[string]interface{}{
		"result": forecast,
	})
}

// @Summary Forecast task status by task UUID
// @Produce json
// @Param uuid path string true "the uuid of the forecast task"
// @Success 200 {object} object
// @Failure 500 {object} nil
// @Router /api/v1/scaling/forecast/{uuid}/status [get]
func (h *ScalingHandler) getForecastStatusByID(c *fiber.Ctx) error {
	status, err := h.ss.GetForecastStatusByID(c.Params("uuid"))
	if err != nil {
		h.logger.Debug("failed to get status", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(err)
	}

	return c.Status(fiber.StatusOK).JSON(map[string]interface{}{
		"status": status,
	})
}

// @Summary Forecast result by task UUID
// @Produce json
// @Param uuid path string true "the uuid of the forecast task"
// @Success 200 {object} Forecast
// @Failure 500 {object} nil
// @Router /api/v1/scaling/forecast/{uuid}/result [get]
func (h *ScalingHandler) getForecastResultByID(c *fiber.Ctx) error {
	forecast, err := h.ss.GetForecastResultByID(c.Params("uuid"))
	if err != nil {
		h.logger.Debug("failed to get result", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(err)
	}
	if forecast == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	return c.Status(fiber.StatusOK).JSON(map[string]interface{}{
		"result": forecast,
	})
}
