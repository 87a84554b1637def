package scaling

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/RichardKnop/machinery/v1/tasks"
	"go.uber.org/zap"

	"foresight-api-server/internal/api/common/calendar"
	commonerrors "foresight-api-server/internal/api/common/errors"
	"foresight-api-server/internal/api/common/query"
	"foresight-api-server/internal/cache"
	"foresight-api-server/internal/models"
	"foresight-api-server/internal/timeseries"
	"foresight-api-server/internal/utils"
	"foresight-api-server/internal/worker"
)

const taskName = "scaling_forecast"

type scalingService struct {
	cache    *cache.Cache
	remote   *cache.RemoteCache
	worker   *worker.Worker
	reader   timeseries.Reader
	calendar calendar.Calendar
	cfg      *envConfig
	logger   *zap.Logger
}

var _ ScalingService = (*scalingService)(nil)

// NewScalingService wires the forecaster. worker may be nil when task
// offloading is disabled (tests, one-shot runs); ComputeForecast stays
// available either way.
func NewScalingService(
	cache *cache.Cache,
	remote *cache.RemoteCache,
	worker *worker.Worker,
	reader timeseries.Reader,
	logger *zap.Logger) (ScalingService, error) {
	cfg, err := newConfig()
	if err != nil {
		return nil, err
	}

	s := &scalingService{
		cache:    cache,
		remote:   remote,
		worker:   worker,
		reader:   reader,
		calendar: calendar.US{},
		cfg:      cfg,
		logger:   logger,
	}

	if worker != nil {
		if err := worker.RegisterTask(taskName, s.forecastTask); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func uniqueName(projectID string) string {
	return "scaling:" + projectID
}

func forecastKey(projectID string) string {
	return "scaling:forecast:" + projectID
}

func modelKey(projectID string) string {
	return "scaling:model:" + projectID
}

// Forecast enqueues the CPU-bound forecast computation and returns the task
// UUID for polling.
func (ss *scalingService) Forecast(query query.Query) (string, error) {
	var (
		projectID = query.Scope
		startTime = query.StartTime.Format("2006-01-02T15:04:05")
		endTime   = query.EndTime.Format("2006-01-02T15:04:05")
	)

	task := &tasks.Signature{
		Name: taskName,
		Args: []tasks.Arg{
			{
				Type:  "string",
				Value: projectID,
			},
			{
				Type:  "string",
				Value: startTime,
			},
			{
				Type:  "string",
				Value: endTime,
			},
		},
		RetryCount: 1,
	}

	taskState, err := ss.worker.SendTaskWithContext(context.Background(), task, uniqueName(projectID))
	if err != nil {
		return "", err
	}
	return taskState.TaskUUID, nil
}

func (ss *scalingService) forecastTask(projectID, startTime, endTime string) (string, error) {
	start, err := utils.TimeParser(startTime)
	if err != nil {
		return "", err
	}
	end, err := utils.TimeParser(endTime)
	if err != nil {
		return "", err
	}

	forecast, err := ss.ComputeForecast(context.Background(), projectID, timeseries.Window{Start: start, End: end})
	if err != nil {
		return "", err
	}
	return EncodeForecast(forecast)
}

// ComputeForecast runs the full read-train-project pipeline for one project.
// Results are cached for the forecast TTL; recomputation on the same window
// yields an equivalent forecast, so a stale read is never wrong, only old.
func (ss *scalingService) ComputeForecast(ctx context.Context, projectID string, w timeseries.Window) (*Forecast, error) {
	ss.logger.Debug("compute scaling forecast",
		zap.String("project", projectID),
		zap.Time("start_time", w.Start),
		zap.Time("end_time", w.End))

	if item, exist := ss.cache.Get(forecastKey(projectID)); exist {
		return item.(*Forecast), nil
	}

	var cached Forecast
	if found, err := ss.remote.Get(ctx, forecastKey(projectID), &cached); err != nil {
		ss.logger.Warn("remote cache read failed", zap.Error(err))
	} else if found {
		ss.cache.SetWithTTL(forecastKey(projectID), &cached, ss.cfg.ForecastTTL)
		return &cached, nil
	}

	samples, err := ss.reader.FetchProjectMetrics(ctx, projectID, w)
	if err != nil {
		ss.logger.Error("failed to get metric samples from database", zap.Error(err))
		return nil, err
	}
	if len(samples) < ss.cfg.MinSamples {
		return nil, commonerrors.InsufficientDataErr("hourly metric sample", ss.cfg.MinSamples, len(samples))
	}

	model := ss.model(projectID, samples)

	horizonStart := samples[len(samples)-1].Bucket.Truncate(time.Hour).Add(time.Hour)
	points := make([]ForecastPoint, 0, ss.cfg.HorizonHours)

	var sumCPU, peakCPU float64
	maxReplicas := ss.cfg.MinReplicas
	for h := 0; h < ss.cfg.HorizonHours; h++ {
		ts := horizonStart.Add(time.Duration(h) * time.Hour)
		cpuFraction, memoryFraction := model.Predict(ts, model.avgRequestCount, ss.calendar)

		replicas := ss.replicasFor(cpuFraction)
		if replicas > maxReplicas {
			maxReplicas = replicas
		}

		cpuPct := cpuFraction * 100
		sumCPU += cpuPct
		if cpuPct > peakCPU {
			peakCPU = cpuPct
		}

		points = append(points, ForecastPoint{
			Timestamp:           ts,
			EstimatedCPUPct:     cpuPct,
			EstimatedMemoryPct:  memoryFraction * 100,
			RecommendedReplicas: replicas,
			Confidence:          ss.cfg.Confidence,
		})
	}

	forecast := &Forecast{
		ProjectID:   projectID,
		GeneratedAt: time.Now(),
		Points:      points,
		Summary: ForecastSummary{
			AvgCPUPredicted:        sumCPU / float64(len(points)),
			PeakCPUPredicted:       peakCPU,
			RecommendedMinReplicas: ss.cfg.MinReplicas,
			RecommendedMaxReplicas: maxReplicas,
		},
		Confidence: ss.cfg.Confidence,
	}

	ss.cache.SetWithTTL(forecastKey(projectID), forecast, ss.cfg.ForecastTTL)
	if err := ss.remote.SetEx(ctx, forecastKey(projectID), forecast, ss.cfg.ForecastTTL); err != nil {
		ss.logger.Warn("remote cache write failed", zap.Error(err))
	}

	return forecast, nil
}

// model returns the trained per-project seasonal model, reusing a cache
// entry until its TTL expires. An explicit cache entry instead of a service
// field keeps multi-tenant training isolated and horizontally scalable.
func (ss *scalingService) model(projectID string, samples []models.MetricSample) *seasonalModel {
	if item, exist := ss.cache.Get(modelKey(projectID)); exist {
		return item.(*seasonalModel)
	}

	model := trainModel(samples, ss.calendar)
	ss.cache.SetWithTTL(modelKey(projectID), model, ss.cfg.ModelTTL)
	return model
}

func (ss *scalingService) replicasFor(cpuFraction float64) int {
	perReplica := ss.cfg.PerReplicaCPUFraction * ss.cfg.TargetUtilization
	if perReplica <= 0 {
		return ss.cfg.MinReplicas
	}

	replicas := int(math.Ceil(cpuFraction / perReplica))
	if replicas < ss.cfg.MinReplicas {
		replicas = ss.cfg.MinReplicas
	}
	return replicas
}

func (ss *scalingService) GetForecastStatus(projectID string) (string, error) {
	uuid, err := ss.worker.GetUUID(uniqueName(projectID))
	if err != nil {
		return "", err
	}
	return ss.worker.GetTaskStatus(uuid)
}

func (ss *scalingService) GetForecastStatusByID(uuid string) (string, error) {
	return ss.worker.GetTaskStatus(uuid)
}

func (ss *scalingService) GetForecastResult(projectID string) (*Forecast, error) {
	uuid, err := ss.worker.GetUUID(uniqueName(projectID))
	if err != nil {
		return nil, err
	}
	return ss.getForecastResult(uuid)
}

func (ss *scalingService) GetForecastResultByID(uuid string) (*Forecast, error) {
	return ss.getForecastResult(uuid)
}

func (ss *scalingService) getForecastResult(uuid string) (*Forecast, error) {
	results, err := ss.worker.GetTaskResult(uuid)
	if errors.Is(err, tasks.ErrTaskReturnsNoValue) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, commonerrors.NotFoundErr("forecast result", uuid)
	}

	encoded := results[0].Interface().(string)
	return DecodeForecast(encoded)
}
