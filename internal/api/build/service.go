package build

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/google/uuid"
	"github.com/pquerna/ffjson/ffjson"
	"go.uber.org/zap"

	commonerrors "foresight-api-server/internal/api/common/errors"
	"foresight-api-server/internal/models"
	"foresight-api-server/internal/timeseries"
)

type envConfig struct {
	BuildLimit int `env:"BUILD_ANALYSIS_LIMIT" envDefault:"20"`

	LowCacheHitThreshold float64 `env:"BUILD_LOW_CACHE_HIT_THRESHOLD" envDefault:"0.5"`
	LargeArtifactMB      float64 `env:"BUILD_LARGE_ARTIFACT_MB" envDefault:"1000"`

	// Heuristic estimates surfaced in recommendations, not measured values.
	LayerCacheSavingPct   float64 `env:"BUILD_LAYER_CACHE_SAVING_PCT" envDefault:"40"`
	BuildKitSavingPct     float64 `env:"BUILD_BUILDKIT_SAVING_PCT" envDefault:"25"`
	SlimImageReductionPct float64 `env:"BUILD_SLIM_IMAGE_REDUCTION_PCT" envDefault:"30"`
}

type buildService struct {
	reader     timeseries.Reader
	repository BuildRepository
	cfg        *envConfig
	logger     *zap.Logger
}

var _ BuildService = (*buildService)(nil)

func NewBuildService(reader timeseries.Reader, r BuildRepository, logger *zap.Logger) (BuildService, error) {
	cfg := &envConfig{}
	if err := env.Parse(cfg, env.Options{}); err != nil {
		return nil, err
	}

	return &buildService{
		reader:     reader,
		repository: r,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Analyze summarizes the project's recent builds and persists the report
// snapshot for audit history.
func (bs *buildService) Analyze(ctx context.Context, projectID string) (*AnalysisReport, error) {
	bs.logger.Debug("build analysis", zap.String("project", projectID))

	builds, err := bs.reader.FetchBuilds(ctx, projectID, bs.cfg.BuildLimit)
	if err != nil {
		bs.logger.Error("failed to get build records from database", zap.Error(err))
		return nil, err
	}
	if len(builds) == 0 {
		return nil, commonerrors.InsufficientDataErr("build record", 1, 0)
	}

	stats := summarize(builds)
	report := &AnalysisReport{
		ProjectID:       projectID,
		GeneratedAt:     time.Now(),
		Stats:           stats,
		Recommendations: bs.recommend(stats),
	}

	if err := bs.persist(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func summarize(builds []models.BuildRecord) BuildStats {
	var duration, cacheHit, artifact float64
	for _, build := range builds {
		duration += build.DurationSeconds
		cacheHit += build.CacheHitRate
		artifact += build.ArtifactSizeMB
	}

	n := float64(len(builds))
	return BuildStats{
		Builds:             len(builds),
		AvgDurationSeconds: duration / n,
		AvgCacheHitRate:    cacheHit / n,
		AvgArtifactSizeMB:  artifact / n,
	}
}

func (bs *buildService) recommend(stats BuildStats) []Recommendation {
	recs := make([]Recommendation, 0, 3)

	if stats.AvgCacheHitRate < bs.cfg.LowCacheHitThreshold {
		recs = append(recs, Recommendation{
			Priority: PriorityHigh,
			Action:   "reorder Dockerfile layers to improve layer caching",
			Reason: fmt.Sprintf("average cache-hit rate is %.0f%%, below the %.0f%% threshold",
				stats.AvgCacheHitRate*100, bs.cfg.LowCacheHitThreshold*100),
			EstimatedTimeSavingPct: bs.cfg.LayerCacheSavingPct,
		})
	}

	// static best practice, always suggested
	recs = append(recs, Recommendation{
		Priority:               PriorityMedium,
		Action:                 "enable BuildKit with parallel multi-stage builds",
		Reason:                 "multi-stage builds parallelize independent stages",
		EstimatedTimeSavingPct: bs.cfg.BuildKitSavingPct,
	})

	if stats.AvgArtifactSizeMB > bs.cfg.LargeArtifactMB {
		recs = append(recs, Recommendation{
			Priority: PriorityMedium,
			Action:   "switch to a slimmer base image",
			Reason: fmt.Sprintf("average artifact size is %.0f MB, above the %.0f MB threshold",
				stats.AvgArtifactSizeMB, bs.cfg.LargeArtifactMB),
			EstimatedSizeReductionMB: stats.AvgArtifactSizeMB * bs.cfg.SlimImageReductionPct / 100,
		})
	}

	return recs
}

func (bs *buildService) persist(ctx context.Context, report *AnalysisReport) error {
	buf, err := ffjson.Marshal(report)
	if err != nil {
		return err
	}

	return bs.repository.SaveAnalysis(ctx, &models.BuildAnalysis{
		ID:           uuid.NewString(),
		ProjectID:    report.ProjectID,
		AnalysisJSON: string(buf),
		CreatedAt:    report.GeneratedAt,
	})
}
