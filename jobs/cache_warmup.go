package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/animedojo/anime-api/internal/animes"
	jobmetrics "github.com/animedojo/anime-api/internal/jobs"
	"github.com/animedojo/anime-api/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// CacheWarmer loads listings into the cache.
type CacheWarmer interface {
	Warm(ctx context.Context, req shared.PageRequest) (animes.WarmResult, error)
}

// CacheWarmupJob pre-populates the anime cache so the first requests after a
// deploy or invalidation do not all reach the database.
type CacheWarmupJob struct {
	Warmer  CacheWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewCacheWarmupJob wires dependencies for the warm-up handler.
func NewCacheWarmupJob(warmer CacheWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *CacheWarmupJob {
	return &CacheWarmupJob{Warmer: warmer, Logger: logger, Metrics: metrics, Timeout: 30 * time.Second}
}

// Handle processes cache warm-up tasks.
func (j *CacheWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Warmer == nil {
		return errors.New("cache warmup: handler not configured")
	}
	var payload CacheWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskAnimeCacheWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	req := payload.PageRequest()
	logger := j.logger().With(slog.Int("page", req.Page), slog.Int("size", req.Size))
	if id, ok := asynq.GetTaskID(ctx); ok {
		logger = logger.With(slog.String("task_id", id))
	}
	logger.Info("starting cache warmup")

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	start := time.Now()
	res, err := j.Warmer.Warm(ctx, req)
	if err != nil {
		logger.Error("cache warmup", slog.Any("error", err))
		return err
	}
	j.metrics().AddWarmed("page", res.PageEntries)
	j.metrics().AddWarmed("all", res.AllEntries)
	logger.Info("completed cache warmup",
		slog.Int("page_entries", res.PageEntries),
		slog.Int("all_entries", res.AllEntries),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *CacheWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnimeCacheWarmup))
	}
	return slog.Default().With(slog.String("job", TaskAnimeCacheWarmup))
}

func (j *CacheWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
