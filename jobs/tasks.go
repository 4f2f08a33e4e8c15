package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/animedojo/anime-api/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAnimeCacheWarmup preloads the anime listings into redis.
	TaskAnimeCacheWarmup = "anime:cache_warmup"
)

// CacheWarmupPayload selects the listing page a warm-up run loads.
type CacheWarmupPayload struct {
	Page int    `json:"page"`
	Size int    `json:"size"`
	Sort string `json:"sort,omitempty"`
}

// PageRequest converts the payload into a normalised page request.
func (p CacheWarmupPayload) PageRequest() shared.PageRequest {
	req := shared.NewPageRequest(p.Page, p.Size)
	req.Sort = shared.Sort{Field: "id", Direction: shared.SortAsc}
	if p.Sort != "" {
		req.Sort = shared.ParsePageRequest(map[string][]string{"sort": {p.Sort}}, "id", "name").Sort
	}
	return req
}

// NewCacheWarmupTask constructs the warm-up task.
func NewCacheWarmupTask(payload CacheWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnimeCacheWarmup, data, asynq.Queue(QueueDefault)), nil
}

// newTaskID gives on-demand runs a unique, traceable id.
func newTaskID() string {
	return "warmup-" + uuid.NewString()
}
