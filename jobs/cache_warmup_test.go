package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/animedojo/anime-api/internal/animes"
	jobmetrics "github.com/animedojo/anime-api/internal/jobs"
	"github.com/animedojo/anime-api/internal/shared"
)

type warmerStub struct {
	req shared.PageRequest
	res animes.WarmResult
	err error
}

func (w *warmerStub) Warm(_ context.Context, req shared.PageRequest) (animes.WarmResult, error) {
	w.req = req
	return w.res, w.err
}

func TestCacheWarmupHandle(t *testing.T) {
	warmer := &warmerStub{res: animes.WarmResult{PageEntries: 20, AllEntries: 45}}
	job := NewCacheWarmupJob(warmer, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewCacheWarmupTask(CacheWarmupPayload{Page: 0, Size: 20, Sort: "name,desc"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, 20, warmer.req.Size)
	assert.Equal(t, shared.Sort{Field: "name", Direction: shared.SortDesc}, warmer.req.Sort)
}

func TestCacheWarmupHandleErrors(t *testing.T) {
	job := NewCacheWarmupJob(&warmerStub{err: errors.New("redis down")}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewCacheWarmupTask(CacheWarmupPayload{Size: 20})
	require.NoError(t, err)
	assert.EqualError(t, job.Handle(context.Background(), task), "redis down")

	bad := asynq.NewTask(TaskAnimeCacheWarmup, []byte("{"))
	assert.ErrorIs(t, job.Handle(context.Background(), bad), asynq.SkipRetry)

	var unconfigured *CacheWarmupJob
	assert.Error(t, unconfigured.Handle(context.Background(), task))
}

func TestCacheWarmupPayloadDefaults(t *testing.T) {
	req := CacheWarmupPayload{}.PageRequest()

	assert.Equal(t, 0, req.Page)
	assert.Equal(t, shared.DefaultPageSize, req.Size)
	assert.Equal(t, shared.Sort{Field: "id", Direction: shared.SortAsc}, req.Sort)
}

type inspectorStub struct {
	info *asynq.QueueInfo
	err  error
}

func (i inspectorStub) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return i.info, i.err
}

type enqueuerStub struct {
	payload CacheWarmupPayload
}

func (e *enqueuerStub) EnqueueCacheWarmup(_ context.Context, payload CacheWarmupPayload) (*asynq.TaskInfo, error) {
	e.payload = payload
	return &asynq.TaskInfo{ID: "warmup-1", Queue: QueueDefault}, nil
}

func TestHandlerHealth(t *testing.T) {
	h := NewHandler(inspectorStub{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3, Active: 1}}, nil, nil)

	rec := httptest.NewRecorder()
	h.health(rec, httptest.NewRequest(http.MethodGet, "/animes/admin/jobs/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body queueHealth
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 3, body.Pending)
	assert.Equal(t, 1, body.Active)
}

func TestHandlerHealthInspectorFailure(t *testing.T) {
	h := NewHandler(inspectorStub{err: errors.New("dial tcp: refused")}, nil, nil)

	rec := httptest.NewRecorder()
	h.health(rec, httptest.NewRequest(http.MethodGet, "/animes/admin/jobs/health", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandlerWarmup(t *testing.T) {
	enq := &enqueuerStub{}
	h := NewHandler(nil, enq, nil)

	rec := httptest.NewRecorder()
	h.warmup(rec, httptest.NewRequest(http.MethodPost, "/animes/admin/jobs/warmup?size=50", nil))

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 50, enq.payload.Size)
	assert.Equal(t, "id,asc", enq.payload.Sort)
	assert.JSONEq(t, `{"taskId":"warmup-1","queue":"default"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewHandler(nil, nil, nil).warmup(rec, httptest.NewRequest(http.MethodPost, "/animes/admin/jobs/warmup", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
