package perf

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/redis/go-redis/v9"

	"github.com/animedojo/anime-api/internal/animes"
	jobmetrics "github.com/animedojo/anime-api/internal/jobs"
	"github.com/animedojo/anime-api/internal/platform/cache"
	"github.com/animedojo/anime-api/jobs"
)

func TestCacheWarmupThroughput(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	names := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		names = append(names, fmt.Sprintf("Anime %03d", i))
	}
	repo := animes.NewCachedRepository(animes.NewMemoryRepository(names...), cache.NewVersioned(client, "animes", time.Minute), nil)

	reg := prometheus.NewRegistry()
	job := jobs.NewCacheWarmupJob(repo, nil, jobmetrics.NewMetrics(reg))
	task, err := jobs.NewCacheWarmupTask(jobs.CacheWarmupPayload{Size: 50, Sort: "name,asc"})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	for i := 0; i < 30; i++ {
		if err := job.Handle(context.Background(), task); err != nil {
			t.Fatalf("warmup run %d: %v", i, err)
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	runs := metricValue(t, families, "anime_jobs_total", map[string]string{"job": jobs.TaskAnimeCacheWarmup, "status": "success"})
	if runs != 30 {
		t.Fatalf("expected 30 successful runs, got %f", runs)
	}
	if warmed := metricValue(t, families, "anime_cache_warmed_entries_total", map[string]string{"kind": "all"}); warmed != 30*200 {
		t.Fatalf("unexpected warmed entries: %f", warmed)
	}
	if mean := histogramMean(t, families, "anime_job_duration_seconds", map[string]string{"job": jobs.TaskAnimeCacheWarmup}); mean > 0.5 {
		t.Fatalf("warmup duration above budget: %f", mean)
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, lp := range metric.GetLabel() {
		val, ok := labels[lp.GetName()]
		if !ok {
			continue
		}
		if lp.GetValue() != val {
			return false
		}
		matched++
	}
	return matched == len(labels)
}
