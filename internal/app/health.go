package app

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/animedojo/anime-api/internal/platform/httpx"
)

// HealthChecker is a dependency checked by the health endpoint.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

type componentHealth struct {
	Status string `json:"status"`
}

type healthReport struct {
	Status     string                     `json:"status"`
	Components map[string]componentHealth `json:"components,omitempty"`
}

// healthHandler reports UP when every checker passes and DOWN with 503
// otherwise. Check errors are logged; the public body only carries statuses.
func healthHandler(checkers []HealthChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := make([]error, len(checkers))
		var g errgroup.Group
		for i, c := range checkers {
			g.Go(func() error {
				results[i] = c.Check(r.Context())
				return nil
			})
		}
		_ = g.Wait()

		report := healthReport{Status: "UP"}
		if len(checkers) > 0 {
			report.Components = make(map[string]componentHealth, len(checkers))
		}
		for i, c := range checkers {
			status := "UP"
			if err := results[i]; err != nil {
				status = "DOWN"
				report.Status = "DOWN"
				logger.Warn("health check failed", slog.String("component", c.Name()), slog.Any("error", err))
			}
			report.Components[c.Name()] = componentHealth{Status: status}
		}

		code := http.StatusOK
		if report.Status != "UP" {
			code = http.StatusServiceUnavailable
		}
		httpx.JSON(w, code, report)
	}
}
