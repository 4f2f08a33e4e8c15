package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/animedojo/anime-api/internal/animes"
	"github.com/animedojo/anime-api/internal/auth"
	"github.com/animedojo/anime-api/internal/observability"
	"github.com/animedojo/anime-api/internal/platform/httpx"
	"github.com/animedojo/anime-api/internal/rbac"
	"github.com/animedojo/anime-api/internal/shared"
	"github.com/animedojo/anime-api/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Metrics        *observability.Metrics
	RBACMiddleware rbac.Middleware
	AuthHandler    *auth.Handler
	AnimeHandler   *animes.Handler
	JobHandler     *jobs.Handler
	HealthCheckers []HealthChecker
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  logger,
		Config:  params.Config,
		Metrics: params.Metrics,
		RBAC:    params.RBACMiddleware,
	}) {
		r.Use(mw)
	}
	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, r, logger, shared.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, r, logger, shared.ErrRouteNotFound)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/actuator/health", healthHandler(params.HealthCheckers, logger))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/actuator/prometheus", params.Metrics.Handler())
	}

	if params.AuthHandler != nil {
		params.AuthHandler.MountRoutes(r)
	}

	r.Route("/animes", func(r chi.Router) {
		if params.AnimeHandler != nil {
			params.AnimeHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			r.Route("/admin/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
