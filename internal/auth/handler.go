package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/animedojo/anime-api/internal/platform/httpx"
	"github.com/animedojo/anime-api/internal/shared"
)

// Handler wires the form login endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	sessions  *shared.SessionManager
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		sessions:  sessions,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type loginResponse struct {
	Username string `json:"username"`
	Roles    []Role `json:"roles"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.RespondError(w, r, h.logger, fmt.Errorf("%w: unreadable login form", shared.ErrBadRequest))
		return
	}
	form := loginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if err := h.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
		invalid := &shared.ValidationError{}
		for _, fe := range fieldErrs {
			switch fe.Field() {
			case "Username":
				invalid.Add("username", "The username cannot be empty")
			case "Password":
				invalid.Add("password", "The password cannot be empty")
			}
		}
		httpx.RespondError(w, r, h.logger, invalid)
		return
	}

	principal, err := h.service.Authenticate(r.Context(), form.Username, form.Password)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if _, err := h.sessions.Create(r.Context(), w, principal.Username); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	h.logger.Info("session started", slog.String("username", principal.Username))
	httpx.JSON(w, http.StatusOK, loginResponse{Username: principal.Username, Roles: principal.Roles})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		h.logger.Warn("remove session", slog.Any("error", err))
	}
	w.WriteHeader(http.StatusNoContent)
}
