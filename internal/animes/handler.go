package animes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/animedojo/anime-api/internal/platform/httpx"
	"github.com/animedojo/anime-api/internal/shared"
)

// Handler exposes the anime JSON API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers anime routes relative to /animes. Access is decided
// by the route table, so /admin routes need no extra guard here.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/all", h.listAll)
	r.Get("/find", h.findByName)
	r.Get("/{id}", h.findByID)
	r.Post("/", h.save)
	r.Put("/", h.replace)
	r.Delete("/admin/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := shared.ParsePageRequest(r.URL.Query(), SortableFields...)
	page, err := h.service.ListAll(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListAllNonPageable(r.Context())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) findByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	anime, err := h.service.FindByIDOrThrowBadRequest(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, anime)
}

func (h *Handler) findByName(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.FindByName(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var body PostRequestBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	anime, err := h.service.Save(r.Context(), body)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/animes/%d", anime.ID))
	httpx.JSON(w, http.StatusCreated, anime)
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	var body PutRequestBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if err := h.service.Replace(r.Context(), body); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.NoContent(w)
}

func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid anime id %q", shared.ErrBadRequest, raw)
	}
	return id, nil
}
