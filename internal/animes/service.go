package animes

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/animedojo/anime-api/internal/shared"
)

// Service implements the anime business operations. Role requirements are
// enforced by the route table before any method runs.
type Service struct {
	repo      Repository
	audit     shared.AuditRecorder
	validator *Validator
	logger    *slog.Logger
}

// NewService constructs a Service. A nil audit recorder discards entries.
func NewService(repo Repository, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAuditRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, validator: NewValidator(), logger: logger}
}

// ListAll returns one page of anime.
func (s *Service) ListAll(ctx context.Context, req shared.PageRequest) (shared.Page[Anime], error) {
	return s.repo.FindAll(ctx, req)
}

// ListAllNonPageable returns every anime in insertion order.
func (s *Service) ListAllNonPageable(ctx context.Context) ([]Anime, error) {
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Anime{}
	}
	return items, nil
}

// FindByIDOrThrowBadRequest returns the anime or a not found error, which the
// API reports as a bad request.
func (s *Service) FindByIDOrThrowBadRequest(ctx context.Context, id int64) (Anime, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByName returns anime named exactly name; no match is an empty slice.
func (s *Service) FindByName(ctx context.Context, name string) ([]Anime, error) {
	items, err := s.repo.FindAllByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Anime{}
	}
	return items, nil
}

// Save validates and stores a new anime.
func (s *Service) Save(ctx context.Context, body PostRequestBody) (Anime, error) {
	if err := s.validator.Struct(body); err != nil {
		return Anime{}, err
	}
	saved, err := s.repo.Save(ctx, Anime{Name: strings.TrimSpace(body.Name)})
	if err != nil {
		return Anime{}, err
	}
	s.record(ctx, actionCreate, saved.ID, map[string]any{"name": saved.Name})
	return saved, nil
}

// Replace overwrites an existing anime.
func (s *Service) Replace(ctx context.Context, body PutRequestBody) error {
	if err := s.validator.Struct(body); err != nil {
		return err
	}
	previous, err := s.repo.FindByID(ctx, body.ID)
	if err != nil {
		return err
	}
	saved, err := s.repo.Save(ctx, Anime{ID: previous.ID, Name: strings.TrimSpace(body.Name)})
	if err != nil {
		return err
	}
	s.record(ctx, actionReplace, saved.ID, map[string]any{"from": previous.Name, "to": saved.Name})
	return nil
}

// Delete removes an existing anime.
func (s *Service) Delete(ctx context.Context, id int64) error {
	previous, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actionDelete, id, map[string]any{"name": previous.Name})
	return nil
}

// record never fails the request; the mutation has already been committed.
func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	err := s.audit.Record(ctx, shared.AuditLog{
		Actor:    shared.ActorFromContext(ctx),
		Action:   action,
		Entity:   entityAnime,
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Error("record audit log", slog.String("action", action), slog.Int64("anime_id", id), slog.Any("error", err))
	}
}
