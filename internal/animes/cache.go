package animes

import (
	"context"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/animedojo/anime-api/internal/platform/cache"
	"github.com/animedojo/anime-api/internal/shared"
)

// CachedRepository is a read-through redis cache in front of a Repository.
// Concurrent misses for the same key share one load; every write bumps the
// cache version. Redis failures degrade to reading the wrapped repository.
type CachedRepository struct {
	next   Repository
	cache  *cache.Versioned
	group  singleflight.Group
	logger *slog.Logger
}

// NewCachedRepository decorates next.
func NewCachedRepository(next Repository, c *cache.Versioned, logger *slog.Logger) *CachedRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRepository{next: next, cache: c, logger: logger}
}

func fetch[T any](ctx context.Context, r *CachedRepository, load func(context.Context) (T, error), parts ...string) (T, error) {
	var zero T
	key, err := r.cache.BuildKey(ctx, parts...)
	if err != nil {
		r.logger.Warn("anime cache unavailable", slog.Any("error", err))
		return load(ctx)
	}
	var cached T
	hit, err := r.cache.Get(ctx, key, &cached)
	if err != nil {
		r.logger.Warn("anime cache read", slog.String("key", key), slog.Any("error", err))
	}
	if hit {
		return cached, nil
	}

	ch := r.group.DoChan(key, func() (any, error) {
		var again T
		if hit, _ := r.cache.Get(ctx, key, &again); hit {
			return again, nil
		}
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := r.cache.Set(ctx, key, value); err != nil {
			r.logger.Warn("anime cache write", slog.String("key", key), slog.Any("error", err))
		}
		return value, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// FindAll implements Repository.
func (r *CachedRepository) FindAll(ctx context.Context, req shared.PageRequest) (shared.Page[Anime], error) {
	return fetch(ctx, r, func(ctx context.Context) (shared.Page[Anime], error) {
		return r.next.FindAll(ctx, req)
	}, "page", strconv.Itoa(req.Page), strconv.Itoa(req.Size), req.Sort.Field, req.Sort.Direction)
}

// ListAll implements Repository.
func (r *CachedRepository) ListAll(ctx context.Context) ([]Anime, error) {
	return fetch(ctx, r, r.next.ListAll, "all")
}

// FindByID implements Repository.
func (r *CachedRepository) FindByID(ctx context.Context, id int64) (Anime, error) {
	return fetch(ctx, r, func(ctx context.Context) (Anime, error) {
		return r.next.FindByID(ctx, id)
	}, "id", cache.FormatInt(id))
}

// FindAllByName implements Repository.
func (r *CachedRepository) FindAllByName(ctx context.Context, name string) ([]Anime, error) {
	return fetch(ctx, r, func(ctx context.Context) ([]Anime, error) {
		return r.next.FindAllByName(ctx, name)
	}, "name", strconv.Quote(name))
}

// Save implements Repository.
func (r *CachedRepository) Save(ctx context.Context, anime Anime) (Anime, error) {
	saved, err := r.next.Save(ctx, anime)
	if err != nil {
		return Anime{}, err
	}
	r.invalidate(ctx)
	return saved, nil
}

// DeleteByID implements Repository.
func (r *CachedRepository) DeleteByID(ctx context.Context, id int64) error {
	if err := r.next.DeleteByID(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// WarmResult reports how many records a warm-up loaded.
type WarmResult struct {
	PageEntries int
	AllEntries  int
}

// Warm preloads one listing page and the full listing.
func (r *CachedRepository) Warm(ctx context.Context, req shared.PageRequest) (WarmResult, error) {
	page, err := r.FindAll(ctx, req)
	if err != nil {
		return WarmResult{}, err
	}
	all, err := r.ListAll(ctx)
	if err != nil {
		return WarmResult{}, err
	}
	return WarmResult{PageEntries: len(page.Content), AllEntries: len(all)}, nil
}

func (r *CachedRepository) invalidate(ctx context.Context) {
	if _, err := r.cache.Bump(ctx); err != nil {
		r.logger.Error("anime cache invalidate", slog.Any("error", err))
	}
}

var _ Repository = (*CachedRepository)(nil)
