package animes

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/animedojo/anime-api/internal/shared"
)

// MemoryRepository keeps anime in process memory. It backs the service when
// no database is configured and in tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	seq   int64
	items []Anime
}

// NewMemoryRepository returns a repository preloaded with seed names.
func NewMemoryRepository(seed ...string) *MemoryRepository {
	r := &MemoryRepository{}
	for _, name := range seed {
		r.seq++
		r.items = append(r.items, Anime{ID: r.seq, Name: name})
	}
	return r
}

// FindAll implements Repository.
func (r *MemoryRepository) FindAll(_ context.Context, req shared.PageRequest) (shared.Page[Anime], error) {
	r.mu.RLock()
	all := slices.Clone(r.items)
	r.mu.RUnlock()

	sortAnime(all, req.Sort)
	total := len(all)
	start := min(req.Offset(), total)
	end := min(start+req.Size, total)
	return shared.Wrap(all[start:end], req.Page, req.Size, total), nil
}

func sortAnime(items []Anime, s shared.Sort) {
	desc := s.Direction == shared.SortDesc
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if s.Field == "name" {
			if a.Name != b.Name {
				if desc {
					return a.Name > b.Name
				}
				return a.Name < b.Name
			}
			return a.ID < b.ID
		}
		if desc {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})
}

// ListAll implements Repository.
func (r *MemoryRepository) ListAll(context.Context) ([]Anime, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.items), nil
}

// FindByID implements Repository.
func (r *MemoryRepository) FindByID(_ context.Context, id int64) (Anime, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(id); i >= 0 {
		return r.items[i], nil
	}
	return Anime{}, notFound(id)
}

// FindAllByName implements Repository.
func (r *MemoryRepository) FindAllByName(_ context.Context, name string) ([]Anime, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Anime{}
	for _, a := range r.items {
		if a.Name == name {
			out = append(out, a)
		}
	}
	return out, nil
}

// Save implements Repository.
func (r *MemoryRepository) Save(_ context.Context, anime Anime) (Anime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if anime.ID == 0 {
		r.seq++
		anime.ID = r.seq
		r.items = append(r.items, anime)
		return anime, nil
	}
	i := r.indexOf(anime.ID)
	if i < 0 {
		return Anime{}, notFound(anime.ID)
	}
	r.items[i] = anime
	return anime, nil
}

// DeleteByID implements Repository.
func (r *MemoryRepository) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return notFound(id)
	}
	r.items = slices.Delete(r.items, i, i+1)
	return nil
}

// indexOf relies on items being sorted by id; callers hold the lock.
func (r *MemoryRepository) indexOf(id int64) int {
	i, found := sort.Find(len(r.items), func(i int) int {
		switch {
		case id < r.items[i].ID:
			return -1
		case id > r.items[i].ID:
			return 1
		}
		return 0
	})
	if !found {
		return -1
	}
	return i
}

var _ Repository = (*MemoryRepository)(nil)
