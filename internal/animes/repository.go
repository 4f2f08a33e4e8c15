package animes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/animedojo/anime-api/internal/platform/db"
	"github.com/animedojo/anime-api/internal/shared"
)

// Repository is the anime store. Listings are ordered by id, which is the
// insertion order.
type Repository interface {
	FindAll(ctx context.Context, req shared.PageRequest) (shared.Page[Anime], error)
	ListAll(ctx context.Context) ([]Anime, error)
	FindByID(ctx context.Context, id int64) (Anime, error)
	FindAllByName(ctx context.Context, name string) ([]Anime, error)
	// Save inserts when ID is zero and updates otherwise.
	Save(ctx context.Context, anime Anime) (Anime, error)
	DeleteByID(ctx context.Context, id int64) error
}

// DBTX is the subset of pgxpool.Pool used by PGRepository.
type DBTX interface {
	db.TxBeginner
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool DBTX) *PGRepository {
	return &PGRepository{db: pool}
}

func notFound(id int64) error {
	return &shared.NotFoundError{Resource: entityAnime, ID: id}
}

// FindAll returns one page; count and rows come from the same snapshot.
func (r *PGRepository) FindAll(ctx context.Context, req shared.PageRequest) (shared.Page[Anime], error) {
	var (
		items []Anime
		total int
	)
	err := db.ReadOnly(ctx, r.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM anime`).Scan(&total); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, `SELECT id, name FROM anime ORDER BY `+orderClause(req.Sort)+` LIMIT $1 OFFSET $2`, req.Size, req.Offset())
		if err != nil {
			return err
		}
		items, err = pgx.CollectRows(rows, pgx.RowToStructByPos[Anime])
		return err
	})
	if err != nil {
		return shared.Page[Anime]{}, fmt.Errorf("list anime page: %w", err)
	}
	return shared.Wrap(items, req.Page, req.Size, total), nil
}

// orderClause only ever emits whitelisted identifiers.
func orderClause(sort shared.Sort) string {
	dir := "ASC"
	if sort.Direction == shared.SortDesc {
		dir = "DESC"
	}
	switch sort.Field {
	case "name":
		return "name " + dir + ", id ASC"
	default:
		return "id " + dir
	}
}

// ListAll returns every anime.
func (r *PGRepository) ListAll(ctx context.Context) ([]Anime, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM anime ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list anime: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Anime])
	if err != nil {
		return nil, fmt.Errorf("list anime: %w", err)
	}
	return items, nil
}

// FindByID fetches one anime.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (Anime, error) {
	var a Anime
	err := r.db.QueryRow(ctx, `SELECT id, name FROM anime WHERE id = $1`, id).Scan(&a.ID, &a.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Anime{}, notFound(id)
		}
		return Anime{}, fmt.Errorf("find anime: %w", err)
	}
	return a, nil
}

// FindAllByName returns anime whose name equals name exactly.
func (r *PGRepository) FindAllByName(ctx context.Context, name string) ([]Anime, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM anime WHERE name = $1 ORDER BY id`, name)
	if err != nil {
		return nil, fmt.Errorf("find anime by name: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Anime])
	if err != nil {
		return nil, fmt.Errorf("find anime by name: %w", err)
	}
	return items, nil
}

// Save inserts or updates an anime.
func (r *PGRepository) Save(ctx context.Context, anime Anime) (Anime, error) {
	if anime.ID == 0 {
		err := r.db.QueryRow(ctx, `INSERT INTO anime (name) VALUES ($1) RETURNING id`, anime.Name).Scan(&anime.ID)
		if err != nil {
			return Anime{}, mapWriteError("insert anime", err)
		}
		return anime, nil
	}
	tag, err := r.db.Exec(ctx, `UPDATE anime SET name = $2 WHERE id = $1`, anime.ID, anime.Name)
	if err != nil {
		return Anime{}, mapWriteError("update anime", err)
	}
	if tag.RowsAffected() == 0 {
		return Anime{}, notFound(anime.ID)
	}
	return anime, nil
}

// DeleteByID removes an anime.
func (r *PGRepository) DeleteByID(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM anime WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete anime: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

// mapWriteError turns constraint violations on the name column into
// validation errors; anything else stays internal.
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.NotNullViolation, pgerrcode.CheckViolation:
			v := &shared.ValidationError{}
			v.Add("name", "The anime name cannot be empty")
			return v
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ Repository = (*PGRepository)(nil)
