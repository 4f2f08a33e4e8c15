package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/animedojo/anime-api/internal/shared"
)

// DBTX is the subset of pgxpool.Pool used by PGStore.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore reads accounts from the usuarios table.
type PGStore struct {
	db DBTX
}

// NewPGStore constructs a PostgreSQL credential store.
func NewPGStore(db DBTX) *PGStore {
	return &PGStore{db: db}
}

const findAccountSQL = `SELECT username, password, authorities FROM usuarios WHERE username = $1`

// FindByUsername implements CredentialStore.
func (s *PGStore) FindByUsername(ctx context.Context, username string) (*Principal, error) {
	var (
		p           Principal
		authorities string
	)
	err := s.db.QueryRow(ctx, findAccountSQL, username).Scan(&p.Username, &p.PasswordHash, &authorities)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	p.Roles = ParseAuthorities(authorities)
	return &p, nil
}

const upsertAccountSQL = `INSERT INTO usuarios (name, username, password, authorities)
VALUES ($1, $2, $3, $4)
ON CONFLICT (username) DO UPDATE SET name = EXCLUDED.name, password = EXCLUDED.password, authorities = EXCLUDED.authorities`

// Upsert creates or replaces an account. hash must already be encoded.
func (s *PGStore) Upsert(ctx context.Context, name, username, hash string, roles []Role) error {
	if username == "" || hash == "" {
		return errors.New("upsert account requires username and password hash")
	}
	if len(roles) == 0 {
		return errors.New("upsert account requires at least one role")
	}
	if name == "" {
		name = username
	}
	if _, err := s.db.Exec(ctx, upsertAccountSQL, name, username, hash, FormatAuthorities(roles)); err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}

var _ CredentialStore = (*PGStore)(nil)
