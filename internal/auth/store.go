package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/animedojo/anime-api/internal/shared"
)

// CredentialStore resolves principals by username. Missing accounts are
// reported as shared.ErrNotFound.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*Principal, error)
}

// SeedAccount is a statically provisioned account. Password holds the raw
// secret, PasswordHash an already encoded one; PasswordHash wins when both are set.
type SeedAccount struct {
	Username     string `json:"username"`
	Password     string `json:"password,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
	Roles        []Role `json:"roles"`
}

// SeedStore serves accounts provisioned at start-up. It is read-only after
// construction and safe for concurrent use.
type SeedStore struct {
	accounts map[string]Principal
}

// NewSeedStore encodes the raw passwords of accounts and indexes them by username.
func NewSeedStore(accounts []SeedAccount, encoder *PasswordEncoder) (*SeedStore, error) {
	store := &SeedStore{accounts: make(map[string]Principal, len(accounts))}
	for _, acc := range accounts {
		username := strings.TrimSpace(acc.Username)
		if username == "" {
			return nil, errors.New("seed account requires username")
		}
		if _, dup := store.accounts[username]; dup {
			return nil, fmt.Errorf("seed account %q declared twice", username)
		}
		hash := acc.PasswordHash
		if hash == "" {
			if acc.Password == "" {
				return nil, fmt.Errorf("seed account %q requires password", username)
			}
			encoded, err := encoder.Encode(acc.Password)
			if err != nil {
				return nil, err
			}
			hash = encoded
		}
		store.accounts[username] = Principal{
			Username:     username,
			PasswordHash: hash,
			Roles:        slices.Clone(acc.Roles),
		}
	}
	return store, nil
}

// FindByUsername implements CredentialStore.
func (s *SeedStore) FindByUsername(_ context.Context, username string) (*Principal, error) {
	p, ok := s.accounts[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	p.Roles = slices.Clone(p.Roles)
	return &p, nil
}

// Len returns the number of seeded accounts.
func (s *SeedStore) Len() int {
	return len(s.accounts)
}

// ChainStore consults stores in order; the first hit wins.
type ChainStore []CredentialStore

// FindByUsername implements CredentialStore.
func (c ChainStore) FindByUsername(ctx context.Context, username string) (*Principal, error) {
	for _, store := range c {
		if store == nil {
			continue
		}
		p, err := store.FindByUsername(ctx, username)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	return nil, shared.ErrNotFound
}

var (
	_ CredentialStore = (*SeedStore)(nil)
	_ CredentialStore = ChainStore(nil)
)
