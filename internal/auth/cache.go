package auth

import (
	"context"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedStore keeps recently resolved principals in an expiring LRU so
// database accounts are not re-read on every request. Misses are not cached.
type CachedStore struct {
	next  CredentialStore
	cache *expirable.LRU[string, Principal]
}

// NewCachedStore decorates next with a cache of size entries living for ttl.
func NewCachedStore(next CredentialStore, size int, ttl time.Duration) *CachedStore {
	if size <= 0 {
		size = 256
	}
	return &CachedStore{
		next:  next,
		cache: expirable.NewLRU[string, Principal](size, nil, ttl),
	}
}

// FindByUsername implements CredentialStore.
func (c *CachedStore) FindByUsername(ctx context.Context, username string) (*Principal, error) {
	if p, ok := c.cache.Get(username); ok {
		p.Roles = slices.Clone(p.Roles)
		return &p, nil
	}
	p, err := c.next.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	c.cache.Add(username, *p)
	return p, nil
}

// Invalidate drops a cached principal, e.g. after a password rotation.
func (c *CachedStore) Invalidate(username string) {
	c.cache.Remove(username)
}

var _ CredentialStore = (*CachedStore)(nil)
