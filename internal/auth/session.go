package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/animedojo/anime-api/internal/shared"
)

// SessionPrincipals resolves the principal behind a login cookie. Roles are
// re-read from the credential store on every request, so a revoked account
// loses access without waiting for its session to expire.
type SessionPrincipals struct {
	sessions *shared.SessionManager
	store    CredentialStore
}

// NewSessionPrincipals constructs a SessionPrincipals.
func NewSessionPrincipals(sessions *shared.SessionManager, store CredentialStore) *SessionPrincipals {
	return &SessionPrincipals{sessions: sessions, store: store}
}

// PrincipalFromSession returns the session's principal without its password
// hash, or nil when the request carries no live session.
func (s *SessionPrincipals) PrincipalFromSession(r *http.Request) (*Principal, error) {
	sess, err := s.sessions.Load(r.Context(), r)
	if err != nil || sess == nil {
		return nil, err
	}
	p, err := s.store.FindByUsername(r.Context(), sess.Username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup session account: %w", err)
	}
	if len(p.Roles) == 0 {
		return nil, nil
	}
	return p.Public(), nil
}
