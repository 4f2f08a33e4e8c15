package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/animedojo/anime-api/internal/auth"
	"github.com/animedojo/anime-api/internal/platform/httpx"
	"github.com/animedojo/anime-api/internal/shared"
)

// Authenticator verifies Basic credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, secret string) (*auth.Principal, error)
}

// SessionResolver finds the principal of a form-login session cookie. It
// returns nil without error when the request carries no live session.
type SessionResolver interface {
	PrincipalFromSession(r *http.Request) (*auth.Principal, error)
}

type principalContextKey struct{}

// ContextWithPrincipal stores the authenticated principal.
func ContextWithPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	ctx = shared.ContextWithActor(ctx, p.Username)
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the authenticated principal or nil.
func PrincipalFromContext(ctx context.Context) *auth.Principal {
	p, _ := ctx.Value(principalContextKey{}).(*auth.Principal)
	return p
}

// Middleware authenticates HTTP Basic credentials, or a session cookie when
// no Basic header is sent, and enforces the route table.
type Middleware struct {
	Rules         *RuleSet
	Authenticator Authenticator
	Sessions      SessionResolver
	Logger        *slog.Logger
}

// Handler returns the enforcing middleware.
func (m Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, err := routingPath(r)
		if err != nil {
			httpx.RespondError(w, r, m.Logger, err)
			return
		}
		method := r.Method
		if rule, ok := m.Rules.Match(route, method); ok && rule.Role == RolePublic {
			next.ServeHTTP(w, r)
			return
		}

		var principal *auth.Principal
		if username, secret, ok := r.BasicAuth(); ok {
			p, err := m.Authenticator.Authenticate(r.Context(), username, secret)
			if err != nil {
				m.deny(w, r, err)
				return
			}
			principal = p.Public()
		} else if m.Sessions != nil {
			p, err := m.Sessions.PrincipalFromSession(r)
			if err != nil {
				m.deny(w, r, err)
				return
			}
			principal = p
		}

		decision := m.Rules.Authorize(principal, route, method)
		if err := decision.Err(); err != nil {
			m.deny(w, r, err)
			return
		}
		ctx := r.Context()
		if principal != nil {
			ctx = ContextWithPrincipal(ctx, principal)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// routingPath returns the path the router dispatches on: chi matches the raw
// path when one is set. Paths that are not already canonical are refused, so
// the rule checked is always the rule of the handler that runs.
func routingPath(r *http.Request) (string, error) {
	route := r.URL.Path
	if r.URL.RawPath != "" {
		route = r.URL.RawPath
	}
	if route == "" {
		return "/", nil
	}
	if strings.Contains(strings.ToLower(route), "%2f") {
		return "", fmt.Errorf("%w: encoded slash in request path", shared.ErrBadRequest)
	}
	trimmed := route
	if len(trimmed) > 1 {
		trimmed = strings.TrimSuffix(trimmed, "/")
	}
	if !strings.HasPrefix(route, "/") || path.Clean(trimmed) != trimmed {
		return "", fmt.Errorf("%w: non-canonical request path", shared.ErrBadRequest)
	}
	return route, nil
}

// RequireRole guards a single handler tree with an explicit role, for routes
// mounted outside the rule table.
func (m Middleware) RequireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				m.deny(w, r, &Denial{Reason: Unauthenticated, Route: r.URL.Path, Method: r.Method, Required: role})
				return
			}
			if !p.HasRole(role) {
				m.deny(w, r, &Denial{Reason: Forbidden, Route: r.URL.Path, Method: r.Method, Required: role, Username: p.Username})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, err error) {
	if _, _, ok := r.BasicAuth(); !ok && PrincipalFromContext(r.Context()) == nil {
		w.Header().Set("WWW-Authenticate", `Basic realm="animes"`)
	}
	httpx.RespondError(w, r, m.Logger, err)
}
