package rbac

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/animedojo/anime-api/internal/auth"
	"github.com/animedojo/anime-api/internal/shared"
)

var (
	userPrincipal  = &auth.Principal{Username: "user", Roles: []auth.Role{auth.RoleUser}}
	adminPrincipal = &auth.Principal{Username: "admin", Roles: []auth.Role{auth.RoleAdmin, auth.RoleUser}}
)

func defaultRuleSet(t *testing.T) *RuleSet {
	t.Helper()
	rs, err := NewRuleSet(DefaultRules()...)
	require.NoError(t, err)
	return rs
}

func TestRuleSetOrdersSpecificFirst(t *testing.T) {
	rules := defaultRuleSet(t).Rules()

	require.Len(t, rules, 7)
	assert.Equal(t, "/animes/admin/**", rules[0].Pattern)
	assert.Equal(t, "/**", rules[len(rules)-1].Pattern)
}

func TestAuthorizeAdminRoute(t *testing.T) {
	rs := defaultRuleSet(t)

	denied := rs.Authorize(userPrincipal, "/animes/admin/5", http.MethodDelete)
	assert.False(t, denied.Allowed)
	assert.Equal(t, Forbidden, denied.Reason)
	assert.ErrorIs(t, denied.Err(), shared.ErrForbidden)

	allowed := rs.Authorize(adminPrincipal, "/animes/admin/5", http.MethodDelete)
	assert.True(t, allowed.Allowed)
	assert.NoError(t, allowed.Err())
}

func TestAuthorizeIsDeterministic(t *testing.T) {
	rs := defaultRuleSet(t)
	routes := []string{"/animes", "/animes/1", "/animes/admin/1", "/actuator/health", "/other"}
	for _, p := range []*auth.Principal{nil, userPrincipal, adminPrincipal} {
		for _, route := range routes {
			first := rs.Authorize(p, route, http.MethodGet)
			second := rs.Authorize(p, route, http.MethodGet)
			assert.Equal(t, first, second, "route %s", route)
		}
	}
}

func TestAuthorizeMatrix(t *testing.T) {
	rs := defaultRuleSet(t)
	cases := []struct {
		name      string
		principal *auth.Principal
		route     string
		method    string
		allowed   bool
		reason    DenyReason
	}{
		{"user lists", userPrincipal, "/animes", http.MethodGet, true, 0},
		{"user finds", userPrincipal, "/animes/find", http.MethodGet, true, 0},
		{"user posts", userPrincipal, "/animes", http.MethodPost, true, 0},
		{"anonymous lists", nil, "/animes", http.MethodGet, false, Unauthenticated},
		{"anonymous health", nil, "/actuator/health", http.MethodGet, true, 0},
		{"anonymous healthz", nil, "/healthz", http.MethodGet, true, 0},
		{"anonymous other", nil, "/anything", http.MethodGet, false, Unauthenticated},
		{"user admin root", userPrincipal, "/animes/admin", http.MethodGet, false, Forbidden},
		{"user admin jobs", userPrincipal, "/animes/admin/jobs/health", http.MethodGet, false, Forbidden},
		{"admin jobs", adminPrincipal, "/animes/admin/jobs/health", http.MethodGet, true, 0},
		{"dot segments", userPrincipal, "/animes/x/../admin/1", http.MethodDelete, false, Forbidden},
		{"double slash", userPrincipal, "/animes//admin/1", http.MethodDelete, false, Forbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := rs.Authorize(tc.principal, tc.route, tc.method)
			assert.Equal(t, tc.allowed, d.Allowed)
			assert.Equal(t, tc.reason, d.Reason)
		})
	}
}

func TestAuthorizeWithoutMatchingRuleDenies(t *testing.T) {
	rs, err := NewRuleSet(RouteRule{Pattern: "/animes/*", Methods: []string{"get"}, Role: auth.RoleUser})
	require.NoError(t, err)

	assert.True(t, rs.Authorize(userPrincipal, "/animes/7", http.MethodGet).Allowed)

	d := rs.Authorize(adminPrincipal, "/animes/7", http.MethodPost)
	assert.False(t, d.Allowed)
	assert.False(t, d.Matched)
	assert.ErrorIs(t, d.Err(), shared.ErrForbidden)

	d = rs.Authorize(userPrincipal, "/animes/7/episodes", http.MethodGet)
	assert.False(t, d.Allowed)
}

func TestUnauthenticatedDenialMatchesSentinel(t *testing.T) {
	d := defaultRuleSet(t).Authorize(nil, "/animes/admin/1", http.MethodDelete)

	err := d.Err()
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
	assert.NotErrorIs(t, err, shared.ErrForbidden)
	assert.Contains(t, err.Error(), "requires authentication")
}

func TestNewRuleSetRejectsInvalidRules(t *testing.T) {
	_, err := NewRuleSet(RouteRule{Pattern: "animes", Role: auth.RoleUser})
	assert.Error(t, err)

	_, err = NewRuleSet(RouteRule{Pattern: "/animes", Role: "OWNER"})
	assert.Error(t, err)

	assert.Panics(t, func() { MustRuleSet(RouteRule{Pattern: "x", Role: auth.RoleUser}) })
}

func TestMatchSegments(t *testing.T) {
	assert.True(t, matchSegments(splitPath("/animes/**"), splitPath("/animes")))
	assert.True(t, matchSegments(splitPath("/animes/**"), splitPath("/animes/1/2")))
	assert.True(t, matchSegments(splitPath("/a/**/z"), splitPath("/a/b/c/z")))
	assert.True(t, matchSegments(splitPath("/**"), nil))
	assert.False(t, matchSegments(splitPath("/animes/*"), splitPath("/animes")))
	assert.False(t, matchSegments(splitPath("/healthz"), splitPath("/healthz/deep")))
}

func TestLoginRoutesArePublicForPostOnly(t *testing.T) {
	rs := defaultRuleSet(t)

	assert.True(t, rs.Authorize(nil, "/login", http.MethodPost).Allowed)
	assert.True(t, rs.Authorize(nil, "/logout", http.MethodPost).Allowed)

	d := rs.Authorize(nil, "/login", http.MethodGet)
	assert.False(t, d.Allowed)
	assert.Equal(t, Unauthenticated, d.Reason)
}
