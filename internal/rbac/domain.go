package rbac

import (
	"fmt"

	"github.com/animedojo/anime-api/internal/auth"
	"github.com/animedojo/anime-api/internal/shared"
)

// RolePublic marks routes served without authentication.
const RolePublic auth.Role = "PUBLIC"

// RouteRule maps a path pattern to the minimum role required to call it.
// Methods restricts the rule to the listed HTTP verbs; empty means any.
type RouteRule struct {
	Pattern string
	Methods []string
	Role    auth.Role
}

// DenyReason explains why a request was refused.
type DenyReason int

const (
	// Unauthenticated means a protected route was called without a principal.
	Unauthenticated DenyReason = iota + 1
	// Forbidden means the principal lacks the required role.
	Forbidden
)

func (r DenyReason) String() string {
	switch r {
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "allowed"
	}
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed  bool
	Reason   DenyReason
	Rule     RouteRule
	Matched  bool
	Route    string
	Method   string
	Username string
}

// Err returns nil for an allowed decision and a *Denial otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &Denial{Reason: d.Reason, Route: d.Route, Method: d.Method, Required: d.Rule.Role, Username: d.Username}
}

// Denial is the error form of a refused Decision.
type Denial struct {
	Reason   DenyReason
	Route    string
	Method   string
	Required auth.Role
	Username string
}

func (d *Denial) Error() string {
	if d.Reason == Unauthenticated {
		return fmt.Sprintf("%s %s requires authentication", d.Method, d.Route)
	}
	if d.Required == "" {
		return fmt.Sprintf("%s %s is not permitted", d.Method, d.Route)
	}
	return fmt.Sprintf("%s %s requires role %s", d.Method, d.Route, d.Required)
}

// Is maps the denial onto the shared sentinels.
func (d *Denial) Is(target error) bool {
	switch d.Reason {
	case Unauthenticated:
		return target == shared.ErrUnauthenticated
	case Forbidden:
		return target == shared.ErrForbidden
	}
	return false
}
