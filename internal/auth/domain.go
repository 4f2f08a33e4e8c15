package auth

import (
	"slices"
	"strings"
)

// Role is a coarse permission label granted to a principal.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

const authorityPrefix = "ROLE_"

// Principal is an account identity plus its granted roles.
type Principal struct {
	Username     string
	PasswordHash string
	Roles        []Role
}

// HasRole reports whether the principal was granted role.
func (p *Principal) HasRole(role Role) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Roles, role)
}

// Public returns a copy without the password hash, safe to keep in a request context.
func (p *Principal) Public() *Principal {
	if p == nil {
		return nil
	}
	return &Principal{Username: p.Username, Roles: slices.Clone(p.Roles)}
}

// ParseAuthorities converts a comma separated authority list such as
// "ROLE_ADMIN,ROLE_USER" into roles. Blank entries and duplicates are dropped.
func ParseAuthorities(raw string) []Role {
	var roles []Role
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToUpper(strings.TrimSpace(part))
		name = strings.TrimPrefix(name, authorityPrefix)
		if name == "" {
			continue
		}
		role := Role(name)
		if !slices.Contains(roles, role) {
			roles = append(roles, role)
		}
	}
	return roles
}

// FormatAuthorities is the inverse of ParseAuthorities.
func FormatAuthorities(roles []Role) string {
	parts := make([]string, 0, len(roles))
	for _, role := range roles {
		parts = append(parts, authorityPrefix+string(role))
	}
	return strings.Join(parts, ",")
}
