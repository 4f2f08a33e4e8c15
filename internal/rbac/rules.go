package rbac

import (
	"fmt"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/animedojo/anime-api/internal/auth"
)

// DefaultRules is the route table of the anime API. Administrative sub-routes
// are listed alongside the broader resource pattern; NewRuleSet orders them.
func DefaultRules() []RouteRule {
	return []RouteRule{
		{Pattern: "/animes/**", Role: auth.RoleUser},
		{Pattern: "/animes/admin/**", Role: auth.RoleAdmin},
		{Pattern: "/actuator/**", Role: RolePublic},
		{Pattern: "/healthz", Role: RolePublic},
		{Pattern: "/login", Methods: []string{"POST"}, Role: RolePublic},
		{Pattern: "/logout", Methods: []string{"POST"}, Role: RolePublic},
		{Pattern: "/**", Role: auth.RoleUser},
	}
}

type compiledRule struct {
	RouteRule
	segments []string
	prefix   int
}

// RuleSet evaluates route rules most specific first. It is immutable after
// construction and safe for concurrent use.
type RuleSet struct {
	rules []compiledRule
}

// NewRuleSet validates rules and orders them by literal-prefix length,
// longest first. Rules with equal prefixes keep their declaration order.
func NewRuleSet(rules ...RouteRule) (*RuleSet, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		if !strings.HasPrefix(rule.Pattern, "/") {
			return nil, fmt.Errorf("rbac: pattern %q must start with /", rule.Pattern)
		}
		switch rule.Role {
		case auth.RoleUser, auth.RoleAdmin, RolePublic:
		default:
			return nil, fmt.Errorf("rbac: pattern %q has unknown role %q", rule.Pattern, rule.Role)
		}
		methods := make([]string, 0, len(rule.Methods))
		for _, m := range rule.Methods {
			methods = append(methods, strings.ToUpper(strings.TrimSpace(m)))
		}
		rule.Methods = methods
		compiled = append(compiled, compiledRule{
			RouteRule: rule,
			segments:  splitPath(rule.Pattern),
			prefix:    literalPrefix(rule.Pattern),
		})
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].prefix > compiled[j].prefix
	})
	return &RuleSet{rules: compiled}, nil
}

// MustRuleSet is NewRuleSet for static tables; it panics on invalid rules.
func MustRuleSet(rules ...RouteRule) *RuleSet {
	rs, err := NewRuleSet(rules...)
	if err != nil {
		panic(err)
	}
	return rs
}

// Rules returns the rules in evaluation order.
func (s *RuleSet) Rules() []RouteRule {
	out := make([]RouteRule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r.RouteRule)
	}
	return out
}

// Match returns the first rule that applies to route and method.
func (s *RuleSet) Match(route, method string) (RouteRule, bool) {
	segments := splitPath(cleanRoute(route))
	method = strings.ToUpper(method)
	for _, r := range s.rules {
		if len(r.Methods) > 0 && !slices.Contains(r.Methods, method) {
			continue
		}
		if matchSegments(r.segments, segments) {
			return r.RouteRule, true
		}
	}
	return RouteRule{}, false
}

// Authorize decides whether principal may call method on route. A nil
// principal is anonymous. The decision depends only on the principal's roles
// and the rule table.
func (s *RuleSet) Authorize(principal *auth.Principal, route, method string) Decision {
	d := Decision{Route: route, Method: method}
	if principal != nil {
		d.Username = principal.Username
	}
	rule, ok := s.Match(route, method)
	if !ok {
		d.Reason = Forbidden
		return d
	}
	d.Rule = rule
	d.Matched = true
	switch {
	case rule.Role == RolePublic:
		d.Allowed = true
	case principal == nil:
		d.Reason = Unauthenticated
	case principal.HasRole(rule.Role):
		d.Allowed = true
	default:
		d.Reason = Forbidden
	}
	return d
}

func cleanRoute(route string) string {
	if route == "" {
		return "/"
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return path.Clean(route)
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func literalPrefix(pattern string) int {
	if i := strings.IndexByte(pattern, '*'); i >= 0 {
		return i
	}
	return len(pattern)
}

func matchSegments(pattern, route []string) bool {
	for len(pattern) > 0 {
		head := pattern[0]
		if head == "**" {
			rest := pattern[1:]
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(route); i++ {
				if matchSegments(rest, route[i:]) {
					return true
				}
			}
			return false
		}
		if len(route) == 0 {
			return false
		}
		if head != "*" && head != route[0] {
			return false
		}
		pattern, route = pattern[1:], route[1:]
	}
	return len(route) == 0
}
