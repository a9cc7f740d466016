package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// PrincipalResolver turns a bearer credential into a Principal. The
// identity service implements this: it verifies the token signature and
// checks the session row is still live, so possession of a cookie or a
// stale token never counts as "role validated".
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (*Principal, error)
}

// SessionAuth resolves the request principal from `Authorization: Bearer`.
//
// Contract:
// - Missing or malformed header -> 401 UNAUTHENTICATED.
// - Resolver failure from a collaborator outage -> 503 UPSTREAM_UNAVAILABLE.
// - Any other resolver failure -> 401 UNAUTHENTICATED.
// - On success the principal is attached to the request context.
func SessionAuth(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				WriteError(w, http.StatusUnauthorized, CodeUnauthenticated, "missing bearer token")
				return
			}
			token := strings.TrimSpace(authz[7:])

			p, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				var ue *UpstreamError
				if errors.As(err, &ue) {
					WriteError(w, http.StatusServiceUnavailable, CodeUpstreamUnavailable, "identity store unavailable")
					return
				}
				WriteError(w, http.StatusUnauthorized, CodeUnauthenticated, "invalid session token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RouteRule maps a URL path prefix to the roles allowed through.
type RouteRule struct {
	Prefix string
	Roles  []Role
}

// DefaultRouteRules is the declarative route->required-roles table.
// Finer-grained policy (ownership, assignment, per-operation writes)
// lives in the handlers; this gate only answers "may this role touch
// this surface at all".
var DefaultRouteRules = []RouteRule{
	{Prefix: "/api/bookings", Roles: []Role{RoleAdmin, RoleServiceAdvisor, RoleCustomer}},
	{Prefix: "/api/jobs", Roles: []Role{RoleAdmin, RoleServiceAdvisor, RoleTechnician}},
	{Prefix: "/api/estimates", Roles: []Role{RoleAdmin, RoleServiceAdvisor, RoleCustomer}},
	{Prefix: "/api/checklists", Roles: []Role{RoleAdmin, RoleServiceAdvisor, RoleTechnician}},
	{Prefix: "/api/service-records", Roles: []Role{RoleAdmin, RoleServiceAdvisor, RoleTechnician, RoleCustomer}},
}

// RoleGate enforces the rule table against the resolved principal.
// Paths with no matching rule only require authentication.
func RoleGate(rules []RouteRule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				WriteError(w, http.StatusUnauthorized, CodeUnauthenticated, "missing principal")
				return
			}

			rule, ok := matchRule(rules, r.URL.Path)
			if ok && !roleAllowed(rule.Roles, p.Role) {
				WriteError(w, http.StatusForbidden, CodeForbidden, "role not permitted for this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// matchRule picks the longest matching prefix so nested surfaces can
// override broader ones.
func matchRule(rules []RouteRule, path string) (RouteRule, bool) {
	best := -1
	var out RouteRule
	for _, rule := range rules {
		if strings.HasPrefix(path, rule.Prefix) && len(rule.Prefix) > best {
			best = len(rule.Prefix)
			out = rule
		}
	}
	return out, best >= 0
}

func roleAllowed(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
