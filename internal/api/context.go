package api

import "context"

type Role string

const (
	RoleAdmin          Role = "admin"
	RoleServiceAdvisor Role = "service_advisor"
	RoleTechnician     Role = "technician"
	RoleCustomer       Role = "customer"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleServiceAdvisor, RoleTechnician, RoleCustomer:
		return Role(s), true
	default:
		return "", false
	}
}

// Principal is the authenticated actor executing a request. Role is
// resolved server-side at login and carried in the signed session
// token; it is never inferred from the client.
type Principal struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	Name   string `json:"name,omitempty"`
}

// IsStaff reports whether the principal may act on any booking
// (advisors and admins; customers are scoped to their own records).
func (p *Principal) IsStaff() bool {
	return p.Role == RoleAdmin || p.Role == RoleServiceAdvisor
}

type ctxKey string

const ctxKeyPrincipal ctxKey = "principal"

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

func PrincipalFromContext(ctx context.Context) *Principal {
	v := ctx.Value(ctxKeyPrincipal)
	if v == nil {
		return nil
	}
	p, _ := v.(*Principal)
	return p
}
