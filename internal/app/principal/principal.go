package principal

import (
	"context"
	"strings"
)

type Role string

const (
	RoleGuest  Role = "guest"
	RoleHost   Role = "host"
	RoleSystem Role = "system"
)

// Principal is the caller identity resolved by the gateway.
type Principal struct {
	UserID string
	Role   Role
}

func ParseRole(raw string) Role {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleHost:
		return RoleHost
	case RoleSystem:
		return RoleSystem
	default:
		return RoleGuest
	}
}

func (p Principal) Anonymous() bool {
	return strings.TrimSpace(p.UserID) == ""
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok && !p.Anonymous()
}
