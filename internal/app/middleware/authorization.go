package middleware

import (
	"context"
	"errors"
	"slices"

	"rentnow/internal/app/commands"
	"rentnow/internal/app/principal"
	"rentnow/internal/app/queries"
)

var (
	ErrUnauthenticated = errors.New("middleware: principal required")
	ErrForbidden       = errors.New("middleware: role not allowed")
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// RoleRestricted is implemented by messages limited to certain roles.
type RoleRestricted interface {
	AllowedRoles() []principal.Role
}

// RoleAuthorizer checks the context principal against RoleRestricted messages.
// System principals pass every check.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(ctx context.Context, message any) error {
	restricted, ok := message.(RoleRestricted)
	if !ok {
		return nil
	}
	p, ok := principal.FromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if p.Role == principal.RoleSystem || slices.Contains(restricted.AllowedRoles(), p.Role) {
		return nil
	}
	return ErrForbidden
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
