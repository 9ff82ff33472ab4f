// Package principal resolves the acting user and the roles it holds.
package principal

import (
	"context"
	"errors"
)

// ErrAnonymous indicates a request with no authenticated user.
var ErrAnonymous = errors.New("principal: anonymous")

// Principal is the authenticated actor of a request.
type Principal struct {
	UserID int64
	Roles  []string
}

// Repository loads role assignments.
type Repository interface {
	RolesForUser(ctx context.Context, userID int64) ([]string, error)
}

type ctxKey struct{}

// WithPrincipal stores p on ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal attached to ctx, or nil.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(ctxKey{}).(*Principal)
	return p
}
