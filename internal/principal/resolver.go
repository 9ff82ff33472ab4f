package principal

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ktoodev/onesignal-push-permissions/internal/shared"
)

// Resolver builds principals from user identifiers.
type Resolver struct {
	repo Repository
}

// NewResolver constructs a Resolver.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve loads the roles of userID. Roles are read on every call so
// assignment changes apply to the next request.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (*Principal, error) {
	if userID <= 0 {
		return nil, ErrAnonymous
	}
	roles, err := r.repo.RolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Principal{UserID: userID, Roles: roles}, nil
}

// FromSession resolves the user stored on sess.
func (r *Resolver) FromSession(ctx context.Context, sess *shared.Session) (*Principal, error) {
	if sess == nil {
		return nil, ErrAnonymous
	}
	id, err := ParseUserID(sess.User())
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, id)
}

// ParseUserID parses a decimal user identifier. Empty input is anonymous.
func ParseUserID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrAnonymous
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("principal: invalid user id %q: %w", raw, ErrAnonymous)
	}
	return id, nil
}
