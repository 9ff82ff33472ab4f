// Package capability wraps the Role Store with the operations needed to
// manage a single capability flag across roles.
package capability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Store manages one capability key on the roles of a RoleStore.
type Store struct {
	roles      RoleStore
	capability string
	logger     *slog.Logger

	// replaceMu serialises ReplaceAll within the process. RoleStore.WithTx
	// serialises across processes.
	replaceMu sync.Mutex
}

// NewStore builds a Store for capability.
func NewStore(roles RoleStore, capability string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{roles: roles, capability: capability, logger: logger}
}

// Capability returns the managed capability key.
func (s *Store) Capability() string {
	return s.capability
}

// HasCapability reports whether role holds the managed capability. Unknown
// roles and store failures report false.
func (s *Store) HasCapability(ctx context.Context, role string) bool {
	return s.RoleHas(ctx, role, s.capability)
}

// RoleHas reports whether role holds capability. Store failures report false.
func (s *Store) RoleHas(ctx context.Context, role, capability string) bool {
	if role == "" || capability == "" {
		return false
	}
	ok, err := s.roles.RoleHasCapability(ctx, role, capability)
	if err != nil {
		s.logger.Error("capability lookup", slog.String("role", role), slog.String("capability", capability), slog.Any("error", err))
		return false
	}
	return ok
}

// AnyRoleHas reports whether at least one of roles holds capability. The
// roles are checked in one read. Store failures report false.
func (s *Store) AnyRoleHas(ctx context.Context, roles []string, capability string) bool {
	ids := make([]string, 0, len(roles))
	for _, role := range roles {
		if role != "" {
			ids = append(ids, role)
		}
	}
	if len(ids) == 0 || capability == "" {
		return false
	}
	ok, err := s.roles.AnyRoleHasCapability(ctx, ids, capability)
	if err != nil {
		s.logger.Error("capability lookup", slog.Any("roles", ids), slog.String("capability", capability), slog.Any("error", err))
		return false
	}
	return ok
}

// Grant adds the managed capability to role.
func (s *Store) Grant(ctx context.Context, role string) error {
	if err := s.roles.AddCapability(ctx, role, s.capability); err != nil {
		return fmt.Errorf("capability: grant %s to %s: %w", s.capability, role, err)
	}
	return nil
}

// Revoke removes the managed capability from role.
func (s *Store) Revoke(ctx context.Context, role string) error {
	if err := s.roles.RemoveCapability(ctx, role, s.capability); err != nil {
		return fmt.Errorf("capability: revoke %s from %s: %w", s.capability, role, err)
	}
	return nil
}

// AllRoles lists every role in Role Store order with its current flag. The
// whole mapping comes from one read, so it is never a mix of two saves.
func (s *Store) AllRoles(ctx context.Context) ([]RoleCapability, error) {
	rows, err := s.roles.RoleCapabilities(ctx, s.capability)
	if err != nil {
		return nil, fmt.Errorf("capability: list roles: %w", err)
	}
	return rows, nil
}

// ReplaceAll makes submitted the exact set of roles holding the managed
// capability. Every known role outside submitted is revoked; identifiers that
// match no role are ignored. Concurrent calls are serialised.
func (s *Store) ReplaceAll(ctx context.Context, submitted []string) (Change, error) {
	want := make(map[string]struct{}, len(submitted))
	for _, id := range submitted {
		want[id] = struct{}{}
	}

	s.replaceMu.Lock()
	defer s.replaceMu.Unlock()

	var change Change
	known := make(map[string]struct{})
	err := s.roles.WithTx(ctx, func(ctx context.Context, tx TxRoleStore) error {
		change = Change{}
		roles, err := tx.ListRoles(ctx)
		if err != nil {
			return err
		}
		for _, role := range roles {
			known[role.ID] = struct{}{}
			if _, ok := want[role.ID]; ok {
				if err := tx.AddCapability(ctx, role.ID, s.capability); err != nil {
					return fmt.Errorf("grant %s: %w", role.ID, err)
				}
				change.Holders = append(change.Holders, role.ID)
				continue
			}
			if err := tx.RemoveCapability(ctx, role.ID, s.capability); err != nil {
				return fmt.Errorf("revoke %s: %w", role.ID, err)
			}
			change.Revoked = append(change.Revoked, role.ID)
		}
		return nil
	})
	if err != nil {
		return Change{}, fmt.Errorf("capability: replace %s: %w", s.capability, err)
	}

	seen := make(map[string]struct{}, len(submitted))
	for _, id := range submitted {
		if _, ok := known[id]; ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		change.Ignored = append(change.Ignored, id)
	}
	return change, nil
}
