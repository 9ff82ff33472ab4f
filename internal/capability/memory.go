package capability

import (
	"context"
	"sync"
)

// MemoryRoleStore is an in-process RoleStore. It backs tests and the
// ROLE_STORE=memory development mode.
type MemoryRoleStore struct {
	mu    sync.RWMutex
	order []string
	roles map[string]*memoryRole
}

type memoryRole struct {
	name string
	caps map[string]struct{}
}

// NewMemoryRoleStore returns a store holding roles in the given order.
func NewMemoryRoleStore(roles ...Role) *MemoryRoleStore {
	m := &MemoryRoleStore{roles: make(map[string]*memoryRole)}
	for _, role := range roles {
		m.AddRole(role)
	}
	return m
}

// AddRole registers role with the given capabilities. Re-adding an existing
// role keeps its position and replaces its name and capabilities.
func (m *MemoryRoleStore) AddRole(role Role, capabilities ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	caps := make(map[string]struct{}, len(capabilities))
	for _, c := range capabilities {
		caps[c] = struct{}{}
	}
	if _, ok := m.roles[role.ID]; !ok {
		m.order = append(m.order, role.ID)
	}
	m.roles[role.ID] = &memoryRole{name: role.Name, caps: caps}
}

// RemoveRole deletes a role.
func (m *MemoryRoleStore) RemoveRole(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[id]; !ok {
		return
	}
	delete(m.roles, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// ListRoles implements RoleReader.
func (m *MemoryRoleStore) ListRoles(ctx context.Context) ([]Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return memoryView{m}.ListRoles(ctx)
}

// RoleHasCapability implements RoleReader.
func (m *MemoryRoleStore) RoleHasCapability(ctx context.Context, roleID, capability string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return memoryView{m}.RoleHasCapability(ctx, roleID, capability)
}

// RoleCapabilities implements RoleReader.
func (m *MemoryRoleStore) RoleCapabilities(ctx context.Context, capability string) ([]RoleCapability, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return memoryView{m}.RoleCapabilities(ctx, capability)
}

// AnyRoleHasCapability implements RoleReader.
func (m *MemoryRoleStore) AnyRoleHasCapability(ctx context.Context, roleIDs []string, capability string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return memoryView{m}.AnyRoleHasCapability(ctx, roleIDs, capability)
}

// AddCapability implements RoleWriter.
func (m *MemoryRoleStore) AddCapability(ctx context.Context, roleID, capability string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memoryView{m}.AddCapability(ctx, roleID, capability)
}

// RemoveCapability implements RoleWriter.
func (m *MemoryRoleStore) RemoveCapability(ctx context.Context, roleID, capability string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memoryView{m}.RemoveCapability(ctx, roleID, capability)
}

// WithTx holds the write lock for the duration of fn and restores the prior
// capability sets when fn fails.
func (m *MemoryRoleStore) WithTx(ctx context.Context, fn func(context.Context, TxRoleStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string]map[string]struct{}, len(m.roles))
	for id, role := range m.roles {
		caps := make(map[string]struct{}, len(role.caps))
		for c := range role.caps {
			caps[c] = struct{}{}
		}
		snapshot[id] = caps
	}
	if err := fn(ctx, memoryView{m}); err != nil {
		for id, caps := range snapshot {
			m.roles[id].caps = caps
		}
		return err
	}
	return nil
}

// memoryView operates on the store without locking; callers hold m.mu.
type memoryView struct {
	m *MemoryRoleStore
}

func (v memoryView) ListRoles(ctx context.Context) ([]Role, error) {
	roles := make([]Role, 0, len(v.m.order))
	for _, id := range v.m.order {
		roles = append(roles, Role{ID: id, Name: v.m.roles[id].name})
	}
	return roles, nil
}

func (v memoryView) RoleHasCapability(ctx context.Context, roleID, capability string) (bool, error) {
	role, ok := v.m.roles[roleID]
	if !ok {
		return false, nil
	}
	_, has := role.caps[capability]
	return has, nil
}

func (v memoryView) RoleCapabilities(ctx context.Context, capability string) ([]RoleCapability, error) {
	out := make([]RoleCapability, 0, len(v.m.order))
	for _, id := range v.m.order {
		role := v.m.roles[id]
		_, has := role.caps[capability]
		out = append(out, RoleCapability{ID: id, Name: role.name, HasCapability: has})
	}
	return out, nil
}

func (v memoryView) AnyRoleHasCapability(ctx context.Context, roleIDs []string, capability string) (bool, error) {
	for _, id := range roleIDs {
		if has, _ := v.RoleHasCapability(ctx, id, capability); has {
			return true, nil
		}
	}
	return false, nil
}

func (v memoryView) AddCapability(ctx context.Context, roleID, capability string) error {
	role, ok := v.m.roles[roleID]
	if !ok {
		return ErrUnknownRole
	}
	role.caps[capability] = struct{}{}
	return nil
}

func (v memoryView) RemoveCapability(ctx context.Context, roleID, capability string) error {
	if role, ok := v.m.roles[roleID]; ok {
		delete(role.caps, capability)
	}
	return nil
}

var _ RoleStore = (*MemoryRoleStore)(nil)
