package principal

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository reads user_roles from PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// RolesForUser lists the role identifiers assigned to userID.
func (r *PGRepository) RolesForUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT role_id FROM user_roles WHERE user_id = $1 ORDER BY role_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("principal: roles for %d: %w", userID, err)
	}
	defer rows.Close()
	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("principal: scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// MemoryRepository keeps role assignments in memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[int64][]string
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[int64][]string)}
}

// Assign replaces the roles of userID.
func (m *MemoryRepository) Assign(userID int64, roles ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = append([]string(nil), roles...)
}

// RolesForUser implements Repository.
func (m *MemoryRepository) RolesForUser(ctx context.Context, userID int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.users[userID]...), nil
}

var (
	_ Repository = (*PGRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)
