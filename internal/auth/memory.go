package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ktoodev/onesignal-push-permissions/internal/shared"
)

// MemoryRepository keeps accounts in memory for ROLE_STORE=memory runs.
// Login sessions are not recorded.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]User)}
}

// Add stores user keyed by its email.
func (m *MemoryRepository) Add(user User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[strings.ToLower(user.Email)] = user
}

// FindByEmail implements Repository.
func (m *MemoryRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &user, nil
}

// CreateSession implements Repository.
func (m *MemoryRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

// DeleteSession implements Repository.
func (m *MemoryRepository) DeleteSession(ctx context.Context, id string) error {
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
