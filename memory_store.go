package auth

import (
	"context"
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// MemoryUserStore is an in-process UserStore used by tests and as the
// zero-dependency development backend. Uniqueness is enforced under a single
// lock, so save is atomic with respect to the duplicate checks.
type MemoryUserStore struct {
	mu    sync.RWMutex
	byID  map[string]*User
	email map[string]string
	uname map[string]string
}

var _ UserStore = (*MemoryUserStore)(nil)

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:  map[string]*User{},
		email: map[string]string{},
		uname: map[string]string{},
	}
}

func (m *MemoryUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

func (m *MemoryUserStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.uname[username]
	return ok, nil
}

func (m *MemoryUserStore) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.email[email]
	if !ok {
		return nil, notFound("email", email)
	}

	return cloneUser(m.byID[id]), nil
}

func (m *MemoryUserStore) FindByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.byID[id]
	if !ok {
		return nil, notFound("id", id)
	}

	return cloneUser(user), nil
}

func (m *MemoryUserStore) Save(_ context.Context, user *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.email[user.Email]; taken {
		return nil, ErrDuplicateEmail
	}

	if _, taken := m.uname[user.Username]; taken {
		return nil, ErrDuplicateUsername
	}

	record := cloneUser(user)
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	id := record.ID.String()
	m.byID[id] = record
	m.email[record.Email] = id
	m.uname[record.Username] = id

	return cloneUser(record), nil
}

// Deactivate flips the IsActive flag, standing in for an admin-side
// deactivation path the auth core itself does not expose.
func (m *MemoryUserStore) Deactivate(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byID[id]
	if !ok {
		return false
	}

	user.IsActive = false
	return true
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func notFound(field, value string) error {
	return errors.New("user not found", errors.CategoryNotFound).
		WithCode(errors.CodeNotFound).
		WithMetadata(map[string]any{field: value})
}
