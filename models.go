package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the identity record. It is created once at registration and never
// mutated by the auth core; deactivation happens through the IsActive flag,
// records are never removed.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	IsActive      bool       `bun:"is_active,notnull" json:"is_active"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NewUser builds an active user record with both timestamps set to now.
// The ID is left zero so the store assigns it on save.
func NewUser(email, username, passwordHash string) *User {
	now := time.Now()
	return &User{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    &now,
		UpdatedAt:    &now,
	}
}

// Saved reports whether the record has been assigned an id by the store.
func (u *User) Saved() bool {
	return u != nil && u.ID != uuid.Nil
}
