package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// AuthResult is what callers get back from a successful registration or
// login: the freshly minted token plus the identity it asserts.
type AuthResult struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	ExpiresAt int64  `json:"expires_at"`
}

// TokenStatus is the result of token validation. Validation is total: any
// failure collapses into Valid=false, it never surfaces as an error.
type TokenStatus struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Register(ctx context.Context, email, username, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	ValidateToken(tokenString string) TokenStatus
	IdentityFromToken(tokenString string) (string, error)
}

// UserStore ensures we have a store to persist and retrieve users. The store
// owns the authoritative uniqueness guarantees for email and username.
type UserStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Save(ctx context.Context, user *User) (*User, error)
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Username() string
	Email() string
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// TokenService issues and validates signed tokens.
type TokenService interface {
	Generate(userID string) (string, time.Time, error)
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidator validates tokens and extracts claims without tying callers
// to a specific signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetTokenTTL() int
	GetIssuer() string
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
