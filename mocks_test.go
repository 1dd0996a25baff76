package auth_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	auth "github.com/tarifit/go-auth-service"
)

// MockUserStore implements auth.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUserStore) FindByID(ctx context.Context, id string) (*auth.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUserStore) Save(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	saved, _ := args.Get(0).(*auth.User)
	return saved, args.Error(1)
}

// MockLogger implements auth.Logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// testConfig implements auth.Config with short bcrypt-friendly defaults
type testConfig struct {
	signingKey string
	tokenTTL   int
	issuer     string
}

func (c testConfig) GetSigningKey() string {
	if c.signingKey == "" {
		return "test-signing-key"
	}
	return c.signingKey
}

func (c testConfig) GetTokenTTL() int {
	if c.tokenTTL == 0 {
		return 3600
	}
	return c.tokenTTL
}

func (c testConfig) GetIssuer() string      { return c.issuer }
func (c testConfig) GetContextKey() string  { return auth.DefaultContextKey }
func (c testConfig) GetTokenLookup() string { return "header:" + auth.HeaderString }
func (c testConfig) GetAuthScheme() string  { return "Bearer" }

// recordingSink collects activity events for assertions
type recordingSink struct {
	events []auth.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []auth.ActivityEventType {
	out := make([]auth.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}
