package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

const (
	// TokenValidMessage is the caller-facing message for a valid token.
	TokenValidMessage = "Token is valid"
	// TokenInvalidMessage is the caller-facing message for any failed
	// validation, regardless of the failure subtype.
	TokenInvalidMessage = "Token is invalid"
)

// Auther orchestrates registration, login, token validation, and identity
// extraction. It holds only immutable configuration and collaborator handles;
// all cross-request state lives in the UserStore.
type Auther struct {
	store        UserStore
	tokenService TokenService
	validator    TokenValidator
	activitySink ActivitySink
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(store UserStore, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenTTL(),
		opts.GetIssuer(),
		defLogger{},
	)

	return &Auther{
		store:        store,
		tokenService: tokenService,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithTokenService overrides the token service built from config.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.validator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Register creates a new active user and issues a token for it. The email
// uniqueness check runs before the username check, so when both collide the
// caller sees ErrDuplicateEmail.
func (s *Auther) Register(ctx context.Context, email, username, password string) (*AuthResult, error) {
	payload := RegisterRequest{Email: email, Username: username, Password: password}
	if err := payload.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid registration payload").
			WithCode(errors.CodeBadRequest)
	}

	if taken, err := s.store.ExistsByEmail(ctx, email); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check email availability")
	} else if taken {
		s.logger.Warn("Registration rejected, email taken", "email", email)
		s.emitAuthEvent(ctx, ActivityEventRegisterFailure, "", map[string]any{
			"email": email,
			"error": ErrDuplicateEmail.Message,
		})
		return nil, ErrDuplicateEmail
	}

	if taken, err := s.store.ExistsByUsername(ctx, username); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check username availability")
	} else if taken {
		s.logger.Warn("Registration rejected, username taken", "username", username)
		s.emitAuthEvent(ctx, ActivityEventRegisterFailure, "", map[string]any{
			"username": username,
			"error":    ErrDuplicateUsername.Message,
		})
		return nil, ErrDuplicateUsername
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	user, err := s.store.Save(ctx, NewUser(email, username, hash))
	if err != nil {
		// The store remaps unique index violations to the duplicate errors,
		// covering the window between the checks above and the save.
		s.emitAuthEvent(ctx, ActivityEventRegisterFailure, "", map[string]any{
			"email": email,
			"error": err.Error(),
		})
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist user")
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered", "user_id", result.UserID)
	s.emitAuthEvent(ctx, ActivityEventRegisterSuccess, result.UserID, map[string]any{
		"email":    user.Email,
		"username": user.Username,
	})

	return result, nil
}

// Login verifies credentials and issues a token. Checks run in a fixed
// order: existence, password, active flag.
func (s *Auther) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.Warn("Login failed, user not found", "email", email)
			s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", map[string]any{
				"email": email,
				"error": ErrUserNotFound.TextCode,
			})
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during login")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Warn("Login failed, password mismatch", "user_id", user.ID.String())
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, user.ID.String(), map[string]any{
			"email": email,
			"error": ErrInvalidPassword.TextCode,
		})
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to compare password hash")
	}

	if !user.IsActive {
		s.logger.Warn("Login blocked, account inactive", "user_id", user.ID.String())
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, user.ID.String(), map[string]any{
			"email": email,
			"error": ErrAccountInactive.TextCode,
		})
		return nil, ErrAccountInactive
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", "user_id", result.UserID)
	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, result.UserID, map[string]any{
		"email": email,
	})

	return result, nil
}

// ValidateToken checks signature and expiry for an arbitrary token string.
// It is total: malformed input, bad signatures, and expired tokens all
// collapse into Valid=false without surfacing why.
func (s *Auther) ValidateToken(tokenString string) TokenStatus {
	if _, err := s.tokenValidator().Validate(tokenString); err != nil {
		s.logger.Debug("Token validation failed", "error", err)
		return TokenStatus{Valid: false, Message: TokenInvalidMessage}
	}

	return TokenStatus{Valid: true, Message: TokenValidMessage}
}

// IdentityFromToken returns the user id a valid token asserts. Any
// validation failure comes back as ErrInvalidToken, never the underlying
// parse or signature error.
func (s *Auther) IdentityFromToken(tokenString string) (string, error) {
	claims, err := s.tokenValidator().Validate(tokenString)
	if err != nil {
		s.logger.Debug("Identity extraction failed", "error", err)
		return "", ErrInvalidToken
	}

	return claims.UserID(), nil
}

func (s *Auther) issue(user *User) (*AuthResult, error) {
	token, expiresAt, err := s.tokenService.Generate(user.ID.String())
	if err != nil {
		s.logger.Error("Token generation failed", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue token")
	}

	return &AuthResult{
		Token:     token,
		UserID:    user.ID.String(),
		Email:     user.Email,
		Username:  user.Username,
		ExpiresAt: expiresAt.UnixMilli(),
	}, nil
}

func (s *Auther) tokenValidator() TokenValidator {
	if s.validator != nil {
		return s.validator
	}
	return s.tokenService
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

var _ Authenticator = (*Auther)(nil)
