package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeDuplicateEmail    = "auth_duplicate_email"
	TextCodeDuplicateUsername = "auth_duplicate_username"
	TextCodeInvalidCreds      = "auth_invalid_credentials"
	TextCodeAccountInactive   = "auth_account_inactive"
	TextCodeInvalidToken      = "auth_invalid_token"
	TextCodeTokenExpired      = "auth_token_expired"
	TextCodeTokenMalformed    = "auth_token_malformed"
	TextCodeEmptyPassword     = "auth_empty_password"
	TextCodeWeakSecret        = "auth_weak_signing_secret"
)

// ErrDuplicateEmail is returned when a registration email is already taken.
var ErrDuplicateEmail = errors.New("email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(errors.CodeConflict)

// ErrDuplicateUsername is returned when a registration username is already taken.
var ErrDuplicateUsername = errors.New("username already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateUsername).
	WithCode(errors.CodeConflict)

// ErrUserNotFound is returned when no user matches the login email. The
// message is the same as ErrInvalidPassword so callers cannot tell which
// check rejected the attempt.
var ErrUserNotFound = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidPassword is returned when the password does not match the stored
// hash. Same caller-facing message as ErrUserNotFound.
var ErrInvalidPassword = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrAccountInactive is returned when credentials check out but the account
// has been deactivated. This one keeps a distinct message.
var ErrAccountInactive = errors.New("account inactive", errors.CategoryAuth).
	WithTextCode(TextCodeAccountInactive).
	WithCode(errors.CodeForbidden)

// ErrInvalidToken is returned by identity extraction when a token fails
// signature or expiry checks.
var ErrInvalidToken = errors.New("token is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a token is past its expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token cannot be parsed or its
// signature does not verify.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString is returned when an empty password reaches the hasher.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrWeakSigningSecret is returned by the startup check when the signing
// secret is blank or still the development default.
var ErrWeakSigningSecret = errors.New("signing secret not configured", errors.CategoryInternal).
	WithTextCode(TextCodeWeakSecret)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
