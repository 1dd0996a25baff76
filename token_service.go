package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	tokenTTL   int
	issuer     string
	logger     Logger
}

// NewTokenService creates a new TokenService instance. tokenTTL is the token
// time to live in seconds.
func NewTokenService(signingKey []byte, tokenTTL int, issuer string, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &TokenServiceImpl{
		signingKey: signingKey,
		tokenTTL:   tokenTTL,
		issuer:     issuer,
		logger:     logger,
	}
}

// Generate creates a signed JWT asserting the given user id. The returned
// time is the expiry instant embedded in the token.
func (ts *TokenServiceImpl) Generate(userID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(ts.tokenTTL) * time.Second)

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UID: userID,
	}

	signed, err := ts.SignClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured claims.
// The raw string may carry a "Bearer " prefix and surrounding whitespace.
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(CleanToken(tokenString), &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrTokenMalformed
}

// CleanToken strips an optional bearer scheme prefix and surrounding
// whitespace from a raw token string.
func CleanToken(raw string) string {
	cleaned := strings.TrimSpace(raw)
	scheme := strings.TrimSpace(TokenPrefix)
	if strings.EqualFold(cleaned, scheme) {
		return ""
	}
	if len(cleaned) >= len(TokenPrefix) && strings.EqualFold(cleaned[:len(TokenPrefix)], TokenPrefix) {
		cleaned = cleaned[len(TokenPrefix):]
	}
	return strings.TrimSpace(cleaned)
}
