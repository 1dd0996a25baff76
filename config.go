package auth

import (
	"os"
	"strconv"
)

const (
	// DefaultTokenTTL is the token time to live in seconds (24 hours).
	DefaultTokenTTL = 86400
	// TokenPrefix is the bearer scheme prefix carried by Authorization headers.
	TokenPrefix = "Bearer "
	// HeaderString is the header tokens are presented in.
	HeaderString = "Authorization"
	// DefaultContextKey is where the middleware stores validated claims.
	DefaultContextKey = "user"
	// DefaultSigningSecret ships for development only. The startup check
	// refuses to run production with it.
	DefaultSigningSecret = "tarifit-default-secret-key-for-development-only"
)

// ServiceConfig is the concrete Config used by the service binary. It is
// built once at process start and never mutated.
type ServiceConfig struct {
	ListenAddr  string
	DSN         string
	SigningKey  string
	TokenTTL    int
	Issuer      string
	ContextKey  string
	TokenLookup string
	AuthScheme  string
	Environment string
	Debug       bool
}

var _ Config = (*ServiceConfig)(nil)

// NewConfigFromEnv builds a ServiceConfig from development defaults overlaid
// with AUTH_* environment variables.
func NewConfigFromEnv() *ServiceConfig {
	cfg := &ServiceConfig{
		ListenAddr:  ":8080",
		DSN:         "file:auth.db?cache=shared",
		SigningKey:  DefaultSigningSecret,
		TokenTTL:    DefaultTokenTTL,
		Issuer:      "tarifit-auth",
		ContextKey:  DefaultContextKey,
		TokenLookup: "header:" + HeaderString,
		AuthScheme:  "Bearer",
		Environment: "development",
	}

	if v := os.Getenv("AUTH_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("AUTH_DSN"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv("AUTH_JWT_SECRET"); v != "" {
		cfg.SigningKey = v
	}
	if v := os.Getenv("AUTH_JWT_TTL"); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil && ttl > 0 {
			cfg.TokenTTL = ttl
		}
	}
	if v := os.Getenv("AUTH_JWT_ISSUER"); v != "" {
		cfg.Issuer = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("AUTH_DEBUG"); v != "" {
		cfg.Debug = v == "1" || v == "true"
	}

	return cfg
}

// ValidateStartup enforces the signing secret policy before the service
// accepts traffic: a blank or default secret is a hard error in production
// and a loud warning everywhere else.
func (c *ServiceConfig) ValidateStartup(logger Logger) error {
	if logger == nil {
		logger = defLogger{}
	}

	if c.SigningKey == "" || c.SigningKey == DefaultSigningSecret {
		if c.Environment == "production" {
			logger.Error("JWT signing secret must be configured for production")
			return ErrWeakSigningSecret
		}
		logger.Warn("Using default JWT signing secret, override AUTH_JWT_SECRET outside development")
	}

	return nil
}

func (c *ServiceConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *ServiceConfig) GetTokenTTL() int {
	if c.TokenTTL <= 0 {
		return DefaultTokenTTL
	}
	return c.TokenTTL
}

func (c *ServiceConfig) GetIssuer() string {
	return c.Issuer
}

func (c *ServiceConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return DefaultContextKey
	}
	return c.ContextKey
}

func (c *ServiceConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "header:" + HeaderString
	}
	return c.TokenLookup
}

func (c *ServiceConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}
