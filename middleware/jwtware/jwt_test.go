package jwtware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	auth "github.com/tarifit/go-auth-service"
)

var testKey = []byte("middleware-test-key")

func signTestToken(t *testing.T, key []byte, subject string, expiresAt time.Time) string {
	t.Helper()

	claims := &jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return raw
}

func newGuardedApp(cfg Config) *fiber.App {
	contextKey := cfg.ContextKey
	if contextKey == "" {
		contextKey = "user"
	}

	app := fiber.New()
	app.Use(New(cfg))
	app.Get("/protected", func(c *fiber.Ctx) error {
		claims, ok := c.Locals(contextKey).(AuthClaims)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(claims.UserID())
	})
	return app
}

func request(t *testing.T, app *fiber.App, path string, header map[string]string) (*http.Response, string) {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, string(body)
}

func TestMiddlewareWithSigningKey(t *testing.T) {
	app := newGuardedApp(Config{
		SigningKey: SigningKey{JWTAlg: "HS256", Key: testKey},
	})

	t.Run("valid token reaches the handler with claims in locals", func(t *testing.T) {
		token := signTestToken(t, testKey, "user-123", time.Now().Add(time.Hour))

		resp, body := request(t, app, "/protected", map[string]string{
			fiber.HeaderAuthorization: "Bearer " + token,
		})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "user-123", body)
	})

	t.Run("missing header answers 400", func(t *testing.T) {
		resp, body := request(t, app, "/protected", nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, ErrJWTMissingOrMalformed.Error(), body)
	})

	t.Run("wrong scheme answers 400", func(t *testing.T) {
		resp, _ := request(t, app, "/protected", map[string]string{
			fiber.HeaderAuthorization: "Basic dXNlcjpwYXNz",
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bad signature answers 401", func(t *testing.T) {
		token := signTestToken(t, []byte("some-other-key"), "user-123", time.Now().Add(time.Hour))

		resp, _ := request(t, app, "/protected", map[string]string{
			fiber.HeaderAuthorization: "Bearer " + token,
		})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("expired token answers 401", func(t *testing.T) {
		token := signTestToken(t, testKey, "user-123", time.Now().Add(-time.Hour))

		resp, _ := request(t, app, "/protected", map[string]string{
			fiber.HeaderAuthorization: "Bearer " + token,
		})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong algorithm answers 401", func(t *testing.T) {
		claims := &jwt.RegisteredClaims{Subject: "user-123"}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		resp, _ := request(t, app, "/protected", map[string]string{
			fiber.HeaderAuthorization: "Bearer " + token,
		})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestMiddlewareWithCustomValidator(t *testing.T) {
	app := newGuardedApp(Config{
		TokenValidator: validatorFunc(func(raw string) (AuthClaims, error) {
			if raw != "magic" {
				return nil, ErrJWTMissingOrMalformed
			}
			return staticClaims{subject: "user-42"}, nil
		}),
	})

	resp, body := request(t, app, "/protected", map[string]string{
		fiber.HeaderAuthorization: "Bearer magic",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "user-42", body)

	resp, _ = request(t, app, "/protected", map[string]string{
		fiber.HeaderAuthorization: "Bearer not-magic",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMiddlewareWithServiceBackedValidator(t *testing.T) {
	service := auth.NewTokenService(testKey, 3600, "", nil)
	app := newGuardedApp(Config{
		TokenValidator: serviceValidator{ts: service},
	})

	t.Run("token from the service passes with its subject in locals", func(t *testing.T) {
		token, _, err := service.Generate("user-7")
		require.NoError(t, err)

		resp, body := request(t, app, "/protected", map[string]string{
			fiber.HeaderAuthorization: "Bearer " + token,
		})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "user-7", body)
	})

	t.Run("foreign token answers 401", func(t *testing.T) {
		other := auth.NewTokenService([]byte("some-other-key"), 3600, "", nil)
		token, _, err := other.Generate("user-7")
		require.NoError(t, err)

		resp, _ := request(t, app, "/protected", map[string]string{
			fiber.HeaderAuthorization: "Bearer " + token,
		})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestMiddlewareFilter(t *testing.T) {
	app := fiber.New()
	app.Use(New(Config{
		SigningKey: SigningKey{JWTAlg: "HS256", Key: testKey},
		Filter: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz"
		},
	}))
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/protected", func(c *fiber.Ctx) error { return c.SendString("secret") })

	resp, body := request(t, app, "/healthz", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)

	resp, _ = request(t, app, "/protected", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMiddlewareTokenLookups(t *testing.T) {
	token := "opaque-token"
	validator := validatorFunc(func(raw string) (AuthClaims, error) {
		if raw != token {
			return nil, ErrJWTMissingOrMalformed
		}
		return staticClaims{subject: "user-1"}, nil
	})

	t.Run("query lookup", func(t *testing.T) {
		app := newGuardedApp(Config{
			TokenValidator: validator,
			TokenLookup:    "query:auth_token",
		})

		resp, _ := request(t, app, "/protected?auth_token="+token, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp, _ = request(t, app, "/protected", nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("cookie lookup", func(t *testing.T) {
		app := newGuardedApp(Config{
			TokenValidator: validator,
			TokenLookup:    "cookie:jwt",
		})

		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "jwt", Value: token})
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("header fallback after empty query", func(t *testing.T) {
		app := newGuardedApp(Config{
			TokenValidator: validator,
			TokenLookup:    "query:auth_token,header:" + fiber.HeaderAuthorization,
		})

		resp, _ := request(t, app, "/protected", map[string]string{
			fiber.HeaderAuthorization: "Bearer " + token,
		})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestGetExtractors(t *testing.T) {
	tests := []struct {
		name   string
		lookup string
		count  int
	}{
		{"single header", "header:Authorization", 1},
		{"header and cookie", "header:Authorization,cookie:jwt", 2},
		{"query param cookie", "query:t,param:t,cookie:t", 3},
		{"unknown source ignored", "body:t", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, GetExtractors(tt.lookup), tt.count)
		})
	}
}

func TestGetDefaultConfigPanicsWithoutKeyMaterial(t *testing.T) {
	assert.Panics(t, func() {
		GetDefaultConfig(Config{})
	})
}

// serviceValidator is the same bridge the service binary uses to mount the
// auth token service behind the middleware.
type serviceValidator struct {
	ts auth.TokenService
}

func (v serviceValidator) Validate(raw string) (AuthClaims, error) {
	return v.ts.Validate(raw)
}

type validatorFunc func(string) (AuthClaims, error)

func (f validatorFunc) Validate(raw string) (AuthClaims, error) { return f(raw) }

type staticClaims struct {
	subject string
}

func (c staticClaims) Subject() string     { return c.subject }
func (c staticClaims) UserID() string      { return c.subject }
func (c staticClaims) Expires() time.Time  { return time.Time{} }
func (c staticClaims) IssuedAt() time.Time { return time.Time{} }
