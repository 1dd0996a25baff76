package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	auth "github.com/tarifit/go-auth-service"
)

func TestRegisterRequestValidate(t *testing.T) {
	valid := auth.RegisterRequest{
		Email:    "a@x.com",
		Username: "alice",
		Password: "Passw0rd",
	}

	t.Run("accepts a valid payload", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	tests := []struct {
		name   string
		mutate func(r *auth.RegisterRequest)
	}{
		{"blank email", func(r *auth.RegisterRequest) { r.Email = "" }},
		{"malformed email", func(r *auth.RegisterRequest) { r.Email = "not-an-email" }},
		{"blank username", func(r *auth.RegisterRequest) { r.Username = "" }},
		{"username too short", func(r *auth.RegisterRequest) { r.Username = "al" }},
		{"username too long", func(r *auth.RegisterRequest) { r.Username = "a_very_long_username_over_thirty_chars" }},
		{"username with spaces", func(r *auth.RegisterRequest) { r.Username = "ali ce" }},
		{"username with symbols", func(r *auth.RegisterRequest) { r.Username = "alice!" }},
		{"blank password", func(r *auth.RegisterRequest) { r.Password = "" }},
		{"password too short", func(r *auth.RegisterRequest) { r.Password = "Pw0rd" }},
		{"password without lowercase", func(r *auth.RegisterRequest) { r.Password = "PASSW0RD" }},
		{"password without uppercase", func(r *auth.RegisterRequest) { r.Password = "passw0rd" }},
		{"password without digit", func(r *auth.RegisterRequest) { r.Password = "Password" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := valid
			tt.mutate(&payload)
			assert.Error(t, payload.Validate())
		})
	}

	t.Run("boundary lengths pass", func(t *testing.T) {
		payload := valid
		payload.Username = "abc"
		assert.NoError(t, payload.Validate())

		payload.Username = "abcdefghijklmnopqrstuvwxyz_123"
		assert.NoError(t, payload.Validate())

		payload.Password = "Passw0rd" + "x"
		assert.NoError(t, payload.Validate())
	})
}

func TestLoginRequestValidate(t *testing.T) {
	t.Run("accepts a valid payload", func(t *testing.T) {
		payload := auth.LoginRequest{Email: "a@x.com", Password: "whatever"}
		assert.NoError(t, payload.Validate())
	})

	t.Run("requires email and password", func(t *testing.T) {
		assert.Error(t, auth.LoginRequest{Password: "whatever"}.Validate())
		assert.Error(t, auth.LoginRequest{Email: "a@x.com"}.Validate())
		assert.Error(t, auth.LoginRequest{Email: "not-an-email", Password: "whatever"}.Validate())
	})

	t.Run("does not apply registration password rules", func(t *testing.T) {
		payload := auth.LoginRequest{Email: "a@x.com", Password: "short"}
		assert.NoError(t, payload.Validate())
	})
}

func TestLoginRequestAccessors(t *testing.T) {
	payload := auth.LoginRequest{Email: "a@x.com", Password: "secret"}
	assert.Equal(t, "a@x.com", payload.GetIdentifier())
	assert.Equal(t, "secret", payload.GetPassword())
}
