package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "users.db", cfg.DatabasePath)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "https://accounts.google.com", cfg.OIDC.IssuerURL)
	assert.Equal(t, "http://localhost:8080/auth/callback", cfg.OIDC.RedirectURL)
	assert.Equal(t, []string{"openid", "email", "profile"}, cfg.OIDC.Scopes)
	assert.Equal(t, 10*time.Second, cfg.OIDC.HTTPTimeout)
	assert.Equal(t, "dev-secret-change-me", cfg.JWT.Secret)
	assert.Equal(t, "HS256", cfg.JWT.Algorithm)
	assert.Equal(t, 60, cfg.JWT.ExpireMinutes)
	assert.Equal(t, "user-service", cfg.JWT.Issuer)
	assert.Equal(t, 60*time.Minute, cfg.TokenTTL())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_EXPIRE_MINUTES", "15")
	t.Setenv("OIDC_SCOPES", "openid,email")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com,https://admin.example.com")
	t.Setenv("OIDC_HTTP_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL())
	assert.Equal(t, []string{"openid", "email"}, cfg.OIDC.Scopes)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.OIDC.HTTPTimeout)
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_ID")
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_SECRET")
}

func TestValidateRejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("JWT_EXPIRE_MINUTES", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_EXPIRE_MINUTES")
}
