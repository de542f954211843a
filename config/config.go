package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration. It is loaded once at startup and
// never mutated afterwards; components receive the values they need
// explicitly.
type Config struct {
	Port         string `env:"PORT" envDefault:"8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"users.db"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// The session cookie only carries the pending login state between
	// /auth/login and /auth/callback, so its lifetime bounds how long a
	// login attempt may take.
	SessionCookieName string `env:"SESSION_COOKIE_NAME" envDefault:"user_service_session"`
	SessionLifetime   int64  `env:"SESSION_LIFETIME_SECONDS" envDefault:"600"`
	SessionSecure     bool   `env:"SESSION_SECURE" envDefault:"false"`

	OIDC OIDCConfig
	JWT  JWTConfig
}

// OIDCConfig configures the upstream identity provider.
type OIDCConfig struct {
	IssuerURL    string        `env:"OIDC_ISSUER_URL" envDefault:"https://accounts.google.com"`
	ClientID     string        `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string        `env:"GOOGLE_REDIRECT_URI" envDefault:"http://localhost:8080/auth/callback"`
	Scopes       []string      `env:"OIDC_SCOPES" envDefault:"openid,email,profile" envSeparator:","`
	HTTPTimeout  time.Duration `env:"OIDC_HTTP_TIMEOUT" envDefault:"10s"`
}

// JWTConfig configures the service token codec.
type JWTConfig struct {
	Secret        string `env:"JWT_SECRET_KEY" envDefault:"dev-secret-change-me"`
	Algorithm     string `env:"JWT_ALGORITHM" envDefault:"HS256"`
	ExpireMinutes int    `env:"JWT_EXPIRE_MINUTES" envDefault:"60"`
	Issuer        string `env:"JWT_ISSUER" envDefault:"user-service"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration that would otherwise only fail at request
// time. Missing provider credentials are a startup error, not a per-request
// 500.
func (c *Config) Validate() error {
	var missing []string
	if c.OIDC.ClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if c.OIDC.ClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if c.OIDC.RedirectURL == "" {
		missing = append(missing, "GOOGLE_REDIRECT_URI")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.JWT.ExpireMinutes <= 0 {
		return fmt.Errorf("JWT_EXPIRE_MINUTES must be positive, got %d", c.JWT.ExpireMinutes)
	}
	if c.SessionLifetime <= 0 {
		return fmt.Errorf("SESSION_LIFETIME_SECONDS must be positive, got %d", c.SessionLifetime)
	}
	return nil
}

// TokenTTL returns the configured token lifetime as a duration.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.ExpireMinutes) * time.Minute
}
