package server

import (
	"fmt"
	"log/slog"
	"net/url"
)

// Config holds the grant handlers' configuration. It is supplied by the
// host; the engine never loads configuration itself.
type Config struct {
	// AuthenticationURI is where issue-phase requests without an
	// identity are redirected so the host can authenticate the user.
	// Default: "/login".
	AuthenticationURI string

	// ExpirationTime is the lifetime of access tokens and authorization
	// codes, in seconds.
	// Default: 21600 (6 hours).
	ExpirationTime int64

	// IssuerIdentifier names the authorization server in issued
	// credentials.
	IssuerIdentifier string

	// RefreshTokenExtraTime is how many seconds a refresh token outlives
	// the access token it was derived from.
	// Default: 2592000 (30 days).
	RefreshTokenExtraTime int64

	// AllowedSchemes maps permitted redirect-URI schemes to their
	// default port. Custom app-link schemes register with port 0.
	// Default: https only.
	AllowedSchemes map[string]int
}

// applyDefaults fills unset fields with the secure defaults and warns
// about settings that weaken the deployment.
func applyDefaults(config *Config, logger *slog.Logger) *Config {
	if config == nil {
		config = &Config{}
	}
	if config.AuthenticationURI == "" {
		config.AuthenticationURI = "/login"
	}
	if config.ExpirationTime == 0 {
		config.ExpirationTime = 21600 // 6 hours
	}
	if config.RefreshTokenExtraTime == 0 {
		config.RefreshTokenExtraTime = 2592000 // 30 days
	}
	if config.AllowedSchemes == nil {
		config.AllowedSchemes = map[string]int{"https": 443}
	}

	if _, ok := config.AllowedSchemes["http"]; ok {
		logger.Warn("⚠️  SECURITY NOTICE: plain http redirect URIs are allowed",
			"risk", "credentials in redirects are exposed to network interception",
			"recommendation", "allow http only for local development")
	}

	return config
}

// validate rejects configuration the handlers cannot operate with.
// Configuration errors are fatal at wiring time, not per-request.
func (c *Config) validate() error {
	if _, err := url.Parse(c.AuthenticationURI); err != nil {
		return fmt.Errorf("invalid authentication URI %q: %w", c.AuthenticationURI, err)
	}
	if c.ExpirationTime < 0 {
		return fmt.Errorf("expiration time must not be negative, got %d", c.ExpirationTime)
	}
	if c.RefreshTokenExtraTime < 0 {
		return fmt.Errorf("refresh token extra time must not be negative, got %d", c.RefreshTokenExtraTime)
	}
	return nil
}
