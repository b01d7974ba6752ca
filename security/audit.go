// Package security provides security supporting features for the grant
// engine: audit logging with PII protection and per-key rate limiting.
package security

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

// Auditor handles security event logging with PII protection. Identity
// identifiers are hashed before they reach the log stream.
type Auditor struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditor creates a new security auditor.
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{logger: logger, enabled: enabled}
}

// Event represents a security audit event.
type Event struct {
	Type       string
	IdentityID string
	ClientID   string
	Details    map[string]any
	Timestamp  time.Time
}

// LogEvent logs a security event with hashed PII.
func (a *Auditor) LogEvent(event Event) {
	if a == nil || !a.enabled {
		return
	}

	event.Timestamp = time.Now()

	a.logger.Info("security_audit",
		"event_type", event.Type,
		"identity_hash", hashForLogging(event.IdentityID),
		"client_id", event.ClientID,
		"details", event.Details,
		"timestamp", event.Timestamp,
	)
}

// LogCodeIssued logs issuance of an authorization code.
func (a *Auditor) LogCodeIssued(identityID, clientID string) {
	a.LogEvent(Event{
		Type:       "authorization_code_issued",
		IdentityID: identityID,
		ClientID:   clientID,
	})
}

// LogTokenIssued logs issuance of an access token.
func (a *Auditor) LogTokenIssued(identityID, clientID, grant string) {
	a.LogEvent(Event{
		Type:       "token_issued",
		IdentityID: identityID,
		ClientID:   clientID,
		Details: map[string]any{
			"grant": grant,
		},
	})
}

// LogTokenRefreshed logs a successful refresh-token exchange.
func (a *Auditor) LogTokenRefreshed(identityID, clientID string) {
	a.LogEvent(Event{
		Type:       "token_refreshed",
		IdentityID: identityID,
		ClientID:   clientID,
	})
}

// LogReuseDetected logs an attempt to consume an already-used credential.
func (a *Auditor) LogReuseDetected(identityID, clientID, credential string) {
	a.LogEvent(Event{
		Type:       "credential_reuse_detected",
		IdentityID: identityID,
		ClientID:   clientID,
		Details: map[string]any{
			"severity":   "critical",
			"credential": credential,
		},
	})
}

// LogAuthFailure logs a failed authorization attempt.
func (a *Auditor) LogAuthFailure(clientID, reason string) {
	a.LogEvent(Event{
		Type:     "auth_failure",
		ClientID: clientID,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// hashForLogging returns a short SHA-256 prefix of the value, so related
// log lines correlate without exposing the identifier itself.
func hashForLogging(value string) string {
	if value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}
