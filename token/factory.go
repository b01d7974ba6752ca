// Package token generates the credentials the grant handlers issue:
// access tokens, authorization codes, and refresh tokens.
package token

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"golang.org/x/oauth2"

	"github.com/oauthkit/grantflow/storage"
)

// Factory mints credentials. Values come from a cryptographically secure
// random source; expirations are computed once, at creation. Construction
// has no storage or network side effects.
type Factory struct {
	issuer string
	now    func() time.Time
}

// Option configures a Factory.
type Option func(*Factory)

// WithClock overrides the time source. Used in tests to make expirations
// deterministic.
func WithClock(now func() time.Time) Option {
	return func(f *Factory) {
		f.now = now
	}
}

// NewFactory creates a credential factory. issuer is the identifier of the
// authorization server minting the credentials.
func NewFactory(issuer string, opts ...Option) *Factory {
	f := &Factory{issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Issuer returns the issuer identifier the factory was configured with.
func (f *Factory) Issuer() string {
	return f.issuer
}

// AccessToken mints an access token for the given identity and client.
// lifetime is in seconds.
func (f *Factory) AccessToken(identity storage.Identity, client *storage.Client, lifetime int64) *storage.AccessToken {
	return &storage.AccessToken{
		Value:     generateValue(),
		Identity:  identity,
		Client:    client,
		ExpiresAt: f.now().Unix() + lifetime,
	}
}

// AuthorizationCode mints a single-use authorization code. Used starts
// false; only the exchanging handler may flip it.
func (f *Factory) AuthorizationCode(identity storage.Identity, client *storage.Client, lifetime int64) *storage.AuthorizationCode {
	return &storage.AuthorizationCode{
		Value:     generateValue(),
		Identity:  identity,
		Client:    client,
		ExpiresAt: f.now().Unix() + lifetime,
		Used:      false,
	}
}

// RefreshToken derives a refresh token from its parent access token.
// The value is the SHA-256 of the access token value rather than fresh
// randomness, so a refresh token can always be correlated with the access
// token it was issued alongside. extraTime extends the expiry beyond the
// access token's own.
func (f *Factory) RefreshToken(accessToken *storage.AccessToken, extraTime int64) *storage.RefreshToken {
	sum := sha256.Sum256([]byte(accessToken.Value))
	return &storage.RefreshToken{
		Value:       hex.EncodeToString(sum[:]),
		AccessToken: accessToken,
		ExpiresAt:   accessToken.ExpiresAt + extraTime,
		Used:        false,
	}
}

// Now returns the factory's current time as a Unix timestamp. Handlers use
// the same clock as the factory so expiry checks and expiry computation
// cannot drift apart.
func (f *Factory) Now() int64 {
	return f.now().Unix()
}

// generateValue produces an opaque credential value: 256 bits of
// cryptographic randomness in the base64url alphabet without padding.
func generateValue() string {
	return oauth2.GenerateVerifier()
}
