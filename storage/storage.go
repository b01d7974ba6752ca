// Package storage defines the repository ports the grant engine depends on,
// together with the persisted value types they exchange: clients, access
// tokens, authorization codes, and refresh tokens. It supports various
// backend implementations; an in-memory one ships in storage/memory.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Find* methods when no record exists for the
// given key. Handlers translate it into a parameter error; they never see
// backend-specific errors for the missing-record case.
var ErrNotFound = errors.New("storage: not found")

// Identity is the authenticated end-user on whose behalf credentials are
// issued. The engine never creates or mutates identities; it only carries
// the opaque identifier into the credentials it mints.
type Identity interface {
	// IdentityID returns the opaque identifier of the principal.
	IdentityID() string
}

// Client represents a registered OAuth client application.
// Clients are read-only from the grant engine's perspective.
type Client struct {
	// ClientID is the opaque client identifier.
	ClientID string

	// RedirectURIs is the set of registered redirect URIs.
	// A requested redirect_uri must exactly match one of them.
	RedirectURIs []string

	// SecretHash is the bcrypt hash of the client secret.
	// Empty for public clients.
	SecretHash string
}

// HasRedirectURI reports whether uri exactly matches one of the client's
// registered redirect URIs.
func (c *Client) HasRedirectURI(uri string) bool {
	for _, registered := range c.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}

// AccessToken is an issued bearer credential.
type AccessToken struct {
	// Value is the opaque bearer string.
	Value string

	// Identity is the principal the token was issued for.
	Identity Identity

	// Client is the client application the token was issued to.
	Client *Client

	// ExpiresAt is the absolute expiration time as a Unix timestamp.
	// It is set at creation and never recomputed.
	ExpiresAt int64
}

// ExpiresIn returns the seconds remaining until expiration at the given
// instant. Negative once the token is expired.
func (t *AccessToken) ExpiresIn(now int64) int64 {
	return t.ExpiresAt - now
}

// Expired reports whether the token is expired at the given instant.
func (t *AccessToken) Expired(now int64) bool {
	return t.ExpiresAt <= now
}

// AuthorizationCode is a single-use credential exchanged for an access and
// refresh token pair. Used starts false and is flipped to true exactly once,
// by the handler that consumes the code.
type AuthorizationCode struct {
	Value     string
	Identity  Identity
	Client    *Client
	ExpiresAt int64
	Used      bool
}

// Expired reports whether the code is expired at the given instant.
func (c *AuthorizationCode) Expired(now int64) bool {
	return c.ExpiresAt <= now
}

// RefreshToken is a single-use credential derived from an access token.
// Its identity and client associations come from the underlying token.
type RefreshToken struct {
	Value       string
	AccessToken *AccessToken
	ExpiresAt   int64
	Used        bool
}

// Identity returns the principal of the underlying access token.
func (t *RefreshToken) Identity() Identity {
	return t.AccessToken.Identity
}

// Client returns the client of the underlying access token.
func (t *RefreshToken) Client() *Client {
	return t.AccessToken.Client
}

// Expired reports whether the refresh token is expired at the given instant.
func (t *RefreshToken) Expired(now int64) bool {
	return t.ExpiresAt <= now
}

// ClientStore resolves registered clients.
// All methods accept context.Context for tracing and cancellation.
type ClientStore interface {
	// FindClient retrieves a client by ID. Returns ErrNotFound if the
	// client is not registered.
	FindClient(ctx context.Context, clientID string) (*Client, error)

	// ValidateClientSecret checks a client's secret against the stored
	// hash. Secret validation is the host transport's concern; the grant
	// engine itself never calls this.
	ValidateClientSecret(ctx context.Context, clientID, clientSecret string) error
}

// AccessTokenStore persists issued access tokens.
type AccessTokenStore interface {
	// WriteAccessToken persists a token. Writing an existing value
	// overwrites it.
	WriteAccessToken(ctx context.Context, token *AccessToken) error

	// FindAccessToken retrieves a token by its value.
	// Returns ErrNotFound if no such token exists.
	FindAccessToken(ctx context.Context, value string) (*AccessToken, error)
}

// AuthorizationCodeStore persists issued authorization codes.
//
// Single-use enforcement relies on the store's consistency: the engine
// re-checks Used on the most recently read value before consuming a code
// and writes the Used=true update immediately after issuing new
// credentials. Callers needing stronger atomicity (compare-and-swap on
// Used) must provide it in the implementation.
type AuthorizationCodeStore interface {
	WriteAuthorizationCode(ctx context.Context, code *AuthorizationCode) error
	FindAuthorizationCode(ctx context.Context, value string) (*AuthorizationCode, error)
}

// RefreshTokenStore persists issued refresh tokens. The same single-use
// consistency note as AuthorizationCodeStore applies.
type RefreshTokenStore interface {
	WriteRefreshToken(ctx context.Context, token *RefreshToken) error
	FindRefreshToken(ctx context.Context, value string) (*RefreshToken, error)
}
