// Package grantflow wires the grant-flow engine into a ready-to-use
// authorization server core: the implicit and authorization code handlers
// registered on a dispatcher, backed by caller-supplied stores.
//
// The package exposes the engine behind a small facade; hosts that need
// finer control can assemble the server, token, and storage packages
// directly.
package grantflow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oauthkit/grantflow/instrumentation"
	"github.com/oauthkit/grantflow/request"
	"github.com/oauthkit/grantflow/security"
	"github.com/oauthkit/grantflow/server"
	"github.com/oauthkit/grantflow/storage"
	"github.com/oauthkit/grantflow/token"
)

// Re-exported types so simple hosts only import this package.
type (
	Outcome        = server.Outcome
	TokenPayload   = server.TokenPayload
	Messages       = server.Messages
	ParameterError = server.ParameterError
	Client         = storage.Client
	Identity       = storage.Identity
)

// Default throttle for reuse-detection audit events, per client.
const (
	defaultSecurityEventRate  = 10
	defaultSecurityEventBurst = 20
)

// Config assembles an AuthorizationServer.
type Config struct {
	// Server carries the grant handlers' settings: credential lifetimes,
	// allowed redirect schemes, and the authentication URI.
	Server server.Config

	// Stores back the engine. All four are required.
	Clients       storage.ClientStore
	AccessTokens  storage.AccessTokenStore
	Codes         storage.AuthorizationCodeStore
	RefreshTokens storage.RefreshTokenStore

	// Logger receives structured engine logs. Defaults to slog.Default.
	Logger *slog.Logger

	// EnableAuditLog turns on security audit events for issued and
	// consumed credentials.
	EnableAuditLog bool

	// Instrumentation enables OpenTelemetry metrics and tracing when set.
	Instrumentation *instrumentation.Instrumentation
}

// AuthorizationServer is the assembled grant-flow engine.
type AuthorizationServer struct {
	server *server.Server
	logger *slog.Logger
}

// New assembles an authorization server with the implicit and
// authorization code grants registered.
func New(config Config) (*AuthorizationServer, error) {
	if config.Clients == nil {
		return nil, errors.New("client store is required")
	}
	if config.AccessTokens == nil {
		return nil, errors.New("access token store is required")
	}
	if config.Codes == nil {
		return nil, errors.New("authorization code store is required")
	}
	if config.RefreshTokens == nil {
		return nil, errors.New("refresh token store is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	factory := token.NewFactory(config.Server.IssuerIdentifier)

	implicit, err := server.NewImplicitGrant(
		config.Server, factory, config.Clients, config.AccessTokens, logger)
	if err != nil {
		return nil, err
	}

	authCode, err := server.NewAuthorizationCodeGrant(
		config.Server, factory, config.Clients, config.AccessTokens,
		config.Codes, config.RefreshTokens, logger)
	if err != nil {
		return nil, err
	}

	if config.EnableAuditLog {
		auditor := security.NewAuditor(logger, true)
		implicit.SetAuditor(auditor)
		authCode.SetAuditor(auditor)
		authCode.SetSecurityEventRateLimiter(security.NewRateLimiter(
			defaultSecurityEventRate, defaultSecurityEventBurst, logger))
	}

	dispatcher := server.NewServer(logger)
	if config.Instrumentation != nil {
		dispatcher.SetInstrumentation(config.Instrumentation)
	}
	if err := dispatcher.RegisterHandler(server.ResponseTypeToken, implicit); err != nil {
		return nil, err
	}
	if err := dispatcher.RegisterHandler(server.ResponseTypeCode, authCode); err != nil {
		return nil, err
	}

	return &AuthorizationServer{server: dispatcher, logger: logger}, nil
}

// Authorize runs one authorization request. identity is nil for
// unauthenticated calls.
func (s *AuthorizationServer) Authorize(ctx context.Context, identity storage.Identity, r *request.AuthorizationRequest) (*Outcome, error) {
	return s.server.Authorize(ctx, identity, r)
}
