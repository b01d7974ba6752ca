package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/oauthkit/grantflow/redirect"
	"github.com/oauthkit/grantflow/request"
	"github.com/oauthkit/grantflow/security"
	"github.com/oauthkit/grantflow/storage"
	"github.com/oauthkit/grantflow/token"
)

// AuthorizationCodeGrant implements the authorization code flow end to end:
// issuing a code on a GET authorization request, exchanging it for an
// access/refresh token pair on POST, and refreshing an access token from a
// previously issued refresh token.
//
// Codes and refresh tokens are single-use. The handler re-reads the used
// flag from the store before consuming a credential and writes used=true
// back immediately after the replacement credentials are persisted; stores
// needing stronger atomicity must provide it themselves.
type AuthorizationCodeGrant struct {
	config        Config
	authURI       *url.URL
	factory       *token.Factory
	clients       storage.ClientStore
	accessTokens  storage.AccessTokenStore
	codes         storage.AuthorizationCodeStore
	refreshTokens storage.RefreshTokenStore
	builder       *redirect.Builder

	issueValidator    *Validator
	exchangeValidator *Validator
	refreshValidator  *Validator

	logger      *slog.Logger
	auditor     *security.Auditor
	rateLimiter *security.RateLimiter
}

// NewAuthorizationCodeGrant creates the authorization code grant handler.
// The handler holds no per-request state and is safe for concurrent use.
func NewAuthorizationCodeGrant(
	config Config,
	factory *token.Factory,
	clients storage.ClientStore,
	accessTokens storage.AccessTokenStore,
	codes storage.AuthorizationCodeStore,
	refreshTokens storage.RefreshTokenStore,
	logger *slog.Logger,
) (*AuthorizationCodeGrant, error) {
	if factory == nil {
		return nil, errors.New("token factory is required")
	}
	if clients == nil {
		return nil, errors.New("client store is required")
	}
	if accessTokens == nil {
		return nil, errors.New("access token store is required")
	}
	if codes == nil {
		return nil, errors.New("authorization code store is required")
	}
	if refreshTokens == nil {
		return nil, errors.New("refresh token store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	applyDefaults(&config, logger)
	if err := config.validate(); err != nil {
		return nil, err
	}
	authURI, _ := url.Parse(config.AuthenticationURI)

	return &AuthorizationCodeGrant{
		config:            config,
		authURI:           authURI,
		factory:           factory,
		clients:           clients,
		accessTokens:      accessTokens,
		codes:             codes,
		refreshTokens:     refreshTokens,
		builder:           redirect.NewBuilder(config.AllowedSchemes),
		issueValidator:    NewAuthorizationValidator(),
		exchangeValidator: NewCodeExchangeValidator(),
		refreshValidator:  NewRefreshTokenValidator(),
		logger:            logger,
	}, nil
}

// SetAuditor enables security audit logging for issued and consumed
// credentials.
func (g *AuthorizationCodeGrant) SetAuditor(auditor *security.Auditor) {
	g.auditor = auditor
}

// SetSecurityEventRateLimiter throttles reuse-detection audit events per
// client so a replay storm cannot flood the audit log.
func (g *AuthorizationCodeGrant) SetSecurityEventRateLimiter(limiter *security.RateLimiter) {
	g.rateLimiter = limiter
}

func (g *AuthorizationCodeGrant) isCodeRequest(r *request.AuthorizationRequest) bool {
	return r.Method() == "GET" && r.ResponseType() == ResponseTypeCode
}

func (g *AuthorizationCodeGrant) isExchangeRequest(r *request.AuthorizationRequest) bool {
	return r.Method() == "POST" && r.GrantType() == GrantTypeAuthorizationCode
}

func (g *AuthorizationCodeGrant) isRefreshRequest(r *request.AuthorizationRequest) bool {
	return r.Method() == "POST" && r.GrantType() == GrantTypeRefreshToken
}

// CanHandle reports whether the request belongs to any of the three phases
// of the authorization code flow.
func (g *AuthorizationCodeGrant) CanHandle(r *request.AuthorizationRequest) bool {
	return g.isCodeRequest(r) || g.isExchangeRequest(r) || g.isRefreshRequest(r)
}

// Handle dispatches to the issue, exchange or refresh phase.
func (g *AuthorizationCodeGrant) Handle(ctx context.Context, identity storage.Identity, r *request.AuthorizationRequest) (*Outcome, error) {
	switch {
	case g.isCodeRequest(r):
		return g.handleIssue(ctx, identity, r)
	case g.isExchangeRequest(r):
		return g.handleExchange(ctx, r)
	case g.isRefreshRequest(r):
		return g.handleRefresh(ctx, r)
	}
	return nil, fmt.Errorf("authorization code grant cannot process request with method %q", r.Method())
}

func (g *AuthorizationCodeGrant) handleIssue(ctx context.Context, identity storage.Identity, r *request.AuthorizationRequest) (*Outcome, error) {
	if identity == nil {
		return RedirectOutcome(g.authURI), nil
	}

	if ok, messages := g.issueValidator.Validate(r); !ok {
		return nil, NewParameterErrors(messages)
	}

	client, err := g.findClient(ctx, r.ClientID())
	if err != nil {
		return nil, err
	}

	uri, paramErr := validateRedirectURI(g.builder, g.auditor, client, r.RedirectURI())
	if paramErr != nil {
		return nil, paramErr
	}

	code := g.factory.AuthorizationCode(identity, client, g.config.ExpirationTime)
	if err := g.codes.WriteAuthorizationCode(ctx, code); err != nil {
		return nil, fmt.Errorf("write authorization code: %w", err)
	}

	params := map[string]string{
		request.ParamCode: code.Value,
		"expires_on":      strconv.FormatInt(code.ExpiresAt, 10),
	}
	if state := r.State(); state != "" {
		params[request.ParamState] = state
	}

	g.auditor.LogCodeIssued(identity.IdentityID(), client.ClientID)
	g.logger.InfoContext(ctx, "authorization code issued",
		slog.String("client_id", client.ClientID))

	return RedirectOutcome(uri.WithQuery(params).URL()), nil
}

func (g *AuthorizationCodeGrant) handleExchange(ctx context.Context, r *request.AuthorizationRequest) (*Outcome, error) {
	if ok, messages := g.exchangeValidator.Validate(r); !ok {
		return nil, NewParameterErrors(messages)
	}

	client, err := g.findClient(ctx, r.ClientID())
	if err != nil {
		return nil, err
	}

	code, err := g.codes.FindAuthorizationCode(ctx, r.Code())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			g.auditor.LogAuthFailure(client.ClientID, "unknown authorization code")
			return nil, NewParameterError(request.ParamCode, "The provided authorization code cannot be used")
		}
		return nil, fmt.Errorf("find authorization code: %w", err)
	}
	if code.Used {
		g.reportReuse(code.Identity.IdentityID(), client.ClientID, "authorization_code")
		return nil, NewParameterError(request.ParamCode, "The provided authorization code is already used")
	}
	if code.Expired(g.factory.Now()) {
		return nil, NewParameterError(request.ParamCode, "The provided authorization code is expired")
	}

	accessToken := g.factory.AccessToken(code.Identity, code.Client, g.config.ExpirationTime)
	if err := g.accessTokens.WriteAccessToken(ctx, accessToken); err != nil {
		return nil, fmt.Errorf("write access token: %w", err)
	}

	refreshToken := g.factory.RefreshToken(accessToken, g.config.RefreshTokenExtraTime)
	if err := g.refreshTokens.WriteRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("write refresh token: %w", err)
	}

	code.Used = true
	if err := g.codes.WriteAuthorizationCode(ctx, code); err != nil {
		return nil, fmt.Errorf("mark authorization code used: %w", err)
	}

	g.auditor.LogTokenIssued(code.Identity.IdentityID(), code.Client.ClientID, "authorization_code")
	g.logger.InfoContext(ctx, "authorization code exchanged",
		slog.String("client_id", code.Client.ClientID))

	return TokenOutcome(g.tokenPayload(accessToken, refreshToken)), nil
}

func (g *AuthorizationCodeGrant) handleRefresh(ctx context.Context, r *request.AuthorizationRequest) (*Outcome, error) {
	if ok, messages := g.refreshValidator.Validate(r); !ok {
		return nil, NewParameterErrors(messages)
	}

	client, err := g.findClient(ctx, r.ClientID())
	if err != nil {
		return nil, err
	}

	refreshToken, err := g.refreshTokens.FindRefreshToken(ctx, r.RefreshToken())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			g.auditor.LogAuthFailure(client.ClientID, "unknown refresh token")
			return nil, NewParameterError(request.ParamRefreshToken, "The provided refresh token cannot be used")
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	if refreshToken.Used {
		g.reportReuse(refreshToken.Identity().IdentityID(), client.ClientID, "refresh_token")
		return nil, NewParameterError(request.ParamRefreshToken, "The provided refresh token is already used")
	}
	if refreshToken.Expired(g.factory.Now()) {
		return nil, NewParameterError(request.ParamRefreshToken, "The provided refresh token is expired")
	}

	identity := refreshToken.Identity()
	tokenClient := refreshToken.Client()

	accessToken := g.factory.AccessToken(identity, tokenClient, g.config.ExpirationTime)
	if err := g.accessTokens.WriteAccessToken(ctx, accessToken); err != nil {
		return nil, fmt.Errorf("write access token: %w", err)
	}

	next := g.factory.RefreshToken(accessToken, g.config.RefreshTokenExtraTime)
	if err := g.refreshTokens.WriteRefreshToken(ctx, next); err != nil {
		return nil, fmt.Errorf("write refresh token: %w", err)
	}

	refreshToken.Used = true
	if err := g.refreshTokens.WriteRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("mark refresh token used: %w", err)
	}

	g.auditor.LogTokenRefreshed(identity.IdentityID(), tokenClient.ClientID)
	g.logger.InfoContext(ctx, "access token refreshed",
		slog.String("client_id", tokenClient.ClientID))

	return TokenOutcome(g.tokenPayload(accessToken, next)), nil
}

func (g *AuthorizationCodeGrant) findClient(ctx context.Context, clientID string) (*storage.Client, error) {
	client, err := g.clients.FindClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			g.auditor.LogAuthFailure(clientID, "unknown client")
			return nil, NewParameterError(request.ParamClientID, "The provided client_id cannot be used")
		}
		return nil, fmt.Errorf("find client %q: %w", clientID, err)
	}
	return client, nil
}

func (g *AuthorizationCodeGrant) tokenPayload(accessToken *storage.AccessToken, refreshToken *storage.RefreshToken) *TokenPayload {
	now := g.factory.Now()
	return &TokenPayload{
		AccessToken:  accessToken.Value,
		RefreshToken: refreshToken.Value,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    accessToken.ExpiresIn(now),
		ExpiresOn:    accessToken.ExpiresAt,
	}
}

// reportReuse logs a credential replay, throttled per client when a rate
// limiter is configured.
func (g *AuthorizationCodeGrant) reportReuse(identityID, clientID, credential string) {
	if g.rateLimiter != nil && !g.rateLimiter.Allow(clientID) {
		return
	}
	g.auditor.LogReuseDetected(identityID, clientID, credential)
	g.logger.Warn("credential reuse detected",
		slog.String("client_id", clientID),
		slog.String("credential", credential))
}
