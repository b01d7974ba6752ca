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

// ImplicitGrant issues an access token directly from a GET authorization
// request with response_type=token. Each call mints a fresh token, so there
// is no single-use state to track.
type ImplicitGrant struct {
	config       Config
	authURI      *url.URL
	factory      *token.Factory
	clients      storage.ClientStore
	accessTokens storage.AccessTokenStore
	builder      *redirect.Builder
	validator    *Validator
	logger       *slog.Logger
	auditor      *security.Auditor
}

// NewImplicitGrant creates the implicit grant handler. The handler holds no
// per-request state and is safe for concurrent use.
func NewImplicitGrant(
	config Config,
	factory *token.Factory,
	clients storage.ClientStore,
	accessTokens storage.AccessTokenStore,
	logger *slog.Logger,
) (*ImplicitGrant, error) {
	if factory == nil {
		return nil, errors.New("token factory is required")
	}
	if clients == nil {
		return nil, errors.New("client store is required")
	}
	if accessTokens == nil {
		return nil, errors.New("access token store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	applyDefaults(&config, logger)
	if err := config.validate(); err != nil {
		return nil, err
	}
	authURI, _ := url.Parse(config.AuthenticationURI)

	return &ImplicitGrant{
		config:       config,
		authURI:      authURI,
		factory:      factory,
		clients:      clients,
		accessTokens: accessTokens,
		builder:      redirect.NewBuilder(config.AllowedSchemes),
		validator:    NewAuthorizationValidator(),
		logger:       logger,
	}, nil
}

// SetAuditor enables security audit logging for issued tokens.
func (g *ImplicitGrant) SetAuditor(auditor *security.Auditor) {
	g.auditor = auditor
}

// CanHandle reports whether the request is an implicit authorization request.
func (g *ImplicitGrant) CanHandle(r *request.AuthorizationRequest) bool {
	if r.Method() != "GET" {
		return false
	}
	return r.ResponseType() == ResponseTypeToken
}

// Handle runs the implicit flow. identity may be nil, in which case the
// user-agent is redirected to the configured authentication URI.
func (g *ImplicitGrant) Handle(ctx context.Context, identity storage.Identity, r *request.AuthorizationRequest) (*Outcome, error) {
	if ok, messages := g.validator.Validate(r); !ok {
		return nil, NewParameterErrors(messages)
	}

	if identity == nil {
		return RedirectOutcome(g.authURI), nil
	}

	client, err := g.clients.FindClient(ctx, r.ClientID())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			g.auditor.LogAuthFailure(r.ClientID(), "unknown client")
			return nil, NewParameterError(request.ParamClientID, "The provided client_id cannot be used")
		}
		return nil, fmt.Errorf("find client %q: %w", r.ClientID(), err)
	}

	// The redirect URI is checked before any credential is minted, so a
	// mismatch can never leave a live token behind.
	uri, paramErr := validateRedirectURI(g.builder, g.auditor, client, r.RedirectURI())
	if paramErr != nil {
		return nil, paramErr
	}

	accessToken := g.factory.AccessToken(identity, client, g.config.ExpirationTime)
	if err := g.accessTokens.WriteAccessToken(ctx, accessToken); err != nil {
		return nil, fmt.Errorf("write access token: %w", err)
	}

	now := g.factory.Now()
	params := map[string]string{
		"access_token": accessToken.Value,
		"expires_in":   strconv.FormatInt(accessToken.ExpiresIn(now), 10),
		"expires_on":   strconv.FormatInt(accessToken.ExpiresAt, 10),
	}
	if state := r.State(); state != "" {
		params[request.ParamState] = state
	}

	g.auditor.LogTokenIssued(identity.IdentityID(), client.ClientID, "implicit")
	g.logger.InfoContext(ctx, "access token issued",
		slog.String("client_id", client.ClientID),
		slog.String("grant", "implicit"))

	return RedirectOutcome(uri.WithQuery(params).URL()), nil
}

// validateRedirectURI checks a requested redirect URI against the client's
// registered set (exact match) and the scheme allow-list. Shared by the
// implicit and authorization code issue phases.
func validateRedirectURI(builder *redirect.Builder, auditor *security.Auditor, client *storage.Client, requested string) (*redirect.URI, error) {
	if !client.HasRedirectURI(requested) {
		auditor.LogAuthFailure(client.ClientID, "unregistered redirect uri")
		return nil, NewParameterError(request.ParamRedirectURI,
			fmt.Sprintf("Uri %s can not register for client %s", requested, client.ClientID))
	}

	uri, err := builder.Build(requested)
	if err != nil {
		return nil, NewParameterError(request.ParamRedirectURI,
			invalidParameterMessage(request.ParamRedirectURI, requested))
	}
	return uri, nil
}
