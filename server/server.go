package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/oauthkit/grantflow/instrumentation"
	"github.com/oauthkit/grantflow/request"
	"github.com/oauthkit/grantflow/storage"
)

// Discriminant values the stock handlers register under.
const (
	ResponseTypeToken          = "token"
	ResponseTypeCode           = "code"
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"

	// TokenTypeBearer is the token_type of every issued payload.
	TokenTypeBearer = "Bearer"
)

// ErrNoHandlers is returned by Authorize when no grant handlers are
// registered. This is a wiring error, not an unsupported request.
var ErrNoHandlers = errors.New("no grant handlers registered")

// Handler is one grant flow strategy. CanHandle decides whether the
// handler services a request; Handle executes the flow. Handle returns a
// *ParameterError for user-facing failures; any other error is treated as
// internal.
//
// Handlers must be safe for concurrent use: all per-request state travels
// through Handle's parameters.
type Handler interface {
	CanHandle(r *request.AuthorizationRequest) bool
	Handle(ctx context.Context, identity storage.Identity, r *request.AuthorizationRequest) (*Outcome, error)
}

// Server dispatches authorization requests to registered grant handlers
// and converts their results and errors into wire-level outcomes. It is
// the single place where a ParameterError becomes a 400 JSON body.
type Server struct {
	handlers      []Handler
	discriminants map[string]Handler
	logger        *slog.Logger
	inst          *instrumentation.Instrumentation
}

// NewServer creates an empty dispatcher. Handlers are added with
// RegisterHandler; Authorize fails until at least one is registered.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		discriminants: make(map[string]Handler),
		logger:        logger,
	}
}

// SetInstrumentation enables OpenTelemetry metrics and tracing for
// Authorize calls.
func (s *Server) SetInstrumentation(inst *instrumentation.Instrumentation) {
	s.inst = inst
}

// RegisterHandler adds a grant handler under a discriminant (the
// response_type or grant_type it services). Registering two handlers under
// the same discriminant is a configuration error; selection among
// registered handlers is first-match in registration order.
func (s *Server) RegisterHandler(discriminant string, handler Handler) error {
	if discriminant == "" {
		return errors.New("discriminant must not be empty")
	}
	if handler == nil {
		return errors.New("handler must not be nil")
	}
	if _, exists := s.discriminants[discriminant]; exists {
		return fmt.Errorf("handler already registered for discriminant %q", discriminant)
	}
	s.discriminants[discriminant] = handler
	s.handlers = append(s.handlers, handler)
	return nil
}

// Authorize runs one authorization request through the first handler that
// claims it. identity is nil for unauthenticated calls. The returned
// outcome is always non-nil when err is nil; err is non-nil only for the
// no-handlers wiring error.
func (s *Server) Authorize(ctx context.Context, identity storage.Identity, r *request.AuthorizationRequest) (*Outcome, error) {
	if len(s.handlers) == 0 {
		return nil, ErrNoHandlers
	}

	discriminant := requestDiscriminant(r)
	start := time.Now()
	ctx, span := s.startSpan(ctx, r, discriminant)
	defer span.End()

	outcome := s.dispatch(ctx, identity, r, span)

	s.recordMetrics(ctx, discriminant, outcome, time.Since(start))
	return outcome, nil
}

func (s *Server) dispatch(ctx context.Context, identity storage.Identity, r *request.AuthorizationRequest, span trace.Span) *Outcome {
	for _, handler := range s.handlers {
		if !handler.CanHandle(r) {
			continue
		}

		outcome, err := handler.Handle(ctx, identity, r)
		if err != nil {
			var paramErr *ParameterError
			if errors.As(err, &paramErr) {
				s.logger.InfoContext(ctx, "authorization rejected",
					slog.String("client_id", r.ClientID()),
					slog.String("errors", paramErr.Messages.String()))
				instrumentation.SetSpanError(span, "parameter error")
				return ErrorOutcome(http.StatusBadRequest, paramErr.Messages)
			}

			s.logger.ErrorContext(ctx, "authorization failed",
				slog.String("client_id", r.ClientID()),
				slog.Any("error", err))
			instrumentation.RecordError(span, err)
			s.metrics().RecordInternalError(ctx)
			return internalErrorOutcome()
		}

		instrumentation.SetSpanSuccess(span)
		return outcome
	}

	instrumentation.SetSpanError(span, "unsupported type")
	return ErrorOutcome(http.StatusBadRequest, unsupportedTypeMessages(r))
}

// unsupportedTypeMessages keys the error by the discriminant the request
// actually carried: grant_type when present, response_type otherwise.
func unsupportedTypeMessages(r *request.AuthorizationRequest) *Messages {
	if r.GrantType() != "" {
		return NewMessages().Add(request.ParamGrantType, "Unsupported grant type")
	}
	return NewMessages().Add(request.ParamResponseType, "Unsupported response type")
}

func requestDiscriminant(r *request.AuthorizationRequest) string {
	if grantType := r.GrantType(); grantType != "" {
		return grantType
	}
	return r.ResponseType()
}

func (s *Server) startSpan(ctx context.Context, r *request.AuthorizationRequest, discriminant string) (context.Context, trace.Span) {
	ctx, span := s.tracer().Start(ctx, "authorize")
	instrumentation.AddAuthorizeAttributes(span, r.ClientID(), discriminant)
	return ctx, span
}

func (s *Server) recordMetrics(ctx context.Context, discriminant string, outcome *Outcome, elapsed time.Duration) {
	result := "success"
	switch {
	case outcome.Kind == OutcomeError && outcome.Status >= http.StatusInternalServerError:
		result = "internal_error"
	case outcome.Kind == OutcomeError:
		result = "parameter_error"
		s.metrics().RecordParameterError(ctx, discriminant)
	case outcome.Kind == OutcomeToken:
		s.metrics().RecordCredentialIssued(ctx, "access_token")
		s.metrics().RecordCredentialIssued(ctx, "refresh_token")
	case outcome.Kind == OutcomeRedirect:
		result = "redirect"
	}
	s.metrics().RecordAuthorize(ctx, discriminant, result, float64(elapsed.Milliseconds()))
}

func (s *Server) tracer() trace.Tracer {
	if s.inst != nil {
		return s.inst.Tracer()
	}
	return noop.NewTracerProvider().Tracer("")
}

func (s *Server) metrics() *instrumentation.Metrics {
	if s.inst != nil {
		return s.inst.Metrics()
	}
	return nil
}
