package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"testing"

	"github.com/oauthkit/grantflow/request"
	"github.com/oauthkit/grantflow/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) (*Server, *testEnv) {
	t.Helper()

	env := newTestEnv(t)
	srv := NewServer(testLogger())
	if err := srv.RegisterHandler(ResponseTypeToken, env.implicit); err != nil {
		t.Fatalf("RegisterHandler(token) error = %v", err)
	}
	if err := srv.RegisterHandler(ResponseTypeCode, env.authCode); err != nil {
		t.Fatalf("RegisterHandler(code) error = %v", err)
	}
	return srv, env
}

// stubHandler lets dispatcher tests force specific handler behavior.
type stubHandler struct {
	canHandle bool
	outcome   *Outcome
	err       error
}

func (h *stubHandler) CanHandle(*request.AuthorizationRequest) bool {
	return h.canHandle
}

func (h *stubHandler) Handle(context.Context, storage.Identity, *request.AuthorizationRequest) (*Outcome, error) {
	return h.outcome, h.err
}

func TestServerRejectsDuplicateDiscriminant(t *testing.T) {
	srv := NewServer(testLogger())
	handler := &stubHandler{}

	if err := srv.RegisterHandler("token", handler); err != nil {
		t.Fatalf("first RegisterHandler() error = %v", err)
	}
	if err := srv.RegisterHandler("token", handler); err == nil {
		t.Fatal("second RegisterHandler() error = nil, want duplicate error")
	}
}

func TestServerWithoutHandlers(t *testing.T) {
	srv := NewServer(testLogger())

	_, err := srv.Authorize(context.Background(), nil, request.New("GET", url.Values{}))
	if !errors.Is(err, ErrNoHandlers) {
		t.Errorf("Authorize() error = %v, want ErrNoHandlers", err)
	}
}

func TestServerUnsupportedType(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name        string
		method      string
		params      url.Values
		wantKey     string
		wantMessage string
	}{
		{
			name:        "unknown response type",
			method:      "GET",
			params:      url.Values{"response_type": {"id_token"}},
			wantKey:     "response_type",
			wantMessage: "Unsupported response type",
		},
		{
			name:        "unknown grant type",
			method:      "POST",
			params:      url.Values{"grant_type": {"password"}},
			wantKey:     "grant_type",
			wantMessage: "Unsupported grant type",
		},
		{
			name:        "no discriminant at all",
			method:      "GET",
			params:      url.Values{},
			wantKey:     "response_type",
			wantMessage: "Unsupported response type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := srv.Authorize(context.Background(), nil, request.New(tt.method, tt.params))
			if err != nil {
				t.Fatalf("Authorize() error = %v", err)
			}
			if outcome.Kind != OutcomeError {
				t.Fatalf("outcome kind = %d, want error", outcome.Kind)
			}
			if outcome.Status != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", outcome.Status)
			}
			if got, _ := outcome.Errors.Get(tt.wantKey); got != tt.wantMessage {
				t.Errorf("message for %q = %q, want %q", tt.wantKey, got, tt.wantMessage)
			}
		})
	}
}

func TestServerConvertsParameterError(t *testing.T) {
	srv, env := newTestServer(t)

	params := url.Values{"response_type": {"token"}}
	outcome, err := srv.Authorize(context.Background(), env.identity, request.New("GET", params))
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}

	if outcome.Kind != OutcomeError {
		t.Fatalf("outcome kind = %d, want error", outcome.Kind)
	}
	if outcome.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", outcome.Status)
	}

	body := outcome.ErrorBody()
	if body.Code != http.StatusBadRequest {
		t.Errorf("body code = %d, want 400", body.Code)
	}
	if _, ok := body.Errors.Get("client_id"); !ok {
		t.Errorf("body errors missing client_id, keys = %v", body.Errors.Keys())
	}
}

func TestServerConvertsInternalError(t *testing.T) {
	srv := NewServer(testLogger())
	failing := &stubHandler{canHandle: true, err: errors.New("backend down")}
	if err := srv.RegisterHandler("token", failing); err != nil {
		t.Fatalf("RegisterHandler() error = %v", err)
	}

	outcome, err := srv.Authorize(context.Background(), nil, request.New("GET", url.Values{"response_type": {"token"}}))
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}

	if outcome.Status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", outcome.Status)
	}
	message, _ := outcome.Errors.Get("server")
	if message != "Server encountered an unexpected error while trying to process the request." {
		t.Errorf("message = %q", message)
	}
}

func TestServerFirstMatchWins(t *testing.T) {
	srv := NewServer(testLogger())
	first := &stubHandler{canHandle: true, outcome: TokenOutcome(&TokenPayload{AccessToken: "first"})}
	second := &stubHandler{canHandle: true, outcome: TokenOutcome(&TokenPayload{AccessToken: "second"})}
	if err := srv.RegisterHandler("a", first); err != nil {
		t.Fatalf("RegisterHandler(a) error = %v", err)
	}
	if err := srv.RegisterHandler("b", second); err != nil {
		t.Fatalf("RegisterHandler(b) error = %v", err)
	}

	outcome, err := srv.Authorize(context.Background(), nil, request.New("GET", url.Values{}))
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if outcome.Token.AccessToken != "first" {
		t.Errorf("access token = %q, want %q", outcome.Token.AccessToken, "first")
	}
}

func TestServerFullImplicitFlow(t *testing.T) {
	srv, env := newTestServer(t)

	params := authorizeParams()
	params.Set("response_type", "token")
	outcome, err := srv.Authorize(context.Background(), env.identity, request.New("GET", params))
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}

	if outcome.Kind != OutcomeRedirect {
		t.Fatalf("outcome kind = %d, want redirect", outcome.Kind)
	}
	if outcome.RedirectURI.Query().Get("access_token") == "" {
		t.Error("redirect is missing access_token")
	}
}
