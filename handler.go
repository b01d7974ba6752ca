package grantflow

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/oauthkit/grantflow/request"
	"github.com/oauthkit/grantflow/server"
	"github.com/oauthkit/grantflow/storage"
)

// IdentityFunc resolves the authenticated identity of an HTTP request.
// Return nil for unauthenticated requests; issue-phase flows then redirect
// to the configured authentication URI.
type IdentityFunc func(r *http.Request) storage.Identity

// HTTPHandler binds the engine to net/http: it parses requests into
// normalized authorization requests and renders outcomes as redirects or
// JSON responses.
type HTTPHandler struct {
	srv      *AuthorizationServer
	identity IdentityFunc
	logger   *slog.Logger
}

// NewHTTPHandler creates the HTTP binding. identity may be nil, in which
// case every request is treated as unauthenticated.
func NewHTTPHandler(srv *AuthorizationServer, identity IdentityFunc, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{srv: srv, identity: identity, logger: logger}
}

// ServeAuthorize handles GET /authorize: the implicit flow and the
// authorization code issue phase, parameters in the query string.
func (h *HTTPHandler) ServeAuthorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.serve(w, r, request.New(r.Method, r.URL.Query()))
}

// ServeToken handles POST /token: the code exchange and refresh phases,
// parameters in the form body.
func (h *HTTPHandler) ServeToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}
	h.serve(w, r, request.New(r.Method, r.PostForm))
}

func (h *HTTPHandler) serve(w http.ResponseWriter, r *http.Request, authReq *request.AuthorizationRequest) {
	var identity storage.Identity
	if h.identity != nil {
		identity = h.identity(r)
	}

	outcome, err := h.srv.Authorize(r.Context(), identity, authReq)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "authorize failed", slog.Any("error", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.writeOutcome(w, r, outcome)
}

func (h *HTTPHandler) writeOutcome(w http.ResponseWriter, r *http.Request, outcome *Outcome) {
	switch outcome.Kind {
	case server.OutcomeRedirect:
		http.Redirect(w, r, outcome.RedirectURI.String(), http.StatusFound)
	case server.OutcomeToken:
		writeJSON(w, http.StatusOK, outcome.Token)
	case server.OutcomeError:
		writeJSON(w, outcome.Status, outcome.ErrorBody())
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
