package server

import (
	"net/http"
	"net/url"
)

// OutcomeKind discriminates the result variants of Authorize.
type OutcomeKind int

const (
	// OutcomeRedirect carries a Location URL: the credential-bearing
	// redirect of the issue phases, or the authentication redirect when
	// an issue-phase request arrives without an identity.
	OutcomeRedirect OutcomeKind = iota + 1

	// OutcomeToken carries the JSON credential payload of the exchange
	// and refresh phases.
	OutcomeToken

	// OutcomeError carries a status code and a keyed message set.
	OutcomeError
)

// TokenPayload is the JSON credential payload returned by the exchange and
// refresh phases.
type TokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresOn    int64  `json:"expires_on"`
}

// ErrorBody is the JSON error payload.
type ErrorBody struct {
	Code   int       `json:"code"`
	Errors *Messages `json:"errors"`
}

// Outcome is the abstract result of Authorize: a redirect, a JSON token
// payload, or a JSON error. The host transport renders it; the engine
// never formats HTTP responses itself.
type Outcome struct {
	Kind OutcomeKind

	// RedirectURI is set when Kind is OutcomeRedirect.
	RedirectURI *url.URL

	// Token is set when Kind is OutcomeToken.
	Token *TokenPayload

	// Status and Errors are set when Kind is OutcomeError.
	Status int
	Errors *Messages
}

// RedirectOutcome creates a redirect outcome.
func RedirectOutcome(uri *url.URL) *Outcome {
	return &Outcome{Kind: OutcomeRedirect, RedirectURI: uri}
}

// TokenOutcome creates a JSON credential payload outcome.
func TokenOutcome(payload *TokenPayload) *Outcome {
	return &Outcome{Kind: OutcomeToken, Token: payload}
}

// ErrorOutcome creates a JSON error outcome.
func ErrorOutcome(status int, errors *Messages) *Outcome {
	return &Outcome{Kind: OutcomeError, Status: status, Errors: errors}
}

// internalErrorOutcome is the generic 500 outcome for unexpected failures.
func internalErrorOutcome() *Outcome {
	return ErrorOutcome(http.StatusInternalServerError,
		NewMessages().Add("server", internalErrorMessage))
}

// ErrorBody returns the JSON error payload for an error outcome, or nil
// for the other kinds.
func (o *Outcome) ErrorBody() *ErrorBody {
	if o.Kind != OutcomeError {
		return nil
	}
	return &ErrorBody{Code: o.Status, Errors: o.Errors}
}
