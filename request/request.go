// Package request provides the normalized, immutable view of an incoming
// authorization or token request that the grant engine consumes. The host
// transport builds one from whatever it parses (query string for GET issue
// flows, form body for POST exchange flows) and hands it to the dispatcher.
package request

import "net/url"

// Well-known parameter names.
const (
	ParamClientID     = "client_id"
	ParamRedirectURI  = "redirect_uri"
	ParamResponseType = "response_type"
	ParamGrantType    = "grant_type"
	ParamCode         = "code"
	ParamRefreshToken = "refresh_token"
	ParamClientSecret = "client_secret"
	ParamState        = "state"
)

// AuthorizationRequest is an immutable snapshot of one incoming request's
// parameters. Once constructed it cannot be mutated in place; derived
// copies are produced with WithParam.
type AuthorizationRequest struct {
	method string
	params url.Values
}

// New creates a request from an HTTP method and parameter set.
// The values are copied, so the caller's map stays independent.
func New(method string, params url.Values) *AuthorizationRequest {
	copied := make(url.Values, len(params))
	for key, values := range params {
		copied[key] = append([]string(nil), values...)
	}
	return &AuthorizationRequest{method: method, params: copied}
}

// Method returns the HTTP method the request arrived with.
func (r *AuthorizationRequest) Method() string {
	return r.method
}

// Get returns the first value of the named parameter, or the empty string
// when the parameter is absent. A missing key is never an error.
func (r *AuthorizationRequest) Get(key string) string {
	return r.params.Get(key)
}

// WithParam returns a copy of the request with one parameter replaced.
// The receiver is unchanged.
func (r *AuthorizationRequest) WithParam(key, value string) *AuthorizationRequest {
	derived := New(r.method, r.params)
	derived.params.Set(key, value)
	return derived
}

// ClientID returns the client_id parameter.
func (r *AuthorizationRequest) ClientID() string {
	return r.Get(ParamClientID)
}

// RedirectURI returns the redirect_uri parameter.
func (r *AuthorizationRequest) RedirectURI() string {
	return r.Get(ParamRedirectURI)
}

// ResponseType returns the response_type parameter.
func (r *AuthorizationRequest) ResponseType() string {
	return r.Get(ParamResponseType)
}

// GrantType returns the grant_type parameter.
func (r *AuthorizationRequest) GrantType() string {
	return r.Get(ParamGrantType)
}

// Code returns the code parameter.
func (r *AuthorizationRequest) Code() string {
	return r.Get(ParamCode)
}

// RefreshToken returns the refresh_token parameter.
func (r *AuthorizationRequest) RefreshToken() string {
	return r.Get(ParamRefreshToken)
}

// ClientSecret returns the client_secret parameter.
func (r *AuthorizationRequest) ClientSecret() string {
	return r.Get(ParamClientSecret)
}

// State returns the state parameter.
func (r *AuthorizationRequest) State() string {
	return r.Get(ParamState)
}
