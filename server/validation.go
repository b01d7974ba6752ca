package server

import (
	"github.com/oauthkit/grantflow/request"
)

// maxParameterLength caps the accepted length of any required parameter
// value. Longer values get the invalid-value message.
const maxParameterLength = 128

// Validator checks that a request carries the parameters one grant flow
// requires. Validation is exhaustive, not fail-fast: every missing or
// invalid parameter is recorded, so one response can report client_id,
// redirect_uri, and response_type problems simultaneously.
type Validator struct {
	required []string
}

// NewAuthorizationValidator validates issue-phase requests (implicit and
// authorization-code issue).
func NewAuthorizationValidator() *Validator {
	return &Validator{required: []string{
		request.ParamClientID,
		request.ParamRedirectURI,
		request.ParamResponseType,
	}}
}

// NewCodeExchangeValidator validates access-token-by-code requests.
func NewCodeExchangeValidator() *Validator {
	return &Validator{required: []string{
		request.ParamGrantType,
		request.ParamClientID,
		request.ParamCode,
	}}
}

// NewRefreshTokenValidator validates refresh requests.
func NewRefreshTokenValidator() *Validator {
	return &Validator{required: []string{
		request.ParamGrantType,
		request.ParamClientID,
		request.ParamRefreshToken,
	}}
}

// Validate checks every required parameter and accumulates one keyed
// message per problem. ok is true only when the message set is empty.
func (v *Validator) Validate(r *request.AuthorizationRequest) (ok bool, errors *Messages) {
	messages := NewMessages()
	for _, name := range v.required {
		requireParam(r, name, messages)
	}
	return messages.Len() == 0, messages
}

// requireParam is the reusable required-parameter rule: the value must be
// present, non-empty, and within the length cap.
func requireParam(r *request.AuthorizationRequest, name string, messages *Messages) bool {
	value := r.Get(name)
	if value == "" {
		messages.Add(name, missingParameterMessage(name))
		return false
	}
	if len(value) > maxParameterLength {
		messages.Add(name, invalidParameterMessage(name, value))
		return false
	}
	return true
}
