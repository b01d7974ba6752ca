package server

import "fmt"

// internalErrorMessage is the generic text returned for unexpected
// failures. Details stay in the logs; clients never see them.
const internalErrorMessage = "Server encountered an unexpected error while trying to process the request."

// Validation message formats.
const (
	missingParameterFormat = "Required parameter '%s' is missing"
	invalidParameterFormat = "Parameter '%s' has invalid value '%s'"
)

// ParameterError is the recoverable, user-facing error class: missing or
// invalid request parameters, unregistered clients, mismatched redirect
// URIs, unsupported response types, and expired, used, or unknown
// credentials. It always carries one or more keyed messages and always
// surfaces as a 400-class JSON outcome, never a 5xx.
type ParameterError struct {
	Messages *Messages
}

// Error implements the error interface.
func (e *ParameterError) Error() string {
	return e.Messages.String()
}

// NewParameterError creates a ParameterError carrying a single keyed
// message.
func NewParameterError(key, message string) *ParameterError {
	return &ParameterError{Messages: NewMessages().Add(key, message)}
}

// NewParameterErrors creates a ParameterError carrying an accumulated
// message set.
func NewParameterErrors(messages *Messages) *ParameterError {
	return &ParameterError{Messages: messages}
}

func missingParameterMessage(name string) string {
	return fmt.Sprintf(missingParameterFormat, name)
}

func invalidParameterMessage(name, value string) string {
	return fmt.Sprintf(invalidParameterFormat, name, value)
}
