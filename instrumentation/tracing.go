package instrumentation

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common span attribute keys.
//
// SECURITY WARNING: never put actual credential values (access tokens,
// refresh tokens, authorization codes, client secrets) in traces or
// metrics. Only metadata such as discriminants, expiry times, and
// validation results belongs here.
const (
	AttrClientID     = "oauth.client_id"
	AttrIdentityHash = "oauth.identity_hash"
	AttrGrantType    = "oauth.grant_type"
	AttrResponseType = "oauth.response_type"
	AttrDiscriminant = "oauth.discriminant"
	AttrOutcome      = "oauth.outcome"
	AttrExpiresIn    = "oauth.expires_in"
	AttrError        = "oauth.error"
)

// RecordError records an error on a span with proper status codes (nil-safe).
func RecordError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks a span as successful (nil-safe).
func SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// SetSpanError sets an error status on a span (nil-safe).
func SetSpanError(span trace.Span, message string) {
	if span != nil {
		span.SetStatus(codes.Error, message)
	}
}

// SetSpanAttributes sets attributes on a span (nil-safe).
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span != nil {
		span.SetAttributes(attrs...)
	}
}

// AddAuthorizeAttributes adds the common attributes of one authorize call
// to a span (nil-safe).
func AddAuthorizeAttributes(span trace.Span, clientID, discriminant string) {
	if clientID != "" {
		SetSpanAttributes(span, attribute.String(AttrClientID, clientID))
	}
	if discriminant != "" {
		SetSpanAttributes(span, attribute.String(AttrDiscriminant, discriminant))
	}
}
