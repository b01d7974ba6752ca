package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the metric instruments the grant engine records into.
type Metrics struct {
	// Authorization flow metrics
	AuthorizeTotal    metric.Int64Counter
	AuthorizeDuration metric.Float64Histogram
	CredentialsIssued metric.Int64Counter

	// Error metrics
	ParameterErrors metric.Int64Counter
	InternalErrors  metric.Int64Counter

	// Security metrics
	CredentialReuse metric.Int64Counter
}

// newMetrics creates and registers all metric instruments.
func newMetrics(inst *Instrumentation) (*Metrics, error) {
	meter := inst.Meter()
	m := &Metrics{}

	var err error
	m.AuthorizeTotal, err = meter.Int64Counter(
		"grantflow.authorize.total",
		metric.WithDescription("Total number of authorize calls"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorize.total counter: %w", err)
	}

	m.AuthorizeDuration, err = meter.Float64Histogram(
		"grantflow.authorize.duration",
		metric.WithDescription("Authorize call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorize.duration histogram: %w", err)
	}

	m.CredentialsIssued, err = meter.Int64Counter(
		"grantflow.credentials.issued",
		metric.WithDescription("Credentials issued, by kind"),
		metric.WithUnit("{credential}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create credentials.issued counter: %w", err)
	}

	m.ParameterErrors, err = meter.Int64Counter(
		"grantflow.errors.parameter",
		metric.WithDescription("Requests rejected with a parameter error"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create errors.parameter counter: %w", err)
	}

	m.InternalErrors, err = meter.Int64Counter(
		"grantflow.errors.internal",
		metric.WithDescription("Requests failed with an internal error"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create errors.internal counter: %w", err)
	}

	m.CredentialReuse, err = meter.Int64Counter(
		"grantflow.security.credential_reuse",
		metric.WithDescription("Attempts to consume an already-used credential"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create security.credential_reuse counter: %w", err)
	}

	return m, nil
}

// RecordAuthorize records one authorize call with its selected
// discriminant, outcome kind, and duration.
func (m *Metrics) RecordAuthorize(ctx context.Context, discriminant, outcome string, durationMs float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("discriminant", discriminant),
		attribute.String("outcome", outcome),
	)
	m.AuthorizeTotal.Add(ctx, 1, attrs)
	m.AuthorizeDuration.Record(ctx, durationMs, attrs)
}

// RecordCredentialIssued records issuance of one credential of the given
// kind ("access_token", "authorization_code", "refresh_token").
func (m *Metrics) RecordCredentialIssued(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.CredentialsIssued.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

// RecordParameterError records a request rejected with a parameter error.
func (m *Metrics) RecordParameterError(ctx context.Context, discriminant string) {
	if m == nil {
		return
	}
	m.ParameterErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("discriminant", discriminant),
	))
}

// RecordInternalError records a request that failed unexpectedly.
func (m *Metrics) RecordInternalError(ctx context.Context) {
	if m == nil {
		return
	}
	m.InternalErrors.Add(ctx, 1)
}

// RecordCredentialReuse records an attempt to consume an already-used
// credential.
func (m *Metrics) RecordCredentialReuse(ctx context.Context, credential string) {
	if m == nil {
		return
	}
	m.CredentialReuse.Add(ctx, 1, metric.WithAttributes(
		attribute.String("credential", credential),
	))
}
