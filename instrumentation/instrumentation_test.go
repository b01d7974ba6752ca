package instrumentation

import (
	"context"
	"testing"
)

func TestNewDisabledUsesNoopProviders(t *testing.T) {
	inst, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if inst.Metrics() == nil {
		t.Fatal("Metrics() = nil")
	}
	if inst.Tracer() == nil {
		t.Fatal("Tracer() = nil")
	}

	// Recording against noop instruments must be a safe no-op.
	ctx := context.Background()
	inst.Metrics().RecordAuthorize(ctx, "code", "redirect", 1.5)
	inst.Metrics().RecordCredentialIssued(ctx, "access_token")
	inst.Metrics().RecordParameterError(ctx, "token")
	inst.Metrics().RecordInternalError(ctx)
	inst.Metrics().RecordCredentialReuse(ctx, "refresh_token")
}

func TestNewAppliesDefaultServiceIdentity(t *testing.T) {
	inst, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if inst.config.ServiceName != DefaultServiceName {
		t.Errorf("service name = %q, want %q", inst.config.ServiceName, DefaultServiceName)
	}
	if inst.config.ServiceVersion != DefaultServiceVersion {
		t.Errorf("service version = %q, want %q", inst.config.ServiceVersion, DefaultServiceVersion)
	}
	if inst.Resource() == nil {
		t.Error("Resource() = nil")
	}
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	// Must not panic.
	m.RecordAuthorize(ctx, "code", "redirect", 1)
	m.RecordCredentialIssued(ctx, "access_token")
	m.RecordParameterError(ctx, "code")
	m.RecordInternalError(ctx)
	m.RecordCredentialReuse(ctx, "authorization_code")
}

func TestShutdownIsIdempotent(t *testing.T) {
	inst, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := inst.Shutdown(context.Background()); err != nil {
		t.Errorf("first Shutdown() error = %v", err)
	}
	if err := inst.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}
