// Package instrumentation provides OpenTelemetry metrics and tracing for
// the grant flow engine.
//
// All instrumentation is optional and disabled by default. When disabled,
// noop providers are used so that instrumented code paths carry no
// measurable overhead.
//
// Metrics cover authorize calls by discriminant and outcome, issued
// credentials by kind, parameter and internal errors, and detected
// credential reuse. Credential values themselves never appear in any
// metric or span attribute.
package instrumentation
