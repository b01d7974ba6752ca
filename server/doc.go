// Package server implements the grant-flow engine: per-grant request
// validators, the implicit and authorization code handlers, and the
// dispatcher that routes a normalized authorization request to the first
// handler claiming it.
//
// Handlers return domain-level results and errors; the dispatcher is the
// single place that converts a ParameterError into a 400 JSON outcome and
// any unexpected failure into a generic internal-error outcome. Handlers
// never format HTTP responses themselves, so the engine can sit behind any
// transport binding.
//
// All handlers are stateless between calls: per-request data flows through
// Handle's parameters, which makes one handler instance safe to share
// across concurrent requests.
package server
