// Package observability sets up OpenTelemetry tracing and metrics and
// defines the instruments the authentication paths record into.
//
// With telemetry disabled the global no-op providers stay in place, so
// StartSpan and the AuthMetrics recorders are always safe to call.
package observability
