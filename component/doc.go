// Package component manages the lifecycle of infrastructure pieces the
// service depends on: the credential store backend, the shared Redis
// key cache, the telemetry exporters and the HTTP server.
//
// Components start in registration order and stop in reverse order.
// Their Health results back the /health endpoint.
package component
