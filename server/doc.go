// Package server provides the service's HTTP server: Gin for routing, with
// recovery, request id, request logging, CORS and body size limits applied
// around the engine.
//
// # Middleware
//
// server/middleware also provides Authenticate, which guards protected
// routes with the single bearer verifier selected at startup, and RateLimit
// for the credential endpoints.
//
// # Endpoints
//
// server/endpoint provides the probes:
//
//   - /health: component health aggregation
//   - /alive: liveness
//   - /ready: readiness
package server
