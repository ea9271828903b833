// Package logger wraps zerolog with the conventions used across the auth service:
// a service tag, component-scoped child loggers, map-based structured fields,
// and a process-wide default logger for packages that are not handed one.
//
//	log := logger.New(&cfg.Logging, "ovaflus-auth").WithComponent("jwks")
//	log.Warn("token rejected", logger.Fields("kind", "unknown_key"))
package logger
