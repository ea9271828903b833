// Package errors provides the application error type shared by the auth service.
// Every failure that reaches an HTTP boundary is an *AppError carrying a code from the
// closed taxonomy (bad request, unauthorized, not found, conflict, upstream unavailable,
// internal) and the HTTP status it maps to.
package errors
