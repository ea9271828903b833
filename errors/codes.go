package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Request errors
const (
	// ErrCodeBadRequest indicates the request body or parameters have the wrong shape.
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeConflict indicates a conflict with existing state, e.g. a taken email.
	ErrCodeConflict ErrorCode = "CONFLICT"
	// ErrCodeRateLimited indicates the client sent too many authentication attempts.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Authentication errors
const (
	// ErrCodeUnauthorized covers every credential or token failure. Sub-reasons are never exposed.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

// Upstream and internal errors
const (
	// ErrCodeUpstreamUnavailable indicates a JWKS endpoint or identity provider failed or timed out.
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	// ErrCodeInternal indicates a hashing, signing or storage failure not caused by the caller.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeUpstreamUnavailable: true,
	ErrCodeRateLimited:         true,
}

// IsRetryableCode returns true if the caller may retry a request that failed with code.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
