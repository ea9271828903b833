package middleware

import (
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/ovaflus/ovaflus-auth/errors"
)

// DefaultMaxBodySize bounds request bodies when no limit is configured.
// Auth payloads are small; 1MB leaves room for long identity tokens.
const DefaultMaxBodySize int64 = 1 << 20

// BodySizeLimit returns middleware that restricts the request body to the given
// size string (e.g. "1MB", "512KB"). Invalid sizes fall back to DefaultMaxBodySize.
func BodySizeLimit(maxSize string) Middleware {
	size := ParseSize(maxSize, DefaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > size {
				writeError(w, tooLarge())
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}

// ParseSize converts "10MB", "512KB", "1GB" or a plain byte count to bytes.
func ParseSize(s string, fallback int64) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return fallback
	}
	multiplier := int64(1)
	for _, unit := range []struct {
		suffix string
		factor int64
	}{{"GB", 1 << 30}, {"MB", 1 << 20}, {"KB", 1 << 10}, {"B", 1}} {
		if strings.HasSuffix(s, unit.suffix) {
			multiplier = unit.factor
			s = strings.TrimSpace(strings.TrimSuffix(s, unit.suffix))
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n * multiplier
}

func tooLarge() *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeBadRequest, "Request body too large.", http.StatusRequestEntityTooLarge)
}
