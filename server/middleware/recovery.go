package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "github.com/ovaflus/ovaflus-auth/errors"
	"github.com/ovaflus/ovaflus-auth/logger"
)

// Recovery returns middleware that turns a panic into a 500 INTERNAL_ERROR
// response and logs the stack.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.WithContext(r.Context()).Error("Panic recovered", logger.Fields(
					"error", fmt.Sprintf("%v", rec),
					"stack", string(debug.Stack()),
					"method", r.Method,
					"path", r.URL.Path,
				))
				writeError(w, apperrors.Internal(nil))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
