package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ovaflus/ovaflus-auth/auth"
	"github.com/ovaflus/ovaflus-auth/auth/authctx"
	apperrors "github.com/ovaflus/ovaflus-auth/errors"
	"github.com/ovaflus/ovaflus-auth/logger"
)

// ClaimsKey is the Gin context key holding the verified *auth.Claims.
const ClaimsKey = "auth.claims"

const bearerPrefix = "Bearer "

// Authenticate returns a Gin middleware that requires a valid bearer token.
// Every failure produces the same 401 body; the reason is logged at debug.
func Authenticate(verifier auth.TokenVerifier, log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("authenticate")

	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			log.WithContext(c.Request.Context()).Debug("Request rejected", logger.Fields("reason", "missing or malformed authorization header"))
			abortUnauthorized(c)
			return
		}

		claims, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			log.WithContext(c.Request.Context()).Debug("Request rejected", logger.Fields(logger.FieldError, err.Error()))
			abortUnauthorized(c)
			return
		}

		c.Set(ClaimsKey, claims)
		c.Request = c.Request.WithContext(authctx.Set(c.Request.Context(), claims))
		c.Next()
	}
}

// Claims returns the claims stored by Authenticate.
func Claims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

func abortUnauthorized(c *gin.Context) {
	appErr := apperrors.Unauthorized("")
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
