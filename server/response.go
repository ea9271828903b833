package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ovaflus/ovaflus-auth/errors"
	"github.com/ovaflus/ovaflus-auth/logger"
)

// RespondWithError writes err as an AppError body. Anything that is not an
// *AppError becomes INTERNAL_ERROR. Causes of 5xx responses are logged,
// never returned.
func RespondWithError(c *gin.Context, log *logger.Logger, err error) {
	appErr := apperrors.From(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError && log != nil {
		fields := logger.Fields("code", string(appErr.Code), "path", c.Request.URL.Path)
		if appErr.Cause != nil {
			fields[logger.FieldError] = appErr.Cause.Error()
		}
		log.WithContext(c.Request.Context()).Error("Request failed", fields)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

// RespondOK sends a 200 response with body.
func RespondOK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// RespondCreated sends a 201 response with body.
func RespondCreated(c *gin.Context, body any) {
	c.JSON(http.StatusCreated, body)
}
