package endpoint

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/pipeflow/errors"
)

// NotFound answers unknown routes with the standard error envelope.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		RespondWithError(c, apperrors.NotFound("route", c.Request.Method+" "+c.Request.URL.Path))
	}
}
