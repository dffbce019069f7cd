package middleware

import (
	"starter-server/apperrors"
	"starter-server/logger"

	"github.com/gin-gonic/gin"
)

// AbortWithError writes the error envelope for err and stops the chain.
// Internal causes are logged, never returned to the client.
func AbortWithError(c *gin.Context, log logger.Logger, err error) {
	appErr := apperrors.From(err)
	if appErr.Status >= 500 && log != nil {
		log.Error(c.Request.Method, " ", c.Request.URL.Path, ": ", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.Status, gin.H{"error": appErr.Message, "code": appErr.Code})
}
