package middleware

import (
	"fmt"
	"time"

	"starter-server/entities"
	"starter-server/logger"
	"starter-server/usecases"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			query := c.Request.URL.Query()
			if query.Has(accessTokenParam) {
				query.Set(accessTokenParam, "redacted")
				raw = query.Encode()
			}
			path += "?" + raw
		}

		c.Next()

		userID := "-"
		if p, ok := CurrentPrincipal(c); ok {
			userID = p.UserID
		}
		line := fmt.Sprintf("%s %s %d %s ip=%s user=%s",
			c.Request.Method, path, c.Writer.Status(), time.Since(start).Round(time.Microsecond), c.ClientIP(), userID)

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error(line)
		case status >= 400:
			log.Warn(line)
		default:
			log.Info(line)
		}
	}
}

// Recovery turns panics into an INTERNAL_ERROR envelope.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		AbortWithError(c, log, fmt.Errorf("panic: %v", recovered))
	})
}

// UsageRecorder meters one api_requests unit per authenticated request.
func UsageRecorder(rec usecases.UsageRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if p, ok := CurrentPrincipal(c); ok {
			rec.Record(p.UserID, entities.MetricAPIRequests, 1)
		}
	}
}
