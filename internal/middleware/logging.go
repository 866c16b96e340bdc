package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logging returns middleware that logs request processing time. Server
// errors are logged at error level, everything else at debug.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
		}
		if user := GetUser(c); user != nil {
			attrs = append(attrs, "user_id", user.ID)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		if status >= 500 {
			slog.Error("request failed", attrs...)
			return
		}
		slog.Debug("request processed", attrs...)
	}
}
