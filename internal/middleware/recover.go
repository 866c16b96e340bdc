package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// ErrorReporter receives unexpected failures for operator attention.
type ErrorReporter interface {
	Error(err error, where string)
}

// Recover returns middleware that recovers from panics in handlers.
func Recover(reporter ErrorReporter) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slog.Error("panic recovered in handler",
			"panic", recovered,
			"path", c.Request.URL.Path,
			"stack", string(debug.Stack()),
		)
		if reporter != nil {
			reporter.Error(fmt.Errorf("panic: %v", recovered), c.Request.Method+" "+c.Request.URL.Path)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}
