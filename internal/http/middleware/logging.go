// README: Request logging middleware.
package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"glide/internal/observability"
)

func Logging(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		observability.HTTPRequestsTotal.
			WithLabelValues(c.Request.Method, c.FullPath(), strconv.Itoa(status)).
			Inc()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
