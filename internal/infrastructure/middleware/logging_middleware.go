package middleware

import (
	"time"

	"vidlink/pkg/logger"
	"vidlink/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggingMiddleware tags every request with a request id and the
// acting peer id (when present) and logs method/path/status/duration.
func RequestLoggingMiddleware(cl *logger.ContextLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := logger.WithRequestID(c.Request.Context(), utils.GenerateRequestID())
		if peerID := c.Query("peerId"); peerID != "" {
			ctx = logger.WithPeerID(ctx, peerID)
		}
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		cl.LogRequest(ctx, c.Request.Method, c.FullPath(), c.Writer.Status(),
			time.Since(start).Milliseconds())
	}
}
