package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is where the middleware parks the request ID in the
// Gin context; the envelope metadata reads it back from there.
const ContextKeyRequestID = "request_id"

// RequestIDMiddleware tags every request with an ID for log and envelope
// correlation. An inbound X-Request-ID header is honored, otherwise a
// fresh UUID is minted; either way the ID is echoed on the response.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, reqID)
		c.Header("X-Request-ID", reqID)
		c.Next()
	}
}
