package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is the header a caller may use to supply its own request ID
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the gin context key the request ID is stored under
const RequestIDKey = "request_id"

// RequestID ensures every request carries an ID. A caller-supplied
// X-Request-ID is kept, otherwise one is generated; either way it is echoed
// back in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Next()
	}
}

// GetRequestID returns the request ID from the gin context
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
