package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header is the request/response header carrying the correlation id.
const Header = "X-Request-ID"

const contextKey = "request_id"

// Middleware propagates an inbound X-Request-ID or assigns a fresh UUID.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)
		c.Next()
	}
}

// Value returns the request id stored on the context, or "".
func Value(c *gin.Context) string {
	return c.GetString(contextKey)
}
