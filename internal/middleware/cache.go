package middleware

import "github.com/gin-gonic/gin"

// CacheHeader is set on responses that may be served from the cache.
const CacheHeader = "X-Cache"

// SetCacheHit marks whether the response body came from the cache.
func SetCacheHit(c *gin.Context, hit bool) {
	if hit {
		c.Header(CacheHeader, "HIT")
		return
	}
	c.Header(CacheHeader, "MISS")
}
