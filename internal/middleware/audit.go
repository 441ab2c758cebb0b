package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/nade-api/pkg/logger"
	"github.com/noah-isme/nade-api/pkg/middleware/requestid"
)

// Audit writes one structured line per successful write on a resource.
// Route parameters are passed through logger.Sanitize so tokens and
// addresses never reach the log verbatim.
func Audit(l *zap.Logger, action, resource string) gin.HandlerFunc {
	if l == nil {
		l = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if status >= 400 {
			return
		}

		entry := map[string]interface{}{
			"action":   action,
			"resource": resource,
			"method":   c.Request.Method,
			"route":    c.FullPath(),
			"status":   status,
			"ip":       c.ClientIP(),
		}
		if claims := Claims(c); claims != nil {
			entry["actor_id"] = claims.UserID
			entry["actor_role"] = string(claims.Role)
		}
		if len(c.Params) > 0 {
			params := make(map[string]interface{}, len(c.Params))
			for _, p := range c.Params {
				params[p.Key] = p.Value
			}
			entry["params"] = params
		}
		if id, ok := c.Get(auditResourceKey); ok {
			entry["resource_id"] = id
		}
		if reqID := requestid.Value(c); reqID != "" {
			entry["request_id"] = reqID
		}

		fields := logger.Fields(entry)
		fields = append(fields, zap.Duration("latency", time.Since(start)))
		l.Info("audit", fields...)
	}
}

const auditResourceKey = "audit_resource_id"

// SetAuditResource records the id of a resource created by the handler so
// the audit line can reference it.
func SetAuditResource(c *gin.Context, id string) {
	c.Set(auditResourceKey, id)
}
