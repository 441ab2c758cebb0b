package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nade-api/internal/models"
	appErrors "github.com/noah-isme/nade-api/pkg/errors"
	"github.com/noah-isme/nade-api/pkg/response"
)

// RequireRoles lets the request through only for the listed roles. It must
// run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// Editors are the roles allowed to create and edit students and occurrences.
var Editors = []models.UserRole{models.RoleAdmin, models.RoleCoordinator}

// AdminOnly guards deletions and account management.
func AdminOnly() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin)
}
