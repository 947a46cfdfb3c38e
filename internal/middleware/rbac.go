package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/campushub/srms-api/internal/models"
	appErrors "github.com/campushub/srms-api/pkg/errors"
	"github.com/campushub/srms-api/pkg/response"
)

// RequireRoles blocks callers whose role is not in the allowed set. Unlike the
// per-record scope checks in the services, a role mismatch here is a plain
// forbidden: the route itself is off limits, not a particular record.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
