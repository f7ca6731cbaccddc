package middleware

import (
	"github.com/gofiber/fiber/v2"

	"estacrm_backend/internal/rbac"
	"estacrm_backend/pkg/apierror"
)

// RequirePermission lets the request through when the caller's role holds at
// least one of perms.
func RequirePermission(perms ...rbac.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Claims(c)
		if claims == nil {
			return apierror.Unauthorized("Authentication required")
		}
		for _, p := range perms {
			if rbac.Can(claims.Role, p) {
				return c.Next()
			}
		}
		return apierror.Forbidden("You don't have permission to perform this action")
	}
}
