package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"estacrm_backend/internal/model"
	"estacrm_backend/pkg/apierror"
	"estacrm_backend/pkg/logger"
	"estacrm_backend/pkg/utils/jwt"
)

const (
	claimsKey = "user"
	userKey   = "current_user"
)

type UserLoader interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

// Auth validates the bearer token and reloads the user so deactivated
// accounts and role changes take effect before the token expires.
func Auth(users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return apierror.Unauthorized("Authentication required")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return apierror.Unauthorized("Authentication required")
		}

		claims, err := jwt.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			logger.FromCtx(c).Debug("invalid token", zap.Error(err))
			return apierror.Unauthorized("Invalid or expired token")
		}

		user, err := users.FindByID(c.UserContext(), claims.UserID)
		if err != nil || !user.IsActive {
			return apierror.Unauthorized("Invalid or expired token")
		}
		claims.Role = user.Role
		claims.Email = user.Email

		c.Locals(claimsKey, claims)
		c.Locals(userKey, user)
		return c.Next()
	}
}

// Claims returns the authenticated caller, or nil outside Auth.
func Claims(c *fiber.Ctx) *jwt.Claims {
	claims, _ := c.Locals(claimsKey).(*jwt.Claims)
	return claims
}

func CurrentUser(c *fiber.Ctx) *model.User {
	u, _ := c.Locals(userKey).(*model.User)
	return u
}
