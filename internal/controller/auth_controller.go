package controller

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"estacrm_backend/internal/middleware"
	"estacrm_backend/internal/model"
	"estacrm_backend/internal/rbac"
	"estacrm_backend/pkg/apierror"
	"estacrm_backend/pkg/logger"
	"estacrm_backend/pkg/response"
	"estacrm_backend/pkg/utils/jwt"
)

type AuthStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Save(ctx context.Context, user *model.User) error
}

type AuthController struct {
	users AuthStore
}

func NewAuthController(users AuthStore) *AuthController {
	return &AuthController{users: users}
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	input := new(LoginInput)
	if err := bind(c, input); err != nil {
		return err
	}

	user, err := ac.users.FindByEmail(c.UserContext(), strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.Unauthorized("Invalid credentials")
		}
		return err
	}

	if !user.CheckPassword(input.Password) {
		return apierror.Unauthorized("Invalid credentials")
	}
	if !user.IsActive {
		return apierror.Forbidden("Account is deactivated")
	}

	token, err := jwt.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return apierror.Internal("Could not generate token").Wrap(err)
	}

	logger.FromCtx(c).Info("user logged in", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return response.OK(c, fiber.Map{
		"token": token,
		"user":  user.GetPublicProfile(),
	})
}

// GetMe returns the caller's profile together with their permissions.
func (ac *AuthController) GetMe(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	profile := user.GetPublicProfile()
	profile["permissions"] = rbac.Permissions(user.Role)
	return response.OK(c, profile)
}

func (ac *AuthController) ChangePassword(c *fiber.Ctx) error {
	input := new(ChangePasswordInput)
	if err := bind(c, input); err != nil {
		return err
	}

	user := middleware.CurrentUser(c)
	if !user.CheckPassword(input.CurrentPassword) {
		return apierror.BadRequest("Current password is incorrect")
	}
	if err := user.SetPassword(input.NewPassword); err != nil {
		return err
	}
	if err := ac.users.Save(c.UserContext(), user); err != nil {
		return err
	}
	return response.Message(c, fiber.StatusOK, "Password updated successfully")
}

func (ac *AuthController) Permissions(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	return response.OK(c, fiber.Map{
		"role":        claims.Role,
		"scope":       rbac.ScopeOf(claims.Role),
		"management":  rbac.IsManagement(claims.Role),
		"permissions": rbac.Permissions(claims.Role),
	})
}
