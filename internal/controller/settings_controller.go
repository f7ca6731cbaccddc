package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"estacrm_backend/internal/middleware"
	"estacrm_backend/pkg/response"
)

// ProfileUpdateInput covers the fields users may change on their own account.
type ProfileUpdateInput struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,phone"`
}

func (ac *AuthController) GetProfile(c *fiber.Ctx) error {
	return response.OK(c, middleware.CurrentUser(c).GetPublicProfile())
}

func (ac *AuthController) UpdateProfile(c *fiber.Ctx) error {
	input := new(ProfileUpdateInput)
	if err := bind(c, input); err != nil {
		return err
	}

	user := middleware.CurrentUser(c)
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}

	if err := ac.users.Save(c.UserContext(), user); err != nil {
		return err
	}
	return response.OK(c, user.GetPublicProfile())
}
