package controller

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"estacrm_backend/pkg/apierror"
	"estacrm_backend/pkg/response"
)

type HealthController struct {
	ping func(ctx context.Context) error
}

// NewHealthController takes the database ping. A nil ping always reports ok.
func NewHealthController(ping func(ctx context.Context) error) *HealthController {
	return &HealthController{ping: ping}
}

func (hc *HealthController) Health(c *fiber.Ctx) error {
	if hc.ping != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := hc.ping(ctx); err != nil {
			return apierror.New(fiber.StatusServiceUnavailable, "Database unavailable").Wrap(err)
		}
	}
	return response.OK(c, fiber.Map{"status": "ok", "time": time.Now().UTC()})
}
