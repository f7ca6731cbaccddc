package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"estacrm_backend/pkg/apierror"
)

const (
	LoginAttempts = 10
	LoginWindow   = time.Minute
)

// LoginLimiter caps login attempts per client IP. storage may be nil, in which
// case counters live in process memory.
func LoginLimiter(storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        LoginAttempts,
		Expiration: LoginWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "login:" + c.IP()
		},
		Storage: storage,
		LimitReached: func(c *fiber.Ctx) error {
			return apierror.New(fiber.StatusTooManyRequests, "Too many login attempts, please try again later")
		},
	})
}
