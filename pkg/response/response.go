// Package response writes the uniform {success, data, message, errors} envelope.
package response

import (
	"errors"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"estacrm_backend/pkg/apierror"
	"estacrm_backend/pkg/logger"
)

type Envelope struct {
	Success bool                  `json:"success"`
	Data    interface{}           `json:"data,omitempty"`
	Message string                `json:"message,omitempty"`
	Errors  []apierror.FieldError `json:"errors,omitempty"`
}

func OK(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Data: data})
}

func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Data: data})
}

func Message(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Success: status < 400, Message: message})
}

func Fail(c *fiber.Ctx, err *apierror.Error) error {
	return c.Status(err.Status).JSON(Envelope{
		Success: false,
		Message: err.Message,
		Errors:  err.Errors,
	})
}

// ErrorHandler returns the fiber error handler. Internal messages are hidden when
// production is true.
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var apiErr *apierror.Error
		if errors.As(err, &apiErr) {
			if apiErr.Status >= fiber.StatusInternalServerError {
				report(c, err)
				if production {
					return Fail(c, apierror.Internal("Internal server error"))
				}
			}
			return Fail(c, apiErr)
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return Fail(c, apierror.New(fe.Code, fe.Message))
		}

		report(c, err)
		msg := "Internal server error"
		if !production {
			msg = err.Error()
		}
		return Fail(c, apierror.Internal(msg))
	}
}

func report(c *fiber.Ctx, err error) {
	logger.FromCtx(c).Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	if hub := sentry.CurrentHub(); hub != nil && hub.Client() != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("http.method", c.Method())
			scope.SetTag("http.route", c.Route().Path)
			hub.CaptureException(err)
		})
	}
}
