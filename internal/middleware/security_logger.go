package middleware

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"estacrm_backend/pkg/apierror"
	"estacrm_backend/pkg/security"
)

// SecurityLogger records suspicious input before the handler runs and
// failure statuses after it. The response is never modified.
func SecurityLogger(sink security.Sink) fiber.Handler {
	return func(c *fiber.Ctx) error {
		inspectRequest(c, sink)

		err := c.Next()

		status, message := outcome(c, err)
		if typ, ok := failureEvent(status, message); ok {
			sink.Record(newEvent(c, typ, "", "", status))
		}
		return err
	}
}

func inspectRequest(c *fiber.Ctx, sink security.Sink) {
	for k, v := range c.Queries() {
		if threat, ok := security.DetectSuspiciousInput(v); ok {
			sink.Record(newEvent(c, security.EventType(threat), "query."+k, v, 0))
		}
	}

	if !isJSON(c) || len(c.Body()) == 0 {
		return
	}
	var body interface{}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return
	}
	values := map[string]string{}
	security.Strings(body, "", values)
	for field, v := range values {
		if passwordFields[lastSegment(field)] {
			continue
		}
		if threat, ok := security.DetectSuspiciousInput(v); ok {
			sink.Record(newEvent(c, security.EventType(threat), "body."+field, v, 0))
		}
	}
}

// outcome resolves the status the error handler will write for err.
func outcome(c *fiber.Ctx, err error) (int, string) {
	if err == nil {
		return c.Response().StatusCode(), ""
	}
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status, apiErr.Message
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}
	return fiber.StatusInternalServerError, ""
}

func failureEvent(status int, message string) (security.EventType, bool) {
	switch status {
	case fiber.StatusBadRequest:
		return security.EventValidationFailure, true
	case fiber.StatusUnauthorized:
		return security.EventAuthFailure, true
	case fiber.StatusForbidden:
		if strings.Contains(strings.ToLower(message), "csrf") {
			return security.EventCSRFFailure, true
		}
		return security.EventPermissionDenied, true
	case fiber.StatusTooManyRequests:
		return security.EventRateLimitExceeded, true
	}
	return "", false
}

func newEvent(c *fiber.Ctx, typ security.EventType, field, sample string, status int) security.Event {
	e := security.Event{
		Type:   typ,
		Time:   time.Now(),
		IP:     c.IP(),
		Method: c.Method(),
		Path:   c.Path(),
		Field:  field,
		Sample: sample,
		Status: status,
	}
	e.RequestID, _ = c.Locals("requestid").(string)
	if claims := Claims(c); claims != nil {
		e.UserID = claims.UserID
	}
	return e
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}
