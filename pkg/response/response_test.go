package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estacrm_backend/pkg/apierror"
)

func decode(t *testing.T, body io.Reader) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		production bool
		err        error
		status     int
		message    string
	}{
		{"api error", true, apierror.Conflict("already exists"), 409, "already exists"},
		{"fiber error", true, fiber.NewError(fiber.StatusTooManyRequests, "Too Many Requests"), 429, "Too Many Requests"},
		{"unexpected in production", true, errors.New("pq: relation missing"), 500, "Internal server error"},
		{"unexpected in development", false, errors.New("pq: relation missing"), 500, "pq: relation missing"},
		{"internal api error in production", true, apierror.Internal("Could not save lead").Wrap(errors.New("x")), 500, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(tt.production)})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			env := decode(t, resp.Body)
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, env.Message)
		})
	}
}

func TestEnvelopeHelpers(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c *fiber.Ctx) error { return OK(c, fiber.Map{"id": 1}) })
	app.Post("/created", func(c *fiber.Ctx) error { return Created(c, fiber.Map{"id": 2}) })
	app.Get("/validation", func(c *fiber.Ctx) error {
		return Fail(c, apierror.Validation("Validation failed", apierror.FieldError{Field: "phone", Message: "phone is required"}))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	env := decode(t, resp.Body)
	assert.True(t, env.Success)
	assert.Equal(t, map[string]interface{}{"id": float64(1)}, env.Data)

	resp, err = app.Test(httptest.NewRequest("POST", "/created", nil))
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/validation", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	env = decode(t, resp.Body)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "phone", env.Errors[0].Field)
}
