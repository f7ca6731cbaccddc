package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"estacrm_backend/internal/model"
	"estacrm_backend/internal/rbac"
	"estacrm_backend/pkg/response"
	"estacrm_backend/pkg/security"
	"estacrm_backend/pkg/utils/jwt"
)

type fakeUsers map[uint]*model.User

func (f fakeUsers) FindByID(_ context.Context, id uint) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newUser(id uint, role rbac.Role, active bool) *model.User {
	u := &model.User{Email: "user@example.com", Role: role, IsActive: active}
	u.ID = id
	return u
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler(false)})
}

func decode(t *testing.T, resp *http.Response) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func bearer(t *testing.T, id uint, role rbac.Role) string {
	t.Helper()
	token, err := jwt.GenerateToken(id, "user@example.com", role)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuth(t *testing.T) {
	jwt.Configure("test-secret", time.Hour)
	users := fakeUsers{
		1: newUser(1, rbac.RoleAgent, true),
		2: newUser(2, rbac.RoleAdmin, false),
	}

	app := newApp()
	app.Get("/me", Auth(users), func(c *fiber.Ctx) error {
		return response.OK(c, fiber.Map{"id": Claims(c).UserID, "role": Claims(c).Role})
	})

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", 401, "Authentication required"},
		{"wrong scheme", "Basic abc", 401, "Authentication required"},
		{"garbage token", "Bearer not-a-jwt", 401, "Invalid or expired token"},
		{"inactive user", bearer(t, 2, rbac.RoleAdmin), 401, "Invalid or expired token"},
		{"unknown user", bearer(t, 9, rbac.RoleAdmin), 401, "Invalid or expired token"},
		{"valid", bearer(t, 1, rbac.RoleAgent), 200, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			env := decode(t, resp)
			assert.Equal(t, tt.message, env.Message)
		})
	}
}

func TestAuthUsesStoredRole(t *testing.T) {
	jwt.Configure("test-secret", time.Hour)
	users := fakeUsers{1: newUser(1, rbac.RoleTeamLeader, true)}

	app := newApp()
	app.Get("/role", Auth(users), func(c *fiber.Ctx) error {
		return c.SendString(string(Claims(c).Role))
	})

	req := httptest.NewRequest(http.MethodGet, "/role", nil)
	req.Header.Set("Authorization", bearer(t, 1, rbac.RoleAdmin))
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "team_leader", string(body))
}

func TestRequirePermission(t *testing.T) {
	jwt.Configure("test-secret", time.Hour)
	users := fakeUsers{
		1: newUser(1, rbac.RoleAgent, true),
		2: newUser(2, rbac.RoleOperationsManager, true),
	}

	app := newApp()
	app.Delete("/leads/1", Auth(users), RequirePermission(rbac.PermLeadsDelete), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodDelete, "/leads/1", nil)
	req.Header.Set("Authorization", bearer(t, 1, rbac.RoleAgent))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "You don't have permission to perform this action", decode(t, resp).Message)

	req = httptest.NewRequest(http.MethodDelete, "/leads/1", nil)
	req.Header.Set("Authorization", bearer(t, 2, rbac.RoleOperationsManager))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestSanitizer(t *testing.T) {
	app := newApp()
	app.Use(Sanitizer())
	app.Post("/echo", func(c *fiber.Ctx) error {
		return c.Send(c.Body())
	})

	body := `{"customer_name":"<b>John</b>","notes":["javascript:alert(1)"],"password":"p<a>ss'"}`
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "bJohn/b", got["customer_name"])
	assert.Equal(t, []interface{}{"alert(1)"}, got["notes"])
	assert.Equal(t, "p<a>ss'", got["password"])
}

func TestSanitizerKeepsNumbersIntact(t *testing.T) {
	app := newApp()
	app.Use(Sanitizer())
	app.Post("/echo", func(c *fiber.Ctx) error {
		return c.Send(c.Body())
	})

	body := `{"external_id":9007199254740993,"price":1250000.75,"notes":"<i>x</i>"}`
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := string(raw)
	assert.Contains(t, out, `"external_id":9007199254740993`)
	assert.Contains(t, out, `"price":1250000.75`)
	assert.Contains(t, out, `"notes":"ix/i"`)
}

func TestSanitizerIgnoresNonJSON(t *testing.T) {
	app := newApp()
	app.Use(Sanitizer())
	app.Post("/echo", func(c *fiber.Ctx) error {
		return c.Send(c.Body())
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("<b>raw</b>"))
	req.Header.Set("Content-Type", "text/plain")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "<b>raw</b>", string(body))
}

type captureSink struct {
	mu     sync.Mutex
	events []security.Event
}

func (s *captureSink) Record(e security.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *captureSink) Close() error { return nil }

func (s *captureSink) types() []security.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]security.EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

func TestSecurityLoggerDetectsInput(t *testing.T) {
	sink := &captureSink{}
	app := newApp()
	app.Use(SecurityLogger(sink))
	app.Post("/search", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	body := `{"q":"<script>alert(1)</script>","password":"' or 1=1 --"}`
	req := httptest.NewRequest(http.MethodPost, "/search?path=../../etc/passwd", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	_, err := app.Test(req)
	require.NoError(t, err)

	assert.ElementsMatch(t, []security.EventType{security.EventXSS, security.EventPathTraversal}, sink.types())
}

func TestSecurityLoggerRecordsFailureStatuses(t *testing.T) {
	tests := []struct {
		status  int
		message string
		want    security.EventType
	}{
		{400, "Validation failed", security.EventValidationFailure},
		{401, "Authentication required", security.EventAuthFailure},
		{403, "You don't have permission to perform this action", security.EventPermissionDenied},
		{403, "Invalid CSRF token", security.EventCSRFFailure},
		{429, "Too many requests", security.EventRateLimitExceeded},
	}
	for _, tt := range tests {
		sink := &captureSink{}
		app := newApp()
		app.Use(SecurityLogger(sink))
		app.Get("/x", func(c *fiber.Ctx) error { return fiber.NewError(tt.status, tt.message) })

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/x", nil))
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode)
		assert.Equal(t, []security.EventType{tt.want}, sink.types(), tt.message)
	}
}

func TestSecurityLoggerIgnoresSuccess(t *testing.T) {
	sink := &captureSink{}
	app := newApp()
	app.Use(SecurityLogger(sink))
	app.Get("/ok", func(c *fiber.Ctx) error { return response.OK(c, nil) })

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok?name=Jane", nil))
	require.NoError(t, err)
	assert.Empty(t, sink.types())
}

func TestLoginLimiter(t *testing.T) {
	app := newApp()
	app.Post("/login", LoginLimiter(nil), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < LoginAttempts; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too many login attempts, please try again later", decode(t, resp).Message)
}
