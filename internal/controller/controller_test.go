package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"estacrm_backend/internal/middleware"
	"estacrm_backend/internal/model"
	"estacrm_backend/internal/rbac"
	"estacrm_backend/pkg/response"
	"estacrm_backend/pkg/utils/jwt"
)

func init() {
	jwt.Configure("controller-test-secret", time.Hour)
}

// fakeStaff is an in-memory user directory keyed by id.
type fakeStaff map[uint]*model.User

func (f fakeStaff) FindByID(_ context.Context, id uint) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeStaff) TeamIDs(_ context.Context, leaderID uint) ([]uint, error) {
	ids := []uint{leaderID}
	for id, u := range f {
		if u.TeamLeaderID != nil && *u.TeamLeaderID == leaderID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func staffUser(id uint, role rbac.Role, leader *uint) *model.User {
	u := &model.User{
		Email:        "user@example.com",
		FirstName:    "User",
		Role:         role,
		IsActive:     true,
		TeamLeaderID: leader,
	}
	u.ID = id
	return u
}

func uintPtr(v uint) *uint { return &v }

// Default directory: 1 admin, 2 team leader, 3 and 4 agents of 2, 5 agent
// without a leader, 6 deactivated agent.
func defaultStaff() fakeStaff {
	s := fakeStaff{
		1: staffUser(1, rbac.RoleAdmin, nil),
		2: staffUser(2, rbac.RoleTeamLeader, nil),
		3: staffUser(3, rbac.RoleAgent, uintPtr(2)),
		4: staffUser(4, rbac.RoleAgent, uintPtr(2)),
		5: staffUser(5, rbac.RoleAgent, nil),
		6: staffUser(6, rbac.RoleAgent, nil),
	}
	s[6].IsActive = false
	return s
}

func newTestApp(staff fakeStaff) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler(false)})
	app.Use(middleware.Auth(staff))
	return app
}

func token(t *testing.T, staff fakeStaff, id uint) string {
	t.Helper()
	u := staff[id]
	require.NotNil(t, u)
	tok, err := jwt.GenerateToken(id, u.Email, u.Role)
	require.NoError(t, err)
	return "Bearer " + tok
}

type result struct {
	Status  int
	Header  http.Header
	Body    []byte
	Success bool
	Message string
	Data    json.RawMessage
}

func call(t *testing.T, app *fiber.App, staff fakeStaff, as uint, method, path string, body interface{}) result {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	req.Header.Set(fiber.HeaderAuthorization, token(t, staff, as))
	return roundTrip(t, app, req)
}

func roundTrip(t *testing.T, app *fiber.App, req *http.Request) result {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	res := result{Status: resp.StatusCode, Header: resp.Header, Body: raw}
	if len(raw) > 0 && json.Valid(raw) {
		var env struct {
			Success bool            `json:"success"`
			Message string          `json:"message"`
			Data    json.RawMessage `json:"data"`
		}
		if json.Unmarshal(raw, &env) == nil {
			res.Success, res.Message, res.Data = env.Success, env.Message, env.Data
		}
	}
	return res
}

func (r result) into(t *testing.T, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, dst), string(r.Body))
}
