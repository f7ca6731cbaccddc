package controller

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"estacrm_backend/internal/middleware"
	"estacrm_backend/internal/rbac"
	"estacrm_backend/internal/repository"
	"estacrm_backend/pkg/apierror"
	"estacrm_backend/pkg/utils/validation"
)

func parseID(c *fiber.Ctx, param, label string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		return 0, apierror.BadRequest(fmt.Sprintf("Invalid %s ID", label))
	}
	return uint(id), nil
}

// normalizer is implemented by inputs that trim or default fields before
// validation.
type normalizer interface {
	normalize()
}

// bind parses the JSON body into dst and runs struct validation.
func bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apierror.BadRequest("Invalid request body")
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	return validation.Struct(dst)
}

func queryUint(c *fiber.Ctx, key string) uint {
	n, err := strconv.ParseUint(c.Query(key), 10, 32)
	if err != nil {
		return 0
	}
	return uint(n)
}

func queryBool(c *fiber.Ctx, key string) *bool {
	v := strings.ToLower(strings.TrimSpace(c.Query(key)))
	switch v {
	case "true", "1", "yes":
		b := true
		return &b
	case "false", "0", "no":
		b := false
		return &b
	}
	return nil
}

func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, apierror.BadRequest(fmt.Sprintf("%s must be a number", key))
	}
	return &f, nil
}

// queryTime accepts a calendar date or an RFC 3339 timestamp.
func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	return nil, apierror.BadRequest(fmt.Sprintf("%s must be a date (YYYY-MM-DD)", key))
}

func page(c *fiber.Ctx) repository.Page {
	return repository.Page{Page: c.QueryInt("page", 1), Limit: c.QueryInt("limit", repository.DefaultLimit)}
}

type TeamResolver interface {
	TeamIDs(ctx context.Context, leaderID uint) ([]uint, error)
}

// visibility turns the caller's role into the set of owners they may see.
func visibility(c *fiber.Ctx, teams TeamResolver) (repository.Visibility, error) {
	claims := middleware.Claims(c)
	scope := rbac.ScopeOf(claims.Role)
	switch scope {
	case rbac.ScopeOwn:
		return repository.Visibility{Scope: scope, UserIDs: []uint{claims.UserID}}, nil
	case rbac.ScopeTeam:
		ids, err := teams.TeamIDs(c.UserContext(), claims.UserID)
		if err != nil {
			return repository.Visibility{}, err
		}
		return repository.Visibility{Scope: scope, UserIDs: ids}, nil
	}
	return repository.Visibility{Scope: rbac.ScopeAll}, nil
}

func ownerIDs(agentID *uint, addedByID uint) []uint {
	ids := []uint{addedByID}
	if agentID != nil {
		ids = append(ids, *agentID)
	}
	return ids
}
