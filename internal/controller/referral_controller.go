package controller

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"estacrm_backend/internal/middleware"
	"estacrm_backend/internal/service/referral"
	"estacrm_backend/pkg/response"
)

type ReferralService interface {
	Refer(ctx context.Context, actor referral.Actor, itemID uint, in referral.ReferInput) (*referral.Record, error)
	Confirm(ctx context.Context, actor referral.Actor, referralID uint) (*referral.Record, error)
	Reject(ctx context.Context, actor referral.Actor, referralID uint) (*referral.Record, error)
	Pending(ctx context.Context, userID uint) ([]referral.Record, error)
	History(ctx context.Context, itemID uint) ([]referral.Record, error)
}

// ReferralController exposes one entity's referral workflow. visible rejects
// items the caller may not see.
type ReferralController struct {
	svc     ReferralService
	label   string
	visible func(c *fiber.Ctx, id uint) error
}

func NewReferralController(svc ReferralService, label string, visible func(c *fiber.Ctx, id uint) error) *ReferralController {
	return &ReferralController{svc: svc, label: label, visible: visible}
}

func actorOf(c *fiber.Ctx) referral.Actor {
	claims := middleware.Claims(c)
	return referral.Actor{UserID: claims.UserID, Role: claims.Role}
}

func records(recs []referral.Record) []referral.Record {
	if recs == nil {
		return []referral.Record{}
	}
	return recs
}

func (rc *ReferralController) Refer(c *fiber.Ctx) error {
	id, err := parseID(c, "id", rc.label)
	if err != nil {
		return err
	}
	input := new(referral.ReferInput)
	if err := bind(c, input); err != nil {
		return err
	}
	if err := rc.visible(c, id); err != nil {
		return err
	}

	rec, err := rc.svc.Refer(c.UserContext(), actorOf(c), id, *input)
	if err != nil {
		return err
	}
	return response.Created(c, rec)
}

func (rc *ReferralController) Pending(c *fiber.Ctx) error {
	recs, err := rc.svc.Pending(c.UserContext(), middleware.Claims(c).UserID)
	if err != nil {
		return err
	}
	return response.OK(c, records(recs))
}

func (rc *ReferralController) History(c *fiber.Ctx) error {
	id, err := parseID(c, "id", rc.label)
	if err != nil {
		return err
	}
	if err := rc.visible(c, id); err != nil {
		return err
	}
	recs, err := rc.svc.History(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.OK(c, records(recs))
}

func (rc *ReferralController) Confirm(c *fiber.Ctx) error {
	id, err := parseID(c, "referralId", "referral")
	if err != nil {
		return err
	}
	rec, err := rc.svc.Confirm(c.UserContext(), actorOf(c), id)
	if err != nil {
		return err
	}
	return response.OK(c, rec)
}

func (rc *ReferralController) Reject(c *fiber.Ctx) error {
	id, err := parseID(c, "referralId", "referral")
	if err != nil {
		return err
	}
	rec, err := rc.svc.Reject(c.UserContext(), actorOf(c), id)
	if err != nil {
		return err
	}
	return response.OK(c, rec)
}
