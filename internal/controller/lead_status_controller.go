package controller

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"estacrm_backend/internal/model"
	"estacrm_backend/pkg/apierror"
	"estacrm_backend/pkg/response"
)

type LeadStatusStore interface {
	List(ctx context.Context, activeOnly bool) ([]model.LeadStatus, error)
	Get(ctx context.Context, id uint) (*model.LeadStatus, error)
	Create(ctx context.Context, st *model.LeadStatus) error
	Save(ctx context.Context, st *model.LeadStatus) error
	Delete(ctx context.Context, id uint) error
	InUse(ctx context.Context, id uint) (bool, error)
}

type LeadStatusController struct {
	statuses LeadStatusStore
}

func NewLeadStatusController(statuses LeadStatusStore) *LeadStatusController {
	return &LeadStatusController{statuses: statuses}
}

type LeadStatusInput struct {
	StatusName    string `json:"status_name" validate:"required,max=100"`
	Code          string `json:"code" validate:"required,max=50"`
	Color         string `json:"color" validate:"color"`
	Description   string `json:"description" validate:"max=1000"`
	IsActive      *bool  `json:"is_active"`
	CanBeReferred *bool  `json:"can_be_referred"`
}

func (in *LeadStatusInput) normalize() {
	in.StatusName = strings.TrimSpace(in.StatusName)
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Color = strings.TrimSpace(in.Color)
	if in.Color == "" {
		in.Color = model.DefaultStatusColor
	}
	in.Description = strings.TrimSpace(in.Description)
}

func (in *LeadStatusInput) apply(st *model.LeadStatus) {
	st.StatusName = in.StatusName
	st.Code = in.Code
	st.Color = in.Color
	st.Description = in.Description
	st.IsActive = in.IsActive == nil || *in.IsActive
	st.CanBeReferred = in.CanBeReferred == nil || *in.CanBeReferred
}

var leadStatusMessages = apierror.DBMessages{
	NotFound: "Lead status not found",
	Conflict: "Lead status with this name or code already exists",
	InUse:    "Cannot delete lead status - it is being used by existing leads",
}

func (lc *LeadStatusController) ListStatuses(c *fiber.Ctx) error {
	active := queryBool(c, "active")
	statuses, err := lc.statuses.List(c.UserContext(), active != nil && *active)
	if err != nil {
		return err
	}
	if statuses == nil {
		statuses = []model.LeadStatus{}
	}
	return response.OK(c, statuses)
}

func (lc *LeadStatusController) GetStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "lead status")
	if err != nil {
		return err
	}
	st, err := lc.statuses.Get(c.UserContext(), id)
	if err != nil {
		return apierror.FromDB(err, leadStatusMessages)
	}
	return response.OK(c, st)
}

func (lc *LeadStatusController) CreateStatus(c *fiber.Ctx) error {
	input := new(LeadStatusInput)
	if err := bind(c, input); err != nil {
		return err
	}

	st := &model.LeadStatus{}
	input.apply(st)
	if err := lc.statuses.Create(c.UserContext(), st); err != nil {
		return apierror.FromDB(err, leadStatusMessages)
	}
	return response.Created(c, st)
}

func (lc *LeadStatusController) UpdateStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "lead status")
	if err != nil {
		return err
	}
	input := new(LeadStatusInput)
	if err := bind(c, input); err != nil {
		return err
	}

	st, err := lc.statuses.Get(c.UserContext(), id)
	if err != nil {
		return apierror.FromDB(err, leadStatusMessages)
	}
	input.apply(st)
	if err := lc.statuses.Save(c.UserContext(), st); err != nil {
		return apierror.FromDB(err, leadStatusMessages)
	}
	return response.OK(c, st)
}

func (lc *LeadStatusController) DeleteStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "lead status")
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	if _, err := lc.statuses.Get(ctx, id); err != nil {
		return apierror.FromDB(err, leadStatusMessages)
	}
	inUse, err := lc.statuses.InUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return apierror.Conflict(leadStatusMessages.InUse)
	}
	if err := lc.statuses.Delete(ctx, id); err != nil {
		return apierror.FromDB(err, leadStatusMessages)
	}
	return response.Message(c, fiber.StatusOK, "Lead status deleted successfully")
}
