package controller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"estacrm_backend/internal/middleware"
	"estacrm_backend/internal/model"
	"estacrm_backend/internal/rbac"
	"estacrm_backend/internal/repository"
	"estacrm_backend/pkg/apierror"
	"estacrm_backend/pkg/logger"
	"estacrm_backend/pkg/response"
)

type LeadStore interface {
	List(ctx context.Context, f repository.LeadFilter, vis repository.Visibility) (*repository.List[model.Lead], error)
	Get(ctx context.Context, id uint) (*model.Lead, error)
	Create(ctx context.Context, lead *model.Lead) error
	Save(ctx context.Context, lead *model.Lead) error
	Delete(ctx context.Context, id uint) error
}

type LeadStatusLookup interface {
	Get(ctx context.Context, id uint) (*model.LeadStatus, error)
	FindByCode(ctx context.Context, code string) (*model.LeadStatus, error)
}

type SourceLookup interface {
	Get(ctx context.Context, id uint) (*model.ReferenceSource, error)
}

// Staff resolves teams and checks assignees.
type Staff interface {
	TeamResolver
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

type LeadController struct {
	leads    LeadStore
	statuses LeadStatusLookup
	sources  SourceLookup
	staff    Staff
}

func NewLeadController(leads LeadStore, statuses LeadStatusLookup, sources SourceLookup, staff Staff) *LeadController {
	return &LeadController{leads: leads, statuses: statuses, sources: sources, staff: staff}
}

type LeadInput struct {
	CustomerName      string  `json:"customer_name" validate:"required,max=150"`
	Phone             string  `json:"phone" validate:"required,phone"`
	Email             string  `json:"email" validate:"omitempty,email,max=255"`
	Price             float64 `json:"price" validate:"gte=0"`
	StatusID          uint    `json:"status_id"`
	AgentID           *uint   `json:"agent_id"`
	ReferenceSourceID *uint   `json:"reference_source_id"`
	LeadDate          string  `json:"lead_date"`
	Notes             string  `json:"notes" validate:"max=5000"`
}

func (in *LeadInput) normalize() {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.Notes = strings.TrimSpace(in.Notes)
	in.LeadDate = strings.TrimSpace(in.LeadDate)
}

var leadMessages = apierror.DBMessages{NotFound: "Lead not found"}

func parseDay(field, v string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Time{}, apierror.Validation("Validation failed", apierror.FieldError{
		Field:   field,
		Message: fmt.Sprintf("%s must be a date (YYYY-MM-DD)", field),
	})
}

// checkAssignee enforces who may be given work: agents only themselves, team
// leaders their team, everyone else any active user.
func checkAssignee(c *fiber.Ctx, staff Staff, agentID uint) error {
	claims := middleware.Claims(c)
	switch rbac.ScopeOf(claims.Role) {
	case rbac.ScopeOwn:
		if agentID != claims.UserID {
			return apierror.Forbidden("You can only assign records to yourself")
		}
	case rbac.ScopeTeam:
		ids, err := staff.TeamIDs(c.UserContext(), claims.UserID)
		if err != nil {
			return err
		}
		if !(repository.Visibility{Scope: rbac.ScopeTeam, UserIDs: ids}).Allows(agentID) {
			return apierror.Forbidden("You can only assign records to your team")
		}
	}

	agent, err := staff.FindByID(c.UserContext(), agentID)
	if err != nil || !agent.IsActive {
		return apierror.Validation("Validation failed", apierror.FieldError{
			Field:   "agent_id",
			Message: "Assigned agent not found or inactive",
		})
	}
	return nil
}

func (lc *LeadController) apply(c *fiber.Ctx, in *LeadInput, lead *model.Lead) error {
	ctx := c.UserContext()

	if in.StatusID == 0 {
		if lead.StatusID == 0 {
			st, err := lc.statuses.FindByCode(ctx, model.LeadStatusCodeNew)
			if err != nil {
				return apierror.Validation("Validation failed", apierror.FieldError{Field: "status_id", Message: "status_id is required"})
			}
			lead.StatusID = st.ID
		}
	} else {
		if _, err := lc.statuses.Get(ctx, in.StatusID); err != nil {
			return apierror.Validation("Validation failed", apierror.FieldError{Field: "status_id", Message: "Lead status not found"})
		}
		lead.StatusID = in.StatusID
	}

	if in.ReferenceSourceID != nil && *in.ReferenceSourceID != 0 {
		if _, err := lc.sources.Get(ctx, *in.ReferenceSourceID); err != nil {
			return apierror.Validation("Validation failed", apierror.FieldError{Field: "reference_source_id", Message: "Reference source not found"})
		}
		lead.ReferenceSourceID = in.ReferenceSourceID
	} else {
		lead.ReferenceSourceID = nil
	}

	if in.AgentID != nil && *in.AgentID != 0 {
		if lead.AgentID == nil || *lead.AgentID != *in.AgentID {
			if err := checkAssignee(c, lc.staff, *in.AgentID); err != nil {
				return err
			}
		}
		lead.AgentID = in.AgentID
	}

	if in.LeadDate != "" {
		d, err := parseDay("lead_date", in.LeadDate)
		if err != nil {
			return err
		}
		lead.LeadDate = d
	}

	lead.CustomerName = in.CustomerName
	lead.Phone = in.Phone
	lead.Email = strings.ToLower(in.Email)
	lead.Price = in.Price
	lead.Notes = in.Notes
	return nil
}

// load fetches a lead the caller may see. Hidden leads are reported as missing.
func (lc *LeadController) load(c *fiber.Ctx, id uint) (*model.Lead, error) {
	lead, err := lc.leads.Get(c.UserContext(), id)
	if err != nil {
		return nil, apierror.FromDB(err, leadMessages)
	}
	vis, err := visibility(c, lc.staff)
	if err != nil {
		return nil, err
	}
	if !vis.Allows(ownerIDs(lead.AgentID, lead.AddedByID)...) {
		return nil, apierror.NotFound(leadMessages.NotFound)
	}
	return lead, nil
}

// Visible is the referral controller's access check.
func (lc *LeadController) Visible(c *fiber.Ctx, id uint) error {
	_, err := lc.load(c, id)
	return err
}

func (lc *LeadController) ListLeads(c *fiber.Ctx) error {
	vis, err := visibility(c, lc.staff)
	if err != nil {
		return err
	}
	f := repository.LeadFilter{
		StatusID:       queryUint(c, "status_id"),
		AgentID:        queryUint(c, "agent_id"),
		ReferralStatus: model.ReferralStatus(c.Query("referral_status")),
		Search:         c.Query("search"),
		Page:           page(c),
	}
	list, err := lc.leads.List(c.UserContext(), f, vis)
	if err != nil {
		return err
	}
	return response.OK(c, list)
}

func (lc *LeadController) GetLead(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "lead")
	if err != nil {
		return err
	}
	lead, err := lc.load(c, id)
	if err != nil {
		return err
	}
	return response.OK(c, lead)
}

func (lc *LeadController) CreateLead(c *fiber.Ctx) error {
	input := new(LeadInput)
	if err := bind(c, input); err != nil {
		return err
	}

	claims := middleware.Claims(c)
	lead := &model.Lead{AddedByID: claims.UserID}
	if input.AgentID == nil && rbac.ScopeOf(claims.Role) == rbac.ScopeOwn {
		self := claims.UserID
		input.AgentID = &self
	}
	if err := lc.apply(c, input, lead); err != nil {
		return err
	}

	if err := lc.leads.Create(c.UserContext(), lead); err != nil {
		return apierror.FromDB(err, leadMessages)
	}
	logger.FromCtx(c).Info("lead created", zap.Uint("lead_id", lead.ID), zap.Uint("by", claims.UserID))

	created, err := lc.leads.Get(c.UserContext(), lead.ID)
	if err != nil {
		return response.Created(c, lead)
	}
	return response.Created(c, created)
}

func (lc *LeadController) UpdateLead(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "lead")
	if err != nil {
		return err
	}
	input := new(LeadInput)
	if err := bind(c, input); err != nil {
		return err
	}

	lead, err := lc.load(c, id)
	if err != nil {
		return err
	}
	if err := lc.apply(c, input, lead); err != nil {
		return err
	}
	if err := lc.leads.Save(c.UserContext(), lead); err != nil {
		return apierror.FromDB(err, leadMessages)
	}

	updated, err := lc.leads.Get(c.UserContext(), lead.ID)
	if err != nil {
		return response.OK(c, lead)
	}
	return response.OK(c, updated)
}

func (lc *LeadController) DeleteLead(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "lead")
	if err != nil {
		return err
	}
	if _, err := lc.load(c, id); err != nil {
		return err
	}
	if err := lc.leads.Delete(c.UserContext(), id); err != nil {
		return apierror.FromDB(err, leadMessages)
	}
	return response.Message(c, fiber.StatusOK, "Lead deleted successfully")
}
