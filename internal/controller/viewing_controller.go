package controller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"estacrm_backend/internal/middleware"
	"estacrm_backend/internal/model"
	"estacrm_backend/internal/repository"
	"estacrm_backend/internal/service/notify"
	"estacrm_backend/internal/service/timeline"
	"estacrm_backend/pkg/apierror"
	"estacrm_backend/pkg/response"
)

type ViewingStore interface {
	List(ctx context.Context, f repository.ViewingFilter, vis repository.Visibility) (*repository.List[model.Viewing], error)
	Get(ctx context.Context, id uint) (*model.Viewing, error)
	Create(ctx context.Context, v *model.Viewing) error
	Save(ctx context.Context, v *model.Viewing) error
	Delete(ctx context.Context, id uint) error
}

type PropertyLookup interface {
	Get(ctx context.Context, id uint) (*model.Property, error)
}

type ViewingController struct {
	viewings   ViewingStore
	leads      LeadLookup
	properties PropertyLookup
	staff      Staff
	timeline   *timeline.Service
	notifier   *notify.Service
}

func NewViewingController(
	viewings ViewingStore,
	leads LeadLookup,
	properties PropertyLookup,
	staff Staff,
	tl *timeline.Service,
	notifier *notify.Service,
) *ViewingController {
	return &ViewingController{
		viewings:   viewings,
		leads:      leads,
		properties: properties,
		staff:      staff,
		timeline:   tl,
		notifier:   notifier,
	}
}

type ViewingInput struct {
	PropertyID  uint   `json:"property_id" validate:"required"`
	LeadID      uint   `json:"lead_id" validate:"required"`
	AgentID     *uint  `json:"agent_id"`
	ScheduledAt string `json:"scheduled_at" validate:"required"`
	IsSerious   bool   `json:"is_serious"`
	Notes       string `json:"notes" validate:"max=5000"`
}

func (in *ViewingInput) normalize() {
	in.ScheduledAt = strings.TrimSpace(in.ScheduledAt)
	in.Notes = strings.TrimSpace(in.Notes)
}

// ViewingDetail is a viewing with its timeline sorted newest first.
type ViewingDetail struct {
	*model.Viewing
	CurrentStatus model.ViewingStatus `json:"current_status"`
}

var viewingMessages = apierror.DBMessages{NotFound: "Viewing not found"}

func parseScheduledAt(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apierror.Validation("Validation failed", apierror.FieldError{
		Field:   "scheduled_at",
		Message: "scheduled_at must be a date and time (RFC 3339)",
	})
}

func (vc *ViewingController) load(c *fiber.Ctx, id uint) (*model.Viewing, error) {
	v, err := vc.viewings.Get(c.UserContext(), id)
	if err != nil {
		return nil, apierror.FromDB(err, viewingMessages)
	}
	vis, err := visibility(c, vc.staff)
	if err != nil {
		return nil, err
	}
	if !vis.Allows(v.AgentID, v.CreatedByID) {
		return nil, apierror.NotFound(viewingMessages.NotFound)
	}
	return v, nil
}

func (vc *ViewingController) apply(c *fiber.Ctx, in *ViewingInput, v *model.Viewing) error {
	ctx := c.UserContext()
	if _, err := vc.properties.Get(ctx, in.PropertyID); err != nil {
		return apierror.Validation("Validation failed", apierror.FieldError{Field: "property_id", Message: "Property not found"})
	}
	if _, err := vc.leads.Get(ctx, in.LeadID); err != nil {
		return apierror.Validation("Validation failed", apierror.FieldError{Field: "lead_id", Message: "Lead not found"})
	}
	at, err := parseScheduledAt(in.ScheduledAt)
	if err != nil {
		return err
	}

	agentID := middleware.Claims(c).UserID
	if in.AgentID != nil && *in.AgentID != 0 {
		agentID = *in.AgentID
	} else if v.AgentID != 0 {
		agentID = v.AgentID
	}
	if agentID != v.AgentID {
		if err := checkAssignee(c, vc.staff, agentID); err != nil {
			return err
		}
	}

	v.PropertyID = in.PropertyID
	v.LeadID = in.LeadID
	v.AgentID = agentID
	v.ScheduledAt = at
	v.IsSerious = in.IsSerious
	v.Notes = in.Notes
	return nil
}

func (vc *ViewingController) notifyAssigned(c *fiber.Ctx, v *model.Viewing) {
	if v.AgentID == middleware.Claims(c).UserID {
		return
	}
	_ = vc.notifier.Notify(c.UserContext(), notify.Message{
		UserID:     v.AgentID,
		Type:       model.NotificationViewingAssigned,
		Title:      "New viewing assigned",
		Body:       fmt.Sprintf("You have a viewing on %s", v.ScheduledAt.Format("02 Jan 2006 15:04")),
		EntityType: "viewing",
		EntityID:   v.ID,
	})
}

func (vc *ViewingController) list(c *fiber.Ctx, serious *bool) error {
	vis, err := visibility(c, vc.staff)
	if err != nil {
		return err
	}
	from, err := queryTime(c, "from")
	if err != nil {
		return err
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return err
	}
	// A bare date includes the whole day.
	if to != nil && len(strings.TrimSpace(c.Query("to"))) == len("2006-01-02") {
		end := to.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	if serious == nil {
		serious = queryBool(c, "serious")
	}

	f := repository.ViewingFilter{
		AgentID:    queryUint(c, "agent_id"),
		PropertyID: queryUint(c, "property_id"),
		LeadID:     queryUint(c, "lead_id"),
		Serious:    serious,
		From:       from,
		To:         to,
		Page:       page(c),
	}
	list, err := vc.viewings.List(c.UserContext(), f, vis)
	if err != nil {
		return err
	}
	return response.OK(c, list)
}

func (vc *ViewingController) ListViewings(c *fiber.Ctx) error {
	return vc.list(c, nil)
}

func (vc *ViewingController) ListSerious(c *fiber.Ctx) error {
	serious := true
	return vc.list(c, &serious)
}

func (vc *ViewingController) GetViewing(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "viewing")
	if err != nil {
		return err
	}
	v, err := vc.load(c, id)
	if err != nil {
		return err
	}
	timeline.Sort(v.Updates)
	return response.OK(c, ViewingDetail{Viewing: v, CurrentStatus: timeline.CurrentStatus(v.Updates)})
}

func (vc *ViewingController) CreateViewing(c *fiber.Ctx) error {
	input := new(ViewingInput)
	if err := bind(c, input); err != nil {
		return err
	}

	v := &model.Viewing{CreatedByID: middleware.Claims(c).UserID}
	if err := vc.apply(c, input, v); err != nil {
		return err
	}
	if err := vc.viewings.Create(c.UserContext(), v); err != nil {
		return apierror.FromDB(err, viewingMessages)
	}
	vc.notifyAssigned(c, v)

	created, err := vc.viewings.Get(c.UserContext(), v.ID)
	if err != nil {
		return response.Created(c, v)
	}
	return response.Created(c, ViewingDetail{Viewing: created, CurrentStatus: timeline.CurrentStatus(created.Updates)})
}

func (vc *ViewingController) UpdateViewing(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "viewing")
	if err != nil {
		return err
	}
	input := new(ViewingInput)
	if err := bind(c, input); err != nil {
		return err
	}

	v, err := vc.load(c, id)
	if err != nil {
		return err
	}
	previousAgent := v.AgentID
	if err := vc.apply(c, input, v); err != nil {
		return err
	}
	updates := v.Updates
	v.Updates, v.Property, v.Lead, v.Agent = nil, nil, nil, nil
	if err := vc.viewings.Save(c.UserContext(), v); err != nil {
		return apierror.FromDB(err, viewingMessages)
	}
	if v.AgentID != previousAgent {
		vc.notifyAssigned(c, v)
	}

	updated, err := vc.viewings.Get(c.UserContext(), v.ID)
	if err != nil {
		v.Updates = updates
		timeline.Sort(v.Updates)
		return response.OK(c, ViewingDetail{Viewing: v, CurrentStatus: timeline.CurrentStatus(v.Updates)})
	}
	timeline.Sort(updated.Updates)
	return response.OK(c, ViewingDetail{Viewing: updated, CurrentStatus: timeline.CurrentStatus(updated.Updates)})
}

func (vc *ViewingController) DeleteViewing(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "viewing")
	if err != nil {
		return err
	}
	if _, err := vc.load(c, id); err != nil {
		return err
	}
	if err := vc.viewings.Delete(c.UserContext(), id); err != nil {
		return apierror.FromDB(err, viewingMessages)
	}
	return response.Message(c, fiber.StatusOK, "Viewing deleted successfully")
}

func (vc *ViewingController) ListUpdates(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "viewing")
	if err != nil {
		return err
	}
	if _, err := vc.load(c, id); err != nil {
		return err
	}
	updates, err := vc.timeline.List(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{
		"updates":        updates,
		"current_status": timeline.CurrentStatus(updates),
	})
}

func (vc *ViewingController) AddUpdate(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "viewing")
	if err != nil {
		return err
	}
	input := new(timeline.UpdateInput)
	if err := bind(c, input); err != nil {
		return err
	}
	v, err := vc.load(c, id)
	if err != nil {
		return err
	}

	u, err := vc.timeline.Add(c.UserContext(), v, middleware.Claims(c).UserID, *input)
	if err != nil {
		return err
	}
	return response.Created(c, u)
}

func (vc *ViewingController) EditUpdate(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "viewing")
	if err != nil {
		return err
	}
	updateID, err := parseID(c, "updateId", "update")
	if err != nil {
		return err
	}
	input := new(timeline.UpdateInput)
	if err := bind(c, input); err != nil {
		return err
	}
	if _, err := vc.load(c, id); err != nil {
		return err
	}

	claims := middleware.Claims(c)
	u, err := vc.timeline.Edit(c.UserContext(), id, updateID, claims.UserID, claims.Role, *input)
	if err != nil {
		return err
	}
	return response.OK(c, u)
}
