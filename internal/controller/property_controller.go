package controller

import (
	"context"
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

type PropertyStore interface {
	List(ctx context.Context, f repository.PropertyFilter, vis repository.Visibility) (*repository.List[model.Property], error)
	Get(ctx context.Context, id uint) (*model.Property, error)
	Create(ctx context.Context, p *model.Property) error
	Save(ctx context.Context, p *model.Property) error
	Delete(ctx context.Context, id uint) error

	CountImages(ctx context.Context, propertyID uint) (int64, error)
	CreateImage(ctx context.Context, img *model.PropertyImage) error
	FindImage(ctx context.Context, propertyID, imageID uint) (*model.PropertyImage, error)
	DeleteImage(ctx context.Context, img *model.PropertyImage) error
}

type PropertyStatusLookup interface {
	Get(ctx context.Context, id uint) (*model.PropertyStatus, error)
}

type CategoryLookup interface {
	Get(ctx context.Context, id uint) (*model.PropertyCategory, error)
}

type LeadLookup interface {
	Get(ctx context.Context, id uint) (*model.Lead, error)
}

type PropertyController struct {
	properties PropertyStore
	statuses   PropertyStatusLookup
	categories CategoryLookup
	leads      LeadLookup
	staff      Staff
	objects    ObjectStore
	now        func() time.Time
}

// NewPropertyController wires the listing endpoints. objects may be nil, in
// which case image uploads answer 503.
func NewPropertyController(
	properties PropertyStore,
	statuses PropertyStatusLookup,
	categories CategoryLookup,
	leads LeadLookup,
	staff Staff,
	objects ObjectStore,
) *PropertyController {
	return &PropertyController{
		properties: properties,
		statuses:   statuses,
		categories: categories,
		leads:      leads,
		staff:      staff,
		objects:    objects,
		now:        time.Now,
	}
}

type PropertyInput struct {
	ReferenceNumber string   `json:"reference_number" validate:"max=64"`
	StatusID        uint     `json:"status_id" validate:"required"`
	CategoryID      uint     `json:"category_id" validate:"required"`
	Location        string   `json:"location" validate:"required,max=255"`
	Building        string   `json:"building" validate:"max=255"`
	OwnerLeadID     *uint    `json:"owner_lead_id"`
	OwnerName       string   `json:"owner_name" validate:"max=150"`
	OwnerPhone      string   `json:"owner_phone" validate:"omitempty,phone"`
	Surface         float64  `json:"surface" validate:"gte=0"`
	Price           float64  `json:"price" validate:"gte=0"`
	CommissionRate  *float64 `json:"commission_rate" validate:"omitempty,gte=0,lte=100"`
	AgentID         *uint    `json:"agent_id"`
	ListingDate     string   `json:"listing_date"`
	Details         string   `json:"details" validate:"max=10000"`
}

func (in *PropertyInput) normalize() {
	in.ReferenceNumber = strings.ToUpper(strings.TrimSpace(in.ReferenceNumber))
	in.Location = strings.TrimSpace(in.Location)
	in.Building = strings.TrimSpace(in.Building)
	in.OwnerName = strings.TrimSpace(in.OwnerName)
	in.OwnerPhone = strings.TrimSpace(in.OwnerPhone)
	in.ListingDate = strings.TrimSpace(in.ListingDate)
	in.Details = strings.TrimSpace(in.Details)
}

var propertyMessages = apierror.DBMessages{
	NotFound: "Property not found",
	Conflict: "Property with this reference number already exists",
}

func (pc *PropertyController) apply(c *fiber.Ctx, in *PropertyInput, p *model.Property) error {
	ctx := c.UserContext()

	status, err := pc.statuses.Get(ctx, in.StatusID)
	if err != nil {
		return apierror.Validation("Validation failed", apierror.FieldError{Field: "status_id", Message: "Property status not found"})
	}
	if _, err := pc.categories.Get(ctx, in.CategoryID); err != nil {
		return apierror.Validation("Validation failed", apierror.FieldError{Field: "category_id", Message: "Property category not found"})
	}
	if in.OwnerLeadID != nil && *in.OwnerLeadID != 0 {
		if _, err := pc.leads.Get(ctx, *in.OwnerLeadID); err != nil {
			return apierror.Validation("Validation failed", apierror.FieldError{Field: "owner_lead_id", Message: "Owner lead not found"})
		}
		p.OwnerLeadID = in.OwnerLeadID
	} else {
		p.OwnerLeadID = nil
	}

	if in.AgentID != nil && *in.AgentID != 0 {
		if p.AgentID == nil || *p.AgentID != *in.AgentID {
			if err := checkAssignee(c, pc.staff, *in.AgentID); err != nil {
				return err
			}
		}
		p.AgentID = in.AgentID
	}

	if in.ListingDate != "" {
		d, err := parseDay("listing_date", in.ListingDate)
		if err != nil {
			return err
		}
		p.ListingDate = d
	}

	// closed_at marks when the listing reached a terminal status and feeds
	// the commission report.
	if !status.IsTerminal {
		p.ClosedAt = nil
	} else if p.ClosedAt == nil || !pc.wasTerminal(ctx, p) {
		now := pc.now()
		p.ClosedAt = &now
	}
	p.StatusID = status.ID
	p.Status = nil

	if in.ReferenceNumber != "" {
		p.ReferenceNumber = in.ReferenceNumber
	} else if p.ReferenceNumber == "" {
		p.ReferenceNumber = model.GenerateReferenceNumber()
	}
	p.CategoryID = in.CategoryID
	p.Location = in.Location
	p.Building = in.Building
	p.OwnerName = in.OwnerName
	p.OwnerPhone = in.OwnerPhone
	p.Surface = in.Surface
	p.Price = in.Price
	if in.CommissionRate != nil {
		p.CommissionRate = *in.CommissionRate
	}
	p.Details = in.Details
	return nil
}

// wasTerminal reports whether the listing's stored status is terminal, so a
// move between two terminal statuses keeps the original close date.
func (pc *PropertyController) wasTerminal(ctx context.Context, p *model.Property) bool {
	if p.StatusID == 0 {
		return false
	}
	if p.Status != nil && p.Status.ID == p.StatusID {
		return p.Status.IsTerminal
	}
	st, err := pc.statuses.Get(ctx, p.StatusID)
	return err == nil && st.IsTerminal
}

func (pc *PropertyController) load(c *fiber.Ctx, id uint) (*model.Property, error) {
	p, err := pc.properties.Get(c.UserContext(), id)
	if err != nil {
		return nil, apierror.FromDB(err, propertyMessages)
	}
	vis, err := visibility(c, pc.staff)
	if err != nil {
		return nil, err
	}
	if !vis.Allows(ownerIDs(p.AgentID, p.AddedByID)...) {
		return nil, apierror.NotFound(propertyMessages.NotFound)
	}
	return p, nil
}

// Visible is the referral controller's access check.
func (pc *PropertyController) Visible(c *fiber.Ctx, id uint) error {
	_, err := pc.load(c, id)
	return err
}

func (pc *PropertyController) ListProperties(c *fiber.Ctx) error {
	vis, err := visibility(c, pc.staff)
	if err != nil {
		return err
	}
	minPrice, err := queryFloat(c, "min_price")
	if err != nil {
		return err
	}
	maxPrice, err := queryFloat(c, "max_price")
	if err != nil {
		return err
	}

	f := repository.PropertyFilter{
		StatusID:   queryUint(c, "status_id"),
		CategoryID: queryUint(c, "category_id"),
		AgentID:    queryUint(c, "agent_id"),
		Search:     c.Query("search"),
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		Page:       page(c),
	}
	list, err := pc.properties.List(c.UserContext(), f, vis)
	if err != nil {
		return err
	}
	return response.OK(c, list)
}

func (pc *PropertyController) GetProperty(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "property")
	if err != nil {
		return err
	}
	p, err := pc.load(c, id)
	if err != nil {
		return err
	}
	return response.OK(c, p)
}

func (pc *PropertyController) CreateProperty(c *fiber.Ctx) error {
	input := new(PropertyInput)
	if err := bind(c, input); err != nil {
		return err
	}

	claims := middleware.Claims(c)
	p := &model.Property{AddedByID: claims.UserID}
	if input.AgentID == nil && rbac.ScopeOf(claims.Role) == rbac.ScopeOwn {
		self := claims.UserID
		input.AgentID = &self
	}
	if err := pc.apply(c, input, p); err != nil {
		return err
	}

	if err := pc.properties.Create(c.UserContext(), p); err != nil {
		return apierror.FromDB(err, propertyMessages)
	}
	logger.FromCtx(c).Info("property created",
		zap.Uint("property_id", p.ID),
		zap.String("reference", p.ReferenceNumber),
		zap.Uint("by", claims.UserID),
	)

	created, err := pc.properties.Get(c.UserContext(), p.ID)
	if err != nil {
		return response.Created(c, p)
	}
	return response.Created(c, created)
}

func (pc *PropertyController) UpdateProperty(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "property")
	if err != nil {
		return err
	}
	input := new(PropertyInput)
	if err := bind(c, input); err != nil {
		return err
	}

	p, err := pc.load(c, id)
	if err != nil {
		return err
	}
	if err := pc.apply(c, input, p); err != nil {
		return err
	}
	p.Images = nil
	if err := pc.properties.Save(c.UserContext(), p); err != nil {
		return apierror.FromDB(err, propertyMessages)
	}

	updated, err := pc.properties.Get(c.UserContext(), p.ID)
	if err != nil {
		return response.OK(c, p)
	}
	return response.OK(c, updated)
}

func (pc *PropertyController) DeleteProperty(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "property")
	if err != nil {
		return err
	}
	p, err := pc.load(c, id)
	if err != nil {
		return err
	}
	if err := pc.properties.Delete(c.UserContext(), id); err != nil {
		return apierror.FromDB(err, propertyMessages)
	}

	if pc.objects != nil {
		for _, img := range p.Images {
			if err := pc.objects.Delete(c.UserContext(), img.ObjectKey); err != nil {
				logger.FromCtx(c).Warn("orphaned image object", zap.String("key", img.ObjectKey), zap.Error(err))
			}
		}
	}
	return response.Message(c, fiber.StatusOK, "Property deleted successfully")
}
