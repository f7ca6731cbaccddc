package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"estacrm_backend/internal/model"
	"estacrm_backend/pkg/apierror"
	"estacrm_backend/pkg/response"
)

type CatalogStore[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, item *T) error
	Save(ctx context.Context, item *T) error
	Delete(ctx context.Context, id uint) error
	InUse(ctx context.Context, id uint) (bool, error)
}

// CatalogController serves CRUD for one lookup table. In is the request body
// type and apply copies it onto the row.
type CatalogController[T any, In any] struct {
	store    CatalogStore[T]
	label    string
	apply    func(in *In, item *T)
	messages apierror.DBMessages
}

func newCatalogController[T any, In any](store CatalogStore[T], label, usedBy string, apply func(*In, *T)) *CatalogController[T, In] {
	title := strings.ToUpper(label[:1]) + label[1:]
	return &CatalogController[T, In]{
		store: store,
		label: label,
		apply: apply,
		messages: apierror.DBMessages{
			NotFound: title + " not found",
			Conflict: title + " with this name already exists",
			InUse:    fmt.Sprintf("Cannot delete %s - it is being used by existing %s", label, usedBy),
		},
	}
}

type NamedInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	IsActive *bool  `json:"is_active"`
}

func (in *NamedInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
}

type PropertyStatusInput struct {
	Name          string `json:"name" validate:"required,max=100"`
	Code          string `json:"code" validate:"required,max=50"`
	Color         string `json:"color" validate:"color"`
	CanBeReferred *bool  `json:"can_be_referred"`
	IsTerminal    bool   `json:"is_terminal"`
}

func (in *PropertyStatusInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Color = strings.TrimSpace(in.Color)
	if in.Color == "" {
		in.Color = model.DefaultStatusColor
	}
}

func NewReferenceSourceController(store CatalogStore[model.ReferenceSource]) *CatalogController[model.ReferenceSource, NamedInput] {
	return newCatalogController(store, "reference source", "leads", func(in *NamedInput, s *model.ReferenceSource) {
		s.Name = in.Name
		s.IsActive = in.IsActive == nil || *in.IsActive
	})
}

func NewPropertyCategoryController(store CatalogStore[model.PropertyCategory]) *CatalogController[model.PropertyCategory, NamedInput] {
	return newCatalogController(store, "property category", "properties", func(in *NamedInput, s *model.PropertyCategory) {
		s.Name = in.Name
		s.IsActive = in.IsActive == nil || *in.IsActive
	})
}

func NewPropertyStatusController(store CatalogStore[model.PropertyStatus]) *CatalogController[model.PropertyStatus, PropertyStatusInput] {
	ctrl := newCatalogController(store, "property status", "properties", func(in *PropertyStatusInput, s *model.PropertyStatus) {
		s.Name = in.Name
		s.Code = in.Code
		s.Color = in.Color
		s.CanBeReferred = !in.IsTerminal && (in.CanBeReferred == nil || *in.CanBeReferred)
		s.IsTerminal = in.IsTerminal
	})
	ctrl.messages.Conflict = "Property status with this name or code already exists"
	return ctrl
}

func (cc *CatalogController[T, In]) List(c *fiber.Ctx) error {
	items, err := cc.store.List(c.UserContext())
	if err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}
	return response.OK(c, items)
}

func (cc *CatalogController[T, In]) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id", cc.label)
	if err != nil {
		return err
	}
	item, err := cc.store.Get(c.UserContext(), id)
	if err != nil {
		return apierror.FromDB(err, cc.messages)
	}
	return response.OK(c, item)
}

func (cc *CatalogController[T, In]) Create(c *fiber.Ctx) error {
	input := new(In)
	if err := bind(c, input); err != nil {
		return err
	}
	item := new(T)
	cc.apply(input, item)
	if err := cc.store.Create(c.UserContext(), item); err != nil {
		return apierror.FromDB(err, cc.messages)
	}
	return response.Created(c, item)
}

func (cc *CatalogController[T, In]) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id", cc.label)
	if err != nil {
		return err
	}
	input := new(In)
	if err := bind(c, input); err != nil {
		return err
	}

	item, err := cc.store.Get(c.UserContext(), id)
	if err != nil {
		return apierror.FromDB(err, cc.messages)
	}
	cc.apply(input, item)
	if err := cc.store.Save(c.UserContext(), item); err != nil {
		return apierror.FromDB(err, cc.messages)
	}
	return response.OK(c, item)
}

func (cc *CatalogController[T, In]) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id", cc.label)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	if _, err := cc.store.Get(ctx, id); err != nil {
		return apierror.FromDB(err, cc.messages)
	}
	inUse, err := cc.store.InUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return apierror.Conflict(cc.messages.InUse)
	}
	if err := cc.store.Delete(ctx, id); err != nil {
		return apierror.FromDB(err, cc.messages)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
