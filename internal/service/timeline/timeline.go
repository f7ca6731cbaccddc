// Package timeline manages the append-only update history of a viewing.
package timeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"estacrm_backend/internal/model"
	"estacrm_backend/internal/rbac"
	"estacrm_backend/internal/service/notify"
	"estacrm_backend/pkg/apierror"
)

// Sort orders updates newest first, breaking timestamp ties by id.
func Sort(updates []model.ViewingUpdate) {
	sort.SliceStable(updates, func(i, j int) bool {
		if !updates[i].CreatedAt.Equal(updates[j].CreatedAt) {
			return updates[i].CreatedAt.After(updates[j].CreatedAt)
		}
		return updates[i].ID > updates[j].ID
	})
}

// CurrentStatus is the status of the most recently created update, or
// Scheduled when the viewing has none.
func CurrentStatus(updates []model.ViewingUpdate) model.ViewingStatus {
	if len(updates) == 0 {
		return model.ViewingStatusScheduled
	}
	latest := updates[0]
	for _, u := range updates[1:] {
		if u.CreatedAt.After(latest.CreatedAt) || (u.CreatedAt.Equal(latest.CreatedAt) && u.ID > latest.ID) {
			latest = u
		}
	}
	return latest.Status
}

func CanEdit(u model.ViewingUpdate, userID uint, role rbac.Role) bool {
	return u.AuthorID == userID || rbac.Can(role, rbac.PermViewingsEditAnyUpdate)
}

// ParseStatus matches s case-insensitively against the statuses an update may carry.
func ParseStatus(s string) (model.ViewingStatus, error) {
	norm := strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(s, "_", " "))), " ")
	for _, st := range model.ViewingUpdateStatuses {
		if strings.ToLower(string(st)) == norm {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown viewing status %q", s)
}

type Store interface {
	ListUpdates(ctx context.Context, viewingID uint) ([]model.ViewingUpdate, error)
	GetUpdate(ctx context.Context, viewingID, updateID uint) (*model.ViewingUpdate, error)
	CreateUpdate(ctx context.Context, u *model.ViewingUpdate) error
	SaveUpdate(ctx context.Context, u *model.ViewingUpdate) error
}

type UpdateInput struct {
	Status string `json:"status" validate:"required"`
	Text   string `json:"text" validate:"max=5000"`
}

type Service struct {
	store    Store
	notifier *notify.Service
	log      *zap.Logger
}

func NewService(store Store, notifier *notify.Service, log *zap.Logger) *Service {
	return &Service{store: store, notifier: notifier, log: log}
}

func statusError(s string) error {
	allowed := make([]string, len(model.ViewingUpdateStatuses))
	for i, st := range model.ViewingUpdateStatuses {
		allowed[i] = string(st)
	}
	return apierror.Validation("Invalid viewing status", apierror.FieldError{
		Field:   "status",
		Message: fmt.Sprintf("%q is not one of: %s", s, strings.Join(allowed, ", ")),
	})
}

// List returns the viewing's updates newest first.
func (s *Service) List(ctx context.Context, viewingID uint) ([]model.ViewingUpdate, error) {
	updates, err := s.store.ListUpdates(ctx, viewingID)
	if err != nil {
		return nil, err
	}
	Sort(updates)
	return updates, nil
}

func (s *Service) Add(ctx context.Context, viewing *model.Viewing, authorID uint, in UpdateInput) (*model.ViewingUpdate, error) {
	st, err := ParseStatus(in.Status)
	if err != nil {
		return nil, statusError(in.Status)
	}

	u := &model.ViewingUpdate{
		ViewingID: viewing.ID,
		Status:    st,
		Text:      strings.TrimSpace(in.Text),
		AuthorID:  authorID,
	}
	if err := s.store.CreateUpdate(ctx, u); err != nil {
		return nil, err
	}

	if viewing.AgentID != authorID {
		_ = s.notifier.Notify(ctx, notify.Message{
			UserID:     viewing.AgentID,
			Type:       model.NotificationViewingUpdate,
			Title:      "Viewing updated",
			Body:       fmt.Sprintf("A viewing you handle moved to %q", st),
			EntityType: "viewing",
			EntityID:   viewing.ID,
			Metadata:   map[string]interface{}{"update_id": u.ID},
		})
	}
	return u, nil
}

// Edit changes status and text. Author, viewing and creation time never change.
func (s *Service) Edit(ctx context.Context, viewingID, updateID, userID uint, role rbac.Role, in UpdateInput) (*model.ViewingUpdate, error) {
	u, err := s.store.GetUpdate(ctx, viewingID, updateID)
	if err != nil {
		return nil, apierror.FromDB(err, apierror.DBMessages{NotFound: "Viewing update not found"})
	}

	if !CanEdit(*u, userID, role) {
		return nil, apierror.Forbidden("You can only edit your own updates")
	}

	st, err := ParseStatus(in.Status)
	if err != nil {
		return nil, statusError(in.Status)
	}

	u.Status = st
	u.Text = strings.TrimSpace(in.Text)
	if err := s.store.SaveUpdate(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
