package timeline

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"estacrm_backend/internal/model"
	"estacrm_backend/internal/rbac"
	"estacrm_backend/internal/service/notify"
	"estacrm_backend/pkg/apierror"
)

var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func upd(id uint, status model.ViewingStatus, at time.Time) model.ViewingUpdate {
	return model.ViewingUpdate{ID: id, Status: status, CreatedAt: at, AuthorID: 1}
}

func TestSortNewestFirstWithIDTieBreak(t *testing.T) {
	updates := []model.ViewingUpdate{
		upd(1, model.ViewingStatusInitialContact, base),
		upd(2, model.ViewingStatusFollowUp, base.Add(time.Hour)),
		upd(3, model.ViewingStatusOfferMade, base.Add(time.Hour)),
	}
	Sort(updates)

	ids := []uint{updates[0].ID, updates[1].ID, updates[2].ID}
	assert.Equal(t, []uint{3, 2, 1}, ids)
}

func TestCurrentStatus(t *testing.T) {
	assert.Equal(t, model.ViewingStatusScheduled, CurrentStatus(nil))

	updates := []model.ViewingUpdate{
		upd(1, model.ViewingStatusInitialContact, base),
		upd(3, model.ViewingStatusNegotiation, base.Add(2*time.Hour)),
		upd(2, model.ViewingStatusFollowUp, base.Add(time.Hour)),
	}
	assert.Equal(t, model.ViewingStatusNegotiation, CurrentStatus(updates))

	// Editing an older update does not make it current.
	updates[0].Status = model.ViewingStatusDealClosed
	assert.Equal(t, model.ViewingStatusNegotiation, CurrentStatus(updates))
}

func TestCanEdit(t *testing.T) {
	u := model.ViewingUpdate{AuthorID: 7}
	assert.True(t, CanEdit(u, 7, rbac.RoleAgent))
	assert.False(t, CanEdit(u, 8, rbac.RoleAgent))
	assert.False(t, CanEdit(u, 8, rbac.RoleTeamLeader))
	assert.True(t, CanEdit(u, 8, rbac.RoleAgentManager))
	assert.True(t, CanEdit(u, 8, rbac.RoleAdmin))
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("  offer   made ")
	require.NoError(t, err)
	assert.Equal(t, model.ViewingStatusOfferMade, st)

	st, err = ParseStatus("second_viewing")
	require.NoError(t, err)
	assert.Equal(t, model.ViewingStatusSecondViewing, st)

	_, err = ParseStatus("Scheduled")
	assert.Error(t, err)
	_, err = ParseStatus("Maybe")
	assert.Error(t, err)
}

type memStore struct {
	updates []model.ViewingUpdate
	nextID  uint
}

func (m *memStore) ListUpdates(_ context.Context, viewingID uint) ([]model.ViewingUpdate, error) {
	var out []model.ViewingUpdate
	for _, u := range m.updates {
		if u.ViewingID == viewingID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memStore) GetUpdate(_ context.Context, viewingID, updateID uint) (*model.ViewingUpdate, error) {
	for _, u := range m.updates {
		if u.ViewingID == viewingID && u.ID == updateID {
			cp := u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memStore) CreateUpdate(_ context.Context, u *model.ViewingUpdate) error {
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = base.Add(time.Duration(m.nextID) * time.Minute)
	m.updates = append(m.updates, *u)
	return nil
}

func (m *memStore) SaveUpdate(_ context.Context, u *model.ViewingUpdate) error {
	for i := range m.updates {
		if m.updates[i].ID == u.ID {
			m.updates[i] = *u
		}
	}
	return nil
}

type notes struct{ items []model.Notification }

func (n *notes) CreateNotification(_ context.Context, m *model.Notification) error {
	n.items = append(n.items, *m)
	return nil
}

func TestServiceAddAndEdit(t *testing.T) {
	store := &memStore{}
	ns := &notes{}
	svc := NewService(store, notify.New(ns, nil, zap.NewNop()), zap.NewNop())
	ctx := context.Background()
	viewing := &model.Viewing{AgentID: 2}
	viewing.ID = 9

	first, err := svc.Add(ctx, viewing, 2, UpdateInput{Status: "Initial Contact", Text: " called "})
	require.NoError(t, err)
	assert.Equal(t, "called", first.Text)
	assert.Empty(t, ns.items, "agent updating their own viewing is not notified")

	_, err = svc.Add(ctx, viewing, 5, UpdateInput{Status: "follow up"})
	require.NoError(t, err)
	require.Len(t, ns.items, 1)
	assert.Equal(t, uint(2), ns.items[0].UserID)

	_, err = svc.Add(ctx, viewing, 2, UpdateInput{Status: "Pending"})
	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	list, err := svc.List(ctx, 9)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, model.ViewingStatusFollowUp, list[0].Status)

	_, err = svc.Edit(ctx, 9, first.ID, 5, rbac.RoleAgent, UpdateInput{Status: "Cancelled"})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	edited, err := svc.Edit(ctx, 9, first.ID, 6, rbac.RoleOperations, UpdateInput{Status: "Cancelled", Text: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, model.ViewingStatusCancelled, edited.Status)
	assert.Equal(t, uint(2), edited.AuthorID)
	assert.Equal(t, first.CreatedAt, edited.CreatedAt)

	_, err = svc.Edit(ctx, 9, 404, 2, rbac.RoleAgent, UpdateInput{Status: "Cancelled"})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
