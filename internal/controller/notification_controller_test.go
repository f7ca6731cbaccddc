package controller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"estacrm_backend/internal/model"
	"estacrm_backend/internal/repository"
)

type memNotifications struct {
	rows       map[uint]*model.Notification
	unreadOnly bool
}

func (m *memNotifications) List(_ context.Context, userID uint, unreadOnly bool, _ repository.Page) (*repository.List[model.Notification], error) {
	m.unreadOnly = unreadOnly
	var items []model.Notification
	for _, n := range m.rows {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			items = append(items, *n)
		}
	}
	return &repository.List[model.Notification]{Items: items, Total: int64(len(items)), Page: 1, Limit: 20}, nil
}

func (m *memNotifications) UnreadCount(_ context.Context, userID uint) (int64, error) {
	var n int64
	for _, row := range m.rows {
		if row.UserID == userID && !row.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *memNotifications) MarkRead(_ context.Context, userID, id uint) (*model.Notification, error) {
	n, ok := m.rows[id]
	if !ok || n.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	now := time.Now()
	n.IsRead, n.ReadAt = true, &now
	return n, nil
}

func (m *memNotifications) MarkAllRead(_ context.Context, userID uint) (int64, error) {
	var n int64
	for _, row := range m.rows {
		if row.UserID == userID && !row.IsRead {
			row.IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *memNotifications) Delete(_ context.Context, userID, id uint) error {
	n, ok := m.rows[id]
	if !ok || n.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	delete(m.rows, id)
	return nil
}

func TestNotificationsAreOwnerOnly(t *testing.T) {
	staff := defaultStaff()
	store := &memNotifications{rows: map[uint]*model.Notification{
		1: {ID: 1, UserID: 3, Title: "a"},
		2: {ID: 2, UserID: 3, Title: "b", IsRead: true},
		3: {ID: 3, UserID: 4, Title: "c"},
	}}
	nc := NewNotificationController(store)

	app := newTestApp(staff)
	app.Get("/notifications", nc.List)
	app.Get("/notifications/unread-count", nc.UnreadCount)
	app.Put("/notifications/read-all", nc.MarkAllRead)
	app.Put("/notifications/:id/read", nc.MarkRead)
	app.Delete("/notifications/:id", nc.Delete)
	do := func(as uint, method, path string) result {
		return call(t, app, staff, as, method, path, nil)
	}

	res := do(3, "GET", "/notifications/unread-count")
	require.Equal(t, 200, res.Status)
	var count struct {
		Count int64 `json:"count"`
	}
	res.into(t, &count)
	assert.Equal(t, int64(1), count.Count)

	res = do(3, "GET", "/notifications?unread=true")
	require.Equal(t, 200, res.Status)
	assert.True(t, store.unreadOnly)
	var list repository.List[model.Notification]
	res.into(t, &list)
	assert.Len(t, list.Items, 1)

	res = do(3, "PUT", "/notifications/3/read")
	assert.Equal(t, 404, res.Status)
	assert.Equal(t, "Notification not found", res.Message)
	assert.False(t, store.rows[3].IsRead)

	assert.Equal(t, 200, do(3, "PUT", "/notifications/1/read").Status)
	assert.True(t, store.rows[1].IsRead)

	assert.Equal(t, 404, do(3, "DELETE", "/notifications/3").Status)
	assert.Equal(t, 204, do(4, "DELETE", "/notifications/3").Status)

	res = do(4, "PUT", "/notifications/read-all")
	require.Equal(t, 200, res.Status)
	var updated struct {
		Updated int64 `json:"updated"`
	}
	res.into(t, &updated)
	assert.Equal(t, int64(0), updated.Updated)
}
