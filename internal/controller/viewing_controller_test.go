package controller

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"estacrm_backend/internal/model"
	"estacrm_backend/internal/repository"
	"estacrm_backend/internal/service/notify"
	"estacrm_backend/internal/service/timeline"
)

type fakeViewings struct {
	rows    map[uint]*model.Viewing
	updates []model.ViewingUpdate
	nextID  uint
	lastF   repository.ViewingFilter
	clock   time.Time
}

func newFakeViewings(vs ...*model.Viewing) *fakeViewings {
	f := &fakeViewings{rows: map[uint]*model.Viewing{}, nextID: 300, clock: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
	for _, v := range vs {
		f.rows[v.ID] = v
	}
	return f
}

func (f *fakeViewings) List(_ context.Context, filter repository.ViewingFilter, _ repository.Visibility) (*repository.List[model.Viewing], error) {
	f.lastF = filter
	return &repository.List[model.Viewing]{Items: []model.Viewing{}, Page: 1, Limit: 20}, nil
}

func (f *fakeViewings) Get(_ context.Context, id uint) (*model.Viewing, error) {
	v, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	cp.Updates = nil
	for _, u := range f.updates {
		if u.ViewingID == id {
			cp.Updates = append(cp.Updates, u)
		}
	}
	return &cp, nil
}

func (f *fakeViewings) Create(_ context.Context, v *model.Viewing) error {
	f.nextID++
	v.ID = f.nextID
	cp := *v
	f.rows[v.ID] = &cp
	return nil
}

func (f *fakeViewings) Save(_ context.Context, v *model.Viewing) error {
	cp := *v
	f.rows[v.ID] = &cp
	return nil
}

func (f *fakeViewings) Delete(_ context.Context, id uint) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeViewings) ListUpdates(_ context.Context, viewingID uint) ([]model.ViewingUpdate, error) {
	var out []model.ViewingUpdate
	for _, u := range f.updates {
		if u.ViewingID == viewingID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeViewings) GetUpdate(_ context.Context, viewingID, updateID uint) (*model.ViewingUpdate, error) {
	for i := range f.updates {
		if f.updates[i].ID == updateID && f.updates[i].ViewingID == viewingID {
			cp := f.updates[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeViewings) CreateUpdate(_ context.Context, u *model.ViewingUpdate) error {
	f.nextID++
	f.clock = f.clock.Add(time.Minute)
	u.ID, u.CreatedAt, u.UpdatedAt = f.nextID, f.clock, f.clock
	f.updates = append(f.updates, *u)
	return nil
}

func (f *fakeViewings) SaveUpdate(_ context.Context, u *model.ViewingUpdate) error {
	for i := range f.updates {
		if f.updates[i].ID == u.ID {
			f.updates[i].Status, f.updates[i].Text = u.Status, u.Text
		}
	}
	return nil
}

type fakeNotifications struct {
	created []model.Notification
}

func (f *fakeNotifications) CreateNotification(_ context.Context, n *model.Notification) error {
	n.ID = uint(len(f.created) + 1)
	f.created = append(f.created, *n)
	return nil
}

type fakePropertyLookup map[uint]*model.Property

func (f fakePropertyLookup) Get(_ context.Context, id uint) (*model.Property, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func viewing(id, agent, createdBy uint) *model.Viewing {
	v := &model.Viewing{
		PropertyID:  10,
		LeadID:      50,
		AgentID:     agent,
		CreatedByID: createdBy,
		ScheduledAt: time.Date(2026, 4, 2, 14, 0, 0, 0, time.UTC),
	}
	v.ID = id
	return v
}

func mountViewings(t *testing.T, staff fakeStaff, views *fakeViewings, notes *fakeNotifications) func(t *testing.T, as uint, method, path string, body interface{}) result {
	t.Helper()
	notifier := notify.New(notes, nil, zap.NewNop())
	vc := NewViewingController(
		views,
		newFakeLeads(lead(50, 1, nil)),
		fakePropertyLookup{10: property(10, 1, nil)},
		staff,
		timeline.NewService(views, notifier, zap.NewNop()),
		notifier,
	)

	app := newTestApp(staff)
	app.Get("/viewings", vc.ListViewings)
	app.Get("/viewings/serious", vc.ListSerious)
	app.Post("/viewings", vc.CreateViewing)
	app.Get("/viewings/:id", vc.GetViewing)
	app.Put("/viewings/:id", vc.UpdateViewing)
	app.Delete("/viewings/:id", vc.DeleteViewing)
	app.Get("/viewings/:id/updates", vc.ListUpdates)
	app.Post("/viewings/:id/updates", vc.AddUpdate)
	app.Put("/viewings/:id/updates/:updateId", vc.EditUpdate)
	return func(t *testing.T, as uint, method, path string, body interface{}) result {
		return call(t, app, staff, as, method, path, body)
	}
}

func TestCreateViewingNotifiesAssignedAgent(t *testing.T) {
	staff := defaultStaff()
	views := newFakeViewings()
	notes := &fakeNotifications{}
	do := mountViewings(t, staff, views, notes)

	res := do(t, 2, "POST", "/viewings", map[string]interface{}{
		"property_id":  10,
		"lead_id":      50,
		"agent_id":     3,
		"scheduled_at": "2026-04-02T14:00:00Z",
		"is_serious":   true,
	})
	require.Equal(t, 201, res.Status, string(res.Body))

	var got ViewingDetail
	res.into(t, &got)
	assert.Equal(t, uint(3), got.AgentID)
	assert.Equal(t, uint(2), got.CreatedByID)
	assert.Equal(t, model.ViewingStatusScheduled, got.CurrentStatus)

	require.Len(t, notes.created, 1)
	assert.Equal(t, uint(3), notes.created[0].UserID)
	assert.Equal(t, model.NotificationViewingAssigned, notes.created[0].Type)

	// Booking for yourself sends nothing.
	res = do(t, 5, "POST", "/viewings", map[string]interface{}{
		"property_id":  10,
		"lead_id":      50,
		"scheduled_at": "2026-04-02T16:00:00Z",
	})
	require.Equal(t, 201, res.Status)
	assert.Len(t, notes.created, 1)
}

func TestCreateViewingValidation(t *testing.T) {
	staff := defaultStaff()
	do := mountViewings(t, staff, newFakeViewings(), &fakeNotifications{})

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing schedule", map[string]interface{}{"property_id": 10, "lead_id": 50}},
		{"bad schedule", map[string]interface{}{"property_id": 10, "lead_id": 50, "scheduled_at": "tomorrow"}},
		{"unknown property", map[string]interface{}{"property_id": 11, "lead_id": 50, "scheduled_at": "2026-04-02T16:00:00Z"}},
		{"unknown lead", map[string]interface{}{"property_id": 10, "lead_id": 51, "scheduled_at": "2026-04-02T16:00:00Z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 400, do(t, 1, "POST", "/viewings", tt.body).Status)
		})
	}
}

func TestViewingTimeline(t *testing.T) {
	staff := defaultStaff()
	views := newFakeViewings(viewing(1, 3, 3))
	notes := &fakeNotifications{}
	do := mountViewings(t, staff, views, notes)

	res := do(t, 3, "POST", "/viewings/1/updates", map[string]string{"status": "Initial Contact", "text": "called"})
	require.Equal(t, 201, res.Status, string(res.Body))
	var first model.ViewingUpdate
	res.into(t, &first)

	res = do(t, 1, "POST", "/viewings/1/updates", map[string]string{"status": "offer made"})
	require.Equal(t, 201, res.Status)
	require.Len(t, notes.created, 1, "agent hears about updates by others")

	assert.Equal(t, 400, do(t, 3, "POST", "/viewings/1/updates", map[string]string{"status": "Scheduled"}).Status)
	assert.Equal(t, 400, do(t, 3, "POST", "/viewings/1/updates", map[string]string{}).Status)

	res = do(t, 3, "GET", "/viewings/1", nil)
	require.Equal(t, 200, res.Status)
	var detail ViewingDetail
	res.into(t, &detail)
	assert.Equal(t, model.ViewingStatusOfferMade, detail.CurrentStatus)
	require.Len(t, detail.Updates, 2)
	assert.Equal(t, model.ViewingStatusOfferMade, detail.Updates[0].Status)

	// Editing the older update keeps the current status.
	path := fmt.Sprintf("/viewings/1/updates/%d", first.ID)
	res = do(t, 3, "PUT", path, map[string]string{"status": "Deal Closed", "text": "signed"})
	require.Equal(t, 200, res.Status, string(res.Body))

	res = do(t, 3, "GET", "/viewings/1/updates", nil)
	var listed struct {
		Updates       []model.ViewingUpdate `json:"updates"`
		CurrentStatus model.ViewingStatus   `json:"current_status"`
	}
	res.into(t, &listed)
	assert.Equal(t, model.ViewingStatusOfferMade, listed.CurrentStatus)
	assert.Equal(t, model.ViewingStatusDealClosed, listed.Updates[1].Status)
}

func TestEditUpdatePermissions(t *testing.T) {
	staff := defaultStaff()
	views := newFakeViewings(viewing(1, 3, 2))
	views.updates = []model.ViewingUpdate{{ID: 9, ViewingID: 1, Status: model.ViewingStatusFollowUp, AuthorID: 3}}
	do := mountViewings(t, staff, views, &fakeNotifications{})

	body := map[string]string{"status": "Negotiation"}
	res := do(t, 2, "PUT", "/viewings/1/updates/9", body)
	assert.Equal(t, 403, res.Status, "team leader is not the author")

	assert.Equal(t, 200, do(t, 1, "PUT", "/viewings/1/updates/9", body).Status)
	assert.Equal(t, 404, do(t, 1, "PUT", "/viewings/1/updates/10", body).Status)
	assert.Equal(t, 404, do(t, 5, "PUT", "/viewings/1/updates/9", body).Status, "viewing hidden from outsider")
}

func TestListViewingFilters(t *testing.T) {
	staff := defaultStaff()
	views := newFakeViewings()
	do := mountViewings(t, staff, views, &fakeNotifications{})

	require.Equal(t, 200, do(t, 1, "GET", "/viewings/serious?agent_id=3", nil).Status)
	require.NotNil(t, views.lastF.Serious)
	assert.True(t, *views.lastF.Serious)
	assert.Equal(t, uint(3), views.lastF.AgentID)

	require.Equal(t, 200, do(t, 1, "GET", "/viewings?from=2026-04-01&to=2026-04-30&serious=false", nil).Status)
	require.NotNil(t, views.lastF.Serious)
	assert.False(t, *views.lastF.Serious)
	require.NotNil(t, views.lastF.To)
	assert.Equal(t, 30, views.lastF.To.Day())
	assert.Equal(t, 23, views.lastF.To.Hour(), "bare end date covers the whole day")

	assert.Equal(t, 400, do(t, 1, "GET", "/viewings?from=soon", nil).Status)
}
