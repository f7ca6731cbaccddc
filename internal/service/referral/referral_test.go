package referral

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

func TestNext(t *testing.T) {
	tests := []struct {
		from   model.ReferralStatus
		action Action
		want   model.ReferralStatus
		ok     bool
	}{
		{model.ReferralNone, ActionRefer, model.ReferralPending, true},
		{"", ActionRefer, model.ReferralPending, true},
		{model.ReferralRejected, ActionRefer, model.ReferralPending, true},
		{model.ReferralConfirmed, ActionRefer, model.ReferralPending, true},
		{model.ReferralPending, ActionConfirm, model.ReferralConfirmed, true},
		{model.ReferralPending, ActionReject, model.ReferralRejected, true},
		{model.ReferralPending, ActionRefer, "", false},
		{model.ReferralConfirmed, ActionReject, "", false},
		{model.ReferralRejected, ActionConfirm, "", false},
		{model.ReferralNone, ActionConfirm, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			got, err := Next(tt.from, tt.action)
			if !tt.ok {
				var terr *TransitionError
				assert.True(t, errors.As(err, &terr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type fakeStore struct {
	items     map[uint]*Item
	assignee  map[uint]uint
	referrals map[uint]*Record
	nextID    uint

	// beforeResolve runs inside Resolve, ahead of the pending check.
	beforeResolve func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[uint]*Item{}, assignee: map[uint]uint{}, referrals: map[uint]*Record{}}
}

func (f *fakeStore) LoadItem(_ context.Context, id uint) (*Item, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *it
	return &cp, nil
}

func (f *fakeStore) HasPending(_ context.Context, itemID uint) (bool, error) {
	for _, r := range f.referrals {
		if r.ItemID == itemID && r.Status == model.ReferralPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Create(_ context.Context, rec *Record) error {
	f.nextID++
	rec.ID = f.nextID
	rec.CreatedAt = time.Now()
	cp := *rec
	f.referrals[rec.ID] = &cp
	f.items[rec.ItemID].ReferralStatus = model.ReferralPending
	return nil
}

func (f *fakeStore) Get(_ context.Context, id uint) (*Record, error) {
	r, ok := f.referrals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) Resolve(_ context.Context, rec *Record, assignTo *uint) error {
	if f.beforeResolve != nil {
		f.beforeResolve()
	}
	if f.referrals[rec.ID].Status != model.ReferralPending {
		return ErrAlreadyResolved
	}
	cp := *rec
	f.referrals[rec.ID] = &cp
	it := f.items[rec.ItemID]
	it.ReferralStatus = rec.Status
	if assignTo != nil {
		it.AssigneeID = *assignTo
	}
	return nil
}

func (f *fakeStore) PendingFor(_ context.Context, userID uint) ([]Record, error) {
	var out []Record
	for _, r := range f.referrals {
		if r.ToUserID == userID && r.Status == model.ReferralPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) ForItem(_ context.Context, itemID uint) ([]Record, error) {
	var out []Record
	for _, r := range f.referrals {
		if r.ItemID == itemID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) PendingSince(_ context.Context, before time.Time) ([]Record, error) {
	var out []Record
	for _, r := range f.referrals {
		if r.Status == model.ReferralPending && r.CreatedAt.Before(before) {
			out = append(out, *r)
		}
	}
	return out, nil
}

type fakeUsers map[uint]*model.User

func (f fakeUsers) FindByID(_ context.Context, id uint) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type notifications struct{ items []model.Notification }

func (n *notifications) CreateNotification(_ context.Context, m *model.Notification) error {
	n.items = append(n.items, *m)
	return nil
}

func user(id uint, role rbac.Role, active bool) *model.User {
	u := &model.User{FirstName: "User", LastName: string(role), Role: role, IsActive: active, Email: "u@example.com"}
	u.ID = id
	return u
}

type fixture struct {
	svc   *Service
	store *fakeStore
	users fakeUsers
	notes *notifications
}

func setup(entity Entity) *fixture {
	store := newFakeStore()
	leader := user(5, rbac.RoleTeamLeader, true)
	agentInTeam := user(1, rbac.RoleAgent, true)
	agentInTeam.TeamLeaderID = &leader.ID
	users := fakeUsers{
		1: agentInTeam,
		2: user(2, rbac.RoleAgent, true),
		3: user(3, rbac.RoleAgent, false),
		4: user(4, rbac.RoleAccountant, true),
		5: leader,
		6: user(6, rbac.RoleAdmin, true),
	}
	store.items[10] = &Item{ID: 10, Label: "John Smith", AssigneeID: 1, StatusName: "New", Referable: true, ReferralStatus: model.ReferralNone}
	store.items[11] = &Item{ID: 11, Label: "Closed Deal", AssigneeID: 1, StatusName: "Lost", Referable: false, ReferralStatus: model.ReferralNone}
	store.items[12] = &Item{ID: 12, Label: "REF-9", AssigneeID: 1, StatusName: "Sold", Referable: true, Terminal: true}

	notes := &notifications{}
	svc := NewService(entity, store, users, notify.New(notes, nil, zap.NewNop()), zap.NewNop())
	return &fixture{svc: svc, store: store, users: users, notes: notes}
}

func status(t *testing.T, err error) int {
	t.Helper()
	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr), "expected api error, got %v", err)
	return apiErr.Status
}

func TestReferConfirmTransfersAssignment(t *testing.T) {
	f := setup(EntityLead)
	ctx := context.Background()
	agent := Actor{UserID: 1, Role: rbac.RoleAgent}

	rec, err := f.svc.Refer(ctx, agent, 10, ReferInput{ToUserID: 2, Note: "please call"})
	require.NoError(t, err)
	assert.Equal(t, model.ReferralPending, rec.Status)
	assert.Equal(t, model.ReferralPending, f.store.items[10].ReferralStatus)
	assert.Equal(t, uint(1), f.store.items[10].AssigneeID)
	require.Len(t, f.notes.items, 1)
	assert.Equal(t, uint(2), f.notes.items[0].UserID)
	assert.Equal(t, model.NotificationReferralRequest, f.notes.items[0].Type)

	pending, err := f.svc.Pending(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = f.svc.Confirm(ctx, agent, rec.ID)
	assert.Equal(t, http.StatusForbidden, status(t, err))

	done, err := f.svc.Confirm(ctx, Actor{UserID: 2, Role: rbac.RoleAgent}, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReferralConfirmed, done.Status)
	assert.NotNil(t, done.ResolvedAt)
	assert.Equal(t, uint(2), f.store.items[10].AssigneeID)
	assert.Equal(t, uint(1), f.notes.items[1].UserID)
	assert.Equal(t, model.NotificationReferralConfirmed, f.notes.items[1].Type)

	_, err = f.svc.Reject(ctx, Actor{UserID: 2, Role: rbac.RoleAgent}, rec.ID)
	assert.Equal(t, http.StatusConflict, status(t, err))
}

func TestRejectKeepsAssignment(t *testing.T) {
	f := setup(EntityLead)
	ctx := context.Background()

	rec, err := f.svc.Refer(ctx, Actor{UserID: 1, Role: rbac.RoleAgent}, 10, ReferInput{ToUserID: 2})
	require.NoError(t, err)

	done, err := f.svc.Reject(ctx, Actor{UserID: 2, Role: rbac.RoleAgent}, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReferralRejected, done.Status)
	assert.Equal(t, uint(1), f.store.items[10].AssigneeID)
	assert.Equal(t, model.ReferralRejected, f.store.items[10].ReferralStatus)

	// A rejected item can be referred again and gets a fresh row.
	again, err := f.svc.Refer(ctx, Actor{UserID: 1, Role: rbac.RoleAgent}, 10, ReferInput{ToUserID: 5})
	require.NoError(t, err)
	assert.NotEqual(t, rec.ID, again.ID)
}

func TestConcurrentResolveConflicts(t *testing.T) {
	f := setup(EntityLead)
	ctx := context.Background()
	target := Actor{UserID: 2, Role: rbac.RoleAgent}

	rec, err := f.svc.Refer(ctx, Actor{UserID: 1, Role: rbac.RoleAgent}, 10, ReferInput{ToUserID: 2})
	require.NoError(t, err)

	// The other request wins after this one has read the pending row.
	f.store.beforeResolve = func() {
		f.store.referrals[rec.ID].Status = model.ReferralRejected
		f.store.beforeResolve = nil
	}
	_, err = f.svc.Confirm(ctx, target, rec.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, status(t, err))
	assert.Equal(t, "Referral has already been resolved", err.(*apierror.Error).Message)
	assert.Equal(t, uint(1), f.store.items[10].AssigneeID)
	assert.Len(t, f.notes.items, 1, "the losing request notifies nobody")
}

func TestReferRejectsNonReferableStatus(t *testing.T) {
	f := setup(EntityLead)

	_, err := f.svc.Refer(context.Background(), Actor{UserID: 1, Role: rbac.RoleAgent}, 11, ReferInput{ToUserID: 2})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status(t, err))
	assert.Equal(t, `Leads in status "Lost" cannot be referred`, err.(*apierror.Error).Message)
	assert.Empty(t, f.store.referrals)
}

func TestReferRejectsTerminalProperty(t *testing.T) {
	f := setup(EntityProperty)

	_, err := f.svc.Refer(context.Background(), Actor{UserID: 1, Role: rbac.RoleAgent}, 12, ReferInput{ToUserID: 2})
	require.Error(t, err)
	assert.Equal(t, `Properties in status "Sold" cannot be referred`, err.(*apierror.Error).Message)
}

func TestReferValidation(t *testing.T) {
	tests := []struct {
		name   string
		actor  Actor
		item   uint
		target uint
		want   int
	}{
		{"missing item", Actor{1, rbac.RoleAgent}, 99, 2, http.StatusNotFound},
		{"not assignee", Actor{2, rbac.RoleAgent}, 10, 5, http.StatusForbidden},
		{"accountant lacks permission", Actor{4, rbac.RoleAccountant}, 10, 2, http.StatusForbidden},
		{"self", Actor{6, rbac.RoleAdmin}, 10, 6, http.StatusBadRequest},
		{"current assignee", Actor{6, rbac.RoleAdmin}, 10, 1, http.StatusBadRequest},
		{"inactive target", Actor{1, rbac.RoleAgent}, 10, 3, http.StatusBadRequest},
		{"target role", Actor{1, rbac.RoleAgent}, 10, 4, http.StatusBadRequest},
		{"unknown target", Actor{1, rbac.RoleAgent}, 10, 77, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(EntityLead)
			_, err := f.svc.Refer(context.Background(), tt.actor, tt.item, ReferInput{ToUserID: tt.target})
			require.Error(t, err)
			assert.Equal(t, tt.want, status(t, err))
		})
	}
}

func TestTeamLeaderRefersOwnAgentsItems(t *testing.T) {
	f := setup(EntityLead)
	_, err := f.svc.Refer(context.Background(), Actor{UserID: 5, Role: rbac.RoleTeamLeader}, 10, ReferInput{ToUserID: 2})
	assert.NoError(t, err)
}

func TestReferWhilePendingConflicts(t *testing.T) {
	f := setup(EntityLead)
	ctx := context.Background()
	_, err := f.svc.Refer(ctx, Actor{UserID: 1, Role: rbac.RoleAgent}, 10, ReferInput{ToUserID: 2})
	require.NoError(t, err)

	_, err = f.svc.Refer(ctx, Actor{UserID: 6, Role: rbac.RoleAdmin}, 10, ReferInput{ToUserID: 5})
	assert.Equal(t, http.StatusConflict, status(t, err))
}

func TestRemindStale(t *testing.T) {
	f := setup(EntityLead)
	ctx := context.Background()
	rec, err := f.svc.Refer(ctx, Actor{UserID: 1, Role: rbac.RoleAgent}, 10, ReferInput{ToUserID: 2})
	require.NoError(t, err)
	f.store.referrals[rec.ID].CreatedAt = time.Now().Add(-96 * time.Hour)

	sent, err := f.svc.RemindStale(ctx, 72*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	last := f.notes.items[len(f.notes.items)-1]
	assert.Equal(t, model.NotificationReferralReminder, last.Type)
	assert.Contains(t, last.Message, "4 days")
}
