package referral

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"estacrm_backend/internal/model"
	"estacrm_backend/internal/rbac"
	"estacrm_backend/internal/service/notify"
	"estacrm_backend/pkg/apierror"
	"estacrm_backend/pkg/email"
	"estacrm_backend/pkg/metrics"
)

type Entity string

const (
	EntityLead     Entity = "lead"
	EntityProperty Entity = "property"
)

func (e Entity) plural() string {
	if e == EntityProperty {
		return "Properties"
	}
	return "Leads"
}

func (e Entity) title() string {
	if e == EntityProperty {
		return "Property"
	}
	return "Lead"
}

func (e Entity) referPermission() rbac.Permission {
	if e == EntityProperty {
		return rbac.PermPropertiesRefer
	}
	return rbac.PermLeadsRefer
}

// Item is the referable view of a lead or property.
type Item struct {
	ID             uint
	Label          string
	AssigneeID     uint
	StatusName     string
	Referable      bool
	Terminal       bool
	ReferralStatus model.ReferralStatus
}

type Record struct {
	ID              uint                 `json:"id"`
	Entity          Entity               `json:"entity"`
	ItemID          uint                 `json:"item_id"`
	ItemLabel       string               `json:"item_label"`
	FromUserID      uint                 `json:"from_user_id"`
	FromUserName    string               `json:"from_user_name"`
	ToUserID        uint                 `json:"to_user_id"`
	ToUserName      string               `json:"to_user_name"`
	PreviousAgentID *uint                `json:"previous_agent_id"`
	Note            string               `json:"note"`
	Status          model.ReferralStatus `json:"status"`
	CreatedAt       time.Time            `json:"created_at"`
	ResolvedAt      *time.Time           `json:"resolved_at"`
}

// Store persists one entity's referrals. Create and Resolve must write the
// referral row and the item row in a single transaction.
type Store interface {
	LoadItem(ctx context.Context, id uint) (*Item, error)
	HasPending(ctx context.Context, itemID uint) (bool, error)
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, referralID uint) (*Record, error)
	Resolve(ctx context.Context, rec *Record, assignTo *uint) error
	PendingFor(ctx context.Context, userID uint) ([]Record, error)
	ForItem(ctx context.Context, itemID uint) ([]Record, error)
	PendingSince(ctx context.Context, before time.Time) ([]Record, error)
}

type Users interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

type Actor struct {
	UserID uint
	Role   rbac.Role
}

type ReferInput struct {
	ToUserID uint   `json:"to_user_id" validate:"required"`
	Note     string `json:"note" validate:"max=1000"`
}

type Service struct {
	entity   Entity
	store    Store
	users    Users
	notifier *notify.Service
	log      *zap.Logger
}

func NewService(entity Entity, store Store, users Users, notifier *notify.Service, log *zap.Logger) *Service {
	return &Service{
		entity:   entity,
		store:    store,
		users:    users,
		notifier: notifier,
		log:      log.With(zap.String("entity", string(entity))),
	}
}

func (s *Service) Refer(ctx context.Context, actor Actor, itemID uint, in ReferInput) (*Record, error) {
	if !rbac.Can(actor.Role, s.entity.referPermission()) {
		return nil, apierror.Forbidden("You don't have permission to perform this action")
	}

	item, err := s.store.LoadItem(ctx, itemID)
	if err != nil {
		return nil, apierror.FromDB(err, apierror.DBMessages{NotFound: s.entity.title() + " not found"})
	}

	if err := s.checkReferrer(ctx, actor, item); err != nil {
		return nil, err
	}

	target, err := s.users.FindByID(ctx, in.ToUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Target user not found")
		}
		return nil, err
	}
	switch {
	case target.ID == actor.UserID:
		return nil, apierror.BadRequest("You cannot refer to yourself")
	case target.ID == item.AssigneeID:
		return nil, apierror.BadRequest(fmt.Sprintf("%s is already assigned to this user", s.entity.title()))
	case !target.IsActive:
		return nil, apierror.BadRequest("Target user is not active")
	case !rbac.CanReceiveReferrals(target.Role):
		return nil, apierror.BadRequest("Target user cannot receive referrals")
	}

	if !item.Referable || item.Terminal {
		return nil, apierror.BadRequest(fmt.Sprintf("%s in status %q cannot be referred", s.entity.plural(), item.StatusName))
	}

	pending, err := s.store.HasPending(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	next, terr := Next(item.ReferralStatus, ActionRefer)
	if pending || terr != nil {
		return nil, apierror.Conflict(fmt.Sprintf("A referral is already pending for this %s", s.entity))
	}

	previous := item.AssigneeID
	rec := &Record{
		Entity:          s.entity,
		ItemID:          item.ID,
		ItemLabel:       item.Label,
		FromUserID:      actor.UserID,
		ToUserID:        target.ID,
		ToUserName:      target.GetFullName(),
		PreviousAgentID: &previous,
		Note:            in.Note,
		Status:          next,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, apierror.FromDB(err, apierror.DBMessages{
			Conflict: fmt.Sprintf("A referral is already pending for this %s", s.entity),
		})
	}
	metrics.RecordReferral(string(s.entity), string(ActionRefer))

	referrer, _ := s.users.FindByID(ctx, actor.UserID)
	referrerName := "A colleague"
	if referrer != nil {
		referrerName = referrer.GetFullName()
		rec.FromUserName = referrerName
	}

	_ = s.notifier.Notify(ctx, notify.Message{
		UserID:     target.ID,
		Type:       model.NotificationReferralRequest,
		Title:      fmt.Sprintf("New %s referral", s.entity),
		Body:       fmt.Sprintf("%s referred %s to you", referrerName, item.Label),
		EntityType: string(s.entity),
		EntityID:   item.ID,
		Metadata:   map[string]interface{}{"referral_id": rec.ID},
	})
	s.notifier.Mail(ctx, func(m notify.Mailer) error {
		return m.SendReferralRequest(ctx, target.Email, email.ReferralRequestData{
			RecipientName: target.GetFullName(),
			ReferrerName:  referrerName,
			EntityLabel:   string(s.entity),
			ItemLabel:     item.Label,
			Note:          in.Note,
		})
	})

	s.log.Info("referral created",
		zap.Uint("referral_id", rec.ID),
		zap.Uint("item_id", item.ID),
		zap.Uint("from", actor.UserID),
		zap.Uint("to", target.ID),
	)
	return rec, nil
}

// checkReferrer allows the assignee, management roles, and a team leader
// acting for one of their agents.
func (s *Service) checkReferrer(ctx context.Context, actor Actor, item *Item) error {
	if item.AssigneeID == actor.UserID || rbac.IsManagement(actor.Role) {
		return nil
	}
	if actor.Role == rbac.RoleTeamLeader {
		assignee, err := s.users.FindByID(ctx, item.AssigneeID)
		if err == nil && assignee.TeamLeaderID != nil && *assignee.TeamLeaderID == actor.UserID {
			return nil
		}
	}
	return apierror.Forbidden(fmt.Sprintf("You can only refer %s assigned to you", strings.ToLower(s.entity.plural())))
}

func (s *Service) Confirm(ctx context.Context, actor Actor, referralID uint) (*Record, error) {
	return s.resolve(ctx, actor, referralID, ActionConfirm)
}

func (s *Service) Reject(ctx context.Context, actor Actor, referralID uint) (*Record, error) {
	return s.resolve(ctx, actor, referralID, ActionReject)
}

func (s *Service) resolve(ctx context.Context, actor Actor, referralID uint, action Action) (*Record, error) {
	rec, err := s.store.Get(ctx, referralID)
	if err != nil {
		return nil, apierror.FromDB(err, apierror.DBMessages{NotFound: "Referral not found"})
	}

	if rec.ToUserID != actor.UserID {
		return nil, apierror.Forbidden("Only the recipient can respond to this referral")
	}

	next, err := Next(rec.Status, action)
	if err != nil {
		return nil, apierror.Conflict("Referral has already been resolved")
	}

	now := time.Now()
	rec.Status = next
	rec.ResolvedAt = &now

	var assignTo *uint
	if next == model.ReferralConfirmed {
		to := rec.ToUserID
		assignTo = &to
	}
	if err := s.store.Resolve(ctx, rec, assignTo); err != nil {
		if errors.Is(err, ErrAlreadyResolved) {
			return nil, apierror.Conflict("Referral has already been resolved")
		}
		return nil, apierror.FromDB(err, apierror.DBMessages{NotFound: "Referral not found"})
	}
	metrics.RecordReferral(string(s.entity), string(action))

	s.notifyResolved(ctx, rec)

	s.log.Info("referral resolved",
		zap.Uint("referral_id", rec.ID),
		zap.String("status", string(rec.Status)),
	)
	return rec, nil
}

func (s *Service) notifyResolved(ctx context.Context, rec *Record) {
	confirmed := rec.Status == model.ReferralConfirmed
	typ := model.NotificationReferralRejected
	verb := "rejected"
	if confirmed {
		typ = model.NotificationReferralConfirmed
		verb = "confirmed"
	}

	targetName := rec.ToUserName
	if target, err := s.users.FindByID(ctx, rec.ToUserID); err == nil {
		targetName = target.GetFullName()
	}

	_ = s.notifier.Notify(ctx, notify.Message{
		UserID:     rec.FromUserID,
		Type:       typ,
		Title:      fmt.Sprintf("%s referral %s", s.entity.title(), verb),
		Body:       fmt.Sprintf("%s %s your referral of %s", targetName, verb, rec.ItemLabel),
		EntityType: string(s.entity),
		EntityID:   rec.ItemID,
		Metadata:   map[string]interface{}{"referral_id": rec.ID},
	})

	referrer, err := s.users.FindByID(ctx, rec.FromUserID)
	if err != nil {
		return
	}
	s.notifier.Mail(ctx, func(m notify.Mailer) error {
		return m.SendReferralResolved(ctx, referrer.Email, email.ReferralResolvedData{
			RecipientName: referrer.GetFullName(),
			TargetName:    targetName,
			EntityLabel:   string(s.entity),
			ItemLabel:     rec.ItemLabel,
			Confirmed:     confirmed,
		})
	})
}

func (s *Service) Pending(ctx context.Context, userID uint) ([]Record, error) {
	return s.store.PendingFor(ctx, userID)
}

func (s *Service) History(ctx context.Context, itemID uint) ([]Record, error) {
	if _, err := s.store.LoadItem(ctx, itemID); err != nil {
		return nil, apierror.FromDB(err, apierror.DBMessages{NotFound: s.entity.title() + " not found"})
	}
	return s.store.ForItem(ctx, itemID)
}

// RemindStale re-notifies recipients of referrals pending for longer than age.
func (s *Service) RemindStale(ctx context.Context, age time.Duration) (int, error) {
	recs, err := s.store.PendingSince(ctx, time.Now().Add(-age))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, rec := range recs {
		days := int(time.Since(rec.CreatedAt).Hours() / 24)
		err := s.notifier.Notify(ctx, notify.Message{
			UserID:     rec.ToUserID,
			Type:       model.NotificationReferralReminder,
			Title:      fmt.Sprintf("%s referral waiting for you", s.entity.title()),
			Body:       fmt.Sprintf("%s has been waiting for your response for %d days", rec.ItemLabel, days),
			EntityType: string(s.entity),
			EntityID:   rec.ItemID,
			Metadata:   map[string]interface{}{"referral_id": rec.ID},
		})
		if err == nil {
			sent++
		}
	}
	return sent, nil
}
