// Package notify creates in-app notifications and, when email is configured,
// sends the matching email. Delivery problems are logged and never fail the
// action that triggered them.
package notify

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"estacrm_backend/internal/model"
	"estacrm_backend/pkg/email"
)

type Store interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
}

type Mailer interface {
	SendReferralRequest(ctx context.Context, to string, data email.ReferralRequestData) error
	SendReferralResolved(ctx context.Context, to string, data email.ReferralResolvedData) error
	SendViewingReminder(ctx context.Context, to string, data email.ViewingReminderData) error
}

type Message struct {
	UserID     uint
	Type       model.NotificationType
	Title      string
	Body       string
	EntityType string
	EntityID   uint
	Metadata   map[string]interface{}
}

type Service struct {
	store  Store
	mailer Mailer
	log    *zap.Logger
}

// New returns a notifier. mailer may be nil, in which case Mail is a no-op.
func New(store Store, mailer Mailer, log *zap.Logger) *Service {
	return &Service{store: store, mailer: mailer, log: log}
}

func (s *Service) Notify(ctx context.Context, m Message) error {
	n := &model.Notification{
		UserID:     m.UserID,
		Title:      m.Title,
		Message:    m.Body,
		Type:       m.Type,
		EntityType: m.EntityType,
	}
	if m.EntityID != 0 {
		id := m.EntityID
		n.EntityID = &id
	}
	if len(m.Metadata) > 0 {
		raw, err := json.Marshal(m.Metadata)
		if err != nil {
			return err
		}
		n.Metadata = datatypes.JSON(raw)
	}

	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.log.Error("failed to create notification",
			zap.Uint("user_id", m.UserID),
			zap.String("type", string(m.Type)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Mail runs send against the configured mailer and logs failures.
func (s *Service) Mail(ctx context.Context, send func(Mailer) error) {
	if s.mailer == nil {
		return
	}
	if err := send(s.mailer); err != nil {
		s.log.Warn("failed to send email", zap.Error(err))
	}
}

func (s *Service) MailEnabled() bool {
	return s.mailer != nil
}
