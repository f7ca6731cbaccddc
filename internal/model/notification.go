package model

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationReferralRequest   NotificationType = "referral_request"
	NotificationReferralConfirmed NotificationType = "referral_confirmed"
	NotificationReferralRejected  NotificationType = "referral_rejected"
	NotificationReferralReminder  NotificationType = "referral_reminder"
	NotificationViewingAssigned   NotificationType = "viewing_assigned"
	NotificationViewingReminder   NotificationType = "viewing_reminder"
	NotificationViewingUpdate     NotificationType = "viewing_update"
	NotificationImportCompleted   NotificationType = "import_completed"
)

type Notification struct {
	ID         uint             `json:"id" gorm:"primaryKey"`
	UserID     uint             `json:"user_id" gorm:"not null;index:idx_notifications_user_read"`
	Title      string           `json:"title" gorm:"not null"`
	Message    string           `json:"message" gorm:"type:text"`
	Type       NotificationType `json:"type" gorm:"size:32;not null"`
	EntityType string           `json:"entity_type" gorm:"size:32"`
	EntityID   *uint            `json:"entity_id"`
	IsRead     bool             `json:"is_read" gorm:"not null;index:idx_notifications_user_read"`
	ReadAt     *time.Time       `json:"read_at"`
	Metadata   datatypes.JSON   `json:"metadata,omitempty"`
	CreatedAt  time.Time        `json:"created_at" gorm:"index"`
}
