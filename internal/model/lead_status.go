package model

import "time"

const (
	DefaultStatusColor = "#6B7280"
	LeadStatusCodeNew  = "NEW"
)

// LeadStatus is an admin managed pipeline stage. Rows are hard deleted, so the
// foreign key from leads protects statuses that are still in use.
type LeadStatus struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	StatusName    string    `json:"status_name" gorm:"size:100;not null;uniqueIndex"`
	Code          string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Color         string    `json:"color" gorm:"size:7;not null"`
	Description   string    `json:"description" gorm:"type:text"`
	IsActive      bool      `json:"is_active" gorm:"not null"`
	CanBeReferred bool      `json:"can_be_referred" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
	ModifiedAt    time.Time `json:"modified_at" gorm:"autoUpdateTime"`
}
