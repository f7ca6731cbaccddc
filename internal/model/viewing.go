package model

import (
	"time"

	"gorm.io/gorm"
)

type ViewingStatus string

const (
	ViewingStatusScheduled      ViewingStatus = "Scheduled"
	ViewingStatusInitialContact ViewingStatus = "Initial Contact"
	ViewingStatusFollowUp       ViewingStatus = "Follow Up"
	ViewingStatusSecondViewing  ViewingStatus = "Second Viewing"
	ViewingStatusOfferMade      ViewingStatus = "Offer Made"
	ViewingStatusNegotiation    ViewingStatus = "Negotiation"
	ViewingStatusDealClosed     ViewingStatus = "Deal Closed"
	ViewingStatusNotInterested  ViewingStatus = "Not Interested"
	ViewingStatusCancelled      ViewingStatus = "Cancelled"
)

// ViewingUpdateStatuses are the values an update may carry. Scheduled is only
// ever derived, never stored.
var ViewingUpdateStatuses = []ViewingStatus{
	ViewingStatusInitialContact,
	ViewingStatusFollowUp,
	ViewingStatusSecondViewing,
	ViewingStatusOfferMade,
	ViewingStatusNegotiation,
	ViewingStatusDealClosed,
	ViewingStatusNotInterested,
	ViewingStatusCancelled,
}

type Viewing struct {
	gorm.Model
	PropertyID  uint      `json:"property_id" gorm:"not null;index"`
	LeadID      uint      `json:"lead_id" gorm:"not null;index"`
	AgentID     uint      `json:"agent_id" gorm:"not null;index"`
	ScheduledAt time.Time `json:"scheduled_at" gorm:"not null;index"`
	IsSerious   bool      `json:"is_serious" gorm:"not null;index"`
	Notes       string    `json:"notes" gorm:"type:text"`
	CreatedByID uint      `json:"created_by_id" gorm:"not null"`

	Property *Property       `json:"property,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	Lead     *Lead           `json:"lead,omitempty" gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE"`
	Agent    *User           `json:"agent,omitempty" gorm:"foreignKey:AgentID"`
	Updates  []ViewingUpdate `json:"updates,omitempty" gorm:"foreignKey:ViewingID;constraint:OnDelete:CASCADE"`
}

// ViewingUpdate is one entry of a viewing's append-only timeline.
type ViewingUpdate struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	ViewingID uint          `json:"viewing_id" gorm:"not null;index"`
	Status    ViewingStatus `json:"status" gorm:"size:32;not null"`
	Text      string        `json:"text" gorm:"type:text"`
	AuthorID  uint          `json:"author_id" gorm:"not null"`
	CreatedAt time.Time     `json:"created_at" gorm:"index"`
	UpdatedAt time.Time     `json:"updated_at"`

	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}
