package model

import (
	"time"

	"gorm.io/gorm"
)

type ReferralStatus string

const (
	ReferralNone      ReferralStatus = "none"
	ReferralPending   ReferralStatus = "pending"
	ReferralConfirmed ReferralStatus = "confirmed"
	ReferralRejected  ReferralStatus = "rejected"
)

type Lead struct {
	gorm.Model
	CustomerName      string         `json:"customer_name" gorm:"size:150;not null;index"`
	Phone             string         `json:"phone" gorm:"size:30;not null;index"`
	Email             string         `json:"email"`
	Price             float64        `json:"price"`
	StatusID          uint           `json:"status_id" gorm:"not null;index"`
	AgentID           *uint          `json:"agent_id" gorm:"index"`
	AddedByID         uint           `json:"added_by_id" gorm:"not null;index"`
	ReferenceSourceID *uint          `json:"reference_source_id" gorm:"index"`
	LeadDate          time.Time      `json:"lead_date"`
	Notes             string         `json:"notes" gorm:"type:text"`
	ReferralStatus    ReferralStatus `json:"referral_status" gorm:"size:16;not null"`

	Status          *LeadStatus      `json:"status,omitempty" gorm:"foreignKey:StatusID;constraint:OnDelete:RESTRICT"`
	Agent           *User            `json:"agent,omitempty" gorm:"foreignKey:AgentID"`
	AddedBy         *User            `json:"added_by,omitempty" gorm:"foreignKey:AddedByID"`
	ReferenceSource *ReferenceSource `json:"reference_source,omitempty" gorm:"foreignKey:ReferenceSourceID"`
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ReferralStatus == "" {
		l.ReferralStatus = ReferralNone
	}
	if l.LeadDate.IsZero() {
		l.LeadDate = time.Now()
	}
	return nil
}

// OwnerID is the user a lead counts against for scoping: the assigned agent,
// or whoever added it while unassigned.
func (l *Lead) OwnerID() uint {
	if l.AgentID != nil {
		return *l.AgentID
	}
	return l.AddedByID
}

type LeadReferral struct {
	gorm.Model
	LeadID          uint           `json:"lead_id" gorm:"not null;index"`
	FromUserID      uint           `json:"from_user_id" gorm:"not null"`
	ToUserID        uint           `json:"to_user_id" gorm:"not null;index"`
	PreviousAgentID *uint          `json:"previous_agent_id"`
	Note            string         `json:"note" gorm:"type:text"`
	Status          ReferralStatus `json:"status" gorm:"size:16;not null;index"`
	ResolvedAt      *time.Time     `json:"resolved_at"`

	Lead     *Lead `json:"lead,omitempty" gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE"`
	FromUser *User `json:"from_user,omitempty" gorm:"foreignKey:FromUserID"`
	ToUser   *User `json:"to_user,omitempty" gorm:"foreignKey:ToUserID"`
}
