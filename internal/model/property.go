package model

import (
	"time"

	"gorm.io/gorm"
)

const DefaultCommissionRate = 2.0

type Property struct {
	gorm.Model
	ReferenceNumber string         `json:"reference_number" gorm:"size:64;not null;uniqueIndex"`
	StatusID        uint           `json:"status_id" gorm:"not null;index"`
	CategoryID      uint           `json:"category_id" gorm:"not null;index"`
	Location        string         `json:"location" gorm:"not null;index"`
	Building        string         `json:"building"`
	OwnerLeadID     *uint          `json:"owner_lead_id" gorm:"index"`
	OwnerName       string         `json:"owner_name"`
	OwnerPhone      string         `json:"owner_phone"`
	Surface         float64        `json:"surface"`
	Price           float64        `json:"price" gorm:"not null"`
	CommissionRate  float64        `json:"commission_rate" gorm:"not null"`
	AgentID         *uint          `json:"agent_id" gorm:"index"`
	AddedByID       uint           `json:"added_by_id" gorm:"not null"`
	ListingDate     time.Time      `json:"listing_date"`
	ClosedAt        *time.Time     `json:"closed_at" gorm:"index"`
	Details         string         `json:"details" gorm:"type:text"`
	ReferralStatus  ReferralStatus `json:"referral_status" gorm:"size:16;not null"`

	Status    *PropertyStatus   `json:"status,omitempty" gorm:"foreignKey:StatusID;constraint:OnDelete:RESTRICT"`
	Category  *PropertyCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
	OwnerLead *Lead             `json:"owner_lead,omitempty" gorm:"foreignKey:OwnerLeadID"`
	Agent     *User             `json:"agent,omitempty" gorm:"foreignKey:AgentID"`
	Images    []PropertyImage   `json:"images" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ReferralStatus == "" {
		p.ReferralStatus = ReferralNone
	}
	if p.CommissionRate == 0 {
		p.CommissionRate = DefaultCommissionRate
	}
	if p.ListingDate.IsZero() {
		p.ListingDate = time.Now()
	}
	return nil
}

func (p *Property) OwnerID() uint {
	if p.AgentID != nil {
		return *p.AgentID
	}
	return p.AddedByID
}

type PropertyImage struct {
	gorm.Model
	PropertyID uint   `json:"property_id" gorm:"index;not null"`
	URL        string `json:"url" gorm:"not null"`
	ObjectKey  string `json:"-"`
	IsCover    bool   `json:"is_cover"`
	Order      int    `json:"order"`
}

type PropertyReferral struct {
	gorm.Model
	PropertyID      uint           `json:"property_id" gorm:"not null;index"`
	FromUserID      uint           `json:"from_user_id" gorm:"not null"`
	ToUserID        uint           `json:"to_user_id" gorm:"not null;index"`
	PreviousAgentID *uint          `json:"previous_agent_id"`
	Note            string         `json:"note" gorm:"type:text"`
	Status          ReferralStatus `json:"status" gorm:"size:16;not null;index"`
	ResolvedAt      *time.Time     `json:"resolved_at"`

	Property *Property `json:"property,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	FromUser *User     `json:"from_user,omitempty" gorm:"foreignKey:FromUserID"`
	ToUser   *User     `json:"to_user,omitempty" gorm:"foreignKey:ToUserID"`
}
