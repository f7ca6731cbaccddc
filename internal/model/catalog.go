package model

import "time"

type ReferenceSource struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null;uniqueIndex"`
	IsActive  bool      `json:"is_active" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PropertyCategory struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null;uniqueIndex"`
	IsActive  bool      `json:"is_active" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Seeded property status codes. Terminal statuses end a listing's lifecycle.
const (
	PropertyStatusAvailable = "AVAILABLE"
	PropertyStatusReserved  = "RESERVED"
	PropertyStatusSold      = "SOLD"
	PropertyStatusRented    = "RENTED"
	PropertyStatusClosed    = "CLOSED"
)

type PropertyStatus struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Code          string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Color         string    `json:"color" gorm:"size:7;not null"`
	CanBeReferred bool      `json:"can_be_referred" gorm:"not null"`
	IsTerminal    bool      `json:"is_terminal" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
