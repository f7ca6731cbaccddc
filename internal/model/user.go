package model

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"estacrm_backend/internal/rbac"
)

type User struct {
	gorm.Model
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	FirstName string    `json:"first_name" gorm:"not null"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Role      rbac.Role `json:"role" gorm:"type:varchar(32);not null;index"`
	IsActive  bool      `json:"is_active" gorm:"not null"`

	// Only agents report to a team leader.
	TeamLeaderID *uint `json:"team_leader_id" gorm:"index"`

	TeamLeader *User          `json:"team_leader,omitempty" gorm:"foreignKey:TeamLeaderID"`
	Documents  []UserDocument `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (u *User) GetFullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

func (u *User) GetPublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":             u.ID,
		"email":          u.Email,
		"full_name":      u.GetFullName(),
		"first_name":     u.FirstName,
		"last_name":      u.LastName,
		"phone":          u.Phone,
		"role":           u.Role,
		"is_active":      u.IsActive,
		"team_leader_id": u.TeamLeaderID,
	}
}

type UserDocument struct {
	gorm.Model
	UserID       uint           `json:"user_id" gorm:"index;not null"`
	FileName     string         `json:"file_name" gorm:"not null"`
	ObjectKey    string         `json:"-" gorm:"not null"`
	URL          string         `json:"url" gorm:"not null"`
	ContentType  string         `json:"content_type"`
	Size         int64          `json:"size"`
	UploadedByID uint           `json:"uploaded_by_id"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`
}
