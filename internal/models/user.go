package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleAuthority Role = "authority"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleAuthority, RoleAdmin:
		return true
	}
	return false
}

// Profile is a registered account.
type Profile struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"type:text;uniqueIndex;not null" json:"email"`
	FullName     string    `gorm:"type:text" json:"full_name"`
	Phone        *string   `gorm:"type:text" json:"phone"`
	PasswordHash string    `gorm:"type:text;not null" json:"-"`
	Role         Role      `gorm:"type:text;not null;default:citizen" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID and the citizen role when unset.
func (p *Profile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Role == "" {
		p.Role = RoleCitizen
	}
	return
}

// UserSummary is a profile joined with its complaint count, for the admin user list.
type UserSummary struct {
	Profile
	ComplaintsCount int `json:"complaints_count"`
}
