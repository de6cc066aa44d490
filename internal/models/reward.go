package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// UserReward is the per-user gamification ledger.
type UserReward struct {
	ID                  string         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              string         `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Points              int            `gorm:"not null;default:0" json:"points"`
	Level               string         `gorm:"type:text;not null;default:Newcomer" json:"level"`
	Badges              pq.StringArray `gorm:"type:text[]" json:"badges"`
	ComplaintsSubmitted int            `gorm:"not null;default:0" json:"complaints_submitted"`
	ComplaintsResolved  int            `gorm:"not null;default:0" json:"complaints_resolved"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

func (r *UserReward) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}
