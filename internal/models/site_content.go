package models

import (
	"time"

	"gorm.io/datatypes"
)

// SiteContent is an editable block of public page copy.
type SiteContent struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	SectionKey string         `gorm:"type:text;uniqueIndex;not null" json:"section_key"`
	Title      *string        `gorm:"type:text" json:"title"`
	Subtitle   *string        `gorm:"type:text" json:"subtitle"`
	Content    *string        `gorm:"type:text" json:"content"`
	Metadata   datatypes.JSON `json:"metadata"`
	IsActive   bool           `gorm:"not null;default:true" json:"is_active"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
