package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category classifies complaints. Complaints reference it by Slug only;
// deleting a category leaves existing complaints untouched.
type Category struct {
	ID           string        `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string        `gorm:"type:text;not null" json:"name"`
	Icon         string        `gorm:"type:text" json:"icon"`
	Type         ComplaintType `gorm:"type:text;not null;index" json:"type"`
	Slug         string        `gorm:"type:text;uniqueIndex;not null" json:"slug"`
	Description  string        `gorm:"type:text" json:"description"`
	IsActive     bool          `gorm:"not null;default:true" json:"is_active"`
	DisplayOrder int           `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// DefaultCategories is the seed set loaded by the admin CLI.
var DefaultCategories = []Category{
	{Name: "Pothole", Icon: "🕳️", Type: TypeCivic, Slug: "pothole", Description: "Road damage or potholes", IsActive: true, DisplayOrder: 1},
	{Name: "Garbage Overflow", Icon: "🗑️", Type: TypeCivic, Slug: "garbage", Description: "Overflowing garbage bins", IsActive: true, DisplayOrder: 2},
	{Name: "Water Leakage", Icon: "💧", Type: TypeCivic, Slug: "water", Description: "Water pipe leaks or flooding", IsActive: true, DisplayOrder: 3},
	{Name: "Streetlight", Icon: "💡", Type: TypeCivic, Slug: "streetlight", Description: "Non-functional street lights", IsActive: true, DisplayOrder: 4},
	{Name: "Traffic Signal", Icon: "🚦", Type: TypeCivic, Slug: "traffic", Description: "Traffic signal issues", IsActive: true, DisplayOrder: 5},
	{Name: "Drainage", Icon: "🌊", Type: TypeCivic, Slug: "drainage", Description: "Blocked or broken drains", IsActive: true, DisplayOrder: 6},
	{Name: "Road Damage", Icon: "🛣️", Type: TypeCivic, Slug: "road", Description: "Road surface damage", IsActive: true, DisplayOrder: 7},
	{Name: "Other", Icon: "📋", Type: TypeCivic, Slug: "other-civic", Description: "Other civic issues", IsActive: true, DisplayOrder: 8},
	{Name: "Corruption", Icon: "💰", Type: TypeAnonymous, Slug: "corruption", Description: "Report corrupt practices", IsActive: true, DisplayOrder: 1},
	{Name: "Harassment", Icon: "⚠️", Type: TypeAnonymous, Slug: "harassment", Description: "Report harassment incidents", IsActive: true, DisplayOrder: 2},
	{Name: "Threats/Violence", Icon: "🚨", Type: TypeAnonymous, Slug: "threat", Description: "Report threats or violence", IsActive: true, DisplayOrder: 3},
	{Name: "Fraud", Icon: "📄", Type: TypeAnonymous, Slug: "fraud", Description: "Report fraudulent activities", IsActive: true, DisplayOrder: 4},
	{Name: "Misconduct", Icon: "👤", Type: TypeAnonymous, Slug: "misconduct", Description: "Report official misconduct", IsActive: true, DisplayOrder: 5},
	{Name: "Unsafe Area", Icon: "🔴", Type: TypeAnonymous, Slug: "unsafe", Description: "Report unsafe public areas", IsActive: true, DisplayOrder: 6},
	{Name: "Other", Icon: "🔒", Type: TypeAnonymous, Slug: "other-anon", Description: "Other sensitive issues", IsActive: true, DisplayOrder: 7},
}
