package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ComplaintType string

const (
	TypeCivic     ComplaintType = "civic"
	TypeAnonymous ComplaintType = "anonymous"
	TypeSpecial   ComplaintType = "special"
)

func (t ComplaintType) Valid() bool {
	switch t {
	case TypeCivic, TypeAnonymous, TypeSpecial:
		return true
	}
	return false
}

// Anonymous reports whether complaints of this type hide the reporter.
func (t ComplaintType) Anonymous() bool {
	return t == TypeAnonymous || t == TypeSpecial
}

type Status string

const (
	StatusPending       Status = "pending"
	StatusInvestigating Status = "investigating"
	StatusInProgress    Status = "in-progress"
	StatusResolved      Status = "resolved"
	StatusRejected      Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInvestigating, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Complaint is a citizen report as persisted in the complaints table.
// The AI* columns are either all set or all NULL.
type Complaint struct {
	ID         string        `gorm:"type:uuid;primaryKey" json:"id"`
	TrackingID string        `gorm:"column:complaint_id;uniqueIndex;not null" json:"complaint_id"`
	Type       ComplaintType `gorm:"type:text;not null;index" json:"type"`
	Category   string        `gorm:"type:text;not null;index" json:"category"`

	Title       string `gorm:"type:text;not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`

	LocationLat     float64 `gorm:"not null" json:"location_lat"`
	LocationLng     float64 `gorm:"not null" json:"location_lng"`
	LocationAddress string  `gorm:"type:text;not null" json:"location_address"`
	LocationWard    *string `gorm:"type:text" json:"location_ward"`

	Status           Status   `gorm:"type:text;not null;default:pending;index" json:"status"`
	Priority         Priority `gorm:"type:text;not null;default:medium;index" json:"priority"`
	CredibilityScore int      `gorm:"not null" json:"credibility_score"`

	AISentiment           *Sentiment     `gorm:"type:text" json:"ai_sentiment"`
	AIFakeProbability     *float64       `json:"ai_fake_probability"`
	AIUrgencyScore        *float64       `json:"ai_urgency_score"`
	AISuggestedDepartment *string        `gorm:"type:text" json:"ai_suggested_department"`
	AIKeywords            pq.StringArray `gorm:"type:text[]" json:"ai_keywords"`
	AISummary             *string        `gorm:"type:text" json:"ai_summary"`

	ReporterID    *string `gorm:"type:uuid;index" json:"reporter_id"`
	ReporterName  *string `gorm:"type:text" json:"reporter_name"`
	ReporterEmail *string `gorm:"type:text" json:"reporter_email"`
	ReporterPhone *string `gorm:"type:text" json:"reporter_phone"`
	AnonymousID   *string `gorm:"type:text;index" json:"anonymous_id"`

	Evidence pq.StringArray `gorm:"type:text[]" json:"evidence"`

	AssignedWorkerName *string `gorm:"type:text" json:"assigned_worker_name"`
	Department         *string `gorm:"type:text" json:"department"`
	Resolution         *string `gorm:"type:text" json:"resolution"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// HasAnalysis reports whether AI enrichment was stored with the complaint.
func (c *Complaint) HasAnalysis() bool {
	return c.AISentiment != nil
}
