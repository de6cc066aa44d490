package models

import "time"

type EventType string

const (
	EventComplaintCreated EventType = "complaint.created"
	EventComplaintUpdated EventType = "complaint.updated"
	EventComplaintDeleted EventType = "complaint.deleted"
	EventCategoryChanged  EventType = "category.changed"
)

// Event tells readers that stored data changed and should be refetched.
type Event struct {
	Type       EventType `json:"type"`
	TrackingID string    `json:"tracking_id,omitempty"`
	Status     Status    `json:"status,omitempty"`
	Priority   Priority  `json:"priority,omitempty"`
	At         time.Time `json:"at"`
}
