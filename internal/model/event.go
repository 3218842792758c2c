package model

import "time"

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventScheduled EventStatus = "scheduled"
	EventActive    EventStatus = "active"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// Event is an occasion surveys get deployed to (a conference, a workshop...).
type Event struct {
	ID          string      `json:"id" bson:"_id,omitempty"`
	OrgID       string      `json:"orgId" bson:"orgId"`
	Name        string      `json:"name" bson:"name"`
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	StartAt     time.Time   `json:"startAt" bson:"startAt"`
	EndAt       time.Time   `json:"endAt" bson:"endAt"`
	Status      EventStatus `json:"status" bson:"status"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
}
