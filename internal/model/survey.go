package model

import "time"

// Survey is a question-set template owned by an organization. The schema is
// stored as a flexible document; internal/schema knows how to read it.
// Published surveys are immutable.
type Survey struct {
	ID          string                 `json:"id" bson:"_id,omitempty"`
	OrgID       string                 `json:"orgId" bson:"orgId"`
	Title       string                 `json:"title" bson:"title"`
	Schema      map[string]interface{} `json:"schema" bson:"schema"`
	IsPublished bool                   `json:"isPublished" bson:"isPublished"`
	CreatedAt   time.Time              `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt" bson:"updatedAt"`
}
