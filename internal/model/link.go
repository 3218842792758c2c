package model

import "time"

// Link is a public token for an instance. The ID itself is the secret that
// gets embedded in the distributed URL or QR code.
type Link struct {
	ID               string     `json:"id" bson:"_id,omitempty"`
	OrgID            string     `json:"orgId" bson:"orgId"`
	SurveyInstanceID string     `json:"surveyInstanceId" bson:"surveyInstanceId"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt" bson:"createdAt"`
}

// Expired reports whether the link can no longer be used.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}
