package model

import "time"

// EmailRequirement controls whether respondents are asked for an email
// when opening a public link.
type EmailRequirement string

const (
	EmailNone        EmailRequirement = "none"
	EmailOptionalAny EmailRequirement = "optional_any"
	EmailOptionalOrg EmailRequirement = "optional_org"
)

// SurveyInstance is one deployment of a survey to an event. Links and
// responses hang off an instance, not off the survey itself.
type SurveyInstance struct {
	ID               string           `json:"id" bson:"_id,omitempty"`
	OrgID            string           `json:"orgId" bson:"orgId"`
	EventID          string           `json:"eventId" bson:"eventId"`
	SurveyID         string           `json:"surveyId" bson:"surveyId"`
	EmailRequirement EmailRequirement `json:"emailRequirement" bson:"emailRequirement"`
	LaunchedAt       *time.Time       `json:"launchedAt,omitempty" bson:"launchedAt,omitempty"`
	CreatedAt        time.Time        `json:"createdAt" bson:"createdAt"`
}
