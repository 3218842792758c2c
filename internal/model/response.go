package model

import "time"

// SurveyResponse tracks one respondent's run through one survey instance.
// CurrentIndex points at the base question being answered and only ever
// moves forward. FinishedAt is set once and never cleared.
type SurveyResponse struct {
	ID               string     `json:"id" bson:"_id,omitempty"`
	OrgID            string     `json:"orgId" bson:"orgId"`
	SurveyID         string     `json:"surveyId" bson:"surveyId"`
	SurveyInstanceID string     `json:"surveyInstanceId" bson:"surveyInstanceId"`
	CurrentIndex     int        `json:"currentIndex" bson:"currentIndex"`
	StartedAt        time.Time  `json:"startedAt" bson:"startedAt"`
	FinishedAt       *time.Time `json:"finishedAt,omitempty" bson:"finishedAt,omitempty"`
}
