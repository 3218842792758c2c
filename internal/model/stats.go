package model

// InstanceStats aggregates respondent progress for one survey instance.
// AverageScore is only present when the survey schema defines a score
// expression and at least one finished response scored successfully.
type InstanceStats struct {
	SurveyInstanceID string   `json:"surveyInstanceId"`
	Started          int      `json:"started"`
	Finished         int      `json:"finished"`
	CompletionRate   float64  `json:"completionRate"`
	AverageScore     *float64 `json:"averageScore,omitempty"`
	ScoredResponses  int      `json:"scoredResponses"`
}

// EventStats rolls up the stats of every instance attached to an event.
type EventStats struct {
	EventID        string           `json:"eventId"`
	Started        int              `json:"started"`
	Finished       int              `json:"finished"`
	CompletionRate float64          `json:"completionRate"`
	AverageScore   *float64         `json:"averageScore,omitempty"`
	Instances      []*InstanceStats `json:"instances"`
}
