package model

// QuestionView is the projection of a question sent to respondents. Internal
// schema fields (description, follow-up eligibility) are not exposed.
type QuestionView struct {
	Text    string   `json:"text"`
	Type    string   `json:"type"`
	Choices []string `json:"choices,omitempty"`
}

// AnswerSubmission is one respondent submission for the outstanding question.
// Skipped true means the payload is ignored and the flow moves on.
type AnswerSubmission struct {
	Answer  interface{} `json:"answer"`
	Skipped bool        `json:"skipped"`
}

// FlowStart is the result of starting a survey flow.
type FlowStart struct {
	ResponseID string        `json:"responseId"`
	Question   *QuestionView `json:"question"`
}

// FlowStep is the result of submitting an answer: either the next question
// (base or follow-up) or a done signal.
type FlowStep struct {
	Done     bool          `json:"done"`
	Question *QuestionView `json:"question,omitempty"`
}
