package model

import "time"

// Answer is one ledger row: the answerable unit at (response, question index,
// is-followup). The question text is captured when the row is created so the
// record stays stable even if a follow-up is later regenerated. A nil Answer
// with Skipped false means the question is still outstanding.
type Answer struct {
	ID           string      `json:"id" bson:"_id,omitempty"`
	ResponseID   string      `json:"responseId" bson:"responseId"`
	QuestionIdx  int         `json:"questionIdx" bson:"questionIdx"`
	QuestionText string      `json:"questionText" bson:"questionText"`
	IsFollowup   bool        `json:"isFollowup" bson:"isFollowup"`
	Answer       interface{} `json:"answer" bson:"answer"`
	Skipped      bool        `json:"skipped" bson:"skipped"`
	CreatedAt    time.Time   `json:"createdAt" bson:"createdAt"`
}

// Answered reports whether the slot has received a submission. An explicit
// skip counts as answered even though the payload stays nil.
func (a *Answer) Answered() bool {
	return a.Answer != nil || a.Skipped
}
