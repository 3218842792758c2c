// Package schema reads question definitions out of a survey's stored schema
// document. The document is freeform JSON/BSON authored by organizations, so
// every access is defensive; anything that does not look like a question set
// is rejected with ErrInvalidSchema.
package schema

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Question input types. Free text is the default when a question does not
// declare one.
const (
	TypeText           = "text"
	TypeMultipleChoice = "multiple_choice"
	TypeCheckbox       = "checkbox"
	TypeRating         = "rating"
)

var ErrInvalidSchema = errors.New("invalid survey schema")

// Question is one parsed question definition, in survey order.
type Question struct {
	Text           string
	Type           string
	Choices        []string
	Description    string
	AllowsFollowup bool
}

// Questions parses the ordered question list out of a schema document.
// The document must be an object holding a non-empty "questions" array.
func Questions(doc map[string]interface{}) ([]Question, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: schema is not an object", ErrInvalidSchema)
	}

	raw, ok := doc["questions"]
	if !ok {
		return nil, fmt.Errorf("%w: missing questions", ErrInvalidSchema)
	}
	list, ok := asSlice(raw)
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("%w: questions must be a non-empty array", ErrInvalidSchema)
	}

	questions := make([]Question, 0, len(list))
	for i, entry := range list {
		obj, ok := asMap(entry)
		if !ok {
			return nil, fmt.Errorf("%w: question %d is not an object", ErrInvalidSchema, i)
		}

		text, _ := obj["text"].(string)
		if text == "" {
			return nil, fmt.Errorf("%w: question %d has no text", ErrInvalidSchema, i)
		}

		q := Question{
			Text:           text,
			Type:           TypeText,
			AllowsFollowup: true,
		}
		if t, ok := obj["type"].(string); ok && t != "" {
			q.Type = t
		}
		if d, ok := obj["description"].(string); ok {
			q.Description = d
		}
		if allow, ok := obj["can_followup"].(bool); ok {
			q.AllowsFollowup = allow
		}
		if choices, ok := asSlice(obj["choices"]); ok {
			for _, c := range choices {
				if s, ok := c.(string); ok {
					q.Choices = append(q.Choices, s)
				}
			}
		}

		questions = append(questions, q)
	}

	return questions, nil
}

// ScoreExpr returns the optional scoring expression attached to a schema,
// or "" when the survey is unscored.
func ScoreExpr(doc map[string]interface{}) string {
	if doc == nil {
		return ""
	}
	s, _ := doc["score_expr"].(string)
	return s
}

// asSlice tolerates both decoded JSON ([]interface{}) and BSON arrays.
func asSlice(v interface{}) ([]interface{}, bool) {
	switch s := v.(type) {
	case []interface{}:
		return s, true
	case primitive.A:
		return []interface{}(s), true
	default:
		return nil, false
	}
}

// asMap tolerates decoded JSON objects plus the BSON document shapes the
// driver produces for interface{} values.
func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case primitive.M:
		return map[string]interface{}(m), true
	case primitive.D:
		return m.Map(), true
	default:
		return nil, false
	}
}
