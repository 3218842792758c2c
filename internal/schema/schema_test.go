package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestQuestionsParsesFullDefinition(t *testing.T) {
	doc := map[string]interface{}{
		"questions": []interface{}{
			map[string]interface{}{
				"text":         "How did you hear about the event?",
				"type":         TypeMultipleChoice,
				"choices":      []interface{}{"Email", "Social media", "A colleague"},
				"description":  "Marketing attribution",
				"can_followup": false,
			},
			map[string]interface{}{
				"text": "Any other feedback?",
			},
		},
	}

	questions, err := Questions(doc)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	assert.Equal(t, "How did you hear about the event?", questions[0].Text)
	assert.Equal(t, TypeMultipleChoice, questions[0].Type)
	assert.Equal(t, []string{"Email", "Social media", "A colleague"}, questions[0].Choices)
	assert.Equal(t, "Marketing attribution", questions[0].Description)
	assert.False(t, questions[0].AllowsFollowup)

	// Defaults: free text, follow-ups allowed.
	assert.Equal(t, TypeText, questions[1].Type)
	assert.True(t, questions[1].AllowsFollowup)
	assert.Nil(t, questions[1].Choices)
}

func TestQuestionsAcceptsBSONShapes(t *testing.T) {
	doc := map[string]interface{}{
		"questions": primitive.A{
			primitive.M{"text": "Rate the venue", "type": TypeRating},
			primitive.D{{Key: "text", Value: "Why that rating?"}},
		},
	}

	questions, err := Questions(doc)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, TypeRating, questions[0].Type)
	assert.Equal(t, "Why that rating?", questions[1].Text)
}

func TestQuestionsRejectsMalformedSchemas(t *testing.T) {
	cases := []struct {
		name string
		doc  map[string]interface{}
	}{
		{"nil document", nil},
		{"missing questions", map[string]interface{}{"title": "x"}},
		{"questions not an array", map[string]interface{}{"questions": "nope"}},
		{"empty questions", map[string]interface{}{"questions": []interface{}{}}},
		{"question not an object", map[string]interface{}{"questions": []interface{}{"hi"}}},
		{"question without text", map[string]interface{}{
			"questions": []interface{}{map[string]interface{}{"type": TypeText}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Questions(tc.doc)
			assert.ErrorIs(t, err, ErrInvalidSchema)
		})
	}
}

func TestScoreExpr(t *testing.T) {
	assert.Equal(t, "", ScoreExpr(nil))
	assert.Equal(t, "", ScoreExpr(map[string]interface{}{}))
	assert.Equal(t, "len(answers)", ScoreExpr(map[string]interface{}{"score_expr": "len(answers)"}))
}
