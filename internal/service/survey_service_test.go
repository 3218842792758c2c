package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvass/internal/repository"
	"canvass/internal/schema"
)

func validSchema() map[string]interface{} {
	return map[string]interface{}{
		"questions": []interface{}{
			map[string]interface{}{"text": "How was it?"},
		},
	}
}

func TestSurveyService_PublishFreezesSurvey(t *testing.T) {
	ctx := context.Background()
	svc := NewSurveyService(repository.NewMemorySurveyRepo())

	survey, err := svc.Create(ctx, "org-1", "Feedback", validSchema())
	require.NoError(t, err)
	assert.False(t, survey.IsPublished)

	published, err := svc.Publish(ctx, "org-1", survey.ID)
	require.NoError(t, err)
	assert.True(t, published.IsPublished)

	// Publishing again is a no-op.
	again, err := svc.Publish(ctx, "org-1", survey.ID)
	require.NoError(t, err)
	assert.True(t, again.IsPublished)

	_, err = svc.Update(ctx, "org-1", survey.ID, "New title", validSchema())
	assert.ErrorIs(t, err, ErrSurveyPublished)
}

func TestSurveyService_PublishRejectsInvalidSchema(t *testing.T) {
	ctx := context.Background()
	svc := NewSurveyService(repository.NewMemorySurveyRepo())

	// Drafts may hold broken schemas.
	survey, err := svc.Create(ctx, "org-1", "Draft", map[string]interface{}{"questions": []interface{}{}})
	require.NoError(t, err)

	_, err = svc.Publish(ctx, "org-1", survey.ID)
	assert.ErrorIs(t, err, schema.ErrInvalidSchema)

	got, err := svc.GetByID(ctx, "org-1", survey.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPublished)
}

func TestSurveyService_UpdateDraft(t *testing.T) {
	ctx := context.Background()
	svc := NewSurveyService(repository.NewMemorySurveyRepo())

	survey, err := svc.Create(ctx, "org-1", "Draft", validSchema())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "org-1", survey.ID, "Renamed", validSchema())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
}

func TestSurveyService_OrgScoping(t *testing.T) {
	ctx := context.Background()
	svc := NewSurveyService(repository.NewMemorySurveyRepo())

	survey, err := svc.Create(ctx, "org-1", "Feedback", validSchema())
	require.NoError(t, err)

	_, err = svc.GetByID(ctx, "other-org", survey.ID)
	assert.ErrorIs(t, err, ErrSurveyNotFound)

	_, err = svc.GetByID(ctx, "org-1", "missing")
	assert.ErrorIs(t, err, ErrSurveyNotFound)
}
