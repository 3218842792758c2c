package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvass/internal/model"
)

func TestAnswerLedgerSlotUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAnswerRepo()

	first := &model.Answer{ResponseID: "resp-1", QuestionIdx: 0, QuestionText: "Q0"}
	require.NoError(t, repo.Create(ctx, first))
	assert.NotEmpty(t, first.ID)

	dup := &model.Answer{ResponseID: "resp-1", QuestionIdx: 0, QuestionText: "Q0 again"}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicateAnswerSlot)

	// Same index, follow-up slot: a distinct slot, so it must succeed.
	fu := &model.Answer{ResponseID: "resp-1", QuestionIdx: 0, QuestionText: "follow-up", IsFollowup: true}
	require.NoError(t, repo.Create(ctx, fu))

	got, err := repo.Get(ctx, "resp-1", 0, false)
	require.NoError(t, err)
	assert.Equal(t, "Q0", got.QuestionText)
	assert.Nil(t, got.Answer)

	has, err := repo.HasFollowup(ctx, "resp-1", 0)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestUpsertFollowupQuestionUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAnswerRepo()

	created, err := repo.UpsertFollowupQuestion(ctx, "resp-1", 2, "Could you elaborate?")
	require.NoError(t, err)
	assert.True(t, created.IsFollowup)
	assert.Nil(t, created.Answer)

	revised, err := repo.UpsertFollowupQuestion(ctx, "resp-1", 2, "What exactly went wrong?")
	require.NoError(t, err)
	assert.Equal(t, created.ID, revised.ID)
	assert.Equal(t, "What exactly went wrong?", revised.QuestionText)

	answers, err := repo.ListByResponse(ctx, "resp-1")
	require.NoError(t, err)
	assert.Len(t, answers, 1)
}

func TestAdvanceIndexIsGuarded(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryResponseRepo()

	resp := &model.SurveyResponse{ID: "resp-1", CurrentIndex: 0}
	require.NoError(t, repo.Create(ctx, resp))

	next, err := repo.AdvanceIndex(ctx, "resp-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	// Stale expectation: the caller read index 0 but it has moved on.
	_, err = repo.AdvanceIndex(ctx, "resp-1", 0)
	assert.ErrorIs(t, err, ErrStaleResponse)

	require.NoError(t, repo.MarkFinished(ctx, "resp-1"))
	_, err = repo.AdvanceIndex(ctx, "resp-1", 1)
	assert.ErrorIs(t, err, ErrStaleResponse)

	got, err := repo.GetByID(ctx, "resp-1")
	require.NoError(t, err)
	require.NotNil(t, got.FinishedAt)
	finishedAt := *got.FinishedAt

	// MarkFinished is idempotent and never clears the timestamp.
	require.NoError(t, repo.MarkFinished(ctx, "resp-1"))
	got, err = repo.GetByID(ctx, "resp-1")
	require.NoError(t, err)
	assert.Equal(t, finishedAt, *got.FinishedAt)
}
