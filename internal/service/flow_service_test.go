package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvass/internal/model"
	"canvass/internal/repository"
	"canvass/internal/schema"
)

// scriptedPolicy returns queued follow-up decisions and records every call.
type scriptedPolicy struct {
	queue []string
	err   error
	calls int
}

func (p *scriptedPolicy) Evaluate(_ context.Context, _, _ string, _ interface{}, _ string) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	if len(p.queue) == 0 {
		return "", nil
	}
	next := p.queue[0]
	p.queue = p.queue[1:]
	return next, nil
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) Publish(eventType string, _ interface{}) error {
	p.events = append(p.events, eventType)
	return nil
}

type flowFixture struct {
	svc          *FlowService
	responseRepo *repository.MemoryResponseRepo
	answerRepo   *repository.MemoryAnswerRepo
	policy       *scriptedPolicy
	publisher    *recordingPublisher
	instanceID   string
}

func newFlowFixture(t *testing.T, schemaDoc map[string]interface{}, policy *scriptedPolicy) *flowFixture {
	t.Helper()
	ctx := context.Background()

	surveyRepo := repository.NewMemorySurveyRepo()
	instanceRepo := repository.NewMemoryInstanceRepo()
	responseRepo := repository.NewMemoryResponseRepo()
	answerRepo := repository.NewMemoryAnswerRepo()

	survey := &model.Survey{
		ID:          "survey-1",
		OrgID:       "org-1",
		Title:       "Checkout Feedback",
		Schema:      schemaDoc,
		IsPublished: true,
	}
	require.NoError(t, surveyRepo.Create(ctx, survey))

	instance := &model.SurveyInstance{
		ID:       "instance-1",
		OrgID:    "org-1",
		EventID:  "event-1",
		SurveyID: survey.ID,
	}
	require.NoError(t, instanceRepo.Create(ctx, instance))

	publisher := &recordingPublisher{}
	svc := NewFlowService(instanceRepo, surveyRepo, responseRepo, answerRepo, policy, noopLocker{})
	svc.SetPublisher(publisher)

	return &flowFixture{
		svc:          svc,
		responseRepo: responseRepo,
		answerRepo:   answerRepo,
		policy:       policy,
		publisher:    publisher,
		instanceID:   instance.ID,
	}
}

func twoQuestionSchema() map[string]interface{} {
	return map[string]interface{}{
		"questions": []interface{}{
			map[string]interface{}{"text": "What did you buy?", "type": "text"},
			map[string]interface{}{"text": "How was checkout?", "type": "rating"},
		},
	}
}

func TestFlowService_StartFlow(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t, twoQuestionSchema(), &scriptedPolicy{})

	start, err := f.svc.StartFlow(ctx, f.instanceID)
	require.NoError(t, err)
	require.NotEmpty(t, start.ResponseID)
	require.NotNil(t, start.Question)
	assert.Equal(t, "What did you buy?", start.Question.Text)

	// The first ledger row is open: created with no answer, not skipped.
	row, err := f.answerRepo.Get(ctx, start.ResponseID, 0, false)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Nil(t, row.Answer)
	assert.False(t, row.Skipped)
	assert.False(t, row.Answered())

	response, err := f.responseRepo.GetByID(ctx, start.ResponseID)
	require.NoError(t, err)
	assert.Equal(t, 0, response.CurrentIndex)
	assert.Nil(t, response.FinishedAt)

	assert.Equal(t, []string{"response.started"}, f.publisher.events)
}

func TestFlowService_StartFlow_UnknownInstance(t *testing.T) {
	f := newFlowFixture(t, twoQuestionSchema(), &scriptedPolicy{})

	_, err := f.svc.StartFlow(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInstanceNotFound)
}

func TestFlowService_StartFlow_InvalidSchema(t *testing.T) {
	f := newFlowFixture(t, map[string]interface{}{"questions": []interface{}{}}, &scriptedPolicy{})

	_, err := f.svc.StartFlow(context.Background(), f.instanceID)
	assert.ErrorIs(t, err, schema.ErrInvalidSchema)
}

func TestFlowService_FollowUpRoundTrip(t *testing.T) {
	ctx := context.Background()
	policy := &scriptedPolicy{queue: []string{"Can you elaborate?"}}
	f := newFlowFixture(t, twoQuestionSchema(), policy)

	start, err := f.svc.StartFlow(ctx, f.instanceID)
	require.NoError(t, err)
	responseID := start.ResponseID

	// Base answer triggers the generated follow-up.
	step, err := f.svc.SubmitAnswer(ctx, responseID, model.AnswerSubmission{Answer: "A phone"})
	require.NoError(t, err)
	require.NotNil(t, step.Question)
	assert.False(t, step.Done)
	assert.Equal(t, "Can you elaborate?", step.Question.Text)
	assert.Equal(t, schema.TypeText, step.Question.Type)
	assert.Equal(t, 1, policy.calls)

	// Index must not move while the follow-up is outstanding.
	response, err := f.responseRepo.GetByID(ctx, responseID)
	require.NoError(t, err)
	assert.Equal(t, 0, response.CurrentIndex)

	// Answering the follow-up advances to the next base question without
	// another policy call.
	step, err = f.svc.SubmitAnswer(ctx, responseID, model.AnswerSubmission{Answer: "The new one"})
	require.NoError(t, err)
	require.NotNil(t, step.Question)
	assert.Equal(t, "How was checkout?", step.Question.Text)
	assert.Equal(t, 1, policy.calls)

	// Skipping the last question finishes the flow.
	step, err = f.svc.SubmitAnswer(ctx, responseID, model.AnswerSubmission{Skipped: true})
	require.NoError(t, err)
	assert.True(t, step.Done)
	assert.Nil(t, step.Question)
	assert.Equal(t, 1, policy.calls)

	response, err = f.responseRepo.GetByID(ctx, responseID)
	require.NoError(t, err)
	require.NotNil(t, response.FinishedAt)
	assert.Equal(t, 2, response.CurrentIndex)

	// Ledger: base 0, follow-up 0, base 1 (skipped).
	rows, err := f.answerRepo.ListByResponse(ctx, responseID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "A phone", rows[0].Answer)
	assert.False(t, rows[0].IsFollowup)
	assert.True(t, rows[1].IsFollowup)
	assert.Equal(t, "Can you elaborate?", rows[1].QuestionText)
	assert.Equal(t, "The new one", rows[1].Answer)
	assert.True(t, rows[2].Skipped)
	assert.Nil(t, rows[2].Answer)
	assert.True(t, rows[2].Answered())

	assert.Equal(t, []string{"response.started", "response.finished"}, f.publisher.events)
}

func TestFlowService_NoFollowUpCompletesSingleQuestion(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t, map[string]interface{}{
		"questions": []interface{}{
			map[string]interface{}{"text": "Anything else?"},
		},
	}, &scriptedPolicy{})

	start, err := f.svc.StartFlow(ctx, f.instanceID)
	require.NoError(t, err)

	step, err := f.svc.SubmitAnswer(ctx, start.ResponseID, model.AnswerSubmission{Answer: "No"})
	require.NoError(t, err)
	assert.True(t, step.Done)
	assert.Equal(t, 1, f.policy.calls)

	response, err := f.responseRepo.GetByID(ctx, start.ResponseID)
	require.NoError(t, err)
	require.NotNil(t, response.FinishedAt)
}

func TestFlowService_SkipNeverInvokesPolicy(t *testing.T) {
	ctx := context.Background()
	policy := &scriptedPolicy{queue: []string{"Should never be asked"}}
	f := newFlowFixture(t, twoQuestionSchema(), policy)

	start, err := f.svc.StartFlow(ctx, f.instanceID)
	require.NoError(t, err)

	step, err := f.svc.SubmitAnswer(ctx, start.ResponseID, model.AnswerSubmission{Skipped: true})
	require.NoError(t, err)
	require.NotNil(t, step.Question)
	assert.Equal(t, "How was checkout?", step.Question.Text)
	assert.Equal(t, 0, policy.calls)

	row, err := f.answerRepo.Get(ctx, start.ResponseID, 0, false)
	require.NoError(t, err)
	assert.True(t, row.Skipped)
	assert.Nil(t, row.Answer)
}

func TestFlowService_FollowUpDisabledPerQuestion(t *testing.T) {
	ctx := context.Background()
	policy := &scriptedPolicy{queue: []string{"Should never be asked"}}
	f := newFlowFixture(t, map[string]interface{}{
		"questions": []interface{}{
			map[string]interface{}{"text": "Pick one", "type": "multiple_choice", "choices": []interface{}{"A", "B"}, "can_followup": false},
			map[string]interface{}{"text": "Why?"},
		},
	}, policy)

	start, err := f.svc.StartFlow(ctx, f.instanceID)
	require.NoError(t, err)

	step, err := f.svc.SubmitAnswer(ctx, start.ResponseID, model.AnswerSubmission{Answer: "A"})
	require.NoError(t, err)
	require.NotNil(t, step.Question)
	assert.Equal(t, "Why?", step.Question.Text)
	assert.Equal(t, 0, policy.calls)
}

func TestFlowService_PolicyFailureFailsOpen(t *testing.T) {
	ctx := context.Background()
	policy := &scriptedPolicy{err: errors.New("upstream down")}
	f := newFlowFixture(t, twoQuestionSchema(), policy)

	start, err := f.svc.StartFlow(ctx, f.instanceID)
	require.NoError(t, err)

	// The answer is kept and the flow advances as if the policy said no.
	step, err := f.svc.SubmitAnswer(ctx, start.ResponseID, model.AnswerSubmission{Answer: "A phone"})
	require.NoError(t, err)
	require.NotNil(t, step.Question)
	assert.Equal(t, "How was checkout?", step.Question.Text)

	row, err := f.answerRepo.Get(ctx, start.ResponseID, 0, false)
	require.NoError(t, err)
	assert.Equal(t, "A phone", row.Answer)
}

func TestFlowService_AlreadyCompleted(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t, map[string]interface{}{
		"questions": []interface{}{
			map[string]interface{}{"text": "Only question"},
		},
	}, &scriptedPolicy{})

	start, err := f.svc.StartFlow(ctx, f.instanceID)
	require.NoError(t, err)

	step, err := f.svc.SubmitAnswer(ctx, start.ResponseID, model.AnswerSubmission{Answer: "Done"})
	require.NoError(t, err)
	require.True(t, step.Done)

	rows, err := f.answerRepo.ListByResponse(ctx, start.ResponseID)
	require.NoError(t, err)

	_, err = f.svc.SubmitAnswer(ctx, start.ResponseID, model.AnswerSubmission{Answer: "Again"})
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	// No ledger mutation from the rejected submission.
	after, err := f.answerRepo.ListByResponse(ctx, start.ResponseID)
	require.NoError(t, err)
	assert.Equal(t, rows, after)
}

func TestFlowService_UnknownResponse(t *testing.T) {
	f := newFlowFixture(t, twoQuestionSchema(), &scriptedPolicy{})

	_, err := f.svc.SubmitAnswer(context.Background(), "nope", model.AnswerSubmission{Answer: "x"})
	assert.ErrorIs(t, err, ErrResponseNotFound)
}

func TestFlowService_OutstandingFollowUpTakesPrecedence(t *testing.T) {
	ctx := context.Background()
	policy := &scriptedPolicy{queue: []string{"First wording?", "Should never be asked"}}
	f := newFlowFixture(t, twoQuestionSchema(), policy)

	start, err := f.svc.StartFlow(ctx, f.instanceID)
	require.NoError(t, err)

	step, err := f.svc.SubmitAnswer(ctx, start.ResponseID, model.AnswerSubmission{Answer: "A phone"})
	require.NoError(t, err)
	assert.Equal(t, "First wording?", step.Question.Text)

	// While the follow-up is unanswered, the next submission lands on the
	// follow-up slot; the base answer is not overwritten and the policy is
	// not consulted again.
	step, err = f.svc.SubmitAnswer(ctx, start.ResponseID, model.AnswerSubmission{Answer: "Because it broke"})
	require.NoError(t, err)
	require.NotNil(t, step.Question)
	assert.Equal(t, "How was checkout?", step.Question.Text)
	assert.Equal(t, 1, policy.calls)

	base, err := f.answerRepo.Get(ctx, start.ResponseID, 0, false)
	require.NoError(t, err)
	assert.Equal(t, "A phone", base.Answer)

	followup, err := f.answerRepo.Get(ctx, start.ResponseID, 0, true)
	require.NoError(t, err)
	assert.Equal(t, "Because it broke", followup.Answer)
}
