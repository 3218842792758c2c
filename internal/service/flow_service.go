package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"canvass/internal/cache"
	"canvass/internal/model"
	"canvass/internal/repository"
	"canvass/internal/schema"
)

var (
	ErrInstanceNotFound = errors.New("survey instance not found")
	ErrSurveyNotFound   = errors.New("survey not found")
	ErrResponseNotFound = errors.New("survey response not found")
	ErrAlreadyCompleted = errors.New("survey already completed")
)

// FollowUpPolicy decides whether a respondent's answer warrants a clarifying
// follow-up question. "" means no follow-up. Implementations must not touch
// the ledger.
type FollowUpPolicy interface {
	Evaluate(ctx context.Context, surveyTitle, questionText string, answer interface{}, questionDescription string) (string, error)
}

// ResponseLocker serializes submissions per response id.
type ResponseLocker interface {
	Lock(ctx context.Context, responseID string) (func(), error)
}

// Broadcaster pushes live progress events to dashboards watching an instance.
type Broadcaster interface {
	BroadcastToInstance(instanceID, event string, payload interface{})
}

// Publisher emits domain events to the message bus.
type Publisher interface {
	Publish(eventType string, payload interface{}) error
}

// FlowService is the adaptive survey-flow engine. It walks one respondent
// through a survey's question sequence, injecting generated follow-ups and
// keeping the answer ledger consistent.
//
// The machine holds no state of its own between calls: whether a submission
// answers the base question or a pending follow-up is derived from the
// ledger (an unanswered follow-up row for the current index means the
// follow-up is outstanding). That keeps retried requests landing on a
// well-defined slot.
type FlowService struct {
	instanceRepo repository.InstanceRepo
	surveyRepo   repository.SurveyRepo
	responseRepo repository.ResponseRepo
	answerRepo   repository.AnswerRepo
	policy       FollowUpPolicy
	locker       ResponseLocker
	surveyCache  cache.SurveyCache
	broadcaster  Broadcaster
	publisher    Publisher
}

// NewFlowService creates a new flow engine
func NewFlowService(
	instanceRepo repository.InstanceRepo,
	surveyRepo repository.SurveyRepo,
	responseRepo repository.ResponseRepo,
	answerRepo repository.AnswerRepo,
	policy FollowUpPolicy,
	locker ResponseLocker,
) *FlowService {
	return &FlowService{
		instanceRepo: instanceRepo,
		surveyRepo:   surveyRepo,
		responseRepo: responseRepo,
		answerRepo:   answerRepo,
		policy:       policy,
		locker:       locker,
	}
}

// SetSurveyCache sets the optional read-through survey cache
func (s *FlowService) SetSurveyCache(c cache.SurveyCache) {
	s.surveyCache = c
}

// SetBroadcaster sets the broadcaster for WebSocket progress events
func (s *FlowService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetPublisher sets the publisher for domain events
func (s *FlowService) SetPublisher(p Publisher) {
	s.publisher = p
}

// StartFlow creates a SurveyResponse for the instance, opens the ledger row
// for question 0 and returns the first question.
func (s *FlowService) StartFlow(ctx context.Context, instanceID string) (*model.FlowStart, error) {
	instance, err := s.instanceRepo.GetByID(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("get survey instance: %w", err)
	}
	if instance == nil {
		return nil, ErrInstanceNotFound
	}

	survey, err := s.loadSurvey(ctx, instance.SurveyID)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}

	questions, err := schema.Questions(survey.Schema)
	if err != nil {
		return nil, err
	}

	response := &model.SurveyResponse{
		ID:               uuid.New().String(),
		OrgID:            instance.OrgID,
		SurveyID:         survey.ID,
		SurveyInstanceID: instance.ID,
		CurrentIndex:     0,
		StartedAt:        time.Now(),
	}
	if err := s.responseRepo.Create(ctx, response); err != nil {
		return nil, fmt.Errorf("create survey response: %w", err)
	}

	if err := s.answerRepo.Create(ctx, &model.Answer{
		ResponseID:   response.ID,
		QuestionIdx:  0,
		QuestionText: questions[0].Text,
	}); err != nil {
		return nil, fmt.Errorf("create first ledger row: %w", err)
	}

	s.notify(response.SurveyInstanceID, "response_started", map[string]interface{}{
		"responseId": response.ID,
	})
	s.emit("response.started", map[string]interface{}{
		"responseId":       response.ID,
		"surveyInstanceId": response.SurveyInstanceID,
	})

	return &model.FlowStart{
		ResponseID: response.ID,
		Question:   questionView(questions[0]),
	}, nil
}

// SubmitAnswer records the submission for the outstanding slot and returns
// the next step: a generated follow-up, the next base question, or done.
func (s *FlowService) SubmitAnswer(ctx context.Context, responseID string, sub model.AnswerSubmission) (*model.FlowStep, error) {
	release, err := s.locker.Lock(ctx, responseID)
	if err != nil {
		return nil, err
	}
	defer release()

	response, err := s.responseRepo.GetByID(ctx, responseID)
	if err != nil {
		return nil, fmt.Errorf("get survey response: %w", err)
	}
	if response == nil {
		return nil, ErrResponseNotFound
	}
	if response.FinishedAt != nil {
		return nil, ErrAlreadyCompleted
	}

	survey, err := s.loadSurvey(ctx, response.SurveyID)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, fmt.Errorf("%w: survey %s is gone", schema.ErrInvalidSchema, response.SurveyID)
	}

	questions, err := schema.Questions(survey.Schema)
	if err != nil {
		return nil, err
	}

	idx := response.CurrentIndex
	if idx >= len(questions) {
		// Should not happen under correct use; finish idempotently.
		return s.finish(ctx, response)
	}
	base := questions[idx]

	// The ledger, not a stored state field, says what is outstanding: an
	// unanswered follow-up row for the current index takes precedence over
	// the base slot.
	followupRow, err := s.answerRepo.Get(ctx, responseID, idx, true)
	if err != nil {
		return nil, fmt.Errorf("get follow-up ledger row: %w", err)
	}
	answeringFollowup := followupRow != nil && !followupRow.Answered()

	var value interface{}
	if !sub.Skipped {
		value = sub.Answer
	}

	target := followupRow
	if !answeringFollowup {
		target, err = s.answerRepo.Get(ctx, responseID, idx, false)
		if err != nil {
			return nil, fmt.Errorf("get base ledger row: %w", err)
		}
	}

	if target != nil {
		if err := s.answerRepo.SetAnswer(ctx, target.ID, value, sub.Skipped); err != nil {
			return nil, fmt.Errorf("record answer: %w", err)
		}
	} else {
		// The expected row is missing; create it with the value rather
		// than losing the submission.
		if err := s.answerRepo.Create(ctx, &model.Answer{
			ResponseID:   responseID,
			QuestionIdx:  idx,
			QuestionText: base.Text,
			Answer:       value,
			Skipped:      sub.Skipped,
		}); err != nil {
			return nil, fmt.Errorf("create ledger row: %w", err)
		}
	}

	s.notify(response.SurveyInstanceID, "answer_recorded", map[string]interface{}{
		"responseId":  responseID,
		"questionIdx": idx,
		"isFollowup":  answeringFollowup,
		"skipped":     sub.Skipped,
	})

	// A skip or a completed follow-up always moves the flow forward.
	if answeringFollowup || sub.Skipped {
		return s.advance(ctx, response, questions)
	}

	followupText := ""
	if base.AllowsFollowup {
		followupText, err = s.policy.Evaluate(ctx, survey.Title, base.Text, value, base.Description)
		if err != nil {
			// Fail open: a generation outage degrades to skipping
			// follow-ups instead of blocking the respondent.
			log.Printf("follow-up policy unavailable for response %s question %d: %v", responseID, idx, err)
			followupText = ""
		}
	}

	if followupText != "" {
		if _, err := s.answerRepo.UpsertFollowupQuestion(ctx, responseID, idx, followupText); err != nil {
			return nil, fmt.Errorf("record follow-up question: %w", err)
		}
		return &model.FlowStep{
			Question: &model.QuestionView{Text: followupText, Type: schema.TypeText},
		}, nil
	}

	return s.advance(ctx, response, questions)
}

// advance moves the response to the next base question, opening its ledger
// row, or finishes the flow when the sequence is exhausted.
func (s *FlowService) advance(ctx context.Context, response *model.SurveyResponse, questions []schema.Question) (*model.FlowStep, error) {
	newIdx, err := s.responseRepo.AdvanceIndex(ctx, response.ID, response.CurrentIndex)
	if err != nil {
		return nil, fmt.Errorf("advance question index: %w", err)
	}

	if newIdx >= len(questions) {
		return s.finish(ctx, response)
	}

	next := questions[newIdx]
	if err := s.answerRepo.Create(ctx, &model.Answer{
		ResponseID:   response.ID,
		QuestionIdx:  newIdx,
		QuestionText: next.Text,
	}); err != nil {
		return nil, fmt.Errorf("create ledger row: %w", err)
	}

	return &model.FlowStep{Question: questionView(next)}, nil
}

func (s *FlowService) finish(ctx context.Context, response *model.SurveyResponse) (*model.FlowStep, error) {
	if err := s.responseRepo.MarkFinished(ctx, response.ID); err != nil {
		return nil, fmt.Errorf("mark response finished: %w", err)
	}

	s.notify(response.SurveyInstanceID, "response_finished", map[string]interface{}{
		"responseId": response.ID,
	})
	s.emit("response.finished", map[string]interface{}{
		"responseId":       response.ID,
		"surveyInstanceId": response.SurveyInstanceID,
	})

	return &model.FlowStep{Done: true}, nil
}

func (s *FlowService) loadSurvey(ctx context.Context, surveyID string) (*model.Survey, error) {
	if s.surveyCache != nil {
		if survey, err := s.surveyCache.Get(ctx, surveyID); err == nil && survey != nil {
			return survey, nil
		}
	}

	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}
	if survey != nil && s.surveyCache != nil {
		if err := s.surveyCache.Set(ctx, survey); err != nil {
			log.Printf("survey cache set failed for %s: %v", surveyID, err)
		}
	}
	return survey, nil
}

func (s *FlowService) notify(instanceID, event string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToInstance(instanceID, event, payload)
	}
}

func (s *FlowService) emit(eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(eventType, payload); err != nil {
		log.Printf("publish %s failed: %v", eventType, err)
	}
}

func questionView(q schema.Question) *model.QuestionView {
	return &model.QuestionView{
		Text:    q.Text,
		Type:    q.Type,
		Choices: q.Choices,
	}
}
