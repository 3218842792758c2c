package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"canvass/internal/model"
)

// In-memory implementations of the repositories. They enforce the same
// invariants as the Mongo versions (unique answer slots, guarded index
// advancement) and back the service and handler tests.

type MemorySurveyRepo struct {
	mu      sync.RWMutex
	surveys map[string]model.Survey
}

func NewMemorySurveyRepo() *MemorySurveyRepo {
	return &MemorySurveyRepo{surveys: make(map[string]model.Survey)}
}

func (r *MemorySurveyRepo) Create(_ context.Context, survey *model.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	survey.CreatedAt = time.Now()
	survey.UpdatedAt = survey.CreatedAt
	r.surveys[survey.ID] = *survey
	return nil
}

func (r *MemorySurveyRepo) GetByID(_ context.Context, id string) (*model.Survey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.surveys[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (r *MemorySurveyRepo) ListByOrg(_ context.Context, orgID string) ([]*model.Survey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Survey
	for _, s := range r.surveys {
		if s.OrgID == orgID {
			s := s
			out = append(out, &s)
		}
	}
	return out, nil
}

func (r *MemorySurveyRepo) Update(_ context.Context, survey *model.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	survey.UpdatedAt = time.Now()
	r.surveys[survey.ID] = *survey
	return nil
}

type MemoryEventRepo struct {
	mu     sync.RWMutex
	events map[string]model.Event
}

func NewMemoryEventRepo() *MemoryEventRepo {
	return &MemoryEventRepo{events: make(map[string]model.Event)}
}

func (r *MemoryEventRepo) Create(_ context.Context, event *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.CreatedAt = time.Now()
	r.events[event.ID] = *event
	return nil
}

func (r *MemoryEventRepo) GetByID(_ context.Context, id string) (*model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.events[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (r *MemoryEventRepo) ListByOrg(_ context.Context, orgID string) ([]*model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Event
	for _, e := range r.events {
		if e.OrgID == orgID {
			e := e
			out = append(out, &e)
		}
	}
	return out, nil
}

type MemoryInstanceRepo struct {
	mu        sync.RWMutex
	instances map[string]model.SurveyInstance
}

func NewMemoryInstanceRepo() *MemoryInstanceRepo {
	return &MemoryInstanceRepo{instances: make(map[string]model.SurveyInstance)}
}

func (r *MemoryInstanceRepo) Create(_ context.Context, instance *model.SurveyInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	instance.CreatedAt = time.Now()
	r.instances[instance.ID] = *instance
	return nil
}

func (r *MemoryInstanceRepo) GetByID(_ context.Context, id string) (*model.SurveyInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, ok := r.instances[id]; ok {
		return &i, nil
	}
	return nil, nil
}

func (r *MemoryInstanceRepo) ListByEvent(_ context.Context, eventID string) ([]*model.SurveyInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.SurveyInstance
	for _, i := range r.instances {
		if i.EventID == eventID {
			i := i
			out = append(out, &i)
		}
	}
	return out, nil
}

func (r *MemoryInstanceRepo) MarkLaunched(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.instances[id]; ok && i.LaunchedAt == nil {
		now := time.Now()
		i.LaunchedAt = &now
		r.instances[id] = i
	}
	return nil
}

type MemoryLinkRepo struct {
	mu    sync.RWMutex
	links map[string]model.Link
}

func NewMemoryLinkRepo() *MemoryLinkRepo {
	return &MemoryLinkRepo{links: make(map[string]model.Link)}
}

func (r *MemoryLinkRepo) Create(_ context.Context, link *model.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	link.CreatedAt = time.Now()
	r.links[link.ID] = *link
	return nil
}

func (r *MemoryLinkRepo) GetByID(_ context.Context, id string) (*model.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.links[id]; ok {
		return &l, nil
	}
	return nil, nil
}

func (r *MemoryLinkRepo) ListByInstance(_ context.Context, instanceID string) ([]*model.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Link
	for _, l := range r.links {
		if l.SurveyInstanceID == instanceID {
			l := l
			out = append(out, &l)
		}
	}
	return out, nil
}

type MemoryResponseRepo struct {
	mu        sync.RWMutex
	responses map[string]model.SurveyResponse
}

func NewMemoryResponseRepo() *MemoryResponseRepo {
	return &MemoryResponseRepo{responses: make(map[string]model.SurveyResponse)}
}

func (r *MemoryResponseRepo) Create(_ context.Context, response *model.SurveyResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if response.StartedAt.IsZero() {
		response.StartedAt = time.Now()
	}
	r.responses[response.ID] = *response
	return nil
}

func (r *MemoryResponseRepo) GetByID(_ context.Context, id string) (*model.SurveyResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if resp, ok := r.responses[id]; ok {
		return &resp, nil
	}
	return nil, nil
}

func (r *MemoryResponseRepo) ListByInstance(_ context.Context, instanceID string) ([]*model.SurveyResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.SurveyResponse
	for _, resp := range r.responses {
		if resp.SurveyInstanceID == instanceID {
			resp := resp
			out = append(out, &resp)
		}
	}
	return out, nil
}

func (r *MemoryResponseRepo) AdvanceIndex(_ context.Context, id string, from int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	resp, ok := r.responses[id]
	if !ok || resp.CurrentIndex != from || resp.FinishedAt != nil {
		return 0, ErrStaleResponse
	}
	resp.CurrentIndex++
	r.responses[id] = resp
	return resp.CurrentIndex, nil
}

func (r *MemoryResponseRepo) MarkFinished(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if resp, ok := r.responses[id]; ok && resp.FinishedAt == nil {
		now := time.Now()
		resp.FinishedAt = &now
		r.responses[id] = resp
	}
	return nil
}

type answerSlot struct {
	responseID  string
	questionIdx int
	followup    bool
}

type MemoryAnswerRepo struct {
	mu      sync.RWMutex
	byID    map[string]model.Answer
	bySlot  map[answerSlot]string
	ordered []string
}

func NewMemoryAnswerRepo() *MemoryAnswerRepo {
	return &MemoryAnswerRepo{
		byID:   make(map[string]model.Answer),
		bySlot: make(map[answerSlot]string),
	}
}

func (r *MemoryAnswerRepo) EnsureIndexes(_ context.Context) error { return nil }

func (r *MemoryAnswerRepo) Create(_ context.Context, answer *model.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot := answerSlot{answer.ResponseID, answer.QuestionIdx, answer.IsFollowup}
	if _, exists := r.bySlot[slot]; exists {
		return ErrDuplicateAnswerSlot
	}
	if answer.ID == "" {
		answer.ID = uuid.New().String()
	}
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now()
	}
	r.byID[answer.ID] = *answer
	r.bySlot[slot] = answer.ID
	r.ordered = append(r.ordered, answer.ID)
	return nil
}

func (r *MemoryAnswerRepo) Get(_ context.Context, responseID string, questionIdx int, followup bool) (*model.Answer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.bySlot[answerSlot{responseID, questionIdx, followup}]
	if !ok {
		return nil, nil
	}
	a := r.byID[id]
	return &a, nil
}

func (r *MemoryAnswerRepo) SetAnswer(_ context.Context, id string, value interface{}, skipped bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil
	}
	a.Answer = value
	a.Skipped = skipped
	r.byID[id] = a
	return nil
}

func (r *MemoryAnswerRepo) UpsertFollowupQuestion(ctx context.Context, responseID string, questionIdx int, questionText string) (*model.Answer, error) {
	r.mu.Lock()
	slot := answerSlot{responseID, questionIdx, true}
	if id, ok := r.bySlot[slot]; ok {
		a := r.byID[id]
		a.QuestionText = questionText
		r.byID[id] = a
		r.mu.Unlock()
		return &a, nil
	}
	r.mu.Unlock()

	answer := &model.Answer{
		ResponseID:   responseID,
		QuestionIdx:  questionIdx,
		QuestionText: questionText,
		IsFollowup:   true,
	}
	if err := r.Create(ctx, answer); err != nil {
		return nil, err
	}
	return answer, nil
}

func (r *MemoryAnswerRepo) HasFollowup(_ context.Context, responseID string, questionIdx int) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bySlot[answerSlot{responseID, questionIdx, true}]
	return ok, nil
}

func (r *MemoryAnswerRepo) ListByResponse(_ context.Context, responseID string) ([]*model.Answer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Answer
	for _, id := range r.ordered {
		a := r.byID[id]
		if a.ResponseID == responseID {
			a := a
			out = append(out, &a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].QuestionIdx != out[j].QuestionIdx {
			return out[i].QuestionIdx < out[j].QuestionIdx
		}
		return !out[i].IsFollowup && out[j].IsFollowup
	})
	return out, nil
}
