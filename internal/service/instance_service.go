package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"canvass/internal/model"
	"canvass/internal/repository"
	"canvass/internal/schema"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrLinkExpired  = errors.New("link has expired")
)

// PublicSurvey is what an anonymous respondent sees when resolving a link:
// enough to render the landing page, nothing org-internal.
type PublicSurvey struct {
	SurveyInstanceID string                 `json:"surveyInstanceId"`
	SurveyTitle      string                 `json:"surveyTitle"`
	EventName        string                 `json:"eventName,omitempty"`
	QuestionCount    int                    `json:"questionCount"`
	EmailRequirement model.EmailRequirement `json:"emailRequirement"`
}

// InstanceService handles survey instances and their public links
type InstanceService struct {
	instanceRepo repository.InstanceRepo
	linkRepo     repository.LinkRepo
	eventRepo    repository.EventRepo
	surveyRepo   repository.SurveyRepo
}

// NewInstanceService creates a new instance service
func NewInstanceService(
	instanceRepo repository.InstanceRepo,
	linkRepo repository.LinkRepo,
	eventRepo repository.EventRepo,
	surveyRepo repository.SurveyRepo,
) *InstanceService {
	return &InstanceService{
		instanceRepo: instanceRepo,
		linkRepo:     linkRepo,
		eventRepo:    eventRepo,
		surveyRepo:   surveyRepo,
	}
}

// Create deploys a published survey to an event
func (s *InstanceService) Create(ctx context.Context, orgID, eventID, surveyID string, emailReq model.EmailRequirement) (*model.SurveyInstance, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event == nil || event.OrgID != orgID {
		return nil, ErrEventNotFound
	}

	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}
	if survey == nil || survey.OrgID != orgID {
		return nil, ErrSurveyNotFound
	}

	if emailReq == "" {
		emailReq = model.EmailNone
	}

	instance := &model.SurveyInstance{
		ID:               uuid.New().String(),
		OrgID:            orgID,
		EventID:          eventID,
		SurveyID:         surveyID,
		EmailRequirement: emailReq,
	}
	if err := s.instanceRepo.Create(ctx, instance); err != nil {
		return nil, fmt.Errorf("create survey instance: %w", err)
	}
	return instance, nil
}

// GetByID returns an instance scoped to the organization
func (s *InstanceService) GetByID(ctx context.Context, orgID, id string) (*model.SurveyInstance, error) {
	instance, err := s.instanceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get survey instance: %w", err)
	}
	if instance == nil || instance.OrgID != orgID {
		return nil, ErrInstanceNotFound
	}
	return instance, nil
}

// ListByEvent returns the instances attached to an event
func (s *InstanceService) ListByEvent(ctx context.Context, orgID, eventID string) ([]*model.SurveyInstance, error) {
	if _, err := s.GetEvent(ctx, orgID, eventID); err != nil {
		return nil, err
	}
	return s.instanceRepo.ListByEvent(ctx, eventID)
}

// GetEvent resolves an event scoped to the organization
func (s *InstanceService) GetEvent(ctx context.Context, orgID, eventID string) (*model.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event == nil || event.OrgID != orgID {
		return nil, ErrEventNotFound
	}
	return event, nil
}

// IssueLink mints a public link for an instance. The first link launches
// the instance.
func (s *InstanceService) IssueLink(ctx context.Context, orgID, instanceID string, expiresAt *time.Time) (*model.Link, error) {
	instance, err := s.GetByID(ctx, orgID, instanceID)
	if err != nil {
		return nil, err
	}

	link := &model.Link{
		ID:               uuid.New().String(),
		OrgID:            orgID,
		SurveyInstanceID: instance.ID,
		ExpiresAt:        expiresAt,
	}
	if err := s.linkRepo.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}

	if err := s.instanceRepo.MarkLaunched(ctx, instance.ID); err != nil {
		return nil, fmt.Errorf("mark instance launched: %w", err)
	}
	return link, nil
}

// ListLinks returns the links issued for an instance
func (s *InstanceService) ListLinks(ctx context.Context, orgID, instanceID string) ([]*model.Link, error) {
	if _, err := s.GetByID(ctx, orgID, instanceID); err != nil {
		return nil, err
	}
	return s.linkRepo.ListByInstance(ctx, instanceID)
}

// ResolveLink turns a public link id into the respondent-facing survey
// summary. Unknown and expired links are distinct failures so the landing
// page can explain which one happened.
func (s *InstanceService) ResolveLink(ctx context.Context, linkID string) (*PublicSurvey, error) {
	link, err := s.linkRepo.GetByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	if link == nil {
		return nil, ErrLinkNotFound
	}
	if link.Expired(time.Now()) {
		return nil, ErrLinkExpired
	}

	instance, err := s.instanceRepo.GetByID(ctx, link.SurveyInstanceID)
	if err != nil {
		return nil, fmt.Errorf("get survey instance: %w", err)
	}
	if instance == nil {
		return nil, ErrInstanceNotFound
	}

	survey, err := s.surveyRepo.GetByID(ctx, instance.SurveyID)
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}

	summary := &PublicSurvey{
		SurveyInstanceID: instance.ID,
		SurveyTitle:      survey.Title,
		EmailRequirement: instance.EmailRequirement,
	}
	if questions, err := schema.Questions(survey.Schema); err == nil {
		summary.QuestionCount = len(questions)
	}
	if event, err := s.eventRepo.GetByID(ctx, instance.EventID); err == nil && event != nil {
		summary.EventName = event.Name
	}
	return summary, nil
}

// InstanceForLink resolves the instance behind a valid link, for starting
// a response from the public surface.
func (s *InstanceService) InstanceForLink(ctx context.Context, linkID string) (*model.SurveyInstance, error) {
	link, err := s.linkRepo.GetByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	if link == nil {
		return nil, ErrLinkNotFound
	}
	if link.Expired(time.Now()) {
		return nil, ErrLinkExpired
	}

	instance, err := s.instanceRepo.GetByID(ctx, link.SurveyInstanceID)
	if err != nil {
		return nil, fmt.Errorf("get survey instance: %w", err)
	}
	if instance == nil {
		return nil, ErrInstanceNotFound
	}
	return instance, nil
}
