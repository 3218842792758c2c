package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"canvass/internal/cache"
	"canvass/internal/model"
	"canvass/internal/repository"
	"canvass/internal/schema"
)

// ErrSurveyPublished is returned for edits to a published survey; published
// question sets are immutable because ledger rows reference them by index.
var ErrSurveyPublished = errors.New("survey is published and cannot be modified")

// SurveyService handles survey templates and publication
type SurveyService struct {
	surveyRepo  repository.SurveyRepo
	surveyCache cache.SurveyCache
}

// NewSurveyService creates a new survey service
func NewSurveyService(surveyRepo repository.SurveyRepo) *SurveyService {
	return &SurveyService{surveyRepo: surveyRepo}
}

// SetSurveyCache sets the cache invalidated on survey writes
func (s *SurveyService) SetSurveyCache(c cache.SurveyCache) {
	s.surveyCache = c
}

// Create stores a draft survey. Drafts may carry work-in-progress schemas;
// validity is only enforced at publish time.
func (s *SurveyService) Create(ctx context.Context, orgID, title string, schemaDoc map[string]interface{}) (*model.Survey, error) {
	survey := &model.Survey{
		ID:     uuid.New().String(),
		OrgID:  orgID,
		Title:  title,
		Schema: schemaDoc,
	}
	if err := s.surveyRepo.Create(ctx, survey); err != nil {
		return nil, fmt.Errorf("create survey: %w", err)
	}
	return survey, nil
}

// GetByID returns a survey scoped to the organization
func (s *SurveyService) GetByID(ctx context.Context, orgID, id string) (*model.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}
	if survey == nil || survey.OrgID != orgID {
		return nil, ErrSurveyNotFound
	}
	return survey, nil
}

// ListByOrg returns all surveys of an organization
func (s *SurveyService) ListByOrg(ctx context.Context, orgID string) ([]*model.Survey, error) {
	return s.surveyRepo.ListByOrg(ctx, orgID)
}

// Update replaces title and schema of an unpublished survey
func (s *SurveyService) Update(ctx context.Context, orgID, id, title string, schemaDoc map[string]interface{}) (*model.Survey, error) {
	survey, err := s.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if survey.IsPublished {
		return nil, ErrSurveyPublished
	}

	survey.Title = title
	survey.Schema = schemaDoc
	if err := s.surveyRepo.Update(ctx, survey); err != nil {
		return nil, fmt.Errorf("update survey: %w", err)
	}
	s.invalidate(ctx, id)
	return survey, nil
}

// Publish validates the schema and freezes the survey
func (s *SurveyService) Publish(ctx context.Context, orgID, id string) (*model.Survey, error) {
	survey, err := s.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if survey.IsPublished {
		return survey, nil
	}

	if _, err := schema.Questions(survey.Schema); err != nil {
		return nil, err
	}

	survey.IsPublished = true
	if err := s.surveyRepo.Update(ctx, survey); err != nil {
		return nil, fmt.Errorf("publish survey: %w", err)
	}
	s.invalidate(ctx, id)
	return survey, nil
}

func (s *SurveyService) invalidate(ctx context.Context, id string) {
	if s.surveyCache != nil {
		_ = s.surveyCache.Invalidate(ctx, id)
	}
}
