package service

import (
	"context"
	"fmt"
	"log"

	"github.com/expr-lang/expr"

	"canvass/internal/model"
	"canvass/internal/repository"
	"canvass/internal/schema"
)

// StatsService aggregates respondent progress and optional scores per
// instance and per event. Scores come from the survey schema's score_expr,
// evaluated against the ordered base answers of each finished response.
type StatsService struct {
	instanceRepo repository.InstanceRepo
	surveyRepo   repository.SurveyRepo
	responseRepo repository.ResponseRepo
	answerRepo   repository.AnswerRepo
	eventRepo    repository.EventRepo
}

// NewStatsService creates a new stats service
func NewStatsService(
	instanceRepo repository.InstanceRepo,
	surveyRepo repository.SurveyRepo,
	responseRepo repository.ResponseRepo,
	answerRepo repository.AnswerRepo,
	eventRepo repository.EventRepo,
) *StatsService {
	return &StatsService{
		instanceRepo: instanceRepo,
		surveyRepo:   surveyRepo,
		responseRepo: responseRepo,
		answerRepo:   answerRepo,
		eventRepo:    eventRepo,
	}
}

// InstanceStats computes progress and score aggregates for one instance
func (s *StatsService) InstanceStats(ctx context.Context, orgID, instanceID string) (*model.InstanceStats, error) {
	instance, err := s.instanceRepo.GetByID(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("get survey instance: %w", err)
	}
	if instance == nil || instance.OrgID != orgID {
		return nil, ErrInstanceNotFound
	}
	return s.statsForInstance(ctx, instance)
}

// EventStats rolls up the stats of every instance attached to an event
func (s *StatsService) EventStats(ctx context.Context, orgID, eventID string) (*model.EventStats, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event == nil || event.OrgID != orgID {
		return nil, ErrEventNotFound
	}

	instances, err := s.instanceRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}

	stats := &model.EventStats{EventID: eventID, Instances: []*model.InstanceStats{}}
	var scoreSum float64
	var scored int
	for _, instance := range instances {
		is, err := s.statsForInstance(ctx, instance)
		if err != nil {
			return nil, err
		}
		stats.Instances = append(stats.Instances, is)
		stats.Started += is.Started
		stats.Finished += is.Finished
		if is.AverageScore != nil {
			scoreSum += *is.AverageScore * float64(is.ScoredResponses)
			scored += is.ScoredResponses
		}
	}

	if stats.Started > 0 {
		stats.CompletionRate = float64(stats.Finished) / float64(stats.Started)
	}
	if scored > 0 {
		avg := scoreSum / float64(scored)
		stats.AverageScore = &avg
	}
	return stats, nil
}

func (s *StatsService) statsForInstance(ctx context.Context, instance *model.SurveyInstance) (*model.InstanceStats, error) {
	responses, err := s.responseRepo.ListByInstance(ctx, instance.ID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	stats := &model.InstanceStats{SurveyInstanceID: instance.ID}
	stats.Started = len(responses)

	survey, err := s.surveyRepo.GetByID(ctx, instance.SurveyID)
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}

	var program *vmProgram
	if survey != nil {
		if src := schema.ScoreExpr(survey.Schema); src != "" {
			program, err = compileScore(src)
			if err != nil {
				// A broken expression disables scoring, never the stats.
				log.Printf("score expression for survey %s does not compile: %v", survey.ID, err)
				program = nil
			}
		}
	}

	var scoreSum float64
	for _, response := range responses {
		if response.FinishedAt == nil {
			continue
		}
		stats.Finished++

		if program == nil {
			continue
		}
		score, ok, err := s.scoreResponse(ctx, response.ID, program)
		if err != nil {
			return nil, err
		}
		if ok {
			scoreSum += score
			stats.ScoredResponses++
		}
	}

	if stats.Started > 0 {
		stats.CompletionRate = float64(stats.Finished) / float64(stats.Started)
	}
	if stats.ScoredResponses > 0 {
		avg := scoreSum / float64(stats.ScoredResponses)
		stats.AverageScore = &avg
	}
	return stats, nil
}

// scoreResponse evaluates the compiled score expression against the ordered
// base answers of a finished response. Follow-up rows are qualitative and
// never feed scoring.
func (s *StatsService) scoreResponse(ctx context.Context, responseID string, program *vmProgram) (float64, bool, error) {
	rows, err := s.answerRepo.ListByResponse(ctx, responseID)
	if err != nil {
		return 0, false, fmt.Errorf("list answers: %w", err)
	}

	var answers []interface{}
	for _, row := range rows {
		if row.IsFollowup {
			continue
		}
		answers = append(answers, row.Answer)
	}

	out, err := expr.Run(program.compiled, map[string]interface{}{"answers": answers})
	if err != nil {
		log.Printf("score expression failed for response %s: %v", responseID, err)
		return 0, false, nil
	}

	switch v := out.(type) {
	case float64:
		return v, true, nil
	case int:
		return float64(v), true, nil
	case int64:
		return float64(v), true, nil
	default:
		log.Printf("score expression for response %s returned %T, want number", responseID, out)
		return 0, false, nil
	}
}
