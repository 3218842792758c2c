package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"canvass/internal/model"
	"canvass/internal/repository"
)

var ErrEventNotFound = errors.New("event not found")

// EventService handles events an organization runs surveys at
type EventService struct {
	eventRepo repository.EventRepo
}

// NewEventService creates a new event service
func NewEventService(eventRepo repository.EventRepo) *EventService {
	return &EventService{eventRepo: eventRepo}
}

func (s *EventService) Create(ctx context.Context, orgID, name, description string, startAt, endAt time.Time, status model.EventStatus) (*model.Event, error) {
	if status == "" {
		status = model.EventDraft
	}
	event := &model.Event{
		ID:          uuid.New().String(),
		OrgID:       orgID,
		Name:        name,
		Description: description,
		StartAt:     startAt,
		EndAt:       endAt,
		Status:      status,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (s *EventService) GetByID(ctx context.Context, orgID, id string) (*model.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event == nil || event.OrgID != orgID {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *EventService) ListByOrg(ctx context.Context, orgID string) ([]*model.Event, error) {
	return s.eventRepo.ListByOrg(ctx, orgID)
}
