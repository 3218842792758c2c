package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"canvass/internal/model"
)

// EventRepo handles MongoDB operations for events
type EventRepo interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	ListByOrg(ctx context.Context, orgID string) ([]*model.Event, error)
}

type eventRepo struct {
	collection *mongo.Collection
}

// NewEventRepo creates a new event repository
func NewEventRepo(db *mongo.Database) EventRepo {
	return &eventRepo{collection: db.Collection("events")}
}

func (r *eventRepo) Create(ctx context.Context, event *model.Event) error {
	event.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, event)
	return err
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) ListByOrg(ctx context.Context, orgID string) ([]*model.Event, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"orgId": orgID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*model.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
