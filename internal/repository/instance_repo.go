package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"canvass/internal/model"
)

// InstanceRepo handles MongoDB operations for survey instances
type InstanceRepo interface {
	Create(ctx context.Context, instance *model.SurveyInstance) error
	GetByID(ctx context.Context, id string) (*model.SurveyInstance, error)
	ListByEvent(ctx context.Context, eventID string) ([]*model.SurveyInstance, error)
	MarkLaunched(ctx context.Context, id string) error
}

type instanceRepo struct {
	collection *mongo.Collection
}

// NewInstanceRepo creates a new survey instance repository
func NewInstanceRepo(db *mongo.Database) InstanceRepo {
	return &instanceRepo{collection: db.Collection("survey_instances")}
}

func (r *instanceRepo) Create(ctx context.Context, instance *model.SurveyInstance) error {
	instance.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, instance)
	return err
}

func (r *instanceRepo) GetByID(ctx context.Context, id string) (*model.SurveyInstance, error) {
	var instance model.SurveyInstance
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&instance)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

func (r *instanceRepo) ListByEvent(ctx context.Context, eventID string) ([]*model.SurveyInstance, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"eventId": eventID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var instances []*model.SurveyInstance
	if err := cursor.All(ctx, &instances); err != nil {
		return nil, err
	}
	return instances, nil
}

// MarkLaunched stamps launchedAt the first time a link is issued. Later
// calls leave the original timestamp alone.
func (r *instanceRepo) MarkLaunched(ctx context.Context, id string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "launchedAt": nil},
		bson.M{"$set": bson.M{"launchedAt": time.Now()}},
	)
	return err
}
