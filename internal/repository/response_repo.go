package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"canvass/internal/model"
)

// ErrStaleResponse means a guarded response update matched nothing: the
// document moved on (or finished) between the read and the write.
var ErrStaleResponse = errors.New("survey response changed concurrently")

// ResponseRepo handles MongoDB operations for survey responses.
// Index advancement and finishing are guarded writes so progress stays
// monotonic even if two submissions slip past the per-response lock.
type ResponseRepo interface {
	Create(ctx context.Context, response *model.SurveyResponse) error
	GetByID(ctx context.Context, id string) (*model.SurveyResponse, error)
	ListByInstance(ctx context.Context, instanceID string) ([]*model.SurveyResponse, error)
	AdvanceIndex(ctx context.Context, id string, from int) (int, error)
	MarkFinished(ctx context.Context, id string) error
}

type responseRepo struct {
	collection *mongo.Collection
}

// NewResponseRepo creates a new survey response repository
func NewResponseRepo(db *mongo.Database) ResponseRepo {
	return &responseRepo{collection: db.Collection("survey_responses")}
}

func (r *responseRepo) Create(ctx context.Context, response *model.SurveyResponse) error {
	if response.StartedAt.IsZero() {
		response.StartedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, response)
	return err
}

func (r *responseRepo) GetByID(ctx context.Context, id string) (*model.SurveyResponse, error) {
	var response model.SurveyResponse
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&response)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *responseRepo) ListByInstance(ctx context.Context, instanceID string) ([]*model.SurveyResponse, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"surveyInstanceId": instanceID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var responses []*model.SurveyResponse
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

// AdvanceIndex moves currentIndex from `from` to from+1 and returns the new
// value. The filter pins the expected index and an unfinished response, so
// the increment commits atomically with the read that justified it.
func (r *responseRepo) AdvanceIndex(ctx context.Context, id string, from int) (int, error) {
	var updated model.SurveyResponse
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "currentIndex": from, "finishedAt": nil},
		bson.M{"$inc": bson.M{"currentIndex": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return 0, ErrStaleResponse
	}
	if err != nil {
		return 0, err
	}
	return updated.CurrentIndex, nil
}

// MarkFinished sets finishedAt once; finished responses are left untouched,
// so repeated calls are safe.
func (r *responseRepo) MarkFinished(ctx context.Context, id string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "finishedAt": nil},
		bson.M{"$set": bson.M{"finishedAt": time.Now()}},
	)
	return err
}
