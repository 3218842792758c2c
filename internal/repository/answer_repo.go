package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"canvass/internal/model"
)

// ErrDuplicateAnswerSlot means a second ledger row was attempted for the
// same (response, question index, is-followup) slot. The unique index makes
// this loud instead of letting a double submission overwrite data.
var ErrDuplicateAnswerSlot = errors.New("duplicate answer slot")

// AnswerRepo is the answer ledger: one row per answerable slot of a
// response, append/update only.
type AnswerRepo interface {
	Create(ctx context.Context, answer *model.Answer) error
	Get(ctx context.Context, responseID string, questionIdx int, followup bool) (*model.Answer, error)
	SetAnswer(ctx context.Context, id string, value interface{}, skipped bool) error
	UpsertFollowupQuestion(ctx context.Context, responseID string, questionIdx int, questionText string) (*model.Answer, error)
	HasFollowup(ctx context.Context, responseID string, questionIdx int) (bool, error)
	ListByResponse(ctx context.Context, responseID string) ([]*model.Answer, error)
	EnsureIndexes(ctx context.Context) error
}

type answerRepo struct {
	collection *mongo.Collection
}

// NewAnswerRepo creates a new answer ledger repository
func NewAnswerRepo(db *mongo.Database) AnswerRepo {
	return &answerRepo{collection: db.Collection("survey_answers")}
}

// EnsureIndexes creates the unique slot index. Call once at startup.
func (r *answerRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "responseId", Value: 1},
			{Key: "questionIdx", Value: 1},
			{Key: "isFollowup", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("uq_answer_slot"),
	})
	return err
}

func (r *answerRepo) Create(ctx context.Context, answer *model.Answer) error {
	if answer.ID == "" {
		answer.ID = uuid.New().String()
	}
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, answer)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateAnswerSlot
	}
	return err
}

func (r *answerRepo) Get(ctx context.Context, responseID string, questionIdx int, followup bool) (*model.Answer, error) {
	var answer model.Answer
	err := r.collection.FindOne(ctx, bson.M{
		"responseId":  responseID,
		"questionIdx": questionIdx,
		"isFollowup":  followup,
	}).Decode(&answer)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

// SetAnswer writes the submitted value into an existing row. Rows are
// mutated exactly once per slot by the flow engine; the ledger itself only
// guarantees the row survives with the latest value.
func (r *answerRepo) SetAnswer(ctx context.Context, id string, value interface{}, skipped bool) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"answer": value, "skipped": skipped}},
	)
	return err
}

// UpsertFollowupQuestion records the generated follow-up question for a base
// index: updates the text in place when a row already exists (policy
// re-invoked on a retry), creates the row otherwise.
func (r *answerRepo) UpsertFollowupQuestion(ctx context.Context, responseID string, questionIdx int, questionText string) (*model.Answer, error) {
	var answer model.Answer
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"responseId": responseID, "questionIdx": questionIdx, "isFollowup": true},
		bson.M{
			"$set": bson.M{"questionText": questionText},
			"$setOnInsert": bson.M{
				"_id":       uuid.New().String(),
				"answer":    nil,
				"skipped":   false,
				"createdAt": time.Now(),
			},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&answer)
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *answerRepo) HasFollowup(ctx context.Context, responseID string, questionIdx int) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"responseId":  responseID,
		"questionIdx": questionIdx,
		"isFollowup":  true,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *answerRepo) ListByResponse(ctx context.Context, responseID string) ([]*model.Answer, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"responseId": responseID},
		options.Find().SetSort(bson.D{{Key: "questionIdx", Value: 1}, {Key: "isFollowup", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var answers []*model.Answer
	if err := cursor.All(ctx, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}
