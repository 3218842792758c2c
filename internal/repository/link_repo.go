package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"canvass/internal/model"
)

// LinkRepo handles MongoDB operations for public survey links
type LinkRepo interface {
	Create(ctx context.Context, link *model.Link) error
	GetByID(ctx context.Context, id string) (*model.Link, error)
	ListByInstance(ctx context.Context, instanceID string) ([]*model.Link, error)
}

type linkRepo struct {
	collection *mongo.Collection
}

// NewLinkRepo creates a new link repository
func NewLinkRepo(db *mongo.Database) LinkRepo {
	return &linkRepo{collection: db.Collection("links")}
}

func (r *linkRepo) Create(ctx context.Context, link *model.Link) error {
	link.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, link)
	return err
}

func (r *linkRepo) GetByID(ctx context.Context, id string) (*model.Link, error) {
	var link model.Link
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&link)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *linkRepo) ListByInstance(ctx context.Context, instanceID string) ([]*model.Link, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"surveyInstanceId": instanceID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var links []*model.Link
	if err := cursor.All(ctx, &links); err != nil {
		return nil, err
	}
	return links, nil
}
