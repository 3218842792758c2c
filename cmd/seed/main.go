package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"canvass/internal/model"
	"canvass/internal/repository"
)

func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	mongoDB := os.Getenv("MONGO_DB")
	if mongoDB == "" {
		mongoDB = "canvassdb"
	}
	orgID := os.Getenv("ORG_ID")
	if orgID == "" {
		orgID = "org_default"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(mongoDB)

	surveyRepo := repository.NewSurveyRepo(db)
	eventRepo := repository.NewEventRepo(db)
	instanceRepo := repository.NewInstanceRepo(db)
	linkRepo := repository.NewLinkRepo(db)
	answerRepo := repository.NewAnswerRepo(db)

	if err := answerRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create answer indexes: %v", err)
	}

	survey := &model.Survey{
		ID:    uuid.New().String(),
		OrgID: orgID,
		Title: "Smartphone Launch Feedback",
		Schema: map[string]interface{}{
			"questions": []interface{}{
				map[string]interface{}{
					"text":    "On a scale from 1 to 5, how satisfied are you with this smartphone overall?",
					"type":    "rating",
					"choices": []interface{}{"1", "2", "3", "4", "5"},
				},
				map[string]interface{}{
					"text": "Which model did you purchase?",
					"type": "multiple_choice",
					"choices": []interface{}{
						"Standard Model",
						"Pro / Plus Model",
						"Ultra / Max Model",
					},
					"can_followup": false,
				},
				map[string]interface{}{
					"text":        "Which feature do you find the most impressive?",
					"type":        "text",
					"description": "Display, Battery, Camera, Speed, Design",
				},
				map[string]interface{}{
					"text": "What is one thing you would improve or change about this smartphone?",
					"type": "text",
				},
			},
			"score_expr": "len(answers)",
		},
		IsPublished: true,
	}
	if err := surveyRepo.Create(ctx, survey); err != nil {
		log.Fatalf("Failed to insert survey: %v", err)
	}

	event := &model.Event{
		ID:          uuid.New().String(),
		OrgID:       orgID,
		Name:        "Launch Week 2026",
		Description: "Post-launch feedback collection across demo stations.",
		StartAt:     time.Now(),
		EndAt:       time.Now().Add(7 * 24 * time.Hour),
		Status:      model.EventActive,
	}
	if err := eventRepo.Create(ctx, event); err != nil {
		log.Fatalf("Failed to insert event: %v", err)
	}

	instance := &model.SurveyInstance{
		ID:               uuid.New().String(),
		OrgID:            orgID,
		EventID:          event.ID,
		SurveyID:         survey.ID,
		EmailRequirement: model.EmailNone,
	}
	if err := instanceRepo.Create(ctx, instance); err != nil {
		log.Fatalf("Failed to insert survey instance: %v", err)
	}

	link := &model.Link{
		ID:               uuid.New().String(),
		OrgID:            orgID,
		SurveyInstanceID: instance.ID,
	}
	if err := linkRepo.Create(ctx, link); err != nil {
		log.Fatalf("Failed to insert link: %v", err)
	}

	fmt.Printf("Seeded survey '%s' for org '%s'\n", survey.Title, orgID)
	fmt.Printf("Public link: /v1/public/%s\n", link.ID)
}
