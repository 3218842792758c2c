package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"canvass/internal/cache"
	"canvass/internal/config"
	"canvass/internal/event"
	"canvass/internal/repository"
	"canvass/internal/service"
	"canvass/internal/transport/rest"
	"canvass/internal/transport/ws"
)

func main() {
	_ = godotenv.Load()

	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()
	aiConfig := config.DefaultAIConfig()
	log.Printf("AI Config:")
	log.Printf("  FollowUp model: %s", aiConfig.Model)
	if aiConfig.IsEnabled() {
		log.Println("  API Key: configured")
	} else {
		log.Println("  API Key: NOT SET (follow-ups disabled)")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	redisAddr := strings.TrimPrefix(cfg.RedisAddr, "redis://")
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	surveyRepo := repository.NewSurveyRepo(db)
	eventRepo := repository.NewEventRepo(db)
	instanceRepo := repository.NewInstanceRepo(db)
	linkRepo := repository.NewLinkRepo(db)
	responseRepo := repository.NewResponseRepo(db)
	answerRepo := repository.NewAnswerRepo(db)

	if err := answerRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to create answer indexes:", err)
	}

	// Initialize caches
	surveyCache := cache.NewSurveyCache(rdb)
	responseLock := cache.NewResponseLock(rdb)

	// Initialize services
	authSvc := service.NewAuthService(cfg)
	surveySvc := service.NewSurveyService(surveyRepo)
	eventSvc := service.NewEventService(eventRepo)
	instanceSvc := service.NewInstanceService(instanceRepo, linkRepo, eventRepo, surveyRepo)
	statsSvc := service.NewStatsService(instanceRepo, surveyRepo, responseRepo, answerRepo, eventRepo)
	followupSvc := service.NewFollowUpService(aiConfig)
	flowSvc := service.NewFlowService(instanceRepo, surveyRepo, responseRepo, answerRepo, followupSvc, responseLock)

	surveySvc.SetSurveyCache(surveyCache)
	flowSvc.SetSurveyCache(surveyCache)
	flowSvc.SetBroadcaster(wsHub)

	// Domain event publisher is optional: without AMQP_URL the service runs
	// but emits nothing.
	if cfg.AMQPURL != "" {
		publisher, err := event.NewPublisher(cfg.AMQPURL)
		if err != nil {
			log.Fatal("Failed to connect to AMQP:", err)
		}
		defer publisher.Close()
		flowSvc.SetPublisher(publisher)
		log.Println("Connected to AMQP")
	} else {
		log.Println("AMQP_URL not set, domain events disabled")
	}

	// Create router with container
	container := &rest.Container{
		AuthService:     authSvc,
		SurveyService:   surveySvc,
		EventService:    eventSvc,
		InstanceService: instanceSvc,
		FlowService:     flowSvc,
		StatsService:    statsSvc,
		WSHub:           wsHub,
	}

	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Printf("Org auth: username=%s", cfg.OrgUsername)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  POST/GET /v1/surveys")
		log.Println("  POST/GET /v1/events")
		log.Println("  POST/GET /v1/instances")
		log.Println("  GET  /v1/public/{linkId}")
		log.Println("  POST /v1/public/{linkId}/start")
		log.Println("  POST /v1/survey-flow/instance/{id}/start")
		log.Println("  POST /v1/survey-flow/responses/{id}/answer")
		log.Println("  WS   /v1/ws/instances/{id}/watch")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
