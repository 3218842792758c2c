package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"canvass/internal/service"
	"canvass/internal/transport/rest/handler"
	"canvass/internal/transport/rest/middleware"
	"canvass/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	SurveyService   *service.SurveyService
	EventService    *service.EventService
	InstanceService *service.InstanceService
	FlowService     *service.FlowService
	StatsService    *service.StatsService
	WSHub           *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	surveyHandler := handler.NewSurveyHandler(c.SurveyService)
	eventHandler := handler.NewEventHandler(c.EventService, c.StatsService)
	instanceHandler := handler.NewInstanceHandler(c.InstanceService, c.StatsService)
	flowHandler := handler.NewFlowHandler(c.FlowService)
	publicHandler := handler.NewPublicHandler(c.InstanceService, c.FlowService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/public/{linkId}", publicHandler.Resolve).Methods("GET", "OPTIONS")
	v1.HandleFunc("/public/{linkId}/start", publicHandler.Start).Methods("POST", "OPTIONS")

	// Respondent flow routes (response id is the credential)
	v1.HandleFunc("/survey-flow/instance/{id}/start", flowHandler.Start).Methods("POST", "OPTIONS")
	v1.HandleFunc("/survey-flow/responses/{id}/answer", flowHandler.SubmitAnswer).Methods("POST", "OPTIONS")

	// WebSocket routes (org token in query param)
	v1.HandleFunc("/ws/instances/{id}/watch", wsHandler.WatchInstance).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Org routes (require org auth)
	orgRoutes := v1.NewRoute().Subrouter()
	orgRoutes.Use(authMW.RequireOrg)

	orgRoutes.HandleFunc("/surveys", surveyHandler.Create).Methods("POST", "OPTIONS")
	orgRoutes.HandleFunc("/surveys", surveyHandler.List).Methods("GET", "OPTIONS")
	orgRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Get).Methods("GET", "OPTIONS")
	orgRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Update).Methods("PUT", "OPTIONS")
	orgRoutes.HandleFunc("/surveys/{surveyId}/publish", surveyHandler.Publish).Methods("POST", "OPTIONS")

	orgRoutes.HandleFunc("/events", eventHandler.Create).Methods("POST", "OPTIONS")
	orgRoutes.HandleFunc("/events", eventHandler.List).Methods("GET", "OPTIONS")
	orgRoutes.HandleFunc("/events/{eventId}", eventHandler.Get).Methods("GET", "OPTIONS")
	orgRoutes.HandleFunc("/events/{eventId}/stats", eventHandler.Stats).Methods("GET", "OPTIONS")
	orgRoutes.HandleFunc("/events/{eventId}/instances", instanceHandler.ListByEvent).Methods("GET", "OPTIONS")

	orgRoutes.HandleFunc("/instances", instanceHandler.Create).Methods("POST", "OPTIONS")
	orgRoutes.HandleFunc("/instances/{id}", instanceHandler.Get).Methods("GET", "OPTIONS")
	orgRoutes.HandleFunc("/instances/{id}/links", instanceHandler.IssueLink).Methods("POST", "OPTIONS")
	orgRoutes.HandleFunc("/instances/{id}/links", instanceHandler.ListLinks).Methods("GET", "OPTIONS")
	orgRoutes.HandleFunc("/instances/{id}/stats", instanceHandler.Stats).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
