package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"canvass/internal/model"
	"canvass/internal/service"
	"canvass/internal/transport/rest/middleware"
)

// EventHandler handles event endpoints
type EventHandler struct {
	eventSvc *service.EventService
	statsSvc *service.StatsService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventSvc *service.EventService, statsSvc *service.StatsService) *EventHandler {
	return &EventHandler{eventSvc: eventSvc, statsSvc: statsSvc}
}

// CreateEventRequest is the request body for creating an event
type CreateEventRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	StartAt     time.Time         `json:"startAt"`
	EndAt       time.Time         `json:"endAt"`
	Status      model.EventStatus `json:"status"`
}

// Create handles POST /v1/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event, err := h.eventSvc.Create(r.Context(), orgID, req.Name, req.Description, req.StartAt, req.EndAt, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// Get handles GET /v1/events/{eventId}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	event, err := h.eventSvc.GetByID(r.Context(), orgID, mux.Vars(r)["eventId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// List handles GET /v1/events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	events, err := h.eventSvc.ListByOrg(r.Context(), orgID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// Stats handles GET /v1/events/{eventId}/stats
func (h *EventHandler) Stats(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	stats, err := h.statsSvc.EventStats(r.Context(), orgID, mux.Vars(r)["eventId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
