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

// InstanceHandler handles survey instance and link endpoints
type InstanceHandler struct {
	instanceSvc *service.InstanceService
	statsSvc    *service.StatsService
}

// NewInstanceHandler creates a new instance handler
func NewInstanceHandler(instanceSvc *service.InstanceService, statsSvc *service.StatsService) *InstanceHandler {
	return &InstanceHandler{instanceSvc: instanceSvc, statsSvc: statsSvc}
}

// CreateInstanceRequest is the request body for deploying a survey
type CreateInstanceRequest struct {
	EventID          string                 `json:"eventId"`
	SurveyID         string                 `json:"surveyId"`
	EmailRequirement model.EmailRequirement `json:"emailRequirement"`
}

// IssueLinkRequest is the request body for minting a public link
type IssueLinkRequest struct {
	ExpiresAt *time.Time `json:"expiresAt"`
}

// Create handles POST /v1/instances
func (h *InstanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	instance, err := h.instanceSvc.Create(r.Context(), orgID, req.EventID, req.SurveyID, req.EmailRequirement)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, instance)
}

// Get handles GET /v1/instances/{id}
func (h *InstanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	instance, err := h.instanceSvc.GetByID(r.Context(), orgID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, instance)
}

// ListByEvent handles GET /v1/events/{eventId}/instances
func (h *InstanceHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	instances, err := h.instanceSvc.ListByEvent(r.Context(), orgID, mux.Vars(r)["eventId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"instances": instances})
}

// IssueLink handles POST /v1/instances/{id}/links
func (h *InstanceHandler) IssueLink(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())

	var req IssueLinkRequest
	if r.Body != nil {
		// An empty body means a link that never expires.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	link, err := h.instanceSvc.IssueLink(r.Context(), orgID, mux.Vars(r)["id"], req.ExpiresAt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

// ListLinks handles GET /v1/instances/{id}/links
func (h *InstanceHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	links, err := h.instanceSvc.ListLinks(r.Context(), orgID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"links": links})
}

// Stats handles GET /v1/instances/{id}/stats
func (h *InstanceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	stats, err := h.statsSvc.InstanceStats(r.Context(), orgID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
