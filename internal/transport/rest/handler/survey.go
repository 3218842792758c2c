package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"canvass/internal/service"
	"canvass/internal/transport/rest/middleware"
)

// SurveyHandler handles survey template endpoints
type SurveyHandler struct {
	surveySvc *service.SurveyService
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(surveySvc *service.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveySvc: surveySvc}
}

// SurveyRequest is the request body for creating or updating a survey
type SurveyRequest struct {
	Title  string                 `json:"title"`
	Schema map[string]interface{} `json:"schema"`
}

// Create handles POST /v1/surveys
func (h *SurveyHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SurveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	survey, err := h.surveySvc.Create(r.Context(), orgID, req.Title, req.Schema)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, survey)
}

// Get handles GET /v1/surveys/{surveyId}
func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	survey, err := h.surveySvc.GetByID(r.Context(), orgID, mux.Vars(r)["surveyId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}

// List handles GET /v1/surveys
func (h *SurveyHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	surveys, err := h.surveySvc.ListByOrg(r.Context(), orgID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"surveys": surveys})
}

// Update handles PUT /v1/surveys/{surveyId}
func (h *SurveyHandler) Update(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())

	var req SurveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	survey, err := h.surveySvc.Update(r.Context(), orgID, mux.Vars(r)["surveyId"], req.Title, req.Schema)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}

// Publish handles POST /v1/surveys/{surveyId}/publish
func (h *SurveyHandler) Publish(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	survey, err := h.surveySvc.Publish(r.Context(), orgID, mux.Vars(r)["surveyId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}
