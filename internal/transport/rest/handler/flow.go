package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"canvass/internal/model"
	"canvass/internal/service"
)

// FlowHandler exposes the respondent-facing flow engine. These endpoints
// are unauthenticated: possession of a response id (handed out at start)
// is the credential, same as the link id before it.
type FlowHandler struct {
	flowSvc *service.FlowService
}

// NewFlowHandler creates a new flow handler
func NewFlowHandler(flowSvc *service.FlowService) *FlowHandler {
	return &FlowHandler{flowSvc: flowSvc}
}

// Start handles POST /v1/survey-flow/instance/{id}/start
func (h *FlowHandler) Start(w http.ResponseWriter, r *http.Request) {
	start, err := h.flowSvc.StartFlow(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, start)
}

// SubmitAnswer handles POST /v1/survey-flow/responses/{id}/answer
func (h *FlowHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var sub model.AnswerSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	step, err := h.flowSvc.SubmitAnswer(r.Context(), mux.Vars(r)["id"], sub)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}
