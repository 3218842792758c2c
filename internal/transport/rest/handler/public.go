package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"canvass/internal/service"
)

// PublicHandler serves the anonymous respondent surface behind link ids
type PublicHandler struct {
	instanceSvc *service.InstanceService
	flowSvc     *service.FlowService
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(instanceSvc *service.InstanceService, flowSvc *service.FlowService) *PublicHandler {
	return &PublicHandler{instanceSvc: instanceSvc, flowSvc: flowSvc}
}

// Resolve handles GET /v1/public/{linkId}
func (h *PublicHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	summary, err := h.instanceSvc.ResolveLink(r.Context(), mux.Vars(r)["linkId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Start handles POST /v1/public/{linkId}/start
func (h *PublicHandler) Start(w http.ResponseWriter, r *http.Request) {
	instance, err := h.instanceSvc.InstanceForLink(r.Context(), mux.Vars(r)["linkId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	start, err := h.flowSvc.StartFlow(r.Context(), instance.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, start)
}
