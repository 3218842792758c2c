package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"canvass/internal/model"
	"canvass/internal/repository"
	"canvass/internal/schema"
	"canvass/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps service-layer errors to HTTP statuses. Anything
// not recognized is a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSurveyNotFound),
		errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrInstanceNotFound),
		errors.Is(err, service.ErrResponseNotFound),
		errors.Is(err, service.ErrLinkNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyCompleted),
		errors.Is(err, service.ErrSurveyPublished),
		errors.Is(err, service.ErrLinkExpired),
		errors.Is(err, schema.ErrInvalidSchema):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrStaleResponse):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
