package handler

import (
	"net/http"

	"foodshare/internal/model"
	"foodshare/internal/service"

	"github.com/rs/zerolog"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	service service.ProfileService
	logger  zerolog.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(service service.ProfileService, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		logger:  logger.With().Str("handler", "profile").Logger(),
	}
}

// Get handles GET /profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeServiceError(w, model.ErrUnauthenticated, h.logger)
		return
	}

	profile, err := h.service.Get(r.Context(), caller)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, profile)
}

// Update handles PUT /profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeServiceError(w, model.ErrUnauthenticated, h.logger)
		return
	}

	var input model.UpdateProfileInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	profile, err := h.service.Update(r.Context(), caller, &input)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, profile)
}
