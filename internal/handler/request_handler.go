package handler

import (
	"net/http"

	"foodshare/internal/model"
	"foodshare/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestHandler handles the pickup request workflow endpoints.
type RequestHandler struct {
	service service.RequestService
	logger  zerolog.Logger
}

// NewRequestHandler creates a new request handler.
func NewRequestHandler(service service.RequestService, logger zerolog.Logger) *RequestHandler {
	return &RequestHandler{
		service: service,
		logger:  logger.With().Str("handler", "request").Logger(),
	}
}

// Toggle handles POST /requests. A newly created request answers 201; an existing open
// request or a cancellation answers 200.
func (h *RequestHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeServiceError(w, model.ErrUnauthenticated, h.logger)
		return
	}

	var input model.ToggleRequestInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	req, created, err := h.service.Toggle(r.Context(), caller, &input)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeData(w, status, req)
}

// Accept handles POST /requests/{id}/accept.
func (h *RequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	var input model.AcceptRequestInput
	if err := decodeOptionalJSON(w, r, &input); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	req, err := h.service.Accept(r.Context(), caller, id, &input)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, req)
}

// Reject handles POST /requests/{id}/reject.
func (h *RequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	req, err := h.service.Reject(r.Context(), caller, id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, req)
}

// Cancel handles POST /requests/{id}/cancel.
func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	req, err := h.service.Cancel(r.Context(), caller, id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, req)
}

// List handles GET /requests?tab=sent|received.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeServiceError(w, model.ErrUnauthenticated, h.logger)
		return
	}

	page, limit, err := queryPage(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	tab := model.RequestTab(r.URL.Query().Get("tab"))
	result, err := h.service.List(r.Context(), caller, tab, page, limit)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Stats handles GET /requests/stats.
func (h *RequestHandler) Stats(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeServiceError(w, model.ErrUnauthenticated, h.logger)
		return
	}

	stats, err := h.service.Stats(r.Context(), caller)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, stats)
}

func (h *RequestHandler) callerAndID(w http.ResponseWriter, r *http.Request) (model.Identity, uuid.UUID, bool) {
	caller, ok := callerFrom(r)
	if !ok {
		writeServiceError(w, model.ErrUnauthenticated, h.logger)
		return model.Identity{}, uuid.Nil, false
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return model.Identity{}, uuid.Nil, false
	}

	return caller, id, true
}
