package handler

import (
	"net/http"
	"strconv"

	"foodshare/internal/model"
	"foodshare/internal/service"

	"github.com/rs/zerolog"
)

// ListingHandler handles listing-related HTTP requests.
type ListingHandler struct {
	service service.ListingService
	logger  zerolog.Logger
}

// NewListingHandler creates a new listing handler.
func NewListingHandler(service service.ListingService, logger zerolog.Logger) *ListingHandler {
	return &ListingHandler{
		service: service,
		logger:  logger.With().Str("handler", "listing").Logger(),
	}
}

// List handles GET /listings requests.
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, err := queryPage(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	q := r.URL.Query()
	includeRequested, _ := strconv.ParseBool(q.Get("includeRequested"))

	result, err := h.service.List(r.Context(), optionalCaller(r), model.ListingQuery{
		Page:             page,
		Limit:            limit,
		Search:           q.Get("search"),
		Sort:             model.ListingSort(q.Get("sort")),
		IncludeRequested: includeRequested,
	})
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetByID handles GET /listings/{id} requests.
func (h *ListingHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	listing, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, listing)
}

// Create handles POST /listings requests.
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeServiceError(w, model.ErrUnauthenticated, h.logger)
		return
	}

	var input model.CreateListingInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	listing, err := h.service.Create(r.Context(), caller, &input)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusCreated, listing)
}

// Update handles PUT /listings/{id} requests.
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeServiceError(w, model.ErrUnauthenticated, h.logger)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	var input model.UpdateListingInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	listing, err := h.service.Update(r.Context(), caller, id, &input)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, listing)
}

// Delete handles DELETE /listings/{id} requests.
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeServiceError(w, model.ErrUnauthenticated, h.logger)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
