package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"foodshare/internal/geocode"
	"foodshare/internal/model"

	"github.com/rs/zerolog"
)

type addressResponse struct {
	Address string `json:"address"`
}

// GeocodeHandler proxies address lookups so the provider key stays server side.
type GeocodeHandler struct {
	geocoder geocode.Geocoder
	logger   zerolog.Logger
}

// NewGeocodeHandler creates a new geocode handler.
func NewGeocodeHandler(geocoder geocode.Geocoder, logger zerolog.Logger) *GeocodeHandler {
	return &GeocodeHandler{
		geocoder: geocoder,
		logger:   logger.With().Str("handler", "geocode").Logger(),
	}
}

// Reverse handles GET /geocode/reverse?lat&lng.
func (h *GeocodeHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	lat, err := queryCoordinate(r, "lat", 90)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	lng, err := queryCoordinate(r, "lng", 180)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	address, err := h.geocoder.Reverse(r.Context(), lat, lng)
	if err != nil {
		h.logger.Error().Err(err).Msg("reverse geocode failed")
		writeServiceError(w, model.NewUpstreamError("Geocoding"), h.logger)
		return
	}

	writeData(w, http.StatusOK, addressResponse{Address: address})
}

// Forward handles GET /geocode/forward?q.
func (h *GeocodeHandler) Forward(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeServiceError(w, model.NewValidationError("q", "q is required"), h.logger)
		return
	}

	loc, err := h.geocoder.Forward(r.Context(), q)
	if err != nil {
		h.logger.Error().Err(err).Msg("forward geocode failed")
		writeServiceError(w, model.NewUpstreamError("Geocoding"), h.logger)
		return
	}

	writeData(w, http.StatusOK, loc)
}

func queryCoordinate(r *http.Request, name string, bound float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, model.NewValidationError(name, name+" is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || v < -bound || v > bound {
		return 0, model.NewValidationError(name, name+" is invalid")
	}
	return v, nil
}
