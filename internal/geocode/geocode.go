// Package geocode resolves coordinates and addresses through the OpenCage API.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// ErrNotConfigured is returned when no provider API key is set.
var ErrNotConfigured = errors.New("geocoding API key not set")

// maxResponseBytes bounds the provider response read into memory.
const maxResponseBytes = 1 << 20

// Location is the best forward geocoding match. Lat and Lng are nil when nothing matched.
type Location struct {
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	Formatted string   `json:"formatted"`
}

// Geocoder converts between coordinates and human readable addresses.
type Geocoder interface {
	// Reverse returns the formatted address nearest to lat/lng, or "" when none is known.
	Reverse(ctx context.Context, lat, lng float64) (string, error)

	// Forward returns the coordinates of the best match for address.
	Forward(ctx context.Context, address string) (*Location, error)
}

// Recorder receives one call per provider lookup.
type Recorder interface {
	RecordGeocode(direction string, success bool)
}

// Options configures the OpenCage client.
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type client struct {
	apiKey   string
	baseURL  string
	http     *http.Client
	recorder Recorder
	logger   zerolog.Logger
}

// NewClient creates an OpenCage client. recorder may be nil.
func NewClient(opts Options, recorder Recorder, logger zerolog.Logger) Geocoder {
	return &client{
		apiKey:   opts.APIKey,
		baseURL:  opts.BaseURL,
		http:     &http.Client{Timeout: opts.Timeout},
		recorder: recorder,
		logger:   logger.With().Str("component", "geocoder").Logger(),
	}
}

func (c *client) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	query := strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)

	body, err := c.lookup(ctx, "reverse", query)
	if err != nil {
		return "", err
	}

	return gjson.GetBytes(body, "results.0.formatted").String(), nil
}

func (c *client) Forward(ctx context.Context, address string) (*Location, error) {
	body, err := c.lookup(ctx, "forward", address)
	if err != nil {
		return nil, err
	}

	first := gjson.GetBytes(body, "results.0")
	loc := &Location{Formatted: first.Get("formatted").String()}
	if lat := first.Get("geometry.lat"); lat.Exists() {
		v := lat.Float()
		loc.Lat = &v
	}
	if lng := first.Get("geometry.lng"); lng.Exists() {
		v := lng.Float()
		loc.Lng = &v
	}

	return loc, nil
}

// lookup performs one provider query and returns the raw JSON body.
func (c *client) lookup(ctx context.Context, direction, query string) (body []byte, err error) {
	defer func() {
		if c.recorder != nil {
			c.recorder.RecordGeocode(direction, err == nil)
		}
	}()

	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("key", c.apiKey)
	params.Set("no_annotations", "1")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("direction", direction).Msg("geocode request failed")
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read geocode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("direction", direction).
			Str("provider_message", gjson.GetBytes(body, "status.message").String()).
			Msg("geocode provider returned an error")
		return nil, fmt.Errorf("geocode provider returned status %d", resp.StatusCode)
	}

	if !gjson.ValidBytes(body) {
		return nil, errors.New("geocode provider returned invalid JSON")
	}

	return body, nil
}
