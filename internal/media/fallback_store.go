package media

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// fallbackStore writes to S3 first and to the local store when S3 fails.
type fallbackStore struct {
	s3Store   Store
	fileStore Store
	s3Enabled bool
	logger    zerolog.Logger
}

// NewFallbackStore creates a store that tries S3 first, then falls back to the local directory.
// If s3Store is nil, it will only use the file store.
func NewFallbackStore(s3Store, fileStore Store, s3Enabled bool, logger zerolog.Logger) Store {
	return &fallbackStore{
		s3Store:   s3Store,
		fileStore: fileStore,
		s3Enabled: s3Enabled,
		logger:    logger.With().Str("component", "fallback-media-store").Logger(),
	}
}

// Put buffers the body so a failed S3 attempt can be replayed against the local store.
func (s *fallbackStore) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if !s.s3Enabled || s.s3Store == nil {
		s.logger.Debug().
			Bool("s3_enabled", s.s3Enabled).
			Bool("has_s3_store", s.s3Store != nil).
			Msg("S3 disabled or not configured, using local store")
		return s.fileStore.Put(ctx, key, contentType, body)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload body: %w", err)
	}

	url, err := s.s3Store.Put(ctx, key, contentType, bytes.NewReader(data))
	if err == nil {
		return url, nil
	}

	s.logger.Warn().
		Err(err).
		Str("key", key).
		Msg("failed to upload to S3, falling back to local store")

	return s.fileStore.Put(ctx, key, contentType, bytes.NewReader(data))
}
