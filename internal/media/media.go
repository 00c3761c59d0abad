// Package media stores uploaded listing photos and returns their public URLs.
package media

import (
	"context"
	"io"
)

// Store persists an object under key and returns the URL clients fetch it from.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}
