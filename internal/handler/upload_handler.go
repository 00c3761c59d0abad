package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"foodshare/internal/media"
	"foodshare/internal/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// MaxUploadBytes is the largest accepted image.
	MaxUploadBytes = 5 << 20
	// multipartOverhead leaves room for boundaries and part headers around the file.
	multipartOverhead = 64 << 10
)

// allowedImageTypes maps sniffed MIME types to the stored file extension.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Upload outcomes reported to the recorder.
const (
	UploadStored       = "stored"
	UploadTooLarge     = "too_large"
	UploadRejectedType = "unsupported_type"
	UploadFailed       = "failed"
)

// UploadRecorder counts upload outcomes.
type UploadRecorder interface {
	RecordUpload(outcome string)
}

type uploadResponse struct {
	URL string `json:"url"`
}

// UploadHandler stores listing photos.
type UploadHandler struct {
	store    media.Store
	recorder UploadRecorder
	logger   zerolog.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(store media.Store, recorder UploadRecorder, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		store:    store,
		recorder: recorder,
		logger:   logger.With().Str("handler", "upload").Logger(),
	}
}

// Upload handles POST /upload with a multipart "file" field.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.tooLarge(w)
			return
		}
		writeServiceError(w, model.NewValidationError("file", "file is required"), h.logger)
		return
	}
	defer file.Close()

	if header.Size > MaxUploadBytes {
		h.tooLarge(w)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes+1))
	if err != nil {
		writeServiceError(w, model.NewValidationError("file", "file could not be read"), h.logger)
		return
	}
	if len(data) > MaxUploadBytes {
		h.tooLarge(w)
		return
	}

	mtype := mimetype.Detect(data)
	ext, ok := allowedImageTypes[mtype.String()]
	if !ok {
		h.recorder.RecordUpload(UploadRejectedType)
		writeError(w, http.StatusBadRequest, model.ErrCodeUnsupportedMediaType,
			"Only JPEG, PNG, WebP or GIF images are accepted", h.logger)
		return
	}

	key := "listings/" + uuid.NewString() + ext
	url, err := h.store.Put(r.Context(), key, mtype.String(), bytes.NewReader(data))
	if err != nil {
		h.recorder.RecordUpload(UploadFailed)
		h.logger.Error().Err(err).Str("key", key).Msg("failed to store upload")
		writeServiceError(w, model.NewUpstreamError("Image storage"), h.logger)
		return
	}

	h.recorder.RecordUpload(UploadStored)
	h.logger.Info().Str("key", key).Int("bytes", len(data)).Str("content_type", mtype.String()).Msg("image uploaded")
	writeData(w, http.StatusCreated, uploadResponse{URL: url})
}

func (h *UploadHandler) tooLarge(w http.ResponseWriter) {
	h.recorder.RecordUpload(UploadTooLarge)
	writeError(w, http.StatusBadRequest, model.ErrCodeFileTooLarge, "Image must be 5 MB or smaller", h.logger)
}
