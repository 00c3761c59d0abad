package model

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON            = "INVALID_JSON"
	ErrCodeValidationFailed       = "VALIDATION_FAILED"
	ErrCodeUnauthorised           = "UNAUTHORIZED"
	ErrCodeForbidden              = "FORBIDDEN"
	ErrCodeListingNotFound        = "LISTING_NOT_FOUND"
	ErrCodeRequestNotFound        = "REQUEST_NOT_FOUND"
	ErrCodeNoPendingRequest       = "NO_PENDING_REQUEST"
	ErrCodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	ErrCodeProfileIncomplete      = "PROFILE_INCOMPLETE"
	ErrCodeSelfRequest            = "SELF_REQUEST"
	ErrCodeListingCompleted       = "LISTING_COMPLETED"
	ErrCodeFileTooLarge           = "FILE_TOO_LARGE"
	ErrCodeUnsupportedMediaType   = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodeRateLimited            = "RATE_LIMITED"
	ErrCodeUpstreamFailure        = "UPSTREAM_FAILURE"
	ErrCodeInternalError          = "INTERNAL_ERROR"
)

// ErrorKind classifies a DomainError so the HTTP layer can pick a status code.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInvalidStateTransition
	KindConflict
	KindUpstream
)

// Domain errors for business logic
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Field   string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped copies compare equal to the sentinels.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports a missing or malformed input field.
func NewValidationError(field, message string) *DomainError {
	return &DomainError{
		Kind:    KindValidation,
		Code:    ErrCodeValidationFailed,
		Message: message,
		Field:   field,
	}
}

// NewUpstreamError hides provider detail behind a generic message.
func NewUpstreamError(provider string) *DomainError {
	return NewDomainError(KindUpstream, ErrCodeUpstreamFailure, fmt.Sprintf("%s is currently unavailable", provider))
}

// AsDomainError unwraps err into a DomainError if it carries one.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Common domain errors
var (
	ErrUnauthenticated        = NewDomainError(KindUnauthenticated, ErrCodeUnauthorised, "Authentication required")
	ErrForbidden              = NewDomainError(KindForbidden, ErrCodeForbidden, "You do not own this resource")
	ErrListingNotFound        = NewDomainError(KindNotFound, ErrCodeListingNotFound, "Listing not found")
	ErrRequestNotFound        = NewDomainError(KindNotFound, ErrCodeRequestNotFound, "Request not found")
	ErrNoPendingRequest       = NewDomainError(KindNotFound, ErrCodeNoPendingRequest, "No pending request for this listing")
	ErrInvalidStateTransition = NewDomainError(KindInvalidStateTransition, ErrCodeInvalidStateTransition, "Action not allowed in the current status")
	ErrProfileIncomplete      = NewDomainError(KindValidation, ErrCodeProfileIncomplete, "Donor profile missing name or phone")
	ErrSelfRequest            = NewDomainError(KindValidation, ErrCodeSelfRequest, "Cannot request your own listing")
	ErrListingCompleted       = NewDomainError(KindValidation, ErrCodeListingCompleted, "Listing already completed")
	ErrDuplicateRequest       = NewDomainError(KindConflict, "DUPLICATE_REQUEST", "An open request already exists for this listing")
)
