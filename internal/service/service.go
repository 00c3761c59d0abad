package service

import (
	"context"

	"foodshare/internal/model"

	"github.com/google/uuid"
)

// ListingService defines operations for food listings.
type ListingService interface {
	// List returns one page of listings. When caller is non-nil and the query asks for it,
	// each item is annotated with whether the caller holds an open request on it.
	List(ctx context.Context, caller *model.Identity, query model.ListingQuery) (*model.Page[model.ListingItem], error)

	// GetByID retrieves a single listing.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Listing, error)

	// Create posts a new listing owned by the caller.
	Create(ctx context.Context, caller model.Identity, input *model.CreateListingInput) (*model.Listing, error)

	// Update overwrites the fields present in input. Owner only.
	Update(ctx context.Context, caller model.Identity, id uuid.UUID, input *model.UpdateListingInput) (*model.Listing, error)

	// Delete removes the listing and its requests. Owner only.
	Delete(ctx context.Context, caller model.Identity, id uuid.UUID) error
}

// RequestService defines the pickup request workflow.
type RequestService interface {
	// Toggle creates a request or cancels the caller's pending one, depending on the action.
	// created is true only when a new request was inserted.
	Toggle(ctx context.Context, caller model.Identity, input *model.ToggleRequestInput) (request *model.Request, created bool, err error)

	// Cancel withdraws the caller's own pending request.
	Cancel(ctx context.Context, caller model.Identity, id uuid.UUID) (*model.Request, error)

	// Reject declines a pending request on one of the caller's listings.
	Reject(ctx context.Context, caller model.Identity, id uuid.UUID) (*model.Request, error)

	// Accept discloses the caller's contact details, completes the listing and rejects rivals.
	Accept(ctx context.Context, caller model.Identity, id uuid.UUID, input *model.AcceptRequestInput) (*model.Request, error)

	// List returns requests sent or received by the caller with their listing summaries.
	List(ctx context.Context, caller model.Identity, tab model.RequestTab, page, limit int) (*model.Page[model.RequestItem], error)

	// Stats returns the caller's pending badge counts.
	Stats(ctx context.Context, caller model.Identity) (*model.RequestStats, error)
}

// ProfileService defines operations on the caller's own profile.
type ProfileService interface {
	// Get returns the caller's profile, creating it from token claims on first access.
	Get(ctx context.Context, caller model.Identity) (*model.Profile, error)

	// Update overwrites the fields present in input.
	Update(ctx context.Context, caller model.Identity, input *model.UpdateProfileInput) (*model.Profile, error)
}

// TransitionRecorder observes request status changes.
type TransitionRecorder interface {
	RecordTransition(from, to string, n int)
}

type noopRecorder struct{}

func (noopRecorder) RecordTransition(string, string, int) {}
