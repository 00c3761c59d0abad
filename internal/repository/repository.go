package repository

import (
	"context"

	"foodshare/internal/model"

	"github.com/google/uuid"
)

// ListingRepository defines data access for food listings.
type ListingRepository interface {
	// List returns one page of listings filtered by search text and ordered by the query sort.
	List(ctx context.Context, query model.ListingQuery) ([]model.Listing, error)

	// GetByID returns nil, nil when the listing does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Listing, error)

	// GetByIDs retrieves multiple listings in one round trip.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Listing, error)

	Create(ctx context.Context, listing *model.Listing) error

	// Update overwrites the mutable fields. The completed flag is never cleared, and
	// completing a listing rejects its Pending requests.
	Update(ctx context.Context, listing *model.Listing) error

	// Delete removes the listing and every request that references it.
	// It returns false when the listing did not exist.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// RequestRepository defines data access for pickup requests.
type RequestRepository interface {
	// GetByID returns nil, nil when the request does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Request, error)

	// FindOpen returns the requester's Pending or Accepted request on a listing, or nil.
	FindOpen(ctx context.Context, listingID uuid.UUID, requesterID string) (*model.Request, error)

	// FindPending returns the requester's Pending request on a listing, or nil.
	FindPending(ctx context.Context, listingID uuid.UUID, requesterID string) (*model.Request, error)

	// Create inserts a Pending request. If an open request already exists for the
	// (listing, requester) pair, that request is returned with created=false.
	Create(ctx context.Context, request *model.Request) (existing *model.Request, created bool, err error)

	// Transition moves a request from one status to another with a compare-and-set guard.
	// It returns model.ErrInvalidStateTransition when the current status is not from.
	Transition(ctx context.Context, id uuid.UUID, from, to model.RequestStatus) (*model.Request, error)

	// Accept atomically accepts the request, completes its listing and rejects rival
	// Pending requests. It returns the accepted request and the number of rivals rejected.
	Accept(ctx context.Context, id uuid.UUID, donorID string, contact model.ContactDetails) (*model.Request, int64, error)

	// ListBySide returns requests sent or received by the user, newest first.
	ListBySide(ctx context.Context, tab model.RequestTab, userID string, limit, offset int) ([]model.Request, error)

	// OpenListingIDs returns the subset of listingIDs on which the requester holds an open request.
	OpenListingIDs(ctx context.Context, requesterID string, listingIDs []uuid.UUID) (map[uuid.UUID]bool, error)

	// CountPending returns Pending counts as requester and as donor.
	CountPending(ctx context.Context, userID string) (*model.RequestStats, error)
}

// ProfileRepository defines data access for user profiles.
type ProfileRepository interface {
	// GetByUserID returns nil, nil when no profile exists.
	GetByUserID(ctx context.Context, userID string) (*model.Profile, error)

	// CreateIfMissing inserts the profile unless one exists and returns the stored profile.
	CreateIfMissing(ctx context.Context, profile *model.Profile) (*model.Profile, error)

	// Upsert writes every field of the profile.
	Upsert(ctx context.Context, profile *model.Profile) (*model.Profile, error)
}
