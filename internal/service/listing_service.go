package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foodshare/internal/model"
	"foodshare/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// defaultDonorName labels listings whose donor has no profile name and no name or email claim.
const defaultDonorName = "Donor"

// listingService implements ListingService.
type listingService struct {
	listingRepo repository.ListingRepository
	requestRepo repository.RequestRepository
	profileRepo repository.ProfileRepository
	logger      zerolog.Logger
}

// NewListingService creates a new listing service.
func NewListingService(
	listingRepo repository.ListingRepository,
	requestRepo repository.RequestRepository,
	profileRepo repository.ProfileRepository,
	logger zerolog.Logger,
) ListingService {
	return &listingService{
		listingRepo: listingRepo,
		requestRepo: requestRepo,
		profileRepo: profileRepo,
		logger:      logger.With().Str("service", "listing").Logger(),
	}
}

func (s *listingService) List(ctx context.Context, caller *model.Identity, query model.ListingQuery) (*model.Page[model.ListingItem], error) {
	query.Page, query.Limit = model.NormalizePage(query.Page, query.Limit)
	query.Search = strings.TrimSpace(query.Search)
	if query.Sort != model.SortByExpiryAt {
		query.Sort = model.SortByCreatedAt
	}

	listings, err := s.listingRepo.List(ctx, query)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list listings")
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}

	requested := map[uuid.UUID]bool{}
	if caller != nil && query.IncludeRequested && len(listings) > 0 {
		ids := make([]uuid.UUID, len(listings))
		for i, l := range listings {
			ids[i] = l.ID
		}

		requested, err = s.requestRepo.OpenListingIDs(ctx, caller.UserID, ids)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", caller.UserID).Msg("failed to annotate listings")
			return nil, fmt.Errorf("failed to annotate listings: %w", err)
		}
	}

	items := make([]model.ListingItem, len(listings))
	for i, l := range listings {
		items[i] = model.ListingItem{Listing: l, RequestedByMe: requested[l.ID]}
	}

	return &model.Page[model.ListingItem]{
		Data:    items,
		Page:    query.Page,
		Limit:   query.Limit,
		HasMore: len(listings) == query.Limit,
	}, nil
}

func (s *listingService) GetByID(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	listing, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	if listing == nil {
		return nil, model.ErrListingNotFound
	}
	return listing, nil
}

func (s *listingService) Create(ctx context.Context, caller model.Identity, input *model.CreateListingInput) (*model.Listing, error) {
	if err := validateCreateListing(input); err != nil {
		return nil, err
	}

	donorName, err := s.donorName(ctx, caller)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	listing := &model.Listing{
		ID:           uuid.New(),
		DonorID:      caller.UserID,
		DonorName:    donorName,
		FoodName:     strings.TrimSpace(input.FoodName),
		Description:  strings.TrimSpace(input.Description),
		PhotoURL:     strings.TrimSpace(input.PhotoURL),
		ExpiryAt:     input.ExpiryAt.UTC(),
		LocationText: strings.TrimSpace(input.LocationText),
		Lat:          *input.Lat,
		Lng:          *input.Lng,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.logger.Info().
		Str("listing_id", listing.ID.String()).
		Str("donor_id", listing.DonorID).
		Msg("listing created")

	return listing, nil
}

func (s *listingService) Update(ctx context.Context, caller model.Identity, id uuid.UUID, input *model.UpdateListingInput) (*model.Listing, error) {
	listing, err := s.ownedListing(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if input.Completed != nil && !*input.Completed && listing.Completed {
		return nil, model.ErrInvalidStateTransition
	}

	input.Apply(listing)
	listing.UpdatedAt = time.Now().UTC()

	if err := s.listingRepo.Update(ctx, listing); err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	s.logger.Info().Str("listing_id", id.String()).Msg("listing updated")
	return listing, nil
}

func (s *listingService) Delete(ctx context.Context, caller model.Identity, id uuid.UUID) error {
	if _, err := s.ownedListing(ctx, caller, id); err != nil {
		return err
	}

	found, err := s.listingRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if !found {
		return model.ErrListingNotFound
	}

	s.logger.Info().Str("listing_id", id.String()).Msg("listing deleted")
	return nil
}

// ownedListing loads the listing and checks the caller is its donor.
func (s *listingService) ownedListing(ctx context.Context, caller model.Identity, id uuid.UUID) (*model.Listing, error) {
	listing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.DonorID != caller.UserID {
		s.logger.Warn().
			Str("listing_id", id.String()).
			Str("user_id", caller.UserID).
			Msg("non-owner attempted to modify listing")
		return nil, model.ErrForbidden
	}
	return listing, nil
}

// donorName prefers the saved profile name over token claims.
func (s *listingService) donorName(ctx context.Context, caller model.Identity) (string, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, caller.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to load donor profile: %w", err)
	}
	if profile != nil && strings.TrimSpace(profile.Name) != "" {
		return profile.Name, nil
	}
	return caller.DisplayName(defaultDonorName), nil
}

func validateCreateListing(in *model.CreateListingInput) error {
	required := []struct {
		field string
		value string
	}{
		{"foodName", in.FoodName},
		{"description", in.Description},
		{"photoUrl", in.PhotoURL},
		{"locationText", in.LocationText},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return model.NewValidationError(r.field, r.field+" is required")
		}
	}

	switch {
	case in.ExpiryAt == nil:
		return model.NewValidationError("expiryAt", "expiryAt is required")
	case in.Lat == nil:
		return model.NewValidationError("lat", "lat is required")
	case in.Lng == nil:
		return model.NewValidationError("lng", "lng is required")
	}

	return nil
}
