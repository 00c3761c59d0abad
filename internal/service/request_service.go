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

// requestService implements RequestService.
type requestService struct {
	requestRepo repository.RequestRepository
	listingRepo repository.ListingRepository
	profileRepo repository.ProfileRepository
	recorder    TransitionRecorder
	logger      zerolog.Logger
}

// NewRequestService creates a new request workflow service. recorder may be nil.
func NewRequestService(
	requestRepo repository.RequestRepository,
	listingRepo repository.ListingRepository,
	profileRepo repository.ProfileRepository,
	recorder TransitionRecorder,
	logger zerolog.Logger,
) RequestService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &requestService{
		requestRepo: requestRepo,
		listingRepo: listingRepo,
		profileRepo: profileRepo,
		recorder:    recorder,
		logger:      logger.With().Str("service", "request").Logger(),
	}
}

func (s *requestService) Toggle(ctx context.Context, caller model.Identity, input *model.ToggleRequestInput) (*model.Request, bool, error) {
	listingID, err := uuid.Parse(input.ListingID)
	if err != nil {
		return nil, false, model.NewValidationError("listingId", "listingId must be a valid id")
	}

	switch input.Action {
	case model.ActionRequest:
		return s.create(ctx, caller, listingID)
	case model.ActionCancel:
		req, err := s.cancelPending(ctx, caller, listingID)
		return req, false, err
	default:
		return nil, false, model.NewValidationError("action", "action must be request or cancel")
	}
}

// create returns the caller's open request on the listing when one exists, otherwise inserts a new one.
func (s *requestService) create(ctx context.Context, caller model.Identity, listingID uuid.UUID) (*model.Request, bool, error) {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get listing: %w", err)
	}
	if listing == nil {
		return nil, false, model.ErrListingNotFound
	}

	if listing.DonorID == caller.UserID {
		return nil, false, model.ErrSelfRequest
	}

	existing, err := s.requestRepo.FindOpen(ctx, listingID, caller.UserID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up open request: %w", err)
	}
	if existing != nil {
		s.logger.Debug().
			Str("request_id", existing.ID.String()).
			Str("listing_id", listingID.String()).
			Msg("returning existing open request")
		return existing, false, nil
	}

	if listing.Completed {
		return nil, false, model.ErrListingCompleted
	}

	now := time.Now().UTC()
	req := &model.Request{
		ID:          uuid.New(),
		ListingID:   listingID,
		DonorID:     listing.DonorID,
		RequesterID: caller.UserID,
		Status:      model.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	stored, created, err := s.requestRepo.Create(ctx, req)
	if err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	if created {
		s.recorder.RecordTransition("", string(model.StatusPending), 1)
		s.logger.Info().
			Str("request_id", stored.ID.String()).
			Str("listing_id", listingID.String()).
			Str("requester_id", caller.UserID).
			Msg("request created")
	}

	return stored, created, nil
}

// cancelPending cancels the caller's pending request on the listing.
func (s *requestService) cancelPending(ctx context.Context, caller model.Identity, listingID uuid.UUID) (*model.Request, error) {
	pending, err := s.requestRepo.FindPending(ctx, listingID, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up pending request: %w", err)
	}
	if pending == nil {
		return nil, model.ErrNoPendingRequest
	}

	return s.transition(ctx, pending.ID, model.StatusCancelled)
}

func (s *requestService) Cancel(ctx context.Context, caller model.Identity, id uuid.UUID) (*model.Request, error) {
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.RequesterID != caller.UserID {
		return nil, model.ErrForbidden
	}
	if req.Status != model.StatusPending {
		return nil, model.ErrInvalidStateTransition
	}

	return s.transition(ctx, id, model.StatusCancelled)
}

func (s *requestService) Reject(ctx context.Context, caller model.Identity, id uuid.UUID) (*model.Request, error) {
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.DonorID != caller.UserID {
		return nil, model.ErrForbidden
	}
	if req.Status != model.StatusPending {
		return nil, model.ErrInvalidStateTransition
	}

	return s.transition(ctx, id, model.StatusRejected)
}

func (s *requestService) Accept(ctx context.Context, caller model.Identity, id uuid.UUID, input *model.AcceptRequestInput) (*model.Request, error) {
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.DonorID != caller.UserID {
		return nil, model.ErrForbidden
	}
	if req.Status != model.StatusPending {
		return nil, model.ErrInvalidStateTransition
	}

	listing, err := s.listingRepo.GetByID(ctx, req.ListingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	if listing == nil {
		return nil, model.ErrListingNotFound
	}
	if listing.Completed {
		return nil, model.ErrListingCompleted
	}

	profile, err := s.profileRepo.GetByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load donor profile: %w", err)
	}

	if input == nil {
		input = &model.AcceptRequestInput{}
	}
	contact, err := resolveContact(input, profile, listing)
	if err != nil {
		s.logger.Info().
			Str("request_id", id.String()).
			Str("donor_id", caller.UserID).
			Msg("accept blocked on incomplete donor profile")
		return nil, err
	}

	accepted, rejected, err := s.requestRepo.Accept(ctx, id, caller.UserID, contact)
	if err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to accept request: %w", err)
	}

	s.recorder.RecordTransition(string(model.StatusPending), string(model.StatusAccepted), 1)
	s.recorder.RecordTransition(string(model.StatusPending), string(model.StatusRejected), int(rejected))

	return accepted, nil
}

// resolveContact prefers explicit overrides, then the donor profile. Address falls back
// to the listing location.
func resolveContact(input *model.AcceptRequestInput, profile *model.Profile, listing *model.Listing) (model.ContactDetails, error) {
	contact := model.ContactDetails{
		Name:  strings.TrimSpace(input.Name),
		Phone: strings.TrimSpace(input.Phone),
	}

	if profile != nil {
		if contact.Name == "" {
			contact.Name = strings.TrimSpace(profile.Name)
		}
		if contact.Phone == "" && profile.Phone != nil {
			contact.Phone = strings.TrimSpace(*profile.Phone)
		}
		contact.Address = strings.TrimSpace(profile.Address)
	}

	if contact.Name == "" || contact.Phone == "" {
		return model.ContactDetails{}, model.ErrProfileIncomplete
	}

	if contact.Address == "" {
		contact.Address = listing.LocationText
	}

	return contact, nil
}

func (s *requestService) List(ctx context.Context, caller model.Identity, tab model.RequestTab, page, limit int) (*model.Page[model.RequestItem], error) {
	if tab != model.TabReceived {
		tab = model.TabSent
	}
	page, limit = model.NormalizePage(page, limit)

	requests, err := s.requestRepo.ListBySide(ctx, tab, caller.UserID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	seen := make(map[uuid.UUID]bool, len(requests))
	ids := make([]uuid.UUID, 0, len(requests))
	for _, r := range requests {
		if !seen[r.ListingID] {
			seen[r.ListingID] = true
			ids = append(ids, r.ListingID)
		}
	}

	listings, err := s.listingRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load request listings: %w", err)
	}

	summaries := make(map[uuid.UUID]*model.ListingSummary, len(listings))
	for i := range listings {
		summaries[listings[i].ID] = listings[i].Summary()
	}

	items := make([]model.RequestItem, len(requests))
	for i, r := range requests {
		items[i] = model.RequestItem{Request: r, Listing: summaries[r.ListingID]}
	}

	return &model.Page[model.RequestItem]{
		Data:    items,
		Page:    page,
		Limit:   limit,
		HasMore: len(requests) == limit,
	}, nil
}

func (s *requestService) Stats(ctx context.Context, caller model.Identity) (*model.RequestStats, error) {
	stats, err := s.requestRepo.CountPending(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending requests: %w", err)
	}
	return stats, nil
}

func (s *requestService) getRequest(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	if req == nil {
		return nil, model.ErrRequestNotFound
	}
	return req, nil
}

// transition applies a Pending -> to change guarded by the stored status.
func (s *requestService) transition(ctx context.Context, id uuid.UUID, to model.RequestStatus) (*model.Request, error) {
	req, err := s.requestRepo.Transition(ctx, id, model.StatusPending, to)
	if err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	s.recorder.RecordTransition(string(model.StatusPending), string(to), 1)
	s.logger.Info().
		Str("request_id", id.String()).
		Str("status", string(to)).
		Msg("request status changed")

	return req, nil
}
