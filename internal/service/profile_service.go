package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foodshare/internal/model"
	"foodshare/internal/repository"

	"github.com/rs/zerolog"
)

// defaultDisplayName is used when token claims carry neither a name nor an email.
const defaultDisplayName = "User"

// profileService implements ProfileService.
type profileService struct {
	profileRepo repository.ProfileRepository
	logger      zerolog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(profileRepo repository.ProfileRepository, logger zerolog.Logger) ProfileService {
	return &profileService{
		profileRepo: profileRepo,
		logger:      logger.With().Str("service", "profile").Logger(),
	}
}

func (s *profileService) Get(ctx context.Context, caller model.Identity) (*model.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile != nil {
		return profile, nil
	}

	profile, err = s.profileRepo.CreateIfMissing(ctx, newProfile(caller))
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.Info().Str("user_id", caller.UserID).Msg("profile created on first access")
	return profile, nil
}

func (s *profileService) Update(ctx context.Context, caller model.Identity, input *model.UpdateProfileInput) (*model.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		profile = newProfile(caller)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, model.NewValidationError("name", "name cannot be empty")
		}
		profile.Name = name
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone == "" {
			profile.Phone = nil
		} else {
			profile.Phone = &phone
		}
	}
	if input.Address != nil {
		profile.Address = strings.TrimSpace(*input.Address)
	}
	profile.UpdatedAt = time.Now().UTC()

	saved, err := s.profileRepo.Upsert(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	s.logger.Info().Str("user_id", caller.UserID).Msg("profile updated")
	return saved, nil
}

func newProfile(caller model.Identity) *model.Profile {
	now := time.Now().UTC()
	return &model.Profile{
		UserID:    caller.UserID,
		Name:      caller.DisplayName(defaultDisplayName),
		Email:     caller.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
