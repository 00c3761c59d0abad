package model

import (
	"time"

	"github.com/google/uuid"
)

// Listing is a posted food donation.
type Listing struct {
	ID           uuid.UUID `json:"id" db:"id"`
	DonorID      string    `json:"donorId" db:"donor_id"`
	DonorName    string    `json:"donorName" db:"donor_name"`
	FoodName     string    `json:"foodName" db:"food_name"`
	Description  string    `json:"description" db:"description"`
	PhotoURL     string    `json:"photoUrl" db:"photo_url"`
	ExpiryAt     time.Time `json:"expiryAt" db:"expiry_at"`
	LocationText string    `json:"locationText" db:"location_text"`
	Lat          float64   `json:"lat" db:"lat"`
	Lng          float64   `json:"lng" db:"lng"`
	Completed    bool      `json:"completed" db:"completed"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// ListingItem is a listing annotated for the calling user.
type ListingItem struct {
	Listing
	RequestedByMe bool `json:"requestedByMe"`
}

// ListingSummary is the subset of a listing embedded in request listings.
type ListingSummary struct {
	ID           uuid.UUID `json:"id"`
	FoodName     string    `json:"foodName"`
	ExpiryAt     time.Time `json:"expiryAt"`
	DonorName    string    `json:"donorName"`
	LocationText string    `json:"locationText"`
}

// Summary returns the embedded summary view of the listing.
func (l *Listing) Summary() *ListingSummary {
	return &ListingSummary{
		ID:           l.ID,
		FoodName:     l.FoodName,
		ExpiryAt:     l.ExpiryAt,
		DonorName:    l.DonorName,
		LocationText: l.LocationText,
	}
}

// ListingSort selects the ordering of a listing page.
type ListingSort string

const (
	SortByCreatedAt ListingSort = "createdAt"
	SortByExpiryAt  ListingSort = "expiryAt"
)

// ListingQuery describes one page of the listing browse view.
type ListingQuery struct {
	Page             int
	Limit            int
	Search           string
	Sort             ListingSort
	IncludeRequested bool
}

// Offset returns the row offset of the requested page.
func (q ListingQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// CreateListingInput is the validated payload for a new listing.
type CreateListingInput struct {
	FoodName     string     `json:"foodName" validate:"required,max=120"`
	Description  string     `json:"description" validate:"required,max=2000"`
	PhotoURL     string     `json:"photoUrl" validate:"required,max=2048"`
	ExpiryAt     *time.Time `json:"expiryAt" validate:"required"`
	LocationText string     `json:"locationText" validate:"required,max=500"`
	Lat          *float64   `json:"lat" validate:"required,latitude"`
	Lng          *float64   `json:"lng" validate:"required,longitude"`
}

// UpdateListingInput is a partial overwrite; nil fields are left untouched.
type UpdateListingInput struct {
	FoodName     *string    `json:"foodName" validate:"omitempty,min=1,max=120"`
	Description  *string    `json:"description" validate:"omitempty,min=1,max=2000"`
	PhotoURL     *string    `json:"photoUrl" validate:"omitempty,min=1,max=2048"`
	ExpiryAt     *time.Time `json:"expiryAt"`
	LocationText *string    `json:"locationText" validate:"omitempty,min=1,max=500"`
	Lat          *float64   `json:"lat" validate:"omitempty,latitude"`
	Lng          *float64   `json:"lng" validate:"omitempty,longitude"`
	Completed    *bool      `json:"completed"`
}

// Apply overwrites the listing fields present in the input.
func (in *UpdateListingInput) Apply(l *Listing) {
	if in.FoodName != nil {
		l.FoodName = *in.FoodName
	}
	if in.Description != nil {
		l.Description = *in.Description
	}
	if in.PhotoURL != nil {
		l.PhotoURL = *in.PhotoURL
	}
	if in.ExpiryAt != nil {
		l.ExpiryAt = *in.ExpiryAt
	}
	if in.LocationText != nil {
		l.LocationText = *in.LocationText
	}
	if in.Lat != nil {
		l.Lat = *in.Lat
	}
	if in.Lng != nil {
		l.Lng = *in.Lng
	}
	if in.Completed != nil && *in.Completed {
		l.Completed = true
	}
}
