package model

import (
	"strings"
	"time"
)

// Profile holds the contact details a user may disclose to requesters.
type Profile struct {
	UserID    string    `json:"uid" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     *string   `json:"phone" db:"phone"`
	Address   string    `json:"address" db:"address"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// UpdateProfileInput is a partial profile overwrite.
type UpdateProfileInput struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=100"`
	Phone   *string `json:"phone" validate:"omitempty,phone"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

// Identity is the verified caller behind a bearer token.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// DisplayName derives a display name from the token claims.
func (i Identity) DisplayName(fallback string) string {
	if name := strings.TrimSpace(i.Name); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(i.Email, "@"); ok && local != "" {
		return local
	}
	return fallback
}
