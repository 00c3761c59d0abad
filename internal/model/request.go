package model

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the position of a pickup request in its workflow.
type RequestStatus string

const (
	StatusPending   RequestStatus = "Pending"
	StatusAccepted  RequestStatus = "Accepted"
	StatusRejected  RequestStatus = "Rejected"
	StatusCancelled RequestStatus = "Cancelled"
)

// Terminal reports whether no further transition is possible.
func (s RequestStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusCancelled
}

// Open reports whether the status counts towards the one-open-request-per-listing rule.
func (s RequestStatus) Open() bool {
	return s == StatusPending || s == StatusAccepted
}

// ContactDetails is the donor contact snapshot disclosed on accept.
type ContactDetails struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Request is a requester's claim against a listing.
type Request struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	ListingID    uuid.UUID       `json:"listingId" db:"listing_id"`
	DonorID      string          `json:"donorId" db:"donor_id"`
	RequesterID  string          `json:"requesterId" db:"requester_id"`
	Status       RequestStatus   `json:"status" db:"status"`
	DonorDetails *ContactDetails `json:"donorDetails,omitempty"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

// RequestItem is a request joined with the listing it targets.
type RequestItem struct {
	Request
	Listing *ListingSummary `json:"listing"`
}

// RequestTab selects which side of the workflow a caller is browsing.
type RequestTab string

const (
	TabSent     RequestTab = "sent"
	TabReceived RequestTab = "received"
)

// RequestAction is the toggle action accepted by POST /requests.
type RequestAction string

const (
	ActionRequest RequestAction = "request"
	ActionCancel  RequestAction = "cancel"
)

// ToggleRequestInput is the payload of POST /requests.
type ToggleRequestInput struct {
	ListingID string        `json:"listingId" validate:"required,uuid"`
	Action    RequestAction `json:"action" validate:"required,oneof=request cancel"`
}

// AcceptRequestInput carries optional contact overrides for accept.
type AcceptRequestInput struct {
	Name  string `json:"name" validate:"omitempty,max=100"`
	Phone string `json:"phone" validate:"omitempty,phone"`
}

// RequestStats feeds the notification badges.
type RequestStats struct {
	SentPendingCount     int64 `json:"sentPendingCount"`
	ReceivedPendingCount int64 `json:"receivedPendingCount"`
}
