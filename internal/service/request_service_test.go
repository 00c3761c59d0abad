package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodshare/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type requestMocks struct {
	requests *MockRequestRepository
	listings *MockListingRepository
	profiles *MockProfileRepository
	recorder *MockRecorder
}

func newRequestServiceUnderTest() (RequestService, *requestMocks) {
	m := &requestMocks{
		requests: new(MockRequestRepository),
		listings: new(MockListingRepository),
		profiles: new(MockProfileRepository),
		recorder: new(MockRecorder),
	}
	return NewRequestService(m.requests, m.listings, m.profiles, m.recorder, zerolog.Nop()), m
}

func testRequest(listing *model.Listing, requesterID string, status model.RequestStatus) *model.Request {
	now := time.Now().UTC()
	return &model.Request{
		ID:          uuid.New(),
		ListingID:   listing.ID,
		DonorID:     listing.DonorID,
		RequesterID: requesterID,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestRequestService_ToggleRequest(t *testing.T) {
	ctx := context.Background()
	requester := model.Identity{UserID: "alice"}

	t.Run("Creates pending request", func(t *testing.T) {
		svc, m := newRequestServiceUnderTest()
		listing := testListing("bob")
		m.listings.On("GetByID", ctx, listing.ID).Return(listing, nil)
		m.requests.On("FindOpen", ctx, listing.ID, "alice").Return(nil, nil)
		stored := testRequest(listing, "alice", model.StatusPending)
		m.requests.On("Create", ctx, mock.MatchedBy(func(r *model.Request) bool {
			return r.Status == model.StatusPending && r.DonorID == "bob" && r.RequesterID == "alice"
		})).Return(stored, true, nil)
		m.recorder.On("RecordTransition", "", "Pending", 1).Return()

		req, created, err := svc.Toggle(ctx, requester, &model.ToggleRequestInput{
			ListingID: listing.ID.String(), Action: model.ActionRequest,
		})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, stored.ID, req.ID)
		m.recorder.AssertExpectations(t)
	})

	t.Run("Returns existing open request", func(t *testing.T) {
		svc, m := newRequestServiceUnderTest()
		listing := testListing("bob")
		listing.Completed = true
		existing := testRequest(listing, "alice", model.StatusAccepted)
		m.listings.On("GetByID", ctx, listing.ID).Return(listing, nil)
		m.requests.On("FindOpen", ctx, listing.ID, "alice").Return(existing, nil)

		req, created, err := svc.Toggle(ctx, requester, &model.ToggleRequestInput{
			ListingID: listing.ID.String(), Action: model.ActionRequest,
		})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, existing.ID, req.ID)
		m.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Self request rejected", func(t *testing.T) {
		svc, m := newRequestServiceUnderTest()
		listing := testListing("alice")
		m.listings.On("GetByID", ctx, listing.ID).Return(listing, nil)

		_, _, err := svc.Toggle(ctx, requester, &model.ToggleRequestInput{
			ListingID: listing.ID.String(), Action: model.ActionRequest,
		})
		assert.ErrorIs(t, err, model.ErrSelfRequest)
	})

	t.Run("Completed listing rejected", func(t *testing.T) {
		svc, m := newRequestServiceUnderTest()
		listing := testListing("bob")
		listing.Completed = true
		m.listings.On("GetByID", ctx, listing.ID).Return(listing, nil)
		m.requests.On("FindOpen", ctx, listing.ID, "alice").Return(nil, nil)

		_, _, err := svc.Toggle(ctx, requester, &model.ToggleRequestInput{
			ListingID: listing.ID.String(), Action: model.ActionRequest,
		})
		assert.ErrorIs(t, err, model.ErrListingCompleted)
	})

	t.Run("Unknown listing", func(t *testing.T) {
		svc, m := newRequestServiceUnderTest()
		id := uuid.New()
		m.listings.On("GetByID", ctx, id).Return(nil, nil)

		_, _, err := svc.Toggle(ctx, requester, &model.ToggleRequestInput{ListingID: id.String(), Action: model.ActionRequest})
		assert.ErrorIs(t, err, model.ErrListingNotFound)
	})

	t.Run("Malformed listing id", func(t *testing.T) {
		svc, _ := newRequestServiceUnderTest()

		_, _, err := svc.Toggle(ctx, requester, &model.ToggleRequestInput{ListingID: "nope", Action: model.ActionRequest})
		de, ok := model.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "listingId", de.Field)
	})
}

func TestRequestService_ToggleCancel(t *testing.T) {
	ctx := context.Background()
	requester := model.Identity{UserID: "alice"}
	listing := testListing("bob")

	t.Run("Cancels pending request", func(t *testing.T) {
		svc, m := newRequestServiceUnderTest()
		pending := testRequest(listing, "alice", model.StatusPending)
		cancelled := *pending
		cancelled.Status = model.StatusCancelled
		m.requests.On("FindPending", ctx, listing.ID, "alice").Return(pending, nil)
		m.requests.On("Transition", ctx, pending.ID, model.StatusPending, model.StatusCancelled).Return(&cancelled, nil)
		m.recorder.On("RecordTransition", "Pending", "Cancelled", 1).Return()

		req, created, err := svc.Toggle(ctx, requester, &model.ToggleRequestInput{
			ListingID: listing.ID.String(), Action: model.ActionCancel,
		})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, model.StatusCancelled, req.Status)
	})

	t.Run("Nothing to cancel", func(t *testing.T) {
		svc, m := newRequestServiceUnderTest()
		m.requests.On("FindPending", ctx, listing.ID, "alice").Return(nil, nil)

		_, _, err := svc.Toggle(ctx, requester, &model.ToggleRequestInput{
			ListingID: listing.ID.String(), Action: model.ActionCancel,
		})
		assert.ErrorIs(t, err, model.ErrNoPendingRequest)
	})
}

func TestRequestService_CancelAndReject(t *testing.T) {
	ctx := context.Background()
	listing := testListing("bob")

	tests := []struct {
		name        string
		caller      string
		status      model.RequestStatus
		action      func(RequestService, model.Identity, uuid.UUID) (*model.Request, error)
		to          model.RequestStatus
		expectedErr error
	}{
		{
			name:   "Requester cancels",
			caller: "alice",
			status: model.StatusPending,
			action: func(s RequestService, c model.Identity, id uuid.UUID) (*model.Request, error) {
				return s.Cancel(ctx, c, id)
			},
			to: model.StatusCancelled,
		},
		{
			name:   "Donor cannot cancel",
			caller: "bob",
			status: model.StatusPending,
			action: func(s RequestService, c model.Identity, id uuid.UUID) (*model.Request, error) {
				return s.Cancel(ctx, c, id)
			},
			expectedErr: model.ErrForbidden,
		},
		{
			name:   "Cancel after accept",
			caller: "alice",
			status: model.StatusAccepted,
			action: func(s RequestService, c model.Identity, id uuid.UUID) (*model.Request, error) {
				return s.Cancel(ctx, c, id)
			},
			expectedErr: model.ErrInvalidStateTransition,
		},
		{
			name:   "Donor rejects",
			caller: "bob",
			status: model.StatusPending,
			action: func(s RequestService, c model.Identity, id uuid.UUID) (*model.Request, error) {
				return s.Reject(ctx, c, id)
			},
			to: model.StatusRejected,
		},
		{
			name:   "Requester cannot reject",
			caller: "alice",
			status: model.StatusPending,
			action: func(s RequestService, c model.Identity, id uuid.UUID) (*model.Request, error) {
				return s.Reject(ctx, c, id)
			},
			expectedErr: model.ErrForbidden,
		},
		{
			name:   "Reject cancelled request",
			caller: "bob",
			status: model.StatusCancelled,
			action: func(s RequestService, c model.Identity, id uuid.UUID) (*model.Request, error) {
				return s.Reject(ctx, c, id)
			},
			expectedErr: model.ErrInvalidStateTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newRequestServiceUnderTest()
			req := testRequest(listing, "alice", tt.status)
			m.requests.On("GetByID", ctx, req.ID).Return(req, nil)

			if tt.expectedErr == nil {
				updated := *req
				updated.Status = tt.to
				m.requests.On("Transition", ctx, req.ID, model.StatusPending, tt.to).Return(&updated, nil)
				m.recorder.On("RecordTransition", "Pending", string(tt.to), 1).Return()
			}

			result, err := tt.action(svc, model.Identity{UserID: tt.caller}, req.ID)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, result)
				m.requests.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.to, result.Status)
			m.requests.AssertExpectations(t)
		})
	}

	t.Run("Lost race surfaces invalid transition", func(t *testing.T) {
		svc, m := newRequestServiceUnderTest()
		req := testRequest(listing, "alice", model.StatusPending)
		m.requests.On("GetByID", ctx, req.ID).Return(req, nil)
		m.requests.On("Transition", ctx, req.ID, model.StatusPending, model.StatusCancelled).
			Return(nil, model.ErrInvalidStateTransition)

		_, err := svc.Cancel(ctx, model.Identity{UserID: "alice"}, req.ID)
		assert.ErrorIs(t, err, model.ErrInvalidStateTransition)
		m.recorder.AssertNotCalled(t, "RecordTransition", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown request", func(t *testing.T) {
		svc, m := newRequestServiceUnderTest()
		id := uuid.New()
		m.requests.On("GetByID", ctx, id).Return(nil, nil)

		_, err := svc.Reject(ctx, model.Identity{UserID: "bob"}, id)
		assert.ErrorIs(t, err, model.ErrRequestNotFound)
	})
}

func TestRequestService_Accept(t *testing.T) {
	ctx := context.Background()
	donor := model.Identity{UserID: "bob"}

	tests := []struct {
		name            string
		input           *model.AcceptRequestInput
		profile         *model.Profile
		locationText    string
		expectedContact model.ContactDetails
		expectedErr     error
	}{
		{
			name:            "Profile supplies all details",
			input:           &model.AcceptRequestInput{},
			profile:         &model.Profile{Name: "Bob", Phone: ptr("555-0100"), Address: "1 Oak Ave"},
			expectedContact: model.ContactDetails{Name: "Bob", Phone: "555-0100", Address: "1 Oak Ave"},
		},
		{
			name:            "Override wins over profile",
			input:           &model.AcceptRequestInput{Name: "Robert", Phone: "555-0199"},
			profile:         &model.Profile{Name: "Bob", Phone: ptr("555-0100"), Address: "1 Oak Ave"},
			expectedContact: model.ContactDetails{Name: "Robert", Phone: "555-0199", Address: "1 Oak Ave"},
		},
		{
			name:            "Override fills missing profile phone",
			input:           &model.AcceptRequestInput{Phone: "555-0142"},
			profile:         &model.Profile{Name: "Bob"},
			locationText:    "Community Fridge",
			expectedContact: model.ContactDetails{Name: "Bob", Phone: "555-0142", Address: "Community Fridge"},
		},
		{
			name:            "No profile but full override",
			input:           &model.AcceptRequestInput{Name: "Bob", Phone: "555-0100"},
			locationText:    "Corner Shop",
			expectedContact: model.ContactDetails{Name: "Bob", Phone: "555-0100", Address: "Corner Shop"},
		},
		{
			name:        "Missing phone everywhere",
			input:       &model.AcceptRequestInput{},
			profile:     &model.Profile{Name: "Bob"},
			expectedErr: model.ErrProfileIncomplete,
		},
		{
			name:        "No profile and no override",
			input:       nil,
			expectedErr: model.ErrProfileIncomplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newRequestServiceUnderTest()
			listing := testListing("bob")
			if tt.locationText != "" {
				listing.LocationText = tt.locationText
			}
			req := testRequest(listing, "alice", model.StatusPending)

			m.requests.On("GetByID", ctx, req.ID).Return(req, nil)
			m.listings.On("GetByID", ctx, listing.ID).Return(listing, nil)
			if tt.profile != nil {
				m.profiles.On("GetByUserID", ctx, "bob").Return(tt.profile, nil)
			} else {
				m.profiles.On("GetByUserID", ctx, "bob").Return(nil, nil)
			}

			if tt.expectedErr == nil {
				accepted := *req
				accepted.Status = model.StatusAccepted
				accepted.DonorDetails = &tt.expectedContact
				m.requests.On("Accept", ctx, req.ID, "bob", tt.expectedContact).Return(&accepted, int64(2), nil)
				m.recorder.On("RecordTransition", "Pending", "Accepted", 1).Return()
				m.recorder.On("RecordTransition", "Pending", "Rejected", 2).Return()
			}

			result, err := svc.Accept(ctx, donor, req.ID, tt.input)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				m.requests.AssertNotCalled(t, "Accept", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, model.StatusAccepted, result.Status)
			assert.Equal(t, tt.expectedContact, *result.DonorDetails)
			m.requests.AssertExpectations(t)
			m.recorder.AssertExpectations(t)
		})
	}
}

func TestRequestService_AcceptGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("Only the donor may accept", func(t *testing.T) {
		svc, m := newRequestServiceUnderTest()
		listing := testListing("bob")
		req := testRequest(listing, "alice", model.StatusPending)
		m.requests.On("GetByID", ctx, req.ID).Return(req, nil)

		_, err := svc.Accept(ctx, model.Identity{UserID: "alice"}, req.ID, &model.AcceptRequestInput{})
		assert.ErrorIs(t, err, model.ErrForbidden)
	})

	t.Run("Non-pending request", func(t *testing.T) {
		svc, m := newRequestServiceUnderTest()
		listing := testListing("bob")
		req := testRequest(listing, "alice", model.StatusRejected)
		m.requests.On("GetByID", ctx, req.ID).Return(req, nil)

		_, err := svc.Accept(ctx, model.Identity{UserID: "bob"}, req.ID, &model.AcceptRequestInput{})
		assert.ErrorIs(t, err, model.ErrInvalidStateTransition)
	})

	t.Run("Completed listing", func(t *testing.T) {
		svc, m := newRequestServiceUnderTest()
		listing := testListing("bob")
		listing.Completed = true
		req := testRequest(listing, "alice", model.StatusPending)
		m.requests.On("GetByID", ctx, req.ID).Return(req, nil)
		m.listings.On("GetByID", ctx, listing.ID).Return(listing, nil)

		_, err := svc.Accept(ctx, model.Identity{UserID: "bob"}, req.ID, &model.AcceptRequestInput{})
		assert.ErrorIs(t, err, model.ErrListingCompleted)
	})

	t.Run("Concurrent winner surfaces repository error", func(t *testing.T) {
		svc, m := newRequestServiceUnderTest()
		listing := testListing("bob")
		req := testRequest(listing, "alice", model.StatusPending)
		m.requests.On("GetByID", ctx, req.ID).Return(req, nil)
		m.listings.On("GetByID", ctx, listing.ID).Return(listing, nil)
		m.profiles.On("GetByUserID", ctx, "bob").Return(&model.Profile{Name: "Bob", Phone: ptr("1")}, nil)
		m.requests.On("Accept", ctx, req.ID, "bob", mock.Anything).Return(nil, int64(0), model.ErrListingCompleted)

		_, err := svc.Accept(ctx, model.Identity{UserID: "bob"}, req.ID, nil)
		assert.ErrorIs(t, err, model.ErrListingCompleted)
		m.recorder.AssertNotCalled(t, "RecordTransition", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRequestService_List(t *testing.T) {
	ctx := context.Background()
	caller := model.Identity{UserID: "alice"}

	listing := testListing("bob")
	r1 := *testRequest(listing, "alice", model.StatusPending)
	r2 := *testRequest(listing, "alice", model.StatusCancelled)

	t.Run("Joins listing summaries in one lookup", func(t *testing.T) {
		svc, m := newRequestServiceUnderTest()
		m.requests.On("ListBySide", ctx, model.TabSent, "alice", 2, 2).Return([]model.Request{r1, r2}, nil)
		m.listings.On("GetByIDs", ctx, []uuid.UUID{listing.ID}).Return([]model.Listing{*listing}, nil)

		page, err := svc.List(ctx, caller, "bogus", 2, 2)
		require.NoError(t, err)
		require.Len(t, page.Data, 2)
		assert.Equal(t, listing.FoodName, page.Data[0].Listing.FoodName)
		assert.True(t, page.HasMore)
		assert.Equal(t, 2, page.Page)
	})

	t.Run("Deleted listing leaves summary empty", func(t *testing.T) {
		svc, m := newRequestServiceUnderTest()
		m.requests.On("ListBySide", ctx, model.TabReceived, "alice", 10, 0).Return([]model.Request{r1}, nil)
		m.listings.On("GetByIDs", ctx, []uuid.UUID{listing.ID}).Return([]model.Listing{}, nil)

		page, err := svc.List(ctx, caller, model.TabReceived, 0, 0)
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Nil(t, page.Data[0].Listing)
		assert.False(t, page.HasMore)
	})

	t.Run("Repository error", func(t *testing.T) {
		svc, m := newRequestServiceUnderTest()
		m.requests.On("ListBySide", ctx, model.TabSent, "alice", 10, 0).Return(nil, errors.New("db down"))

		_, err := svc.List(ctx, caller, model.TabSent, 1, 10)
		assert.Error(t, err)
	})
}

func TestRequestService_Stats(t *testing.T) {
	ctx := context.Background()
	svc, m := newRequestServiceUnderTest()

	m.requests.On("CountPending", ctx, "alice").Return(&model.RequestStats{SentPendingCount: 2, ReceivedPendingCount: 5}, nil)

	stats, err := svc.Stats(ctx, model.Identity{UserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.SentPendingCount)
	assert.Equal(t, int64(5), stats.ReceivedPendingCount)
}
