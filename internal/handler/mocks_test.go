package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"foodshare/internal/geocode"
	"foodshare/internal/middleware"
	"foodshare/internal/model"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/mock"
)

// MockListingService is a mock implementation of ListingService.
type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) List(ctx context.Context, caller *model.Identity, query model.ListingQuery) (*model.Page[model.ListingItem], error) {
	args := m.Called(ctx, caller, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page[model.ListingItem]), args.Error(1)
}

func (m *MockListingService) GetByID(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *MockListingService) Create(ctx context.Context, caller model.Identity, input *model.CreateListingInput) (*model.Listing, error) {
	args := m.Called(ctx, caller, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *MockListingService) Update(ctx context.Context, caller model.Identity, id uuid.UUID, input *model.UpdateListingInput) (*model.Listing, error) {
	args := m.Called(ctx, caller, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *MockListingService) Delete(ctx context.Context, caller model.Identity, id uuid.UUID) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

// MockRequestService is a mock implementation of RequestService.
type MockRequestService struct {
	mock.Mock
}

func (m *MockRequestService) Toggle(ctx context.Context, caller model.Identity, input *model.ToggleRequestInput) (*model.Request, bool, error) {
	args := m.Called(ctx, caller, input)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Request), args.Bool(1), args.Error(2)
}

func (m *MockRequestService) Cancel(ctx context.Context, caller model.Identity, id uuid.UUID) (*model.Request, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Request), args.Error(1)
}

func (m *MockRequestService) Reject(ctx context.Context, caller model.Identity, id uuid.UUID) (*model.Request, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Request), args.Error(1)
}

func (m *MockRequestService) Accept(ctx context.Context, caller model.Identity, id uuid.UUID, input *model.AcceptRequestInput) (*model.Request, error) {
	args := m.Called(ctx, caller, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Request), args.Error(1)
}

func (m *MockRequestService) List(ctx context.Context, caller model.Identity, tab model.RequestTab, page, limit int) (*model.Page[model.RequestItem], error) {
	args := m.Called(ctx, caller, tab, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page[model.RequestItem]), args.Error(1)
}

func (m *MockRequestService) Stats(ctx context.Context, caller model.Identity) (*model.RequestStats, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RequestStats), args.Error(1)
}

// MockProfileService is a mock implementation of ProfileService.
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Get(ctx context.Context, caller model.Identity) (*model.Profile, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockProfileService) Update(ctx context.Context, caller model.Identity, input *model.UpdateProfileInput) (*model.Profile, error) {
	args := m.Called(ctx, caller, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

// MockStore is a mock implementation of media.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	args := m.Called(ctx, key, contentType, body)
	return args.String(0), args.Error(1)
}

// MockUploadRecorder is a mock implementation of UploadRecorder.
type MockUploadRecorder struct {
	mock.Mock
}

func (m *MockUploadRecorder) RecordUpload(outcome string) {
	m.Called(outcome)
}

// MockGeocoder is a mock implementation of geocode.Geocoder.
type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	args := m.Called(ctx, lat, lng)
	return args.String(0), args.Error(1)
}

func (m *MockGeocoder) Forward(ctx context.Context, address string) (*geocode.Location, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geocode.Location), args.Error(1)
}

// newRequest builds a test request with an optional caller and path id.
func newRequest(method, target, body string, caller *model.Identity, id string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), caller))
	}
	if id != "" {
		req = mux.SetURLVars(req, map[string]string{"id": id})
	}
	return req
}
