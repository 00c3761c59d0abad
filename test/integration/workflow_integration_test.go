package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"foodshare/internal/model"
	"foodshare/internal/repository"
	"foodshare/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestService_AcceptRacesCancel_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	logger := zerolog.Nop()

	listingRepo := repository.NewListingRepository(testDB.Pool, logger)
	requestRepo := repository.NewRequestRepository(testDB.Pool, logger)
	profileRepo := repository.NewProfileRepository(testDB.Pool, logger)

	listings := service.NewListingService(listingRepo, requestRepo, profileRepo, logger)
	requests := service.NewRequestService(requestRepo, listingRepo, profileRepo, nil, logger)

	donor := model.Identity{UserID: "bob", Name: "Bob"}
	requester := model.Identity{UserID: "alice", Name: "Alice"}
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		CleanupDB(t, testDB.Pool)

		lat, lng := 51.5, -0.12
		expiry := time.Now().Add(time.Hour)
		listing, err := listings.Create(ctx, donor, &model.CreateListingInput{
			FoodName:     "Soup",
			Description:  "Leek and potato",
			PhotoURL:     "/media/listings/soup.png",
			ExpiryAt:     &expiry,
			LocationText: "3 High Street",
			Lat:          &lat,
			Lng:          &lng,
		})
		require.NoError(t, err)

		req, created, err := requests.Toggle(ctx, requester, &model.ToggleRequestInput{
			ListingID: listing.ID.String(),
			Action:    model.ActionRequest,
		})
		require.NoError(t, err)
		require.True(t, created)

		var (
			wg                    sync.WaitGroup
			acceptErr, cancelErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, acceptErr = requests.Accept(ctx, donor, req.ID, &model.AcceptRequestInput{Name: "Bob", Phone: "0123 456789"})
		}()
		go func() {
			defer wg.Done()
			_, cancelErr = requests.Cancel(ctx, requester, req.ID)
		}()
		wg.Wait()

		// Exactly one side wins; the loser sees an invalid transition.
		if acceptErr == nil {
			assert.True(t, errors.Is(cancelErr, model.ErrInvalidStateTransition), "cancel: %v", cancelErr)
		} else {
			assert.NoError(t, cancelErr)
			assert.True(t, errors.Is(acceptErr, model.ErrInvalidStateTransition), "accept: %v", acceptErr)
		}

		stored, err := requestRepo.GetByID(ctx, req.ID)
		require.NoError(t, err)
		reloaded, err := listingRepo.GetByID(ctx, listing.ID)
		require.NoError(t, err)

		if acceptErr == nil {
			assert.Equal(t, model.StatusAccepted, stored.Status)
			require.NotNil(t, stored.DonorDetails)
			assert.Equal(t, "3 High Street", stored.DonorDetails.Address)
			assert.True(t, reloaded.Completed)
		} else {
			assert.Equal(t, model.StatusCancelled, stored.Status)
			assert.Nil(t, stored.DonorDetails)
			assert.False(t, reloaded.Completed)
		}
	}
}
