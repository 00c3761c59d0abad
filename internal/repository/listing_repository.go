package repository

import (
	"context"
	"errors"
	"fmt"

	"foodshare/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const listingColumns = `id, donor_id, donor_name, food_name, description, photo_url,
	expiry_at, location_text, lat, lng, completed, created_at, updated_at`

// listingRepository implements the ListingRepository interface using PostgreSQL.
type listingRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewListingRepository creates a new PostgreSQL-backed listing repository.
func NewListingRepository(pool *pgxpool.Pool, logger zerolog.Logger) ListingRepository {
	return &listingRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "listing").Logger(),
	}
}

func scanListing(row pgx.Row, l *model.Listing) error {
	return row.Scan(
		&l.ID,
		&l.DonorID,
		&l.DonorName,
		&l.FoodName,
		&l.Description,
		&l.PhotoURL,
		&l.ExpiryAt,
		&l.LocationText,
		&l.Lat,
		&l.Lng,
		&l.Completed,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
}

func collectListings(rows pgx.Rows) ([]model.Listing, error) {
	defer rows.Close()

	listings := []model.Listing{}
	for rows.Next() {
		var l model.Listing
		if err := scanListing(rows, &l); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}

	return listings, nil
}

// List returns one page of listings filtered by search text and ordered by the query sort.
func (r *listingRepository) List(ctx context.Context, q model.ListingQuery) ([]model.Listing, error) {
	orderBy := "created_at DESC, id"
	if q.Sort == model.SortByExpiryAt {
		orderBy = "expiry_at ASC, id"
	}

	query := `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE $1 = '' OR food_name ILIKE $2 OR location_text ILIKE $2
		ORDER BY ` + orderBy + `
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, q.Search, likePattern(q.Search), q.Limit, q.Offset())
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", q.Limit).
			Int("page", q.Page).
			Msg("failed to query listings")
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}

	listings, err := collectListings(rows)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to read listing rows")
		return nil, err
	}

	return listings, nil
}

// GetByID returns nil, nil when the listing does not exist.
func (r *listingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`

	var l model.Listing
	if err := scanListing(r.pool.QueryRow(ctx, query, id), &l); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("listing_id", id.String()).Msg("listing not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("listing_id", id.String()).Msg("failed to query listing")
		return nil, fmt.Errorf("failed to query listing: %w", err)
	}

	return &l, nil
}

// GetByIDs retrieves multiple listings in one round trip.
func (r *listingRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Listing, error) {
	if len(ids) == 0 {
		return []model.Listing{}, nil
	}

	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query listings by IDs")
		return nil, fmt.Errorf("failed to query listings by IDs: %w", err)
	}

	return collectListings(rows)
}

// Create inserts a new listing.
func (r *listingRepository) Create(ctx context.Context, l *model.Listing) error {
	query := `
		INSERT INTO listings (` + listingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		l.ID, l.DonorID, l.DonorName, l.FoodName, l.Description, l.PhotoURL,
		l.ExpiryAt, l.LocationText, l.Lat, l.Lng, l.Completed, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("listing_id", l.ID.String()).Msg("failed to create listing")
		return fmt.Errorf("failed to create listing: %w", err)
	}

	r.logger.Debug().Str("listing_id", l.ID.String()).Msg("listing created")
	return nil
}

// Update overwrites the mutable fields. The completed flag is never cleared, and
// completing the listing rejects its Pending requests in the same transaction.
func (r *listingRepository) Update(ctx context.Context, l *model.Listing) error {
	query := `
		UPDATE listings
		SET food_name = $2,
			description = $3,
			photo_url = $4,
			expiry_at = $5,
			location_text = $6,
			lat = $7,
			lng = $8,
			completed = completed OR $9,
			updated_at = $10
		WHERE id = $1
		RETURNING completed
	`

	var rejected int64
	err := withTx(ctx, r.pool, r.logger, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query,
			l.ID, l.FoodName, l.Description, l.PhotoURL, l.ExpiryAt,
			l.LocationText, l.Lat, l.Lng, l.Completed, l.UpdatedAt,
		).Scan(&l.Completed)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrListingNotFound
			}
			return fmt.Errorf("failed to update listing: %w", err)
		}
		if !l.Completed {
			return nil
		}

		// A completed listing keeps no Pending requests.
		tag, err := tx.Exec(ctx, `
			UPDATE requests SET status = $2, updated_at = $3
			WHERE listing_id = $1 AND status = $4
		`, l.ID, model.StatusRejected, l.UpdatedAt, model.StatusPending)
		if err != nil {
			return fmt.Errorf("failed to reject pending requests: %w", err)
		}
		rejected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		if _, ok := model.AsDomainError(err); !ok {
			r.logger.Error().Err(err).Str("listing_id", l.ID.String()).Msg("failed to update listing")
		}
		return err
	}

	if rejected > 0 {
		r.logger.Info().
			Str("listing_id", l.ID.String()).
			Int64("rejected", rejected).
			Msg("pending requests rejected on completed listing")
	}
	return nil
}

// Delete removes the listing and every request that references it.
func (r *listingRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	found := false

	err := withTx(ctx, r.pool, r.logger, func(tx pgx.Tx) error {
		// Lock the listing before its requests, matching the accept lock order.
		var locked uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM listings WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("failed to lock listing: %w", err)
		}
		found = true

		tag, err := tx.Exec(ctx, `DELETE FROM requests WHERE listing_id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete listing requests: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete listing: %w", err)
		}

		r.logger.Debug().
			Str("listing_id", id.String()).
			Int64("requests_deleted", tag.RowsAffected()).
			Msg("listing deleted")
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Str("listing_id", id.String()).Msg("failed to delete listing")
		return false, err
	}

	return found, nil
}
