package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"foodshare/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const requestColumns = `id, listing_id, donor_id, requester_id, status,
	donor_contact_name, donor_contact_phone, donor_contact_address, created_at, updated_at`

// requestRepository implements the RequestRepository interface using PostgreSQL.
type requestRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewRequestRepository creates a new PostgreSQL-backed request repository.
func NewRequestRepository(pool *pgxpool.Pool, logger zerolog.Logger) RequestRepository {
	return &requestRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "request").Logger(),
	}
}

func scanRequest(row pgx.Row, req *model.Request) error {
	var name, phone, address *string
	err := row.Scan(
		&req.ID,
		&req.ListingID,
		&req.DonorID,
		&req.RequesterID,
		&req.Status,
		&name,
		&phone,
		&address,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return err
	}

	req.DonorDetails = nil
	if name != nil {
		req.DonorDetails = &model.ContactDetails{Name: *name}
		if phone != nil {
			req.DonorDetails.Phone = *phone
		}
		if address != nil {
			req.DonorDetails.Address = *address
		}
	}

	return nil
}

func queryRequest(q pgx.Row) (*model.Request, error) {
	var req model.Request
	if err := scanRequest(q, &req); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// GetByID returns nil, nil when the request does not exist.
func (r *requestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`

	req, err := queryRequest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		r.logger.Error().Err(err).Str("request_id", id.String()).Msg("failed to query request")
		return nil, fmt.Errorf("failed to query request: %w", err)
	}
	return req, nil
}

// FindOpen returns the requester's Pending or Accepted request on a listing, or nil.
func (r *requestRepository) FindOpen(ctx context.Context, listingID uuid.UUID, requesterID string) (*model.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE listing_id = $1 AND requester_id = $2 AND status IN ('Pending', 'Accepted')
		ORDER BY created_at DESC
		LIMIT 1
	`

	req, err := queryRequest(r.pool.QueryRow(ctx, query, listingID, requesterID))
	if err != nil {
		r.logger.Error().Err(err).
			Str("listing_id", listingID.String()).
			Str("requester_id", requesterID).
			Msg("failed to query open request")
		return nil, fmt.Errorf("failed to query open request: %w", err)
	}
	return req, nil
}

// FindPending returns the requester's Pending request on a listing, or nil.
func (r *requestRepository) FindPending(ctx context.Context, listingID uuid.UUID, requesterID string) (*model.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE listing_id = $1 AND requester_id = $2 AND status = 'Pending'
		LIMIT 1
	`

	req, err := queryRequest(r.pool.QueryRow(ctx, query, listingID, requesterID))
	if err != nil {
		r.logger.Error().Err(err).
			Str("listing_id", listingID.String()).
			Str("requester_id", requesterID).
			Msg("failed to query pending request")
		return nil, fmt.Errorf("failed to query pending request: %w", err)
	}
	return req, nil
}

// Create inserts a Pending request while holding a share lock on the listing, so it
// serialises with Accept and never lands on a completed listing. A concurrent duplicate
// loses on the partial unique index and the winner's row is returned instead.
func (r *requestRepository) Create(ctx context.Context, req *model.Request) (*model.Request, bool, error) {
	err := withTx(ctx, r.pool, r.logger, func(tx pgx.Tx) error {
		var completed bool
		err := tx.QueryRow(ctx,
			`SELECT completed FROM listings WHERE id = $1 FOR SHARE`, req.ListingID,
		).Scan(&completed)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrListingNotFound
			}
			return fmt.Errorf("failed to lock listing: %w", err)
		}
		if completed {
			return model.ErrListingCompleted
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO requests (id, listing_id, donor_id, requester_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, req.ID, req.ListingID, req.DonorID, req.RequesterID, req.Status, req.CreatedAt, req.UpdatedAt)
		return err
	})
	if err == nil {
		r.logger.Debug().
			Str("request_id", req.ID.String()).
			Str("listing_id", req.ListingID.String()).
			Msg("request created")
		return req, true, nil
	}

	if _, ok := model.AsDomainError(err); ok {
		return nil, false, err
	}
	if !isUniqueViolation(err) {
		r.logger.Error().Err(err).Str("listing_id", req.ListingID.String()).Msg("failed to create request")
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	existing, err := r.FindOpen(ctx, req.ListingID, req.RequesterID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		// The rival row left the open set between our insert and the lookup.
		return nil, false, model.ErrDuplicateRequest
	}

	return existing, false, nil
}

// Transition moves a request between statuses with a compare-and-set guard.
func (r *requestRepository) Transition(ctx context.Context, id uuid.UUID, from, to model.RequestStatus) (*model.Request, error) {
	query := `
		UPDATE requests
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING ` + requestColumns

	req, err := queryRequest(r.pool.QueryRow(ctx, query, id, from, to, time.Now().UTC()))
	if err != nil {
		r.logger.Error().Err(err).Str("request_id", id.String()).Msg("failed to transition request")
		return nil, fmt.Errorf("failed to transition request: %w", err)
	}
	if req == nil {
		return nil, model.ErrInvalidStateTransition
	}

	r.logger.Debug().
		Str("request_id", id.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("request transitioned")
	return req, nil
}

// Accept locks the listing and then the request, re-checks the workflow guards,
// and applies the accept, completion and rival rejection in one transaction.
func (r *requestRepository) Accept(ctx context.Context, id uuid.UUID, donorID string, contact model.ContactDetails) (*model.Request, int64, error) {
	var (
		accepted *model.Request
		rejected int64
	)

	err := withTx(ctx, r.pool, r.logger, func(tx pgx.Tx) error {
		var listingID uuid.UUID
		err := tx.QueryRow(ctx, `SELECT listing_id FROM requests WHERE id = $1`, id).Scan(&listingID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrRequestNotFound
			}
			return fmt.Errorf("failed to read request listing: %w", err)
		}

		var (
			listingDonor string
			completed    bool
		)
		err = tx.QueryRow(ctx,
			`SELECT donor_id, completed FROM listings WHERE id = $1 FOR UPDATE`, listingID,
		).Scan(&listingDonor, &completed)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrListingNotFound
			}
			return fmt.Errorf("failed to lock listing: %w", err)
		}

		req, err := queryRequest(tx.QueryRow(ctx,
			`SELECT `+requestColumns+` FROM requests WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return fmt.Errorf("failed to lock request: %w", err)
		}
		if req == nil {
			return model.ErrRequestNotFound
		}

		if req.DonorID != donorID || listingDonor != donorID {
			return model.ErrForbidden
		}
		if req.Status != model.StatusPending {
			return model.ErrInvalidStateTransition
		}
		if completed {
			return model.ErrListingCompleted
		}

		accepted, rejected, err = applyAccept(ctx, tx, id, listingID, contact)
		return err
	})
	if err != nil {
		if _, ok := model.AsDomainError(err); !ok {
			r.logger.Error().Err(err).Str("request_id", id.String()).Msg("failed to accept request")
		}
		return nil, 0, err
	}

	r.logger.Info().
		Str("request_id", id.String()).
		Str("listing_id", accepted.ListingID.String()).
		Int64("rivals_rejected", rejected).
		Msg("request accepted")
	return accepted, rejected, nil
}

// ListBySide returns requests sent or received by the user, newest first.
func (r *requestRepository) ListBySide(ctx context.Context, tab model.RequestTab, userID string, limit, offset int) ([]model.Request, error) {
	column := "requester_id"
	if tab == model.TabReceived {
		column = "donor_id"
	}

	query := `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE ` + column + ` = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Str("tab", string(tab)).Msg("failed to query requests")
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	requests := []model.Request{}
	for rows.Next() {
		var req model.Request
		if err := scanRequest(rows, &req); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan request row")
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}

	return requests, nil
}

// OpenListingIDs returns the subset of listingIDs on which the requester holds an open request.
func (r *requestRepository) OpenListingIDs(ctx context.Context, requesterID string, listingIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	open := make(map[uuid.UUID]bool, len(listingIDs))
	if len(listingIDs) == 0 {
		return open, nil
	}

	query := `
		SELECT DISTINCT listing_id
		FROM requests
		WHERE requester_id = $1 AND listing_id = ANY($2) AND status IN ('Pending', 'Accepted')
	`

	rows, err := r.pool.Query(ctx, query, requesterID, listingIDs)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(listingIDs)).Msg("failed to query open listing IDs")
		return nil, fmt.Errorf("failed to query open listing IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan listing ID: %w", err)
		}
		open[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listing IDs: %w", err)
	}

	return open, nil
}

// CountPending returns Pending counts as requester and as donor.
func (r *requestRepository) CountPending(ctx context.Context, userID string) (*model.RequestStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE requester_id = $1),
			COUNT(*) FILTER (WHERE donor_id = $1)
		FROM requests
		WHERE status = 'Pending' AND (requester_id = $1 OR donor_id = $1)
	`

	var stats model.RequestStats
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&stats.SentPendingCount, &stats.ReceivedPendingCount); err != nil {
		r.logger.Error().Err(err).Msg("failed to count pending requests")
		return nil, fmt.Errorf("failed to count pending requests: %w", err)
	}

	return &stats, nil
}

// applyAccept sends the accept, listing completion and rival rejection as one batch.
func applyAccept(ctx context.Context, tx pgx.Tx, id, listingID uuid.UUID, contact model.ContactDetails) (*model.Request, int64, error) {
	now := time.Now().UTC()

	batch := &pgx.Batch{}
	batch.Queue(`
		UPDATE requests
		SET status = 'Accepted',
			donor_contact_name = $2,
			donor_contact_phone = $3,
			donor_contact_address = $4,
			updated_at = $5
		WHERE id = $1
		RETURNING `+requestColumns,
		id, contact.Name, contact.Phone, contact.Address, now,
	)
	batch.Queue(`UPDATE listings SET completed = TRUE, updated_at = $2 WHERE id = $1`, listingID, now)
	batch.Queue(`
		UPDATE requests
		SET status = 'Rejected', updated_at = $3
		WHERE listing_id = $1 AND id <> $2 AND status = 'Pending'
	`, listingID, id, now)

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	var accepted model.Request
	if err := scanRequest(results.QueryRow(), &accepted); err != nil {
		return nil, 0, fmt.Errorf("failed to accept request: %w", err)
	}

	if _, err := results.Exec(); err != nil {
		return nil, 0, fmt.Errorf("failed to complete listing: %w", err)
	}

	tag, err := results.Exec()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to reject rival requests: %w", err)
	}

	return &accepted, tag.RowsAffected(), nil
}
