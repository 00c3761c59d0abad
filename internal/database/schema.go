package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the listings, requests and profiles collections.
// The partial unique index enforces one open request per (listing, requester).
const Schema = `
	CREATE TABLE IF NOT EXISTS listings (
		id UUID PRIMARY KEY,
		donor_id TEXT NOT NULL,
		donor_name TEXT NOT NULL,
		food_name TEXT NOT NULL,
		description TEXT NOT NULL,
		photo_url TEXT NOT NULL,
		expiry_at TIMESTAMPTZ NOT NULL,
		location_text TEXT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_listings_donor_id ON listings(donor_id);
	CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_listings_expiry_at ON listings(expiry_at);

	CREATE TABLE IF NOT EXISTS requests (
		id UUID PRIMARY KEY,
		listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		donor_id TEXT NOT NULL,
		requester_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Pending'
			CHECK (status IN ('Pending', 'Accepted', 'Rejected', 'Cancelled')),
		donor_contact_name TEXT,
		donor_contact_phone TEXT,
		donor_contact_address TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_requests_listing_id ON requests(listing_id);
	CREATE INDEX IF NOT EXISTS idx_requests_requester_status ON requests(requester_id, status);
	CREATE INDEX IF NOT EXISTS idx_requests_donor_status ON requests(donor_id, status);
	CREATE UNIQUE INDEX IF NOT EXISTS uq_requests_open_per_requester
		ON requests(listing_id, requester_id)
		WHERE status IN ('Pending', 'Accepted');

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT,
		address TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

// EnsureSchema applies Schema; every statement is idempotent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
