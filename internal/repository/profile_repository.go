package repository

import (
	"context"
	"errors"
	"fmt"

	"foodshare/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const profileColumns = `user_id, name, email, phone, address, created_at, updated_at`

// profileRepository implements the ProfileRepository interface using PostgreSQL.
type profileRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProfileRepository creates a new PostgreSQL-backed profile repository.
func NewProfileRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProfileRepository {
	return &profileRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "profile").Logger(),
	}
}

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var p model.Profile
	err := row.Scan(&p.UserID, &p.Name, &p.Email, &p.Phone, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

	p, err := scanProfile(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to query profile")
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	return p, nil
}

func (r *profileRepository) CreateIfMissing(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query,
		p.UserID, p.Name, p.Email, p.Phone, p.Address, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", p.UserID).Msg("failed to create profile")
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	if tag.RowsAffected() == 1 {
		r.logger.Debug().Str("user_id", p.UserID).Msg("profile created")
		return p, nil
	}

	stored, err := r.GetByUserID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("profile %s vanished after conflict", p.UserID)
	}
	return stored, nil
}

func (r *profileRepository) Upsert(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + profileColumns

	stored, err := scanProfile(r.pool.QueryRow(ctx, query,
		p.UserID, p.Name, p.Email, p.Phone, p.Address, p.CreatedAt, p.UpdatedAt,
	))
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", p.UserID).Msg("failed to upsert profile")
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	r.logger.Debug().Str("user_id", p.UserID).Msg("profile saved")
	return stored, nil
}
