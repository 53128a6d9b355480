package risk

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresFlagStore persists flag overrides in PostgreSQL.
type PostgresFlagStore struct {
	db *sql.DB
}

// NewPostgresFlagStore creates a PostgreSQL-backed flag override store.
func NewPostgresFlagStore(db *sql.DB) *PostgresFlagStore {
	return &PostgresFlagStore{db: db}
}

// Migrate creates the flag_overrides table if it doesn't exist.
func (s *PostgresFlagStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS flag_overrides (
			campaign_id VARCHAR(36) PRIMARY KEY,
			flagged_by  VARCHAR(10) NOT NULL CHECK (flagged_by IN ('none', 'system', 'user', 'admin')),
			reason      TEXT NOT NULL DEFAULT '',
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

func (s *PostgresFlagStore) Set(ctx context.Context, override *FlagOverride) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flag_overrides (campaign_id, flagged_by, reason, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (campaign_id) DO UPDATE
		SET flagged_by = EXCLUDED.flagged_by,
		    reason = EXCLUDED.reason,
		    updated_at = EXCLUDED.updated_at
	`, override.CampaignID, string(override.FlaggedBy), override.Reason, override.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to set flag override: %w", err)
	}
	return nil
}

func (s *PostgresFlagStore) Get(ctx context.Context, campaignID string) (*FlagOverride, error) {
	var o FlagOverride
	var flaggedBy string
	err := s.db.QueryRowContext(ctx, `
		SELECT campaign_id, flagged_by, reason, updated_at
		FROM flag_overrides
		WHERE campaign_id = $1
	`, campaignID).Scan(&o.CampaignID, &flaggedBy, &o.Reason, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrOverrideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get flag override: %w", err)
	}
	o.FlaggedBy = FlaggedBy(flaggedBy)
	return &o, nil
}

func (s *PostgresFlagStore) Delete(ctx context.Context, campaignID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM flag_overrides WHERE campaign_id = $1
	`, campaignID)
	if err != nil {
		return fmt.Errorf("failed to delete flag override: %w", err)
	}
	return nil
}
