package reports

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/wowzarush/backend/internal/pagination"
)

// PostgresStore persists reports in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed report store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the campaign_reports table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS campaign_reports (
			id               VARCHAR(36) PRIMARY KEY,
			campaign_id      VARCHAR(36) NOT NULL,
			reporter_id      VARCHAR(64) NOT NULL DEFAULT '',
			reporter_address VARCHAR(42) NOT NULL,
			reason           VARCHAR(16) NOT NULL CHECK (reason IN ('scam', 'fraud', 'inappropriate', 'copyright', 'duplicate', 'other')),
			details          TEXT NOT NULL,
			evidence         TEXT[] NOT NULL DEFAULT '{}',
			resolved         BOOLEAN NOT NULL DEFAULT FALSE,
			resolution       TEXT NOT NULL DEFAULT '',
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			resolved_at      TIMESTAMPTZ
		);

		CREATE INDEX IF NOT EXISTS idx_campaign_reports_campaign
			ON campaign_reports (campaign_id, created_at DESC, id DESC);

		CREATE INDEX IF NOT EXISTS idx_campaign_reports_unresolved
			ON campaign_reports (campaign_id) WHERE NOT resolved;
	`)
	return err
}

func (s *PostgresStore) Create(ctx context.Context, r *Report) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO campaign_reports (id, campaign_id, reporter_id, reporter_address, reason, details, evidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		r.ID,
		r.CampaignID,
		r.ReporterID,
		r.ReporterAddress,
		string(r.Reason),
		r.Details,
		pq.Array(r.Evidence),
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Report, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, campaign_id, reporter_id, reporter_address, reason, details, evidence, resolved, resolution, created_at, resolved_at
		FROM campaign_reports
		WHERE id = $1
	`, id)

	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListByCampaign(ctx context.Context, campaignID string, cursor *pagination.Cursor, limit int) ([]*Report, error) {
	query := `
		SELECT id, campaign_id, reporter_id, reporter_address, reason, details, evidence, resolved, resolution, created_at, resolved_at
		FROM campaign_reports
		WHERE campaign_id = $1`
	args := []any{campaignID}

	if cursor != nil {
		query += ` AND (created_at, id) < ($2, $3)`
		args = append(args, cursor.CreatedAt, cursor.ID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT %d`, limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *PostgresStore) Resolve(ctx context.Context, id, resolution string, at time.Time) (*Report, error) {
	// The WHERE NOT resolved clause makes the transition one-way at the
	// database level, even under concurrent resolvers.
	row := s.db.QueryRowContext(ctx, `
		UPDATE campaign_reports
		SET resolved = TRUE, resolution = $2, resolved_at = $3
		WHERE id = $1 AND NOT resolved
		RETURNING id, campaign_id, reporter_id, reporter_address, reason, details, evidence, resolved, resolution, created_at, resolved_at
	`, id, resolution, at)

	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		// Either missing or already resolved; look up which.
		existing, getErr := s.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if existing.Resolved {
			return nil, ErrAlreadyResolved
		}
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve report: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) CountUnresolved(ctx context.Context, campaignID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM campaign_reports
		WHERE campaign_id = $1 AND NOT resolved
	`, campaignID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unresolved reports: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*Report, error) {
	var r Report
	var reason string
	var resolvedAt sql.NullTime

	if err := row.Scan(&r.ID, &r.CampaignID, &r.ReporterID, &r.ReporterAddress, &reason,
		&r.Details, pq.Array(&r.Evidence), &r.Resolved, &r.Resolution, &r.CreatedAt, &resolvedAt); err != nil {
		return nil, err
	}
	r.Reason = Reason(reason)
	if resolvedAt.Valid {
		at := resolvedAt.Time
		r.ResolvedAt = &at
	}
	return &r, nil
}
