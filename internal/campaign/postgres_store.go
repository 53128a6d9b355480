package campaign

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// PostgresStore persists campaigns in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed campaign store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the campaigns table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS campaigns (
			id              VARCHAR(36) PRIMARY KEY,
			creator_address VARCHAR(42) NOT NULL,
			title           TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			category        VARCHAR(64) NOT NULL DEFAULT '',
			goal            NUMERIC(30,6) NOT NULL,
			deadline        TIMESTAMPTZ NOT NULL,
			milestones      JSONB NOT NULL DEFAULT '[]',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_campaigns_creator
			ON campaigns (creator_address, created_at DESC);
	`)
	return err
}

func (s *PostgresStore) Create(ctx context.Context, c *Campaign) error {
	milestonesJSON, err := json.Marshal(c.Milestones)
	if err != nil {
		return fmt.Errorf("failed to marshal milestones: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO campaigns (id, creator_address, title, description, category, goal, deadline, milestones, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		c.ID,
		strings.ToLower(c.CreatorAddress),
		c.Title,
		c.Description,
		c.Category,
		c.Goal,
		c.Deadline,
		milestonesJSON,
		c.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrCampaignExists
		}
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Campaign, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, creator_address, title, description, category, goal, deadline, milestones, created_at
		FROM campaigns
		WHERE id = $1
	`, id)

	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]*Campaign, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, creator_address, title, description, category, goal, deadline, milestones, created_at
		FROM campaigns
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectCampaigns(rows)
}

func (s *PostgresStore) ListByCreator(ctx context.Context, creatorAddress string, limit int) ([]*Campaign, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, creator_address, title, description, category, goal, deadline, milestones, created_at
		FROM campaigns
		WHERE creator_address = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, strings.ToLower(creatorAddress), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns by creator: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectCampaigns(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*Campaign, error) {
	var c Campaign
	var milestonesJSON []byte
	var deadline, createdAt time.Time

	if err := row.Scan(&c.ID, &c.CreatorAddress, &c.Title, &c.Description, &c.Category,
		&c.Goal, &deadline, &milestonesJSON, &createdAt); err != nil {
		return nil, err
	}
	c.Deadline = deadline
	c.CreatedAt = createdAt
	_ = json.Unmarshal(milestonesJSON, &c.Milestones)
	return &c, nil
}

func collectCampaigns(rows *sql.Rows) ([]*Campaign, error) {
	var result []*Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			continue
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
