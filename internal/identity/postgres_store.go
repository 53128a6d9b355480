package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// PostgresStore persists profiles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed profile store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the profiles table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS profiles (
			address            VARCHAR(42) PRIMARY KEY,
			registered_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			verification_level SMALLINT NOT NULL DEFAULT 0
				CHECK (verification_level >= 0 AND verification_level <= 3)
		);
	`)
	return err
}

func (s *PostgresStore) Create(ctx context.Context, p *Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (address, registered_at, verification_level)
		VALUES ($1, $2, $3)
	`, strings.ToLower(p.Address), p.RegisteredAt, p.VerificationLevel)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrProfileExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, address string) (*Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT address, registered_at, verification_level
		FROM profiles
		WHERE address = $1
	`, strings.ToLower(address)).Scan(&p.Address, &p.RegisteredAt, &p.VerificationLevel)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Update(ctx context.Context, p *Profile) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET verification_level = $2
		WHERE address = $1
	`, strings.ToLower(p.Address), p.VerificationLevel)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrProfileNotFound
	}
	return nil
}
