package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vibegate/internal/registry"
	"vibegate/pkg/domain"
	"vibegate/pkg/platform/sentinel"
)

// PostgresStore persists identity records in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE identity_records (
//	    nullifier     TEXT PRIMARY KEY,
//	    bound_address TEXT NOT NULL,
//	    verified_at   TIMESTAMPTZ NOT NULL,
//	    revoked       BOOLEAN NOT NULL DEFAULT FALSE
//	);
//	CREATE INDEX identity_records_bound_address_idx ON identity_records (bound_address);
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Bind(ctx context.Context, nullifier domain.Nullifier, address domain.Address, at time.Time) (registry.BindResult, error) {
	// ON CONFLICT DO NOTHING gives first-writer-wins without a serializable
	// transaction; the follow-up read resolves who won.
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO identity_records (nullifier, bound_address, verified_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (nullifier) DO NOTHING`,
		nullifier.String(), address.String(), at.UTC(),
	)
	if err != nil {
		return registry.BindResult{}, fmt.Errorf("insert identity record: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return registry.BindResult{BoundAddress: address, Created: true}, nil
	}

	var bound string
	err = s.pool.QueryRow(ctx,
		`SELECT bound_address FROM identity_records WHERE nullifier = $1`,
		nullifier.String(),
	).Scan(&bound)
	if err != nil {
		return registry.BindResult{}, fmt.Errorf("read existing binding: %w", err)
	}
	return registry.BindResult{BoundAddress: domain.Address(bound), Created: false}, nil
}

func (s *PostgresStore) IsVerified(ctx context.Context, address domain.Address) (bool, error) {
	var verified bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM identity_records
			WHERE bound_address = $1 AND NOT revoked
		)`,
		address.String(),
	).Scan(&verified)
	if err != nil {
		return false, fmt.Errorf("check verified: %w", err)
	}
	return verified, nil
}

func (s *PostgresStore) Find(ctx context.Context, nullifier domain.Nullifier) (registry.IdentityRecord, error) {
	var record registry.IdentityRecord
	var bound string
	err := s.pool.QueryRow(ctx, `
		SELECT nullifier, bound_address, verified_at, revoked
		FROM identity_records WHERE nullifier = $1`,
		nullifier.String(),
	).Scan(&record.Nullifier, &bound, &record.VerifiedAt, &record.Revoked)
	if errors.Is(err, pgx.ErrNoRows) {
		return registry.IdentityRecord{}, sentinel.ErrNotFound
	}
	if err != nil {
		return registry.IdentityRecord{}, fmt.Errorf("find identity record: %w", err)
	}
	record.BoundAddress = domain.Address(bound)
	return record, nil
}
