package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vibegate/internal/rewards"
	"vibegate/pkg/domain"
	"vibegate/pkg/platform/sentinel"
)

// PostgresIssuanceStore persists issuance records in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE issuances (
//	    address    TEXT NOT NULL,
//	    award_type SMALLINT NOT NULL,
//	    status     TEXT NOT NULL, -- 'reserved' | 'committed'
//	    amount     BIGINT,
//	    asset_id   UUID,
//	    issued_at  TIMESTAMPTZ,
//	    PRIMARY KEY (address, award_type)
//	);
type PostgresIssuanceStore struct {
	pool *pgxpool.Pool
}

func NewPostgresIssuanceStore(pool *pgxpool.Pool) *PostgresIssuanceStore {
	return &PostgresIssuanceStore{pool: pool}
}

func (s *PostgresIssuanceStore) Reserve(ctx context.Context, address domain.Address, awardType domain.AwardType) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO issuances (address, award_type, status)
		VALUES ($1, $2, 'reserved')
		ON CONFLICT (address, award_type) DO NOTHING`,
		address.String(), int16(awardType),
	)
	if err != nil {
		return fmt.Errorf("reserve issuance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *PostgresIssuanceStore) Commit(ctx context.Context, record rewards.IssuanceRecord) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE issuances
		SET status = 'committed', amount = $3, asset_id = $4, issued_at = $5
		WHERE address = $1 AND award_type = $2 AND status = 'reserved'`,
		record.Address.String(), int16(record.AwardType),
		int64(record.Amount), record.AssetID.String(), record.IssuedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("commit issuance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresIssuanceStore) Release(ctx context.Context, address domain.Address, awardType domain.AwardType) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM issuances
		WHERE address = $1 AND award_type = $2 AND status = 'reserved'`,
		address.String(), int16(awardType),
	)
	if err != nil {
		return fmt.Errorf("release issuance: %w", err)
	}
	return nil
}

func (s *PostgresIssuanceStore) Expunge(ctx context.Context, address domain.Address, awardType domain.AwardType) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM issuances
		WHERE address = $1 AND award_type = $2`,
		address.String(), int16(awardType),
	)
	if err != nil {
		return fmt.Errorf("expunge issuance: %w", err)
	}
	return nil
}

func (s *PostgresIssuanceStore) Find(ctx context.Context, address domain.Address, awardType domain.AwardType) (rewards.IssuanceRecord, error) {
	var record rewards.IssuanceRecord
	var amount int64
	var assetID string
	err := s.pool.QueryRow(ctx, `
		SELECT amount, asset_id, issued_at FROM issuances
		WHERE address = $1 AND award_type = $2 AND status = 'committed'`,
		address.String(), int16(awardType),
	).Scan(&amount, &assetID, &record.IssuedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return rewards.IssuanceRecord{}, sentinel.ErrNotFound
	}
	if err != nil {
		return rewards.IssuanceRecord{}, fmt.Errorf("find issuance: %w", err)
	}

	parsed, err := domain.ParseAssetID(assetID)
	if err != nil {
		return rewards.IssuanceRecord{}, fmt.Errorf("find issuance: %w", err)
	}
	record.Address = address
	record.AwardType = awardType
	record.Amount = uint64(amount)
	record.AssetID = parsed
	return record, nil
}
