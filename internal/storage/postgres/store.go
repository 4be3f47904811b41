package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ctfwatch/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS alerts (
	id              BIGSERIAL PRIMARY KEY,
	source          TEXT        NOT NULL,
	tx_hash         TEXT        NOT NULL,
	log_index       BIGINT,
	block_number    BIGINT      NOT NULL,
	action          TEXT        NOT NULL,
	role            TEXT        NOT NULL,
	matched_address TEXT        NOT NULL,
	counterparty    TEXT,
	title           TEXT        NOT NULL,
	detected_at     TIMESTAMPTZ NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS alerts_key_idx ON alerts (tx_hash, COALESCE(log_index, -1));
`

// Store journals dispatched alerts into Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the alerts table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// PutAlertBatch inserts alerts; rows already journaled are skipped.
func (s *Store) PutAlertBatch(ctx context.Context, alerts []model.AlertRecord) error {
	if len(alerts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, alert := range alerts {
		var logIndex *int64
		if alert.LogIndex != nil {
			v := int64(*alert.LogIndex)
			logIndex = &v
		}
		var counterparty *string
		if alert.Counterparty != "" {
			counterparty = &alert.Counterparty
		}
		batch.Queue(`
			INSERT INTO alerts (
				source, tx_hash, log_index, block_number, action, role,
				matched_address, counterparty, title, detected_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT DO NOTHING
		`,
			string(alert.Source),
			alert.TxHash,
			logIndex,
			int64(alert.BlockNumber),
			string(alert.Action),
			string(alert.Role),
			alert.MatchedAddress,
			counterparty,
			alert.Title,
			alert.Timestamp,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range alerts {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
