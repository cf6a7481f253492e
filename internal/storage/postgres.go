package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/boltoncivic/crawlctl/pkg/failure"
)

// schema is the single generic table every PostgresSink writes through.
// Records are heterogeneous in shape but share the same write contract
// (dedupe by kind+key, at-least-once, record-atomic), so one JSONB-backed
// table with a composite key covers every RecordKind without a migration
// per record type.
const schema = `
CREATE TABLE IF NOT EXISTS crawl_records (
	kind        text        NOT NULL,
	record_key  text        NOT NULL,
	payload     jsonb       NOT NULL,
	recorded_at timestamptz NOT NULL,
	PRIMARY KEY (kind, record_key)
)`

// Connect opens a pooled connection to dbURL and ensures the schema exists.
func Connect(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// PostgresSink writes records as JSONB rows keyed by (kind, record_key),
// upserting on conflict so at-least-once delivery from retried writes
// never duplicates a row.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

const upsertQuery = `
INSERT INTO crawl_records (kind, record_key, payload, recorded_at)
VALUES ($1, $2, $3::jsonb, $4)
ON CONFLICT (kind, record_key) DO UPDATE SET
	payload     = EXCLUDED.payload,
	recorded_at = EXCLUDED.recorded_at
RETURNING (xmax = 0) AS inserted`

func (s *PostgresSink) Write(kind RecordKind, record any) (WriteResult, failure.ClassifiedError) {
	key, err := IdentityKey(kind, record)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseUnknownKind,
			Kind:      kind,
		}
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseEncodeFailure,
			Kind:      kind,
			Key:       key,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var inserted bool
	err = s.pool.QueryRow(ctx, upsertQuery, string(kind), key, payload, time.Now().UTC()).Scan(&inserted)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCauseQueryFailure,
			Kind:      kind,
			Key:       key,
		}
	}

	return WriteResult{Kind: kind, Key: key, Deduplicated: !inserted}, nil
}
