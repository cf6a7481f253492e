package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// connectPostgres opens and verifies a pool against dsn. It is only called
// when the config file's storageKind field is "postgres" (there is no
// command-line flag for the storage kind); the default jsonfile Sink never
// touches this.
func connectPostgres(dsn string) (*pgxpool.Pool, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres storage: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres storage: %w", err)
	}
	return pool, nil
}
