package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"
)

// Connect opens a pgx pool against the configured database URL and verifies
// the connection.
func Connect(ctx context.Context) (*pgxpool.Pool, error) {
	connString := viper.GetString("database.url")
	if connString == "" {
		return nil, fmt.Errorf("database.url not configured")
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
