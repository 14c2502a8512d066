package db

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens and pings the pool used for plugin settings and the quote
// audit log. Rating never waits on the database for long: statements are
// capped at two seconds.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
    if databaseURL == "" {
        return nil, errors.New("DATABASE_URL is not set")
    }
    cfg, err := pgxpool.ParseConfig(databaseURL)
    if err != nil {
        return nil, fmt.Errorf("parse database url: %w", err)
    }
    cfg.MaxConns = 4
    cfg.MinConns = 0
    cfg.MaxConnLifetime = 30 * time.Minute
    cfg.MaxConnIdleTime = 5 * time.Minute
    cfg.HealthCheckPeriod = 30 * time.Second
    cfg.ConnConfig.RuntimeParams["application_name"] = "upsrates-api"
    cfg.ConnConfig.RuntimeParams["timezone"] = "UTC"
    cfg.ConnConfig.RuntimeParams["statement_timeout"] = "2000"
    cfg.ConnConfig.RuntimeParams["idle_in_transaction_session_timeout"] = "2000"

    pool, err := pgxpool.NewWithConfig(ctx, cfg)
    if err != nil {
        return nil, fmt.Errorf("open pool: %w", err)
    }
    if err := pool.Ping(ctx); err != nil {
        pool.Close()
        return nil, fmt.Errorf("ping database: %w", err)
    }
    return pool, nil
}
