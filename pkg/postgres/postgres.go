package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

type Config struct {
	URL            string `split_words:"true" required:"true"`
	MaxConns       int32  `split_words:"true" default:"10"`
	ConnectTimeout int    `split_words:"true" default:"5"`
}

// New creates a pgx connection pool with pgvector types registered on every
// connection, and verifies connectivity with a ping.
func (c *Config) New(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, err
	}

	cfg.MaxConns = c.MaxConns
	cfg.ConnConfig.ConnectTimeout = time.Duration(c.ConnectTimeout) * time.Second
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
