// Package postgres opens and pings the PostgreSQL connection pool used by
// the corpus source.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pradiptarakha/corpusindex/pkg/config"
	_ "github.com/lib/pq"
)

// Client owns a database/sql pool configured from PostgresConfig.
type Client struct {
	DB *sql.DB
}

// New opens the pool and verifies connectivity.
func New(cfg config.PostgresConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Client{DB: db}, nil
}

// Ping probes the pool.
func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the pool.
func (c *Client) Close() error {
	return c.DB.Close()
}
