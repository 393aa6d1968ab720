// Package repository provides the database access layer for users.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roster/roster/internal/model"
)

// UserStore mediates every read and write of the users table.
// Implementations must return ListUsers results ordered by creation time, oldest first.
type UserStore interface {
	InsertUser(ctx context.Context, name string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	Ping(ctx context.Context) error
}

// Repository is the PostgreSQL implementation of UserStore.
type Repository struct {
	pool *pgxpool.Pool
}

var _ UserStore = (*Repository)(nil)

// New creates a new Repository with a connection pool.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool. Integration tests use it for schema resets.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}
