package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/roster/roster/internal/model"
)

// Common errors for user repository operations.
var (
	ErrInvalidName = errors.New("user name must not be empty")
	ErrDuplicateID = errors.New("user id already exists")
)

// PostgreSQL error codes.
const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// NewUserID returns a fresh time-ordered user id.
func NewUserID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate user id: %w", err)
	}
	return id.String(), nil
}

// InsertUser inserts a user with a generated id. The database assigns created.
func (r *Repository) InsertUser(ctx context.Context, name string) (*model.User, error) {
	name = model.NormalizeName(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	id, err := NewUserID()
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (id, name)
		VALUES ($1, $2)
		RETURNING id, name, created
	`

	var user model.User
	err = r.pool.QueryRow(ctx, query, id, name).Scan(
		&user.ID,
		&user.Name,
		&user.Created,
	)
	if err != nil {
		return nil, mapWriteError(err)
	}

	return &user, nil
}

// ListUsers returns every user, oldest first.
// Rows created in the same millisecond fall back to id order, which follows insertion for v7 ids.
func (r *Repository) ListUsers(ctx context.Context) ([]model.User, error) {
	query := `
		SELECT id, name, created
		FROM users
		ORDER BY created ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Created); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// CountUsers returns the number of rows in the users table.
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCheckViolation:
			return ErrInvalidName
		case pgUniqueViolation:
			return ErrDuplicateID
		}
	}
	return fmt.Errorf("failed to insert user: %w", err)
}
