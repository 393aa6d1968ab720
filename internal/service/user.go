// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roster/roster/internal/cache"
	"github.com/roster/roster/internal/metrics"
	"github.com/roster/roster/internal/model"
	"github.com/roster/roster/internal/repository"
)

// Service errors.
var (
	ErrNameRequired        = errors.New("name is required and must be a non-empty string")
	ErrDatabaseUnavailable = errors.New("database connection not available")
	ErrStorage             = errors.New("storage failure")
)

// ListCache stores snapshots of the full user list.
// SetUserList must refuse a snapshot whose generation was invalidated after it was read.
type ListCache interface {
	GetUserList(ctx context.Context) ([]model.User, error)
	UserListGeneration(ctx context.Context) (int64, error)
	SetUserList(ctx context.Context, gen int64, users []model.User) error
	InvalidateUserList(ctx context.Context) error
}

// EventPublisher announces newly created users.
type EventPublisher interface {
	UserCreated(user model.User)
}

// Option configures a UserService.
type Option func(*UserService)

// WithCache enables list snapshot caching.
func WithCache(c ListCache) Option {
	return func(s *UserService) {
		s.cache = c
	}
}

// WithPublisher enables user.created events.
func WithPublisher(p EventPublisher) Option {
	return func(s *UserService) {
		s.events = p
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *UserService) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *UserService) {
		if l != nil {
			s.logger = l
		}
	}
}

// UserService handles user business logic.
// A nil store is a valid configuration: every operation then fails with ErrDatabaseUnavailable.
type UserService struct {
	store   repository.UserStore
	cache   ListCache
	events  EventPublisher
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(store repository.UserStore, opts ...Option) *UserService {
	s := &UserService{
		store:   store,
		metrics: metrics.NewNoop(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "service.user")
	return s
}

// AddUser validates name, inserts it and returns the full list read back from storage.
func (s *UserService) AddUser(ctx context.Context, name string) ([]model.User, error) {
	if !model.IsValidName(name) {
		s.metrics.IncUserCreateFailed("validation")
		return nil, ErrNameRequired
	}
	if s.store == nil {
		s.metrics.IncUserCreateFailed("unavailable")
		return nil, ErrDatabaseUnavailable
	}

	user, err := s.store.InsertUser(ctx, model.NormalizeName(name))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidName) {
			s.metrics.IncUserCreateFailed("validation")
			return nil, ErrNameRequired
		}
		s.metrics.IncUserCreateFailed("storage")
		return nil, fmt.Errorf("%w: insert user: %w", ErrStorage, err)
	}
	s.metrics.IncUserCreated()

	if s.cache != nil {
		if err := s.cache.InvalidateUserList(ctx); err != nil {
			s.logger.Warn("failed to invalidate user list cache", "error", err)
		}
	}

	users, err := s.loadFromStore(ctx)
	if err != nil {
		return nil, err
	}

	if s.events != nil && user != nil {
		s.events.UserCreated(*user)
	}

	return users, nil
}

// ListUsers returns every user, served from the cache when a fresh snapshot exists.
func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	if s.store == nil {
		return nil, ErrDatabaseUnavailable
	}

	if s.cache != nil {
		users, err := s.cache.GetUserList(ctx)
		if err == nil {
			s.metrics.IncListCacheHit()
			return users, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("user list cache read failed", "error", err)
		}
		s.metrics.IncListCacheMiss()
	}

	return s.loadFromStore(ctx)
}

// loadFromStore reads the list from storage and refreshes the cache snapshot.
// The snapshot is tagged with the generation seen before the read, so a slow
// reader cannot overwrite the list cached by a later write.
func (s *UserService) loadFromStore(ctx context.Context) ([]model.User, error) {
	var gen int64
	cacheable := false
	if s.cache != nil {
		g, err := s.cache.UserListGeneration(ctx)
		if err != nil {
			s.logger.Warn("failed to read user list generation", "error", err)
		} else {
			gen, cacheable = g, true
		}
	}

	start := time.Now()
	users, err := s.store.ListUsers(ctx)
	s.metrics.ObserveListDuration(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %w", ErrStorage, err)
	}
	if users == nil {
		users = []model.User{}
	}

	if cacheable {
		err := s.cache.SetUserList(ctx, gen, users)
		switch {
		case errors.Is(err, cache.ErrStaleSnapshot):
			s.logger.Debug("skipped stale user list snapshot", "generation", gen)
		case err != nil:
			s.logger.Warn("failed to cache user list", "error", err)
		}
	}

	return users, nil
}
