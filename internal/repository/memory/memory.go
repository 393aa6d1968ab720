// Package memory provides an in-process UserStore.
// It backs DATABASE_URL=memory:// and stands in for PostgreSQL in tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/roster/roster/internal/model"
	"github.com/roster/roster/internal/repository"
)

// ErrUnavailable is the default failure installed by SetUnavailable.
var ErrUnavailable = errors.New("memory store unavailable")

// Store keeps users in insertion order.
type Store struct {
	mu    sync.RWMutex
	users []model.User
	ids   map[string]struct{}
	now   func() int64
	fail  error
}

var _ repository.UserStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the millisecond clock used for created.
func WithClock(now func() int64) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		ids: make(map[string]struct{}),
		now: model.NowMillis,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InsertUser appends a user with a generated id and the current time.
func (s *Store) InsertUser(ctx context.Context, name string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name = model.NormalizeName(name)
	if name == "" {
		return nil, repository.ErrInvalidName
	}

	id, err := repository.NewUserID()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail != nil {
		return nil, s.fail
	}
	if _, exists := s.ids[id]; exists {
		return nil, repository.ErrDuplicateID
	}

	created := s.now()
	// Keep created non-decreasing even if the clock steps back.
	if n := len(s.users); n > 0 && created < s.users[n-1].Created {
		created = s.users[n-1].Created
	}

	user := model.User{ID: id, Name: name, Created: created}
	s.users = append(s.users, user)
	s.ids[id] = struct{}{}

	return &user, nil
}

// ListUsers returns a copy of all users, oldest first.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.fail != nil {
		return nil, s.fail
	}

	result := make([]model.User, len(s.users))
	copy(result, s.users)
	return result, nil
}

// Ping reports the configured failure, if any.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fail
}

// Len returns the number of stored users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// SetUnavailable makes every operation fail with err until called with unavailable=false.
// A nil err uses ErrUnavailable.
func (s *Store) SetUnavailable(unavailable bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !unavailable {
		s.fail = nil
		return
	}
	if err == nil {
		err = ErrUnavailable
	}
	s.fail = err
}
