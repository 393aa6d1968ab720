package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/roster/roster/internal/repository"
)

func TestStore_InsertAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	alice, err := s.InsertUser(ctx, "  Alice ")
	if err != nil {
		t.Fatalf("InsertUser failed: %v", err)
	}
	if alice.Name != "Alice" {
		t.Errorf("expected trimmed name, got %q", alice.Name)
	}
	if _, err := uuid.Parse(alice.ID); err != nil {
		t.Errorf("expected uuid id, got %q: %v", alice.ID, err)
	}
	if alice.Created <= 0 {
		t.Error("expected created to be set")
	}

	if _, err := s.InsertUser(ctx, "Bob"); err != nil {
		t.Fatalf("InsertUser failed: %v", err)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].Name != "Alice" || users[1].Name != "Bob" {
		t.Errorf("unexpected order: %q, %q", users[0].Name, users[1].Name)
	}
	if users[0].ID == users[1].ID {
		t.Error("ids must be unique")
	}
}

func TestStore_InsertRejectsBlankName(t *testing.T) {
	t.Parallel()

	s := New()
	for _, name := range []string{"", "   ", "\t"} {
		if _, err := s.InsertUser(context.Background(), name); !errors.Is(err, repository.ErrInvalidName) {
			t.Errorf("InsertUser(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
	if s.Len() != 0 {
		t.Errorf("expected no rows, got %d", s.Len())
	}
}

func TestStore_ListEmptyIsNotNil(t *testing.T) {
	t.Parallel()

	users, err := New().ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if users == nil {
		t.Fatal("expected empty slice, got nil")
	}
}

func TestStore_ListReturnsCopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	if _, err := s.InsertUser(ctx, "Alice"); err != nil {
		t.Fatalf("InsertUser failed: %v", err)
	}

	first, _ := s.ListUsers(ctx)
	first[0].Name = "mutated"

	second, _ := s.ListUsers(ctx)
	if second[0].Name != "Alice" {
		t.Errorf("store state leaked through ListUsers: %q", second[0].Name)
	}
}

func TestStore_CreatedNonDecreasing(t *testing.T) {
	t.Parallel()

	ticks := []int64{1000, 900, 1100}
	i := 0
	s := New(WithClock(func() int64 {
		v := ticks[i]
		i++
		return v
	}))

	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		if _, err := s.InsertUser(ctx, name); err != nil {
			t.Fatalf("InsertUser failed: %v", err)
		}
	}

	users, _ := s.ListUsers(ctx)
	want := []int64{1000, 1000, 1100}
	for i, u := range users {
		if u.Created != want[i] {
			t.Errorf("users[%d].Created = %d, want %d", i, u.Created, want[i])
		}
	}
}

func TestStore_Unavailable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	s.SetUnavailable(true, nil)

	if _, err := s.InsertUser(ctx, "Alice"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("InsertUser error = %v, want ErrUnavailable", err)
	}
	if _, err := s.ListUsers(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("ListUsers error = %v, want ErrUnavailable", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Ping error = %v, want ErrUnavailable", err)
	}

	s.SetUnavailable(false, nil)
	if _, err := s.InsertUser(ctx, "Alice"); err != nil {
		t.Errorf("expected recovery, got %v", err)
	}
}

func TestStore_ConcurrentInserts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.InsertUser(ctx, "user"); err != nil {
				t.Errorf("InsertUser failed: %v", err)
			}
		}()
	}
	wg.Wait()

	users, _ := s.ListUsers(ctx)
	if len(users) != 50 {
		t.Fatalf("expected 50 users, got %d", len(users))
	}

	seen := make(map[string]bool)
	for _, u := range users {
		if seen[u.ID] {
			t.Fatalf("duplicate id %s", u.ID)
		}
		seen[u.ID] = true
	}
}
