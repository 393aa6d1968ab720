//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/roster/roster/internal/testutil"
)

// ============================================================================
// User Repository Integration Tests
// ============================================================================

func TestIntegrationUserRepository_InsertUser(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	name := testutil.UniqueName("alice")
	user, err := repo.InsertUser(ctx, "  "+name+"  ")
	if err != nil {
		t.Fatalf("InsertUser failed: %v", err)
	}

	if user.Name != name {
		t.Errorf("Name mismatch: got %q, want %q", user.Name, name)
	}
	parsed, err := uuid.Parse(user.ID)
	if err != nil {
		t.Fatalf("ID should be a uuid: %v", err)
	}
	if parsed.Version() != 7 {
		t.Errorf("expected uuid version 7, got %d", parsed.Version())
	}
	if user.Created <= 0 {
		t.Error("Created should be defaulted by the database")
	}
}

func TestIntegrationUserRepository_InsertUser_BlankName(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	if _, err := repo.InsertUser(ctx, "   "); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName, got: %v", err)
	}

	count, err := repo.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no rows, got %d", count)
	}
}

func TestIntegrationUserRepository_ListUsers_Empty(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if users == nil || len(users) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", users)
	}
}

func TestIntegrationUserRepository_ListUsers_InsertionOrder(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	names := []string{"Alice", "Bob", "Carol", "Dave"}
	for _, name := range names {
		if _, err := repo.InsertUser(ctx, name); err != nil {
			t.Fatalf("InsertUser(%s) failed: %v", name, err)
		}
	}

	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != len(names) {
		t.Fatalf("expected %d users, got %d", len(names), len(users))
	}
	for i, name := range names {
		if users[i].Name != name {
			t.Errorf("users[%d] = %q, want %q", i, users[i].Name, name)
		}
		if i > 0 && users[i].Created < users[i-1].Created {
			t.Errorf("created not monotonic at %d", i)
		}
	}
}

func TestIntegrationUserRepository_ListUsers_Idempotent(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	if _, err := repo.InsertUser(ctx, "Alice"); err != nil {
		t.Fatalf("InsertUser failed: %v", err)
	}

	first, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	second, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("length changed between reads: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("row %d changed between reads: %+v vs %+v", i, first[i], second[i])
		}
	}
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newUserTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetUsersSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset users schema: %v", err)
	}

	return ctx, repo
}
