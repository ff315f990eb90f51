package ratelimit

import (
	"testing"
	"time"

	"github.com/easywish/launchpad/internal/testutil"
)

func TestStore_EnsureIndexes(t *testing.T) {
	t.Skip("indexes already created by testutil.SetupTestDB via indexes.EnsureAll()")
}

func TestStore_CheckAllowed_NoRecord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, 3, 15*time.Minute, 15*time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	allowed, remaining, lockedUntil := store.CheckAllowed(ctx, "user@example.com")
	if !allowed {
		t.Error("CheckAllowed() with no record = false, want true")
	}
	if remaining != 3 {
		t.Errorf("remaining = %d, want 3", remaining)
	}
	if lockedUntil != nil {
		t.Errorf("lockedUntil = %v, want nil", lockedUntil)
	}
}

func TestStore_RecordFailure_CountsDown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, 3, 15*time.Minute, 15*time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	lockedOut, _ := store.RecordFailure(ctx, "user@example.com")
	if lockedOut {
		t.Fatal("first failure triggered lockout")
	}

	allowed, remaining, _ := store.CheckAllowed(ctx, "user@example.com")
	if !allowed {
		t.Error("CheckAllowed() after one failure = false, want true")
	}
	if remaining != 2 {
		t.Errorf("remaining = %d, want 2", remaining)
	}
}

func TestStore_RecordFailure_Lockout(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, 3, 15*time.Minute, 15*time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var lockedOut bool
	var lockedUntil *time.Time
	for i := 0; i < 3; i++ {
		lockedOut, lockedUntil = store.RecordFailure(ctx, "user@example.com")
	}
	if !lockedOut {
		t.Fatal("third failure did not trigger lockout")
	}
	if lockedUntil == nil || !lockedUntil.After(time.Now()) {
		t.Fatalf("lockedUntil = %v, want a future time", lockedUntil)
	}

	allowed, remaining, until := store.CheckAllowed(ctx, "user@example.com")
	if allowed {
		t.Error("CheckAllowed() while locked = true, want false")
	}
	if remaining != -1 {
		t.Errorf("remaining = %d, want -1 while locked", remaining)
	}
	if until == nil {
		t.Error("CheckAllowed() lockedUntil = nil while locked")
	}
}

func TestStore_CheckAllowed_CaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, 3, 15*time.Minute, 15*time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.RecordFailure(ctx, "User@Example.com")

	_, remaining, _ := store.CheckAllowed(ctx, "user@example.com")
	if remaining != 2 {
		t.Errorf("remaining = %d, want 2 (failures tracked per folded identifier)", remaining)
	}
}

func TestStore_ClearOnSuccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, 3, 15*time.Minute, 15*time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.RecordFailure(ctx, "user@example.com")
	store.RecordFailure(ctx, "user@example.com")

	if err := store.ClearOnSuccess(ctx, "user@example.com"); err != nil {
		t.Fatalf("ClearOnSuccess() error = %v", err)
	}

	allowed, remaining, _ := store.CheckAllowed(ctx, "user@example.com")
	if !allowed || remaining != 3 {
		t.Errorf("CheckAllowed() after clear = (%v, %d), want (true, 3)", allowed, remaining)
	}

	attempt, err := store.GetAttempt(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("GetAttempt() error = %v", err)
	}
	if attempt != nil {
		t.Errorf("GetAttempt() after clear = %+v, want nil", attempt)
	}
}

func TestStore_WindowExpiryResets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	// A tiny window so expiry happens within the test.
	store := New(db, 3, 50*time.Millisecond, 15*time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.RecordFailure(ctx, "user@example.com")
	store.RecordFailure(ctx, "user@example.com")

	time.Sleep(80 * time.Millisecond)

	allowed, remaining, _ := store.CheckAllowed(ctx, "user@example.com")
	if !allowed {
		t.Error("CheckAllowed() after window expiry = false, want true")
	}
	if remaining != 3 {
		t.Errorf("remaining = %d, want 3 after window expiry", remaining)
	}

	// The next failure starts a fresh window rather than continuing the count.
	lockedOut, _ := store.RecordFailure(ctx, "user@example.com")
	if lockedOut {
		t.Error("failure after window expiry triggered lockout")
	}
	_, remaining, _ = store.CheckAllowed(ctx, "user@example.com")
	if remaining != 2 {
		t.Errorf("remaining = %d, want 2 after window reset", remaining)
	}
}

func TestStore_DeleteStale(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, 3, 15*time.Minute, 15*time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.RecordFailure(ctx, "old@example.com")

	deleted, err := store.DeleteStale(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("DeleteStale() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteStale() = %d, want 1", deleted)
	}

	deleted, err = store.DeleteStale(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("DeleteStale() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("DeleteStale(past cutoff) = %d, want 0", deleted)
	}
}
