package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gatekey/gatekey/internal/testutil"
)

// setupRepo connects to the test database, resets the profiles schema
// and returns a ready Repository. Skips if DATABASE_URL is not set.
func setupRepo(t *testing.T) (*Repository, context.Context) {
	t.Helper()

	databaseURL := testutil.RequireEnv(t, "DATABASE_URL")
	ctx := context.Background()

	repo, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("AcquireDBLock: %v", err)
	}
	t.Cleanup(func() {
		if err := unlock(); err != nil {
			t.Errorf("unlock: %v", err)
		}
	})

	if err := testutil.ResetSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("ResetSchema: %v", err)
	}

	return repo, ctx
}

func TestCreateAndGetProfile(t *testing.T) {
	repo, ctx := setupRepo(t)

	p := testutil.NewTestProfile(t, testutil.UniqueEmail(t))
	if err := repo.CreateProfile(ctx, p); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}

	byID, err := repo.GetProfileByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProfileByID: %v", err)
	}
	if byID.Email != p.Email {
		t.Errorf("email = %q, want %q", byID.Email, p.Email)
	}
	if byID.PasswordHash != p.PasswordHash {
		t.Errorf("password hash not round-tripped")
	}

	byEmail, err := repo.GetProfileByEmail(ctx, p.Email)
	if err != nil {
		t.Fatalf("GetProfileByEmail: %v", err)
	}
	if byEmail.ID != p.ID {
		t.Errorf("id = %q, want %q", byEmail.ID, p.ID)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	repo, ctx := setupRepo(t)

	if _, err := repo.GetProfileByID(ctx, ulid.Make().String()); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("GetProfileByID unknown id = %v, want ErrProfileNotFound", err)
	}
	if _, err := repo.GetProfileByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("GetProfileByEmail unknown email = %v, want ErrProfileNotFound", err)
	}
}

func TestCreateProfileDuplicateEmail(t *testing.T) {
	repo, ctx := setupRepo(t)

	email := testutil.UniqueEmail(t)

	first := testutil.NewTestProfile(t, email)
	if err := repo.CreateProfile(ctx, first); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}

	second := testutil.NewTestProfile(t, email)
	if err := repo.CreateProfile(ctx, second); !errors.Is(err, ErrEmailExists) {
		t.Errorf("duplicate CreateProfile = %v, want ErrEmailExists", err)
	}
}

// TestCreateProfileConcurrentDuplicates drives concurrent inserts with
// the same email straight at the unique index. Exactly one must win.
func TestCreateProfileConcurrentDuplicates(t *testing.T) {
	repo, ctx := setupRepo(t)

	email := testutil.UniqueEmail(t)
	const n = 8

	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.CreateProfile(ctx, testutil.NewTestProfile(t, email))
		}(i)
	}
	wg.Wait()

	var successes, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrEmailExists):
			duplicates++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
	if duplicates != n-1 {
		t.Errorf("duplicates = %d, want %d", duplicates, n-1)
	}
}

func TestUpdateProfileName(t *testing.T) {
	repo, ctx := setupRepo(t)

	p := testutil.NewTestProfile(t, testutil.UniqueEmail(t))
	if err := repo.CreateProfile(ctx, p); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	updated, err := repo.UpdateProfileName(ctx, p.ID, "Renamed")
	if err != nil {
		t.Fatalf("UpdateProfileName: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("name = %q, want Renamed", updated.Name)
	}
	if !updated.UpdatedAt.After(p.UpdatedAt) {
		t.Error("updated_at not bumped")
	}

	if _, err := repo.UpdateProfileName(ctx, ulid.Make().String(), "x"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("UpdateProfileName unknown id = %v, want ErrProfileNotFound", err)
	}
}

func TestEmailExists(t *testing.T) {
	repo, ctx := setupRepo(t)

	email := testutil.UniqueEmail(t)

	exists, err := repo.EmailExists(ctx, email)
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if exists {
		t.Error("EmailExists = true before insert")
	}

	if err := repo.CreateProfile(ctx, testutil.NewTestProfile(t, email)); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}

	exists, err = repo.EmailExists(ctx, email)
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if !exists {
		t.Error("EmailExists = false after insert")
	}
}
