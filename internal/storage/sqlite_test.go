package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"log/slog"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := NewSQLiteStore(dbPath, logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return store
}

func sampleProject(id, name string) *Project {
	return &Project{
		ID:          id,
		Name:        name,
		Symbol:      "TST",
		Chain:       "ETH",
		SubmittedBy: "alice",
		SubmittedAt: time.Date(2024, 8, 29, 12, 0, 0, 0, time.UTC),
	}
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateAndGetProject", func(t *testing.T) {
		p := sampleProject("alpha_1", "Alpha")
		if err := store.CreateProject(ctx, p); err != nil {
			t.Fatalf("CreateProject() error = %v", err)
		}

		got, err := store.GetProject(ctx, "alpha_1")
		if err != nil {
			t.Fatalf("GetProject() error = %v", err)
		}
		if got.Name != "Alpha" {
			t.Errorf("GetProject().Name = %v, want Alpha", got.Name)
		}
		if got.Chain != "ETH" {
			t.Errorf("GetProject().Chain = %v, want ETH", got.Chain)
		}
		if !got.SubmittedAt.Equal(p.SubmittedAt) {
			t.Errorf("GetProject().SubmittedAt = %v, want %v", got.SubmittedAt, p.SubmittedAt)
		}
		if got.Listed {
			t.Error("new project must not be listed")
		}
	})

	t.Run("CreateDuplicateProject", func(t *testing.T) {
		if err := store.CreateProject(ctx, sampleProject("alpha_1", "Alpha")); !errors.Is(err, ErrExists) {
			t.Errorf("CreateProject() duplicate error = %v, want ErrExists", err)
		}
	})

	t.Run("GetMissingProject", func(t *testing.T) {
		if _, err := store.GetProject(ctx, "missing_1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetProject() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ListProjectsInSubmissionOrder", func(t *testing.T) {
		if err := store.CreateProject(ctx, sampleProject("beta_2", "Beta")); err != nil {
			t.Fatalf("CreateProject() error = %v", err)
		}
		if err := store.CreateProject(ctx, sampleProject("gamma_3", "Gamma")); err != nil {
			t.Fatalf("CreateProject() error = %v", err)
		}

		projects, err := store.ListProjects(ctx)
		if err != nil {
			t.Fatalf("ListProjects() error = %v", err)
		}
		if len(projects) != 3 {
			t.Fatalf("ListProjects() len = %d, want 3", len(projects))
		}
		if projects[0].ID != "alpha_1" || projects[1].ID != "beta_2" || projects[2].ID != "gamma_3" {
			t.Errorf("ListProjects() order = %v %v %v", projects[0].ID, projects[1].ID, projects[2].ID)
		}
	})

	t.Run("MarkListed", func(t *testing.T) {
		if err := store.MarkListed(ctx, "alpha_1"); err != nil {
			t.Fatalf("MarkListed() error = %v", err)
		}
		got, err := store.GetProject(ctx, "alpha_1")
		if err != nil {
			t.Fatalf("GetProject() error = %v", err)
		}
		if !got.PaymentVerified || !got.Listed {
			t.Errorf("MarkListed() -> verified=%v listed=%v, want both true", got.PaymentVerified, got.Listed)
		}
	})

	t.Run("MarkListedMissing", func(t *testing.T) {
		if err := store.MarkListed(ctx, "missing_1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("MarkListed() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("AppendVoterIdempotent", func(t *testing.T) {
		added, err := store.AppendVoter(ctx, "alpha_1", "voter1")
		if err != nil {
			t.Fatalf("AppendVoter() error = %v", err)
		}
		if !added {
			t.Error("first AppendVoter() = false, want true")
		}

		added, err = store.AppendVoter(ctx, "alpha_1", "voter1")
		if err != nil {
			t.Fatalf("AppendVoter() error = %v", err)
		}
		if added {
			t.Error("second AppendVoter() = true, want false")
		}

		count, err := store.CountVotes(ctx, "alpha_1")
		if err != nil {
			t.Fatalf("CountVotes() error = %v", err)
		}
		if count != 1 {
			t.Errorf("CountVotes() = %d, want 1", count)
		}
	})

	t.Run("ListVotersInVoteOrder", func(t *testing.T) {
		if _, err := store.AppendVoter(ctx, "alpha_1", "voter2"); err != nil {
			t.Fatalf("AppendVoter() error = %v", err)
		}
		voters, err := store.ListVoters(ctx, "alpha_1")
		if err != nil {
			t.Fatalf("ListVoters() error = %v", err)
		}
		if len(voters) != 2 || voters[0] != "voter1" || voters[1] != "voter2" {
			t.Errorf("ListVoters() = %v, want [voter1 voter2]", voters)
		}
	})

	t.Run("UpsertProject", func(t *testing.T) {
		p := sampleProject("alpha_1", "Alpha Renamed")
		p.Listed = true
		p.PaymentVerified = true
		if err := store.UpsertProject(ctx, p); err != nil {
			t.Fatalf("UpsertProject() error = %v", err)
		}
		got, err := store.GetProject(ctx, "alpha_1")
		if err != nil {
			t.Fatalf("GetProject() error = %v", err)
		}
		if got.Name != "Alpha Renamed" {
			t.Errorf("UpsertProject() name = %v", got.Name)
		}

		// Upsert of an unknown id inserts
		if err := store.UpsertProject(ctx, sampleProject("delta_4", "Delta")); err != nil {
			t.Fatalf("UpsertProject() insert error = %v", err)
		}
		if _, err := store.GetProject(ctx, "delta_4"); err != nil {
			t.Errorf("GetProject() after upsert error = %v", err)
		}
	})
}

func TestSQLiteStore_SnapshotRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, p := range []*Project{
		sampleProject("alpha_1", "Alpha"),
		sampleProject("beta_2", "Beta"),
	} {
		if err := store.CreateProject(ctx, p); err != nil {
			t.Fatalf("CreateProject() error = %v", err)
		}
	}
	for _, voter := range []string{"v1", "v2"} {
		if _, err := store.AppendVoter(ctx, "beta_2", voter); err != nil {
			t.Fatalf("AppendVoter() error = %v", err)
		}
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.Projects) != 2 {
		t.Fatalf("Snapshot() projects = %d, want 2", len(snap.Projects))
	}
	if len(snap.Votes["beta_2"]) != 2 {
		t.Fatalf("Snapshot() votes for beta_2 = %d, want 2", len(snap.Votes["beta_2"]))
	}

	// Import into a fresh store and compare
	other := newTestStore(t)
	if err := other.ImportSnapshot(ctx, snap); err != nil {
		t.Fatalf("ImportSnapshot() error = %v", err)
	}

	again, err := other.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() after import error = %v", err)
	}
	if len(again.Projects) != 2 || again.Projects[0].ID != "alpha_1" || again.Projects[1].ID != "beta_2" {
		t.Errorf("imported project order/content mismatch: %+v", again.Projects)
	}
	count, err := other.CountVotes(ctx, "beta_2")
	if err != nil {
		t.Fatalf("CountVotes() error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountVotes() after import = %d, want 2", count)
	}
}

func TestSQLiteStore_ImportReplacesState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateProject(ctx, sampleProject("old_1", "Old")); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if _, err := store.AppendVoter(ctx, "old_1", "v1"); err != nil {
		t.Fatalf("AppendVoter() error = %v", err)
	}

	snap := &Snapshot{
		Projects: []*Project{sampleProject("new_1", "New")},
		Votes:    map[string][]string{"new_1": {"v9"}},
	}
	if err := store.ImportSnapshot(ctx, snap); err != nil {
		t.Fatalf("ImportSnapshot() error = %v", err)
	}

	if _, err := store.GetProject(ctx, "old_1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old project survived import: err = %v", err)
	}
	if _, err := store.GetProject(ctx, "new_1"); err != nil {
		t.Errorf("imported project missing: err = %v", err)
	}
}

func TestSQLiteStore_APIKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key, err := store.CreateAPIKey(ctx, "test-key")
	if err != nil {
		t.Fatalf("CreateAPIKey() error = %v", err)
	}
	if key == "" {
		t.Fatal("CreateAPIKey() returned empty key")
	}

	ak, err := store.ValidateAPIKey(ctx, key)
	if err != nil {
		t.Fatalf("ValidateAPIKey() error = %v", err)
	}
	if ak.Name != "test-key" {
		t.Errorf("ValidateAPIKey().Name = %v, want test-key", ak.Name)
	}

	if _, err := store.ValidateAPIKey(ctx, "td_key_bogus"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ValidateAPIKey() bogus error = %v, want ErrNotFound", err)
	}

	keys, err := store.ListAPIKeys(ctx)
	if err != nil {
		t.Fatalf("ListAPIKeys() error = %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("ListAPIKeys() len = %d, want 1", len(keys))
	}

	if err := store.RevokeAPIKey(ctx, ak.ID); err != nil {
		t.Fatalf("RevokeAPIKey() error = %v", err)
	}
	if _, err := store.ValidateAPIKey(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("ValidateAPIKey() after revoke error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_ValidateAPIKeyQueryFailure(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key, err := store.CreateAPIKey(ctx, "failing-key")
	if err != nil {
		t.Fatalf("CreateAPIKey() error = %v", err)
	}

	// A failed lookup must not return a half-populated key
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	ak, err := store.ValidateAPIKey(ctx, key)
	if err == nil {
		t.Fatal("ValidateAPIKey() on closed store error = nil, want error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("ValidateAPIKey() on closed store error = %v, want a non-ErrNotFound failure", err)
	}
	if ak != nil {
		t.Errorf("ValidateAPIKey() on closed store = %+v, want nil", ak)
	}
}
