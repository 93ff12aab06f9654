package history

import (
	"context"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewStoreRequiresPath(t *testing.T) {
	if _, err := NewStore(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestRecordLifecycle(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	id, err := store.RecordStart(ctx, "corefonts", ActionInstall, "/home/user/.wine")
	if err != nil {
		t.Fatalf("RecordStart() error = %v", err)
	}

	run, err := store.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.Verb != "corefonts" || run.Action != ActionInstall || run.Status != RunStatusRunning {
		t.Errorf("unexpected run: %+v", run)
	}
	if run.CompletedAt != nil {
		t.Error("running run has a completion time")
	}

	if err := store.RecordFinish(ctx, id, RunStatusCompleted, ""); err != nil {
		t.Fatalf("RecordFinish() error = %v", err)
	}

	run, err = store.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun() after finish error = %v", err)
	}
	if run.Status != RunStatusCompleted || run.CompletedAt == nil {
		t.Errorf("finish not recorded: %+v", run)
	}
	if run.Error != nil {
		t.Errorf("completed run has error %q", *run.Error)
	}
}

func TestRecordFinishWithError(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	id, err := store.RecordStart(ctx, "dotnet48", ActionInstall, "/prefix")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.RecordFinish(ctx, id, RunStatusFailed, "checksum mismatch"); err != nil {
		t.Fatalf("RecordFinish() error = %v", err)
	}

	run, err := store.GetRun(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != RunStatusFailed || run.Error == nil || *run.Error != "checksum mismatch" {
		t.Errorf("failure not recorded: %+v", run)
	}
}

func TestRecordFinishUnknownRun(t *testing.T) {
	store := testStore(t)
	if err := store.RecordFinish(context.Background(), "no-such-id", RunStatusCompleted, ""); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestEvents(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	id, err := store.RecordStart(ctx, "vcrun2019", ActionInstall, "/prefix")
	if err != nil {
		t.Fatal(err)
	}
	for _, msg := range []string{"downloading", "executing", "logged"} {
		if err := store.AppendEvent(ctx, id, "info", msg); err != nil {
			t.Fatalf("AppendEvent(%q) error = %v", msg, err)
		}
	}

	events, err := store.ListEvents(ctx, id)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Message != "downloading" || events[2].Message != "logged" {
		t.Errorf("events out of order: %v", events)
	}
}

func TestListRuns(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for _, verb := range []string{"corefonts", "vcrun2019", "dotnet48"} {
		id, err := store.RecordStart(ctx, verb, ActionInstall, "/prefix")
		if err != nil {
			t.Fatal(err)
		}
		if err := store.RecordFinish(ctx, id, RunStatusCompleted, ""); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.ListRuns(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("got %d runs, want 2", len(runs))
	}

	all, err := store.ListRuns(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("got %d runs, want 3", len(all))
	}
}
