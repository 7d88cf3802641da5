// # internal/history/store_test.go
package history

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"depmap/internal/depmaperr"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreSaveAndRecentRuns(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	runs := []Run{
		{RunID: "run-1", Timestamp: base, Root: "/repo", Files: 10, Edges: 14, Cycles: 1, SourceNodes: 2, ParseErrors: 0, Duration: 120 * time.Millisecond},
		{RunID: "run-2", Timestamp: base.Add(time.Minute), Root: "/repo", Files: 11, Edges: 15, Cycles: 0, SourceNodes: 3, ParseErrors: 1, Duration: 95 * time.Millisecond},
		{RunID: "run-3", Timestamp: base.Add(2 * time.Minute), Root: "/repo", Files: 11, Edges: 15, Cycles: 0, SourceNodes: 3, ParseErrors: 0, Duration: 90 * time.Millisecond},
	}
	for _, run := range runs {
		if err := store.SaveRun(run); err != nil {
			t.Fatalf("save %s: %v", run.RunID, err)
		}
	}

	got, err := store.RecentRuns(2)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(got))
	}
	if got[0].RunID != "run-3" || got[1].RunID != "run-2" {
		t.Fatalf("expected newest first, got %s then %s", got[0].RunID, got[1].RunID)
	}
	if got[1].Files != 11 || got[1].ParseErrors != 1 {
		t.Fatalf("counts did not round trip: %+v", got[1])
	}
	if got[1].Duration != 95*time.Millisecond {
		t.Fatalf("duration did not round trip: %v", got[1].Duration)
	}
	if !got[0].Timestamp.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("timestamp did not round trip: %v", got[0].Timestamp)
	}
}

func TestStoreRejectsEmptyRunID(t *testing.T) {
	store := openTestStore(t)
	err := store.SaveRun(Run{Root: "/repo"})
	if !depmaperr.IsCode(err, depmaperr.CodeStore) {
		t.Fatalf("expected CodeStore, got %v", err)
	}
}

func TestStoreDuplicateRunIDFails(t *testing.T) {
	store := openTestStore(t)
	run := Run{RunID: "run-1", Root: "/repo"}
	if err := store.SaveRun(run); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveRun(run); err == nil {
		t.Fatal("expected primary key violation")
	}
}

func TestOpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir())
	if err == nil {
		t.Fatal("expected open error for directory path")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "nested", "runs.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	if store.Path() != path {
		t.Fatalf("expected path %s, got %s", path, store.Path())
	}
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SaveRun(Run{RunID: "run-1", Root: "/repo"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	runs, err := reopened.RecentRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].RunID != "run-1" {
		t.Fatalf("expected persisted run, got %+v", runs)
	}
}

func TestIsLockError(t *testing.T) {
	if isLockError(nil) {
		t.Fatal("nil is not a lock error")
	}
	if !isLockError(errTest("database is locked (5) (SQLITE_BUSY)")) {
		t.Fatal("expected busy message to count as lock error")
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
