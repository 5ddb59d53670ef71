package snapshot_test

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rsyncsnap/src/snapname"
	"rsyncsnap/src/snapshot"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) *snapshot.Store {
	t.Helper()
	s, err := snapshot.NewStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestNewStore_RejectsMissingRoot(t *testing.T) {
	if _, err := snapshot.NewStore(filepath.Join(t.TempDir(), "nope"), testLogger()); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestPrepare_CreatesEmptyDirAndCurrentRef(t *testing.T) {
	s := newStore(t)
	now := time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC)

	name, err := s.Prepare(snapname.Daily, now)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	entries, err := os.ReadDir(s.Path(name))
	if err != nil {
		t.Fatalf("snapshot dir missing: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("new snapshot dir not empty: %d entries", len(entries))
	}

	cur, ok, err := s.Current()
	if err != nil || !ok {
		t.Fatalf("Current: ok=%v err=%v", ok, err)
	}
	if cur != name {
		t.Fatalf("current = %s, want %s", cur, name)
	}
	if _, ok, _ := s.Previous(); ok {
		t.Fatal("previous should be absent after first prepare")
	}
}

func TestPrepare_PromotesFinalizedCurrentToPrevious(t *testing.T) {
	s := newStore(t)
	t0 := time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC)

	first, err := s.Prepare(snapname.Daily, t0)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, err := s.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	second, err := s.Prepare(snapname.Daily, t0.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("second Prepare: %v", err)
	}

	prev, ok, err := s.Previous()
	if err != nil || !ok {
		t.Fatalf("Previous: ok=%v err=%v", ok, err)
	}
	if prev != first {
		t.Fatalf("previous = %s, want %s", prev, first)
	}
	cur, _, _ := s.Current()
	if cur != second {
		t.Fatalf("current = %s, want %s", cur, second)
	}
}

func TestPrepare_DoesNotPromoteUnfinishedCurrent(t *testing.T) {
	s := newStore(t)
	t0 := time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC)

	if _, err := s.Prepare(snapname.Daily, t0); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	// No Finalize: the first run aborted.
	if _, err := s.Prepare(snapname.Daily, t0.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("second Prepare: %v", err)
	}
	if _, ok, _ := s.Previous(); ok {
		t.Fatal("aborted snapshot must not become previous")
	}
}

func TestPrepare_SameSecondFails(t *testing.T) {
	s := newStore(t)
	now := time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC)

	if _, err := s.Prepare(snapname.Daily, now); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	_, err := s.Prepare(snapname.Daily, now)
	if !errors.Is(err, snapshot.ErrSnapshotExists) {
		t.Fatalf("err = %v, want ErrSnapshotExists", err)
	}
	// The existing directory and refs must be untouched.
	cur, ok, _ := s.Current()
	if !ok || cur.Stamp != now {
		t.Fatalf("current damaged after collision: %v", cur)
	}
}

func TestRefs_RefuseNonSymlink(t *testing.T) {
	root := t.TempDir()
	s, err := snapshot.NewStore(root, testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := os.Mkdir(filepath.Join(root, snapshot.CurrentLink), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Current(); !errors.Is(err, snapshot.ErrNotASymlink) {
		t.Fatalf("err = %v, want ErrNotASymlink", err)
	}
	if _, err := s.Prepare(snapname.Daily, time.Now()); err == nil {
		t.Fatal("Prepare must refuse to clobber a non-symlink ref")
	}
}

func TestList_IgnoresForeignEntries(t *testing.T) {
	root := t.TempDir()
	s, err := snapshot.NewStore(root, testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for _, d := range []string{"lost+found", "daily-notadate", "scratch"} {
		if err := os.Mkdir(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "README"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, _ := s.Prepare(snapname.Daily, time.Date(2024, 3, 2, 4, 0, 0, 0, time.UTC))

	names, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 1 || names[0] != a {
		t.Fatalf("List = %v, want just %s", names, a)
	}
}

func TestList_SortedOldestFirst(t *testing.T) {
	s := newStore(t)
	t0 := time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC)
	for i := 2; i >= 0; i-- {
		if _, err := s.Prepare(snapname.Daily, t0.AddDate(0, 0, i)); err != nil {
			t.Fatalf("Prepare: %v", err)
		}
	}
	names, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("len = %d, want 3", len(names))
	}
	for i := 1; i < len(names); i++ {
		if !names[i-1].Before(names[i]) {
			t.Fatalf("List out of order: %v", names)
		}
	}
}

func TestResume(t *testing.T) {
	s := newStore(t)
	t0 := time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC)

	if _, ok, err := s.Resume(); err != nil || ok {
		t.Fatalf("Resume on empty root: ok=%v err=%v", ok, err)
	}

	name, err := s.Prepare(snapname.Daily, t0)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	got, ok, err := s.Resume()
	if err != nil || !ok {
		t.Fatalf("Resume: ok=%v err=%v", ok, err)
	}
	if got != name {
		t.Fatalf("Resume = %s, want %s", got, name)
	}

	if _, err := s.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if _, ok, _ := s.Resume(); ok {
		t.Fatal("finalized snapshot must not be resumable")
	}
}

func TestFinalize_WritesMarker(t *testing.T) {
	s := newStore(t)
	name, err := s.Prepare(snapname.Daily, time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if s.IsComplete(name) {
		t.Fatal("fresh snapshot must not be complete")
	}
	got, err := s.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if got != name {
		t.Fatalf("Finalize = %s, want %s", got, name)
	}
	if !s.IsComplete(name) {
		t.Fatal("snapshot must be complete after Finalize")
	}
}

func TestFinalize_NoCurrent(t *testing.T) {
	s := newStore(t)
	if _, err := s.Finalize(); !errors.Is(err, snapshot.ErrNoCurrent) {
		t.Fatalf("err = %v, want ErrNoCurrent", err)
	}
}
