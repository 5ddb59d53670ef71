// Package snapshot manages the snapshot directories under a backup root and
// the `current`/`previous` references the transfer tool hardlinks against.
package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"rsyncsnap/src/snapname"
)

const (
	// CurrentLink names the reference to the snapshot being populated by the
	// in-progress run (or the most recently finished one, between runs).
	CurrentLink = "current"
	// PreviousLink names the reference to the last finalized snapshot before
	// CurrentLink.
	PreviousLink = "previous"
	// MarkerFile is written into a snapshot once its transfer has completed.
	// A snapshot without it, other than current, is treated as incomplete.
	MarkerFile = ".complete"
)

var (
	// ErrSnapshotExists is returned when Prepare would reuse an existing
	// directory name. Happens only under clock skew or a rerun within the
	// same second; the existing directory is never overwritten.
	ErrSnapshotExists = errors.New("snapshot directory already exists")
	// ErrNotASymlink is returned when a reference entry exists but is not a
	// symbolic link. The store refuses to touch it.
	ErrNotASymlink = errors.New("reference is not a symlink")
	// ErrNoCurrent is returned by operations that need a current snapshot
	// when the reference is absent.
	ErrNoCurrent = errors.New("no current snapshot")
)

// Store operates on one backup root. It only creates directories and manages
// references; cadence and retention policy live elsewhere.
type Store struct {
	root string
	log  *slog.Logger
}

// NewStore binds a store to an existing backup root directory.
func NewStore(root string, log *slog.Logger) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("backup root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("backup root %q is not a directory", root)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{root: root, log: log}, nil
}

// Root returns the backup root path.
func (s *Store) Root() string { return s.root }

// Path returns the absolute path of a snapshot directory.
func (s *Store) Path(n snapname.Name) string {
	return filepath.Join(s.root, n.String())
}

// CurrentPath returns the path of the current reference itself, which always
// resolves to the snapshot under population. The transfer tool writes here.
func (s *Store) CurrentPath() string { return filepath.Join(s.root, CurrentLink) }

// PreviousPath returns the path of the previous reference.
func (s *Store) PreviousPath() string { return filepath.Join(s.root, PreviousLink) }

// Prepare creates a fresh, empty snapshot directory for the given kind and
// instant, then repoints the references: the old current becomes previous if
// it was a completed run, and current points at the new directory.
func (s *Store) Prepare(kind snapname.Kind, now time.Time) (snapname.Name, error) {
	name, err := snapname.New(kind, now)
	if err != nil {
		return snapname.Name{}, err
	}
	if err := os.Mkdir(s.Path(name), 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return snapname.Name{}, fmt.Errorf("%w: %s", ErrSnapshotExists, name)
		}
		return snapname.Name{}, fmt.Errorf("create snapshot dir: %w", err)
	}
	s.log.Info("created snapshot dir", "name", name.String())

	old, ok, err := s.readRef(CurrentLink)
	if err != nil {
		return snapname.Name{}, err
	}
	if ok && s.IsComplete(old) {
		if err := s.setRef(PreviousLink, old); err != nil {
			return snapname.Name{}, err
		}
	}
	if err := s.setRef(CurrentLink, name); err != nil {
		return snapname.Name{}, err
	}
	return name, nil
}

// Resume returns the current snapshot when it exists and has not been
// finalized yet, so an interrupted run can be retried into the same
// directory. It reports false when there is nothing to resume.
func (s *Store) Resume() (snapname.Name, bool, error) {
	cur, ok, err := s.readRef(CurrentLink)
	if err != nil || !ok {
		return snapname.Name{}, false, err
	}
	if _, err := os.Stat(s.Path(cur)); err != nil {
		return snapname.Name{}, false, nil
	}
	if s.IsComplete(cur) {
		return snapname.Name{}, false, nil
	}
	return cur, true, nil
}

// Finalize marks the current snapshot as complete.
func (s *Store) Finalize() (snapname.Name, error) {
	cur, ok, err := s.readRef(CurrentLink)
	if err != nil {
		return snapname.Name{}, err
	}
	if !ok {
		return snapname.Name{}, ErrNoCurrent
	}
	marker := filepath.Join(s.Path(cur), MarkerFile)
	f, err := os.OpenFile(marker, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return snapname.Name{}, fmt.Errorf("write completeness marker: %w", err)
	}
	if err := f.Close(); err != nil {
		return snapname.Name{}, fmt.Errorf("write completeness marker: %w", err)
	}
	s.log.Info("finalized snapshot", "name", cur.String())
	return cur, nil
}

// IsComplete reports whether the snapshot carries the completeness marker.
func (s *Store) IsComplete(n snapname.Name) bool {
	_, err := os.Stat(filepath.Join(s.Path(n), MarkerFile))
	return err == nil
}

// Current resolves the current reference. ok is false when the reference is
// absent.
func (s *Store) Current() (snapname.Name, bool, error) {
	return s.readRef(CurrentLink)
}

// Previous resolves the previous reference. ok is false when the reference
// is absent.
func (s *Store) Previous() (snapname.Name, bool, error) {
	return s.readRef(PreviousLink)
}

// List enumerates the snapshot directories under the root, oldest first.
// Entries that do not parse as snapshot names are ignored, never touched.
func (s *Store) List() ([]snapname.Name, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read backup root: %w", err)
	}
	var names []snapname.Name
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := snapname.Parse(e.Name())
		if err != nil {
			continue
		}
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Before(names[j]) })
	return names, nil
}

// Remove deletes a snapshot directory and everything under it.
func (s *Store) Remove(n snapname.Name) error {
	s.log.Info("deleting snapshot dir", "name", n.String())
	return os.RemoveAll(s.Path(n))
}

// setRef atomically repoints a reference symlink by creating a temporary
// link and renaming it over the entry, so a crash leaves either the old or
// the new reference intact.
func (s *Store) setRef(ref string, target snapname.Name) error {
	link := filepath.Join(s.root, ref)
	if info, err := os.Lstat(link); err == nil && info.Mode()&fs.ModeSymlink == 0 {
		return fmt.Errorf("%w: %s", ErrNotASymlink, link)
	}
	tmp := filepath.Join(s.root, "."+ref+".tmp")
	if err := os.Remove(tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear stale ref temp: %w", err)
	}
	if err := os.Symlink(target.String(), tmp); err != nil {
		return fmt.Errorf("create ref symlink: %w", err)
	}
	if err := os.Rename(tmp, link); err != nil {
		return fmt.Errorf("update ref %s: %w", ref, err)
	}
	s.log.Info("updated reference", "ref", ref, "target", target.String())
	return nil
}

// readRef resolves a reference symlink back into a snapshot name.
func (s *Store) readRef(ref string) (snapname.Name, bool, error) {
	link := filepath.Join(s.root, ref)
	info, err := os.Lstat(link)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return snapname.Name{}, false, nil
		}
		return snapname.Name{}, false, fmt.Errorf("read ref %s: %w", ref, err)
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return snapname.Name{}, false, fmt.Errorf("%w: %s", ErrNotASymlink, link)
	}
	dest, err := os.Readlink(link)
	if err != nil {
		return snapname.Name{}, false, fmt.Errorf("read ref %s: %w", ref, err)
	}
	n, err := snapname.Parse(filepath.Base(dest))
	if err != nil {
		return snapname.Name{}, false, fmt.Errorf("ref %s: %w", ref, err)
	}
	return n, true, nil
}
