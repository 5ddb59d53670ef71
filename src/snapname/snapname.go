// Package snapname defines the naming scheme for snapshot directories.
//
// A snapshot directory is named `<kind>-<stamp>`, e.g. `daily-20240807T042155`.
// The stamp is second precision, zero padded, and always rendered in UTC, so
// that for a fixed kind the lexicographic order of names equals the time order
// of the snapshots they denote.
package snapname

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Kind classifies a snapshot by the retention tier it was created under.
type Kind string

const (
	Daily   Kind = "daily"
	Weekly  Kind = "weekly"
	Monthly Kind = "monthly"
	Yearly  Kind = "yearly"
)

// ErrInvalidKind is returned for kind strings outside the fixed set.
var ErrInvalidKind = errors.New("invalid snapshot kind")

// Kinds returns all valid kinds, finest cadence first.
func Kinds() []Kind { return []Kind{Daily, Weekly, Monthly, Yearly} }

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Daily, Weekly, Monthly, Yearly:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// StampLayout is the time.Format layout of the stamp portion of a name.
const StampLayout = "20060102T150405"

// Name identifies a snapshot directory under a backup root.
type Name struct {
	Kind  Kind
	Stamp time.Time
}

// New builds a Name for a snapshot of the given kind taken at the given
// instant. The instant is truncated to whole seconds and normalised to UTC.
func New(kind Kind, stamp time.Time) (Name, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return Name{}, err
	}
	return Name{Kind: kind, Stamp: stamp.UTC().Truncate(time.Second)}, nil
}

// String renders the directory name.
func (n Name) String() string {
	return string(n.Kind) + "-" + n.Stamp.UTC().Format(StampLayout)
}

var namePattern = regexp.MustCompile(`^([a-z]+)-(\d{8}T\d{6})$`)

// Parse inverts String. Directory entries that do not conform to the naming
// scheme, or that carry an unknown kind, yield an error; callers are expected
// to skip such entries without touching them.
func Parse(s string) (Name, error) {
	m := namePattern.FindStringSubmatch(s)
	if m == nil {
		return Name{}, fmt.Errorf("not a snapshot name: %q", s)
	}
	kind, err := ParseKind(m[1])
	if err != nil {
		return Name{}, fmt.Errorf("unknown kind in %q: %w", s, err)
	}
	stamp, err := time.ParseInLocation(StampLayout, m[2], time.UTC)
	if err != nil {
		return Name{}, fmt.Errorf("bad timestamp in %q: %w", s, err)
	}
	return Name{Kind: kind, Stamp: stamp}, nil
}

// Before orders snapshots by stamp, breaking equal stamps by name so that the
// order is total.
func (n Name) Before(other Name) bool {
	if !n.Stamp.Equal(other.Stamp) {
		return n.Stamp.Before(other.Stamp)
	}
	return n.String() < other.String()
}
