// Package retention implements the tiered thinning of old snapshots: every
// snapshot is kept for a week, then one per ISO week for a month, one per
// calendar month for a year, and one per calendar year forever.
package retention

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rsyncsnap/src/snapname"
	"rsyncsnap/src/snapshot"
)

// ErrReferenceConflict is recorded when rotation would delete the snapshot
// still referenced by current or previous. The deletion is refused; other
// deletions proceed.
var ErrReferenceConflict = errors.New("snapshot is still referenced")

// Policy holds the tier widths. The zero value is not usable; use
// DefaultPolicy.
//
// Age thresholds use an inclusive upper bound: a snapshot exactly DailyDays
// old (or exactly one month, or one year, per calendar arithmetic from the
// evaluation instant) belongs to the older tier.
type Policy struct {
	DailyDays    int // keep everything younger than this many days
	WeeklyMonths int // collapse to one per ISO week up to this many months
	MonthlyYears int // collapse to one per calendar month up to this many years
}

// DefaultPolicy is the 7 daily / 1 month of weeklies / 1 year of monthlies
// schedule.
func DefaultPolicy() Policy {
	return Policy{DailyDays: 7, WeeklyMonths: 1, MonthlyYears: 1}
}

// Plan describes the outcome of one retention evaluation before any deletion
// happens.
type Plan struct {
	Keep   []snapname.Name
	Delete []snapname.Name
}

// Result reports what one rotation pass actually did.
type Result struct {
	Kept    []snapname.Name
	Deleted []snapname.Name
	Refused []snapname.Name // still referenced, left in place
}

// Failure records one snapshot that could not be deleted.
type Failure struct {
	Name snapname.Name
	Err  error
}

// PruneError aggregates per-snapshot deletion failures from one rotation
// pass. Rotation is best effort: one failed deletion never blocks the rest.
type PruneError struct {
	Failures []Failure
}

func (e *PruneError) Error() string {
	return fmt.Sprintf("failed to prune %d snapshot(s)", len(e.Failures))
}

// Engine evaluates and applies the retention policy over one store.
type Engine struct {
	store  *snapshot.Store
	policy Policy
	log    *slog.Logger
}

// New builds an engine for the given store and policy.
func New(store *snapshot.Store, policy Policy, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{store: store, policy: policy, log: log}
}

// Plan computes which snapshots the policy retains as of now, without
// deleting anything. Unparseable directory entries are never candidates; an
// empty or single-snapshot root always yields an empty delete list.
func (e *Engine) Plan(now time.Time) (Plan, error) {
	names, err := e.store.List()
	if err != nil {
		return Plan{}, err
	}
	if len(names) <= 1 {
		return Plan{Keep: names}, nil
	}

	cur, hasCur, err := e.store.Current()
	if err != nil {
		return Plan{}, err
	}

	now = now.UTC()
	dailyCutoff := now.AddDate(0, 0, -e.policy.DailyDays)
	weeklyCutoff := now.AddDate(0, -e.policy.WeeklyMonths, 0)
	monthlyCutoff := now.AddDate(-e.policy.MonthlyYears, 0, 0)

	// Newest snapshot per bucket wins; ties go to the greater name.
	winners := make(map[string]snapname.Name)
	buckets := make(map[string]string, len(names))
	for _, n := range names {
		// An unfinished snapshot that is no longer current is debris from an
		// aborted run and is pruned regardless of age.
		if !e.store.IsComplete(n) && !(hasCur && n == cur) {
			continue
		}
		key := bucketKey(n, dailyCutoff, weeklyCutoff, monthlyCutoff)
		buckets[n.String()] = key
		if w, ok := winners[key]; !ok || w.Before(n) {
			winners[key] = n
		}
	}

	var plan Plan
	for _, n := range names {
		key, considered := buckets[n.String()]
		if considered && winners[key] == n {
			plan.Keep = append(plan.Keep, n)
		} else {
			plan.Delete = append(plan.Delete, n)
		}
	}
	return plan, nil
}

// Rotate applies the plan: every snapshot not selected for retention is
// deleted, best effort. Snapshots still referenced by current or previous
// are refused rather than deleted. A non-nil *PruneError is returned when
// any deletion failed or was refused; the pass as a whole still counts as
// done.
func (e *Engine) Rotate(now time.Time) (Result, error) {
	plan, err := e.Plan(now)
	if err != nil {
		return Result{}, err
	}

	cur, hasCur, err := e.store.Current()
	if err != nil {
		return Result{}, err
	}
	prev, hasPrev, err := e.store.Previous()
	if err != nil {
		return Result{}, err
	}

	res := Result{Kept: plan.Keep}
	var prune PruneError
	for _, n := range plan.Delete {
		if (hasCur && n == cur) || (hasPrev && n == prev) {
			e.log.Warn("refusing to delete referenced snapshot", "name", n.String())
			res.Refused = append(res.Refused, n)
			res.Kept = append(res.Kept, n)
			prune.Failures = append(prune.Failures, Failure{Name: n, Err: ErrReferenceConflict})
			continue
		}
		if err := e.store.Remove(n); err != nil {
			e.log.Error("failed to delete snapshot", "name", n.String(), "error", err)
			prune.Failures = append(prune.Failures, Failure{Name: n, Err: err})
			continue
		}
		res.Deleted = append(res.Deleted, n)
	}
	if len(prune.Failures) > 0 {
		return res, &prune
	}
	return res, nil
}

// bucketKey maps a snapshot to its retention bucket as of the cutoffs
// computed from the evaluation instant.
func bucketKey(n snapname.Name, dailyCutoff, weeklyCutoff, monthlyCutoff time.Time) string {
	stamp := n.Stamp
	switch {
	case stamp.After(dailyCutoff):
		// Young enough to keep unconditionally: one bucket per snapshot.
		return "d" + n.String()
	case stamp.After(weeklyCutoff):
		year, week := stamp.ISOWeek()
		return fmt.Sprintf("w%04d-%02d", year, week)
	case stamp.After(monthlyCutoff):
		return "m" + stamp.Format("2006-01")
	default:
		return "y" + stamp.Format("2006")
	}
}
