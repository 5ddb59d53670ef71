// Package schedule decides which snapshot kind a run started at a given
// instant should produce. Each kind above daily carries a cron expression;
// a run takes the coarsest kind whose schedule fires during the calendar day
// of the run.
package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"rsyncsnap/src/snapname"
)

// Default cron expressions: weekly on Sunday, monthly on the 1st, yearly on
// January 1st, all at midnight.
const (
	DefaultWeeklySpec  = "0 0 * * 0"
	DefaultMonthlySpec = "0 0 1 * *"
	DefaultYearlySpec  = "0 0 1 1 *"
)

// Cadence holds the parsed boundary schedules.
type Cadence struct {
	weekly  cron.Schedule
	monthly cron.Schedule
	yearly  cron.Schedule
}

// New parses the three cron expressions. Empty strings fall back to the
// defaults.
func New(weeklySpec, monthlySpec, yearlySpec string) (*Cadence, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	parse := func(spec, fallback, label string) (cron.Schedule, error) {
		if spec == "" {
			spec = fallback
		}
		sched, err := parser.Parse(spec)
		if err != nil {
			return nil, fmt.Errorf("%s cadence %q: %w", label, spec, err)
		}
		return sched, nil
	}
	var c Cadence
	var err error
	if c.weekly, err = parse(weeklySpec, DefaultWeeklySpec, "weekly"); err != nil {
		return nil, err
	}
	if c.monthly, err = parse(monthlySpec, DefaultMonthlySpec, "monthly"); err != nil {
		return nil, err
	}
	if c.yearly, err = parse(yearlySpec, DefaultYearlySpec, "yearly"); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the stock weekly/monthly/yearly cadence.
func Default() *Cadence {
	c, err := New("", "", "")
	if err != nil {
		// The default specs are constants; a parse failure is a bug.
		panic(err)
	}
	return c
}

// KindFor returns the snapshot kind for a run at now, evaluated in UTC.
func (c *Cadence) KindFor(now time.Time) snapname.Kind {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch {
	case firesWithin(c.yearly, day):
		return snapname.Yearly
	case firesWithin(c.monthly, day):
		return snapname.Monthly
	case firesWithin(c.weekly, day):
		return snapname.Weekly
	default:
		return snapname.Daily
	}
}

// firesWithin reports whether the schedule has an activation inside the
// 24-hour window starting at dayStart.
func firesWithin(s cron.Schedule, dayStart time.Time) bool {
	next := s.Next(dayStart.Add(-time.Second))
	return !next.IsZero() && next.Before(dayStart.Add(24*time.Hour))
}
