package schedule_test

import (
	"testing"
	"time"

	"rsyncsnap/src/schedule"
	"rsyncsnap/src/snapname"
)

func TestKindFor_Defaults(t *testing.T) {
	c := schedule.Default()
	cases := []struct {
		day  time.Time
		want snapname.Kind
	}{
		// 2024-01-01 is a Monday and New Year's Day: yearly wins.
		{time.Date(2024, 1, 1, 4, 0, 0, 0, time.UTC), snapname.Yearly},
		// First of a regular month.
		{time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC), snapname.Monthly},
		// 2024-03-03 is a Sunday.
		{time.Date(2024, 3, 3, 4, 0, 0, 0, time.UTC), snapname.Weekly},
		// Plain weekday.
		{time.Date(2024, 3, 5, 4, 0, 0, 0, time.UTC), snapname.Daily},
		// 2024-09-01 is both a Sunday and the 1st: coarser kind wins.
		{time.Date(2024, 9, 1, 4, 0, 0, 0, time.UTC), snapname.Monthly},
	}
	for _, tc := range cases {
		if got := c.KindFor(tc.day); got != tc.want {
			t.Errorf("KindFor(%s) = %s, want %s", tc.day.Format(time.DateOnly), got, tc.want)
		}
	}
}

func TestKindFor_LateInTheDay(t *testing.T) {
	// The boundary fires at midnight, but a run any time that day still
	// takes the boundary kind.
	c := schedule.Default()
	if got := c.KindFor(time.Date(2024, 1, 1, 23, 59, 59, 0, time.UTC)); got != snapname.Yearly {
		t.Fatalf("KindFor = %s, want yearly", got)
	}
}

func TestNew_CustomSpecs(t *testing.T) {
	// Weekly on Wednesdays.
	c, err := schedule.New("0 0 * * 3", "", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// 2024-03-06 is a Wednesday.
	if got := c.KindFor(time.Date(2024, 3, 6, 4, 0, 0, 0, time.UTC)); got != snapname.Weekly {
		t.Fatalf("KindFor = %s, want weekly", got)
	}
	// Sunday is now a plain day.
	if got := c.KindFor(time.Date(2024, 3, 3, 4, 0, 0, 0, time.UTC)); got != snapname.Daily {
		t.Fatalf("KindFor = %s, want daily", got)
	}
}

func TestNew_BadSpec(t *testing.T) {
	if _, err := schedule.New("not a cron spec", "", ""); err == nil {
		t.Fatal("expected error for bad cron spec")
	}
}
