package snapname_test

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"rsyncsnap/src/snapname"
)

func TestFormat_KnownName(t *testing.T) {
	stamp := time.Date(2012, 8, 7, 4, 21, 55, 0, time.UTC)
	n, err := snapname.New(snapname.Daily, stamp)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if got := n.String(); got != "daily-20120807T042155" {
		t.Fatalf("String() = %q, want daily-20120807T042155", got)
	}
}

func TestFormat_AlwaysUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	local := time.Date(2024, 1, 1, 1, 0, 0, 0, loc)
	n, err := snapname.New(snapname.Daily, local)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if got := n.String(); got != "daily-20231231T230000" {
		t.Fatalf("String() = %q, want daily-20231231T230000", got)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	for _, kind := range snapname.Kinds() {
		n, err := snapname.New(kind, time.Date(2023, 6, 15, 12, 30, 45, 0, time.UTC))
		if err != nil {
			t.Fatalf("New(%s): %v", kind, err)
		}
		back, err := snapname.Parse(n.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", n, err)
		}
		if back != n {
			t.Fatalf("round trip: got %+v, want %+v", back, n)
		}
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, s := range []string{
		"",
		"daily",
		"daily-",
		"daily-2012",
		"hourly-20120807T042155",
		"daily-20120807T042155.bak",
		"lost+found",
		"current",
		"previous",
	} {
		if _, err := snapname.Parse(s); err == nil {
			t.Fatalf("Parse(%q): expected error", s)
		}
	}
}

func TestParseKind_Invalid(t *testing.T) {
	if _, err := snapname.ParseKind("hourly"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if _, err := snapname.New(snapname.Kind("hourly"), time.Now()); err == nil {
		t.Fatal("expected error for unknown kind in New")
	}
}

func TestNames_OneSecondApart_SortInTimeOrder(t *testing.T) {
	base := time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)
	a, _ := snapname.New(snapname.Daily, base)
	b, _ := snapname.New(snapname.Daily, base.Add(time.Second))
	if a.String() == b.String() {
		t.Fatal("names one second apart must differ")
	}
	if !(a.String() < b.String()) {
		t.Fatalf("%q should sort before %q", a, b)
	}
}

func TestNameOrder_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Any two distinct instants of the same kind produce names whose string
	// order matches their time order.
	properties.Property("string order equals time order", prop.ForAll(
		func(a, b int64) bool {
			ta := time.Unix(a, 0).UTC()
			tb := time.Unix(b, 0).UTC()
			na, err := snapname.New(snapname.Daily, ta)
			if err != nil {
				return false
			}
			nb, err := snapname.New(snapname.Daily, tb)
			if err != nil {
				return false
			}
			if ta.Equal(tb) {
				return na.String() == nb.String()
			}
			return ta.Before(tb) == (na.String() < nb.String())
		},
		gen.Int64Range(0, 4102444800), // 1970..2100
		gen.Int64Range(0, 4102444800),
	))

	properties.TestingRun(t)
}
