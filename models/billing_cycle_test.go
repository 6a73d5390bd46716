package models

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveBillingCycle_NoCutDay(t *testing.T) {
	if _, ok := ResolveBillingCycle(date(2025, time.March, 10), 0); ok {
		t.Fatal("expected no cycle for cutDay 0")
	}
	if _, ok := ResolveBillingCycle(date(2025, time.March, 10), -3); ok {
		t.Fatal("expected no cycle for negative cutDay")
	}
}

func TestResolveBillingCycle_BeforeAndAfterCut(t *testing.T) {
	// Cut day 15: the 10th belongs to the cycle closing Mar 15.
	cycle, ok := ResolveBillingCycle(date(2025, time.March, 10), 15)
	if !ok {
		t.Fatal("expected a cycle")
	}
	if cycle.CutDate.Day() != 15 || cycle.CutDate.Month() != time.March {
		t.Fatalf("expected cut Mar 15, got %v", cycle.CutDate)
	}

	// The 16th rolls into the cycle closing Apr 15.
	cycle, _ = ResolveBillingCycle(date(2025, time.March, 16), 15)
	if cycle.CutDate.Month() != time.April || cycle.CutDate.Day() != 15 {
		t.Fatalf("expected cut Apr 15, got %v", cycle.CutDate)
	}
}

func TestResolveBillingCycle_CutDayItselfCloses(t *testing.T) {
	// Noon on the cut day is still inside the closing cycle.
	cycle, _ := ResolveBillingCycle(time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC), 15)
	if cycle.CutDate.Month() != time.March {
		t.Fatalf("cut day date should close in its own cycle, got %v", cycle.CutDate)
	}
}

func TestResolveBillingCycle_CutInstant(t *testing.T) {
	cycle, _ := ResolveBillingCycle(date(2025, time.March, 1), 15)
	h, m, s := cycle.CutDate.Clock()
	if h != 23 || m != 59 || s != 59 || cycle.CutDate.Nanosecond() != 999000000 {
		t.Fatalf("cut instant should be 23:59:59.999, got %v", cycle.CutDate)
	}
}

func TestResolveBillingCycle_ClampsShortMonths(t *testing.T) {
	// Cut day 31 in February clamps to the 28th (2025 is not a leap year).
	cycle, _ := ResolveBillingCycle(date(2025, time.February, 10), 31)
	if cycle.CutDate.Month() != time.February || cycle.CutDate.Day() != 28 {
		t.Fatalf("expected clamped cut Feb 28, got %v", cycle.CutDate)
	}

	// Leap year clamps to the 29th.
	cycle, _ = ResolveBillingCycle(date(2024, time.February, 10), 31)
	if cycle.CutDate.Day() != 29 {
		t.Fatalf("expected clamped cut Feb 29, got %v", cycle.CutDate)
	}
}

func TestBillingCycle_NextReclamps(t *testing.T) {
	// Jan 31 cut -> Feb 28 -> Mar 31: the cut day recovers after short months.
	cycle, _ := ResolveBillingCycle(date(2025, time.January, 10), 31)
	if cycle.CutDate.Day() != 31 {
		t.Fatalf("expected Jan 31 cut, got %v", cycle.CutDate)
	}

	next := cycle.Next(31)
	if next.CutDate.Month() != time.February || next.CutDate.Day() != 28 {
		t.Fatalf("expected Feb 28 cut, got %v", next.CutDate)
	}

	third := next.Next(31)
	if third.CutDate.Month() != time.March || third.CutDate.Day() != 31 {
		t.Fatalf("expected Mar 31 cut, got %v", third.CutDate)
	}
}

func TestBillingCycle_StartFollowsPreviousCut(t *testing.T) {
	cycle, _ := ResolveBillingCycle(date(2025, time.March, 20), 15)
	// Cycle closing Apr 15 starts right after Mar 15's cut.
	prevCut := time.Date(2025, time.March, 15, 23, 59, 59, 999000000, time.UTC)
	if !cycle.Start.Equal(prevCut.Add(time.Millisecond)) {
		t.Fatalf("expected start %v, got %v", prevCut.Add(time.Millisecond), cycle.Start)
	}
}

func TestBillingCycle_Contains(t *testing.T) {
	cycle, _ := ResolveBillingCycle(date(2025, time.March, 10), 15)
	cases := []struct {
		d    time.Time
		want bool
	}{
		{date(2025, time.February, 16), true},
		{date(2025, time.March, 15), true},
		{date(2025, time.March, 16), false},
		{date(2025, time.February, 15), false},
	}
	for _, tc := range cases {
		if got := cycle.Contains(tc.d); got != tc.want {
			t.Fatalf("Contains(%v) = %v, want %v", tc.d, got, tc.want)
		}
	}
}
