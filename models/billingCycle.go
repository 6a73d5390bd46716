package models

import "time"

// BillingCycle describes the statement window a given date falls into for a
// credit account with a statement cut day.
type BillingCycle struct {
	// CutDate is the last instant of the cycle: the statement close.
	CutDate time.Time
	// Start is the first instant after the previous cycle's cut.
	Start time.Time
}

// clampCutDay resolves the cut day within a month, pulling it back to the
// month's last day when the configured day does not exist (e.g. day 31 in
// February).
func clampCutDay(year int, month time.Month, cutDay int, loc *time.Location) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	if cutDay > last {
		return last
	}
	return cutDay
}

func cutInstant(year int, month time.Month, cutDay int, loc *time.Location) time.Time {
	day := clampCutDay(year, month, cutDay, loc)
	return time.Date(year, month, day, 23, 59, 59, 999000000, loc)
}

// ResolveBillingCycle returns the billing cycle containing d for the given
// statement cut day. A date on the cut day itself still belongs to the
// closing cycle; the day after opens the next one. Returns false when the
// account has no statement cycle (cutDay <= 0).
func ResolveBillingCycle(d time.Time, cutDay int) (BillingCycle, bool) {
	if cutDay <= 0 {
		return BillingCycle{}, false
	}
	loc := d.Location()
	year, month := d.Year(), d.Month()

	cut := cutInstant(year, month, cutDay, loc)
	if d.After(cut) {
		cut = cutInstant(year, month+1, cutDay, loc)
	}

	prev := cutInstant(cut.Year(), cut.Month()-1, cutDay, loc)
	start := prev.Add(time.Millisecond)

	return BillingCycle{CutDate: cut, Start: start}, true
}

// Next returns the billing cycle immediately after c, re-clamping the cut
// day each month so a 31st cut tracks month ends correctly.
func (c BillingCycle) Next(cutDay int) BillingCycle {
	loc := c.CutDate.Location()
	next := cutInstant(c.CutDate.Year(), c.CutDate.Month()+1, cutDay, loc)
	return BillingCycle{
		CutDate: next,
		Start:   c.CutDate.Add(time.Millisecond),
	}
}

// Contains reports whether d falls inside the cycle window.
func (c BillingCycle) Contains(d time.Time) bool {
	return !d.Before(c.Start) && !d.After(c.CutDate)
}
