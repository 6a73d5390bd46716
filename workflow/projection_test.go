package workflow

import (
	"sort"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/models"
	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
	"github.com/shopspring/decimal"
)

// Projection is read-only over rules and purchases, so repeated expansion of
// the same inputs must yield identical entries.
func TestProjection_DeterministicExpansion(t *testing.T) {
	rule := activeRule(models.FrequencyWeekly, day(2025, time.May, 2))
	from, to := day(2025, time.May, 1), day(2025, time.July, 31)

	first := GenerateOccurrences(rule, from, to)
	for run := 0; run < 50; run++ {
		again := GenerateOccurrences(rule, from, to)
		if len(again) != len(first) {
			t.Fatalf("run %d: expected %d occurrences, got %d", run, len(first), len(again))
		}
		for i := range first {
			if !again[i].Equal(first[i]) {
				t.Fatalf("run %d: occurrence %d diverged: %v vs %v", run, i, first[i], again[i])
			}
		}
	}
}

// A projection merges rule occurrences and installment dues into one
// date-ordered stream, mirroring what ProjectCalendar assembles.
func TestProjection_MergedEntriesSortByDate(t *testing.T) {
	rule := activeRule(models.FrequencyMonthly, day(2025, time.April, 1))
	from, to := day(2025, time.March, 15), day(2025, time.August, 31)

	entries := make([]CalendarEntry, 0)
	for _, d := range GenerateOccurrences(rule, from, to) {
		entries = append(entries, CalendarEntry{Date: d, Source: "rule", Amount: decimal.NewFromInt(50)})
	}

	// Purchase Mar 20, 3 installments: dues Apr/May/Jun 20.
	purchase := day(2025, time.March, 20)
	for n := 1; n <= 3; n++ {
		entries = append(entries, CalendarEntry{
			Date:   models.InstallmentDueDate(purchase, n),
			Source: "installment",
			Amount: decimal.NewFromInt(100),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})

	if len(entries) != 8 {
		t.Fatalf("expected 8 merged entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Date.Before(entries[i-1].Date) {
			t.Fatalf("entries out of order at %d: %v before %v", i, entries[i].Date, entries[i-1].Date)
		}
	}
	// The Apr 1 rule occurrence precedes the Apr 20 installment due.
	if entries[0].Source != "rule" || !entries[0].Date.Equal(day(2025, time.April, 1)) {
		t.Fatalf("expected first entry rule@Apr 1, got %s@%v", entries[0].Source, entries[0].Date)
	}
}

// End-to-end scenario: 300 over 3, cut day 15, purchased Mar 20. The derived
// status and the projected due dates must agree on when money moves.
func TestProjection_InstallmentScenarioAgainstStatus(t *testing.T) {
	purchase := day(2025, time.March, 20)
	amount := decimal.NewFromInt(300)
	total := 3

	dues := make([]time.Time, 0, total)
	for n := 1; n <= total; n++ {
		dues = append(dues, models.InstallmentDueDate(purchase, n))
	}

	// After each due date passes its statement cut, the status' paid amount
	// equals the sum of monthly shares projected up to that point.
	monthly := amount.DivRound(decimal.NewFromInt(int64(total)), 4)
	for i, due := range dues {
		cycle, ok := models.ResolveBillingCycle(due, 15)
		if !ok {
			t.Fatal("expected a billing cycle")
		}
		afterCut := cycle.CutDate.Add(24 * time.Hour)
		status := models.CalculateInstallmentStatus(purchase, amount, total, 15, afterCut)
		wantPaid := monthly.Mul(decimal.NewFromInt(int64(i + 1)))
		if !status.Paid.Equal(wantPaid) {
			t.Fatalf("after due %d cut: expected paid %s, got %s", i+1, wantPaid, status.Paid)
		}
	}
}

func TestProjection_RuleDueAndOccurrenceAgree(t *testing.T) {
	rule := activeRule(models.FrequencyMonthly, day(2025, time.June, 3))

	// Every generated occurrence inside the window is a date on which the
	// runner would consider the rule due (given the schedule had advanced
	// to it).
	for _, occ := range GenerateOccurrences(rule, day(2025, time.June, 1), day(2025, time.September, 30)) {
		probe := activeRule(models.FrequencyMonthly, occ)
		if !IsRuleDue(probe, utils.EndOfDay(occ)) {
			t.Fatalf("occurrence %v should be due on its own day", occ)
		}
	}
}
