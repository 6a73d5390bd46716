package workflow

import (
	"errors"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/models"
	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func activeRule(frequency models.Frequency, nextRun time.Time) *models.RecurringRule {
	return &models.RecurringRule{
		ID:          1,
		Frequency:   frequency,
		Interval:    1,
		StartDate:   nextRun,
		NextRunDate: nextRun,
		IsActive:    utils.NewTrue(),
	}
}

func TestNextOccurrence_Steps(t *testing.T) {
	from := day(2025, time.January, 15)
	cases := []struct {
		frequency models.Frequency
		want      time.Time
	}{
		{models.FrequencyDaily, day(2025, time.January, 16)},
		{models.FrequencyWeekly, day(2025, time.January, 22)},
		{models.FrequencyBiweekly, day(2025, time.January, 29)},
		{models.FrequencyMonthly, day(2025, time.February, 15)},
		{models.FrequencyBimonthly, day(2025, time.March, 15)},
		{models.FrequencyQuarterly, day(2025, time.April, 15)},
		{models.FrequencySemiannually, day(2025, time.July, 15)},
		{models.FrequencyAnnually, day(2026, time.January, 15)},
	}
	for _, tc := range cases {
		got, err := NextOccurrence(tc.frequency, 1, from)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.frequency, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.frequency, tc.want, got)
		}
	}
}

func TestNextOccurrence_IntervalMultiplies(t *testing.T) {
	from := day(2025, time.January, 15)

	got, err := NextOccurrence(models.FrequencyWeekly, 2, from)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if want := day(2025, time.January, 29); !got.Equal(want) {
		t.Fatalf("every 2 weeks: expected %v, got %v", want, got)
	}

	got, err = NextOccurrence(models.FrequencyMonthly, 3, from)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if want := day(2025, time.April, 15); !got.Equal(want) {
		t.Fatalf("every 3 months: expected %v, got %v", want, got)
	}

	// Zero interval behaves like 1 rather than freezing the schedule.
	got, err = NextOccurrence(models.FrequencyDaily, 0, from)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if want := day(2025, time.January, 16); !got.Equal(want) {
		t.Fatalf("zero interval: expected %v, got %v", want, got)
	}
}

func TestNextOccurrence_UnknownFrequency(t *testing.T) {
	_, err := NextOccurrence("fortnightly-ish", 1, day(2025, time.January, 15))
	if !errors.Is(err, utils.ErrorUnknownFrequency) {
		t.Fatalf("expected ErrorUnknownFrequency, got %v", err)
	}
}

func TestGenerateOccurrences_MonthlyWindow(t *testing.T) {
	rule := activeRule(models.FrequencyMonthly, day(2025, time.January, 5))
	got := GenerateOccurrences(rule, day(2025, time.January, 1), day(2025, time.April, 30))
	want := []time.Time{
		day(2025, time.January, 5),
		day(2025, time.February, 5),
		day(2025, time.March, 5),
		day(2025, time.April, 5),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d", len(want), len(got))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("occurrence %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestGenerateOccurrences_IntervalSpacing(t *testing.T) {
	rule := activeRule(models.FrequencyWeekly, day(2025, time.January, 6))
	rule.Interval = 2
	got := GenerateOccurrences(rule, day(2025, time.January, 1), day(2025, time.February, 28))
	want := []time.Time{
		day(2025, time.January, 6),
		day(2025, time.January, 20),
		day(2025, time.February, 3),
		day(2025, time.February, 17),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d", len(want), len(got))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("occurrence %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestGenerateOccurrences_WindowExcludesEarlier(t *testing.T) {
	rule := activeRule(models.FrequencyMonthly, day(2025, time.January, 5))
	got := GenerateOccurrences(rule, day(2025, time.March, 1), day(2025, time.April, 30))
	if len(got) != 2 {
		t.Fatalf("expected 2 occurrences inside the window, got %d", len(got))
	}
	if !got[0].Equal(day(2025, time.March, 5)) {
		t.Fatalf("expected first occurrence Mar 5, got %v", got[0])
	}
}

func TestGenerateOccurrences_EndDateBounds(t *testing.T) {
	end := day(2025, time.February, 28)
	rule := activeRule(models.FrequencyMonthly, day(2025, time.January, 5))
	rule.EndDate = &end
	got := GenerateOccurrences(rule, day(2025, time.January, 1), day(2025, time.December, 31))
	if len(got) != 2 {
		t.Fatalf("expected 2 occurrences before end date, got %d", len(got))
	}
}

func TestGenerateOccurrences_InactiveRule(t *testing.T) {
	rule := activeRule(models.FrequencyMonthly, day(2025, time.January, 5))
	rule.IsActive = utils.NewFalse()
	if got := GenerateOccurrences(rule, day(2025, time.January, 1), day(2025, time.December, 31)); got != nil {
		t.Fatalf("inactive rule should yield nil, got %d occurrences", len(got))
	}
}

func TestGenerateOccurrences_UnknownFrequencyTerminates(t *testing.T) {
	rule := activeRule("sometimes", day(2025, time.January, 5))
	got := GenerateOccurrences(rule, day(2025, time.January, 1), day(2099, time.December, 31))
	if got != nil {
		t.Fatalf("unknown frequency should yield nil, got %d occurrences", len(got))
	}
}

func TestGenerateOccurrences_CapBoundsExpansion(t *testing.T) {
	rule := activeRule(models.FrequencyDaily, day(2020, time.January, 1))
	got := GenerateOccurrences(rule, day(2020, time.January, 1), day(2030, time.January, 1))
	if len(got) != maxOccurrences {
		t.Fatalf("expected expansion capped at %d, got %d", maxOccurrences, len(got))
	}
}

func TestIsRuleDue(t *testing.T) {
	runDate := day(2025, time.March, 10)

	due := activeRule(models.FrequencyMonthly, day(2025, time.March, 10))
	if !IsRuleDue(due, runDate) {
		t.Fatal("same-day rule should be due")
	}

	// Later the same day still counts.
	sameDayLater := activeRule(models.FrequencyMonthly, time.Date(2025, time.March, 10, 18, 30, 0, 0, time.UTC))
	if !IsRuleDue(sameDayLater, runDate) {
		t.Fatal("rule due later today should be due")
	}

	overdue := activeRule(models.FrequencyMonthly, day(2025, time.February, 1))
	if !IsRuleDue(overdue, runDate) {
		t.Fatal("overdue rule should be due")
	}

	future := activeRule(models.FrequencyMonthly, day(2025, time.March, 11))
	if IsRuleDue(future, runDate) {
		t.Fatal("tomorrow's rule should not be due")
	}

	inactive := activeRule(models.FrequencyMonthly, day(2025, time.March, 10))
	inactive.IsActive = utils.NewFalse()
	if IsRuleDue(inactive, runDate) {
		t.Fatal("inactive rule should not be due")
	}

	ended := activeRule(models.FrequencyMonthly, day(2025, time.March, 10))
	end := day(2025, time.March, 1)
	ended.EndDate = &end
	if IsRuleDue(ended, runDate) {
		t.Fatal("rule past its end date should not be due")
	}
}
