package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCalculateInstallmentStatus_NotAnInstallment(t *testing.T) {
	if s := CalculateInstallmentStatus(date(2025, time.March, 20), decimal.NewFromInt(300), 1, 15, date(2025, time.June, 1)); s != nil {
		t.Fatalf("total=1 should yield nil, got %+v", s)
	}
	if s := CalculateInstallmentStatus(date(2025, time.March, 20), decimal.NewFromInt(300), 0, 15, date(2025, time.June, 1)); s != nil {
		t.Fatalf("total=0 should yield nil, got %+v", s)
	}
}

func TestCalculateInstallmentStatus_NoCutDay(t *testing.T) {
	amount := decimal.NewFromInt(300)
	s := CalculateInstallmentStatus(date(2025, time.March, 20), amount, 3, 0, date(2025, time.June, 1))
	if s == nil {
		t.Fatal("expected a status")
	}
	if s.Current != 1 {
		t.Fatalf("expected current 1, got %d", s.Current)
	}
	if !s.Paid.IsZero() {
		t.Fatalf("expected zero paid, got %s", s.Paid)
	}
	if !s.Remaining.Equal(amount) {
		t.Fatalf("expected remaining %s, got %s", amount, s.Remaining)
	}
}

// 300 over 3 installments, cut day 15, purchased Mar 20 (after the March
// cut, so the first statement charging it closes Apr 15).
func TestCalculateInstallmentStatus_ThreeByThreeHundred(t *testing.T) {
	purchase := date(2025, time.March, 20)
	amount := decimal.NewFromInt(300)
	hundred := decimal.NewFromInt(100)

	cases := []struct {
		now       time.Time
		current   int
		paid      decimal.Decimal
		remaining decimal.Decimal
	}{
		// Before the first cut: in installment 1, nothing billed.
		{date(2025, time.April, 1), 1, decimal.Zero, amount},
		// After Apr 15 cut: installment 2, 100 billed.
		{date(2025, time.April, 16), 2, hundred, decimal.NewFromInt(200)},
		// After May 15 cut: installment 3, 200 billed.
		{date(2025, time.May, 16), 3, decimal.NewFromInt(200), hundred},
		// After Jun 15 cut: fully billed, current clamps at total.
		{date(2025, time.June, 16), 3, amount, decimal.Zero},
		// Long after: stays clamped.
		{date(2026, time.January, 1), 3, amount, decimal.Zero},
	}
	for _, tc := range cases {
		s := CalculateInstallmentStatus(purchase, amount, 3, 15, tc.now)
		if s == nil {
			t.Fatalf("now=%v expected a status", tc.now)
		}
		if s.Current != tc.current {
			t.Fatalf("now=%v expected current %d, got %d", tc.now, tc.current, s.Current)
		}
		if !s.Monthly.Equal(hundred) {
			t.Fatalf("now=%v expected monthly 100, got %s", tc.now, s.Monthly)
		}
		if !s.Paid.Equal(tc.paid) {
			t.Fatalf("now=%v expected paid %s, got %s", tc.now, tc.paid, s.Paid)
		}
		if !s.Remaining.Equal(tc.remaining) {
			t.Fatalf("now=%v expected remaining %s, got %s", tc.now, tc.remaining, s.Remaining)
		}
	}
}

func TestCalculateInstallmentStatus_MonotonicOverTime(t *testing.T) {
	purchase := date(2025, time.January, 7)
	amount := decimal.NewFromFloat(999.99)

	prevCurrent := 0
	prevPaid := decimal.Zero
	now := purchase
	for i := 0; i < 24; i++ {
		s := CalculateInstallmentStatus(purchase, amount, 12, 28, now)
		if s.Current < prevCurrent {
			t.Fatalf("current regressed from %d to %d at %v", prevCurrent, s.Current, now)
		}
		if s.Paid.LessThan(prevPaid) {
			t.Fatalf("paid regressed from %s to %s at %v", prevPaid, s.Paid, now)
		}
		if s.Current > s.Total {
			t.Fatalf("current %d exceeded total %d at %v", s.Current, s.Total, now)
		}
		if s.Remaining.IsNegative() {
			t.Fatalf("remaining went negative (%s) at %v", s.Remaining, now)
		}
		prevCurrent, prevPaid = s.Current, s.Paid
		now = now.AddDate(0, 1, 0)
	}
	if prevCurrent != 12 {
		t.Fatalf("expected to end clamped at 12, got %d", prevCurrent)
	}
}

func TestCalculateInstallmentStatus_MonthlyRounding(t *testing.T) {
	// 100 over 3 rounds to 33.3333 at 4dp.
	s := CalculateInstallmentStatus(date(2025, time.March, 20), decimal.NewFromInt(100), 3, 15, date(2025, time.April, 1))
	want := decimal.NewFromFloat(33.3333)
	if !s.Monthly.Equal(want) {
		t.Fatalf("expected monthly %s, got %s", want, s.Monthly)
	}
}

func TestInstallmentDueDate(t *testing.T) {
	purchase := date(2025, time.March, 20)
	if got := InstallmentDueDate(purchase, 1); !got.Equal(date(2025, time.April, 20)) {
		t.Fatalf("expected Apr 20, got %v", got)
	}
	if got := InstallmentDueDate(purchase, 3); !got.Equal(date(2025, time.June, 20)) {
		t.Fatalf("expected Jun 20, got %v", got)
	}
	// Jan 31 + 1 month normalizes to Mar 3 (2025 has 28 days in Feb).
	if got := InstallmentDueDate(date(2025, time.January, 31), 1); !got.Equal(date(2025, time.March, 3)) {
		t.Fatalf("expected Mar 3, got %v", got)
	}
}
