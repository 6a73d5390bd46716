package workflow

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/models"
	"github.com/shopspring/decimal"
)

func TestDailyYieldRate(t *testing.T) {
	rate := decimal.NewFromFloat(10.95) // percent

	daily := dailyYieldRate(rate, models.YieldFrequencyDaily)
	if want := decimal.NewFromFloat(0.1095); !daily.Equal(want) {
		t.Fatalf("daily basis: expected %s, got %s", want, daily)
	}

	monthly := dailyYieldRate(rate, models.YieldFrequencyMonthly)
	if want := decimal.NewFromFloat(0.1095).Div(decimal.NewFromInt(30)); !monthly.Equal(want) {
		t.Fatalf("monthly basis: expected %s, got %s", want, monthly)
	}

	annual := dailyYieldRate(rate, models.YieldFrequencyAnnually)
	if want := decimal.NewFromFloat(0.1095).Div(decimal.NewFromInt(365)); !annual.Equal(want) {
		t.Fatalf("annual basis: expected %s, got %s", want, annual)
	}
}

func TestMissedAccrualDays(t *testing.T) {
	now := time.Date(2025, time.June, 10, 8, 0, 0, 0, time.UTC)

	if got := missedAccrualDays(nil, now); got != 1 {
		t.Fatalf("never accrued: expected 1, got %d", got)
	}

	sameInstant := now
	if got := missedAccrualDays(&sameInstant, now); got != 0 {
		t.Fatalf("no elapsed time: expected 0, got %d", got)
	}

	oneDay := now.AddDate(0, 0, -1)
	if got := missedAccrualDays(&oneDay, now); got != 1 {
		t.Fatalf("one day: expected 1, got %d", got)
	}

	// Partial days round up.
	partial := now.Add(-36 * time.Hour)
	if got := missedAccrualDays(&partial, now); got != 2 {
		t.Fatalf("36h: expected 2, got %d", got)
	}

	threeDays := now.AddDate(0, 0, -3)
	if got := missedAccrualDays(&threeDays, now); got != 3 {
		t.Fatalf("three days: expected 3, got %d", got)
	}
}

// An account with nothing to credit must not count as accrued: zero or
// negative balances produce a non-positive accrual and the runner skips them.
func TestComputeAccrual_NonPositiveIsSkippable(t *testing.T) {
	account := &models.Account{
		CurrentBalance: decimal.Zero,
		YieldRate:      decimal.NewFromFloat(7.3),
		YieldFrequency: models.YieldFrequencyAnnually,
	}
	if got := computeAccrual(account, 3); got.IsPositive() {
		t.Fatalf("zero balance should not accrue, got %s", got)
	}

	account.CurrentBalance = decimal.NewFromInt(-500)
	if got := computeAccrual(account, 1); got.IsPositive() {
		t.Fatalf("negative balance should not accrue, got %s", got)
	}

	account.CurrentBalance = decimal.NewFromInt(10000)
	want := decimal.NewFromInt(10000).
		Mul(dailyYieldRate(account.YieldRate, account.YieldFrequency)).
		Mul(decimal.NewFromInt(3)).Round(4)
	if got := computeAccrual(account, 3); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

// Simple interest on a fixed balance is additive: accruing three missed days
// at once equals accruing one day three times.
func TestYieldAccrual_CatchUpAdditivity(t *testing.T) {
	balance := decimal.NewFromInt(10000)
	rate := dailyYieldRate(decimal.NewFromFloat(7.3), models.YieldFrequencyAnnually)

	batch := balance.Mul(rate).Mul(decimal.NewFromInt(3))

	oneDay := balance.Mul(rate)
	stepwise := oneDay.Add(oneDay).Add(oneDay)

	if !batch.Equal(stepwise) {
		t.Fatalf("batch %s != stepwise %s", batch, stepwise)
	}
}

func TestYieldAccrual_NonCompoundingWithinRun(t *testing.T) {
	balance := decimal.NewFromInt(10000)
	rate := dailyYieldRate(decimal.NewFromInt(10), models.YieldFrequencyDaily) // 10%/day, exaggerated

	// Two missed days accrue on the starting balance, not on day one's
	// grown balance.
	accrued := balance.Mul(rate).Mul(decimal.NewFromInt(2))
	if want := decimal.NewFromInt(2000); !accrued.Equal(want) {
		t.Fatalf("expected simple accrual %s, got %s", want, accrued)
	}

	compounded := balance.Mul(rate).Add(balance.Add(balance.Mul(rate)).Mul(rate))
	if accrued.Equal(compounded) {
		t.Fatal("accrual should not compound within a run")
	}
}
