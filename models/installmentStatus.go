package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus summarizes how far an installment purchase has progressed
// against its account's statement cycles at a given point in time.
type InstallmentStatus struct {
	// Current is the 1-based number of the installment the holder is in.
	Current int             `json:"current"`
	Total   int             `json:"total"`
	Monthly decimal.Decimal `json:"monthly"`
	Paid    decimal.Decimal `json:"paid"`
	// Remaining is the amount not yet billed across future cycles.
	Remaining decimal.Decimal `json:"remaining"`
}

// CalculateInstallmentStatus derives the installment position of a purchase
// on a credit account with the given statement cut day. It counts how many
// statement cuts have passed between the purchase date and now, bounded by
// the total number of installments. Returns nil for non-installment
// purchases (total <= 1).
//
// With no cut day configured the purchase is treated as sitting in its first
// installment with nothing billed yet.
func CalculateInstallmentStatus(purchaseDate time.Time, amount decimal.Decimal, total int, cutDay int, now time.Time) *InstallmentStatus {
	if total <= 1 {
		return nil
	}

	monthly := amount.DivRound(decimal.NewFromInt(int64(total)), 4)

	cycle, ok := ResolveBillingCycle(purchaseDate, cutDay)
	if !ok {
		return &InstallmentStatus{
			Current:   1,
			Total:     total,
			Monthly:   monthly,
			Paid:      decimal.Zero,
			Remaining: amount,
		}
	}

	// Count statement cuts strictly before now, bounded by total.
	elapsed := 0
	for cycle.CutDate.Before(now) && elapsed < total {
		elapsed++
		cycle = cycle.Next(cutDay)
	}

	current := elapsed + 1
	if current > total {
		current = total
	}

	paid := monthly.Mul(decimal.NewFromInt(int64(elapsed)))
	remaining := amount.Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return &InstallmentStatus{
		Current:   current,
		Total:     total,
		Monthly:   monthly,
		Paid:      paid,
		Remaining: remaining,
	}
}

// InstallmentDueDate returns the date installment n (1-based) of a purchase
// falls due: the purchase date shifted forward n months. time.AddDate
// normalizes short months, so a Jan 31 purchase dues Mar 3 in non-leap
// February terms; cycle clamping happens at statement level, not here.
func InstallmentDueDate(purchaseDate time.Time, n int) time.Time {
	return purchaseDate.AddDate(0, n, 0)
}
