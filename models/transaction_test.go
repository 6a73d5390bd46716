package models

import "testing"

// The credit-account rule applies on create and again when an edit moves the
// purchase to a different account, so an unsettled installment master can
// never land on a cash or bank account.
func TestInstallmentAccountEligible(t *testing.T) {
	cases := []struct {
		name  string
		total int
		kind  AccountKind
		want  bool
	}{
		{"installments on credit", 3, AccountKindCredit, true},
		{"installments on cash", 3, AccountKindCash, false},
		{"installments on bank", 3, AccountKindBank, false},
		{"installments on investment", 3, AccountKindInvestment, false},
		{"one-off on cash", 1, AccountKindCash, true},
		{"one-off on bank", 0, AccountKindBank, true},
	}
	for _, tc := range cases {
		if got := installmentAccountEligible(tc.total, tc.kind); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
