package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestBalanceDelta_SignRules(t *testing.T) {
	amount := decimal.NewFromInt(50)

	cases := []struct {
		name   string
		class  AccountClass
		txType TransactionType
		side   TransferSide
		want   decimal.Decimal
	}{
		{"asset expense", AccountClassAsset, TransactionTypeExpense, "", amount.Neg()},
		{"asset income", AccountClassAsset, TransactionTypeIncome, "", amount},
		{"liability expense", AccountClassLiability, TransactionTypeExpense, "", amount},
		{"liability income", AccountClassLiability, TransactionTypeIncome, "", amount.Neg()},
		{"asset transfer out", AccountClassAsset, TransactionTypeTransfer, TransferSideOutgoing, amount.Neg()},
		{"asset transfer in", AccountClassAsset, TransactionTypeTransfer, TransferSideIncoming, amount},
		{"liability transfer out", AccountClassLiability, TransactionTypeTransfer, TransferSideOutgoing, amount},
		{"liability transfer in", AccountClassLiability, TransactionTypeTransfer, TransferSideIncoming, amount.Neg()},
	}
	for _, tc := range cases {
		got := BalanceDelta(tc.class, tc.txType, tc.side, amount)
		if !got.Equal(tc.want) {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

// Paying a credit card is a transfer: the asset side goes down and the
// liability side goes down by the same amount.
func TestBalanceDelta_CardPayment(t *testing.T) {
	amount := decimal.NewFromInt(120)

	fromBank := BalanceDelta(AccountClassAsset, TransactionTypeTransfer, TransferSideOutgoing, amount)
	toCard := BalanceDelta(AccountClassLiability, TransactionTypeTransfer, TransferSideIncoming, amount)

	if !fromBank.Equal(amount.Neg()) {
		t.Fatalf("bank leg should be -%s, got %s", amount, fromBank)
	}
	if !toCard.Equal(amount.Neg()) {
		t.Fatalf("card leg should reduce debt by %s, got %s", amount, toCard)
	}
}

// Replaying a history of deltas lands on the same balance as applying edits
// incrementally: an edit contributes newDelta - oldDelta, a delete -oldDelta,
// and drafts contribute nothing.
func TestBalanceDelta_ReplayMatchesIncremental(t *testing.T) {
	type row struct {
		txType  TransactionType
		amount  decimal.Decimal
		draft   bool
		deleted bool
	}
	history := []row{
		{TransactionTypeIncome, decimal.NewFromInt(1000), false, false},
		{TransactionTypeExpense, decimal.NewFromInt(250), false, false},
		{TransactionTypeExpense, decimal.NewFromInt(75), true, false},  // draft, no effect
		{TransactionTypeIncome, decimal.NewFromInt(40), false, true},   // deleted, no effect
		{TransactionTypeExpense, decimal.NewFromFloat(10.25), false, false},
	}

	opening := decimal.NewFromInt(500)
	replayed := opening
	for _, r := range history {
		if r.draft || r.deleted {
			continue
		}
		replayed = replayed.Add(BalanceDelta(AccountClassAsset, r.txType, "", r.amount))
	}

	// Incremental: apply everything, then revert the delete, and the draft
	// contributed zero from the start.
	incremental := opening
	for _, r := range history {
		if r.draft {
			continue
		}
		incremental = incremental.Add(BalanceDelta(AccountClassAsset, r.txType, "", r.amount))
	}
	deleted := history[3]
	incremental = incremental.Sub(BalanceDelta(AccountClassAsset, deleted.txType, "", deleted.amount))

	if !replayed.Equal(incremental) {
		t.Fatalf("replay %s != incremental %s", replayed, incremental)
	}

	want := decimal.NewFromFloat(1239.75)
	if !replayed.Equal(want) {
		t.Fatalf("expected %s, got %s", want, replayed)
	}
}

// An installment purchase charges the account exactly once over its lifetime:
// the master row is balance-neutral and each settled installment contributes
// its monthly share, so a fully settled 300/3 purchase adds 300 of debt, not 600.
func TestTransactionBalanceDelta_InstallmentPurchaseChargesOnce(t *testing.T) {
	amount := decimal.NewFromInt(300)
	total := 3
	monthly := amount.DivRound(decimal.NewFromInt(int64(total)), 4)

	master := &Transaction{
		Type:              TransactionTypeExpense,
		Amount:            amount,
		InstallmentsTotal: total,
		InstallmentsPaid:  total,
	}
	if got := TransactionBalanceDelta(AccountClassLiability, master); !got.IsZero() {
		t.Fatalf("master row should be balance-neutral, got %s", got)
	}

	masterID := 7
	debt := decimal.Zero
	rows := []*Transaction{master}
	for n := 1; n <= total; n++ {
		rows = append(rows, &Transaction{
			Type:                TransactionTypeExpense,
			Amount:              monthly,
			SourceTransactionId: &masterID,
		})
	}
	for _, row := range rows {
		debt = debt.Add(TransactionBalanceDelta(AccountClassLiability, row))
	}

	if !debt.Equal(amount) {
		t.Fatalf("fully settled purchase should add exactly %s of debt, got %s", amount, debt)
	}
}

func TestBalanceDelta_EditIsDifferenceOfDeltas(t *testing.T) {
	opening := decimal.NewFromInt(100)
	oldAmount := decimal.NewFromInt(30)
	newAmount := decimal.NewFromInt(45)

	oldDelta := BalanceDelta(AccountClassAsset, TransactionTypeExpense, "", oldAmount)
	newDelta := BalanceDelta(AccountClassAsset, TransactionTypeExpense, "", newAmount)

	afterCreate := opening.Add(oldDelta)
	afterEdit := afterCreate.Add(newDelta.Sub(oldDelta))

	direct := opening.Add(newDelta)
	if !afterEdit.Equal(direct) {
		t.Fatalf("edit arithmetic %s != direct %s", afterEdit, direct)
	}
}
