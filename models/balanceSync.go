package models

import (
	"context"

	"bitbucket.org/mmdatafocus/fintrack_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BalanceDelta returns the signed amount a transaction contributes to its
// account's current balance.
//
// Liability (credit card) balances grow with spending and shrink with
// payments, so the signs invert relative to asset accounts:
//
//	asset:     expense -amount, income +amount
//	liability: expense +amount, income -amount
//
// Transfers resolve through their side first: the incoming leg behaves like
// income, the outgoing leg like an expense.
func BalanceDelta(class AccountClass, txType TransactionType, side TransferSide, amount decimal.Decimal) decimal.Decimal {
	effective := txType
	if txType == TransactionTypeTransfer {
		if side == TransferSideIncoming {
			effective = TransactionTypeIncome
		} else {
			effective = TransactionTypeExpense
		}
	}

	if class == AccountClassLiability {
		if effective == TransactionTypeExpense {
			return amount
		}
		return amount.Neg()
	}

	// asset
	if effective == TransactionTypeExpense {
		return amount.Neg()
	}
	return amount
}

// ApplyBalanceDelta adds delta to the account's current balance with a single
// additive UPDATE. Concurrent appliers serialize on the row, never lose
// increments.
func ApplyBalanceDelta(tx *gorm.DB, accountId int, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	return tx.Model(&Account{}).
		Where("id = ?", accountId).
		UpdateColumn("current_balance", gorm.Expr("current_balance + ?", delta)).Error
}

// TransactionBalanceDelta resolves the delta a stored row contributes. An
// installment purchase master (InstallmentsTotal > 1) is balance-neutral:
// debt accrues through its materialized per-cycle settlement rows, so the
// lifetime contribution of the purchase is exactly its amount, once.
func TransactionBalanceDelta(class AccountClass, t *Transaction) decimal.Decimal {
	if t.InstallmentsTotal > 1 {
		return decimal.Zero
	}
	return BalanceDelta(class, t.Type, t.TransferSide, t.Amount)
}

// balanceDeltaForRow resolves the delta a stored transaction row contributes,
// looking up the account class inside the same transaction.
func balanceDeltaForRow(tx *gorm.DB, t *Transaction) (decimal.Decimal, error) {
	var class AccountClass
	if err := tx.Model(&Account{}).Where("id = ?", t.AccountId).Select("class").Scan(&class).Error; err != nil {
		return decimal.Zero, err
	}
	return TransactionBalanceDelta(class, t), nil
}

// RecomputeAccountBalance rebuilds an account's current balance from its
// opening balance plus the deltas of every settled (non-draft, non-deleted)
// transaction. Returns the recomputed value without writing it.
func RecomputeAccountBalance(ctx context.Context, tx *gorm.DB, accountId int) (decimal.Decimal, error) {
	var account Account
	if err := tx.WithContext(ctx).First(&account, accountId).Error; err != nil {
		return decimal.Zero, err
	}

	var rows []*Transaction
	if err := tx.WithContext(ctx).
		Where("account_id = ? AND is_draft = 0 AND is_deleted = 0", accountId).
		Find(&rows).Error; err != nil {
		return decimal.Zero, err
	}

	balance := account.OpeningBalance
	for _, row := range rows {
		balance = balance.Add(TransactionBalanceDelta(account.Class, row))
	}
	return balance, nil
}

// SyncAccountBalance recomputes and persists the account's balance, returning
// the stored and recomputed values so callers can report drift.
func SyncAccountBalance(ctx context.Context, accountId int) (stored decimal.Decimal, recomputed decimal.Decimal, err error) {
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account Account
		if err := tx.First(&account, accountId).Error; err != nil {
			return err
		}
		stored = account.CurrentBalance

		recomputed, err = RecomputeAccountBalance(ctx, tx, accountId)
		if err != nil {
			return err
		}
		if stored.Equal(recomputed) {
			return nil
		}
		return tx.Model(&Account{}).
			Where("id = ?", accountId).
			UpdateColumn("current_balance", recomputed).Error
	})
	return stored, recomputed, err
}
