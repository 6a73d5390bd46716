package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/config"
	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Transaction struct {
	ID        int               `gorm:"primary_key" json:"id"`
	ProfileId string            `gorm:"index;not null" json:"profile_id"`
	AccountId int               `gorm:"index;not null" json:"account_id" binding:"required"`
	Type      TransactionType   `gorm:"type:enum('expense','income','transfer');size:12;not null" json:"type" binding:"required"`
	Origin    TransactionOrigin `gorm:"type:enum('manual','recurring','yield','aggregator');default:'manual';size:12;not null" json:"origin"`
	Amount    decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"amount"`
	// TransactionDate is the purchase/settlement date. Installment due dates
	// derive from it, so it never changes once installments start settling.
	TransactionDate time.Time `gorm:"index;not null" json:"transaction_date"`
	Description     string    `gorm:"size:255" json:"description"`
	Category        string    `gorm:"size:100;index" json:"category"`
	// Installment purchase fields (credit accounts). Total <= 1 means a
	// regular one-off purchase. A master row with Total > 1 never touches the
	// balance itself; each settled installment posts its share.
	InstallmentsTotal int `gorm:"not null;default:0" json:"installments_total"`
	InstallmentsPaid  int `gorm:"not null;default:0" json:"installments_paid"`
	// Transfer pairing. Both legs share a group id; the side tells which
	// account the money left and which it entered.
	TransferGroupId *string      `gorm:"size:64;index" json:"transfer_group_id"`
	TransferSide    TransferSide `gorm:"size:12" json:"transfer_side"`
	// Settlement provenance.
	SourceTransactionId *int       `gorm:"index" json:"source_transaction_id"`
	SourceRuleId        *int       `gorm:"index" json:"source_rule_id"`
	IsDraft             *bool      `gorm:"not null;default:false" json:"is_draft"`
	IsDeleted           *bool      `gorm:"not null;default:false;index" json:"is_deleted"`
	Notes               string     `gorm:"type:text" json:"notes"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTransaction struct {
	AccountId       int             `json:"account_id" binding:"required"`
	Type            TransactionType `json:"type" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	TransactionDate time.Time       `json:"transaction_date" binding:"required"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	// CounterAccountId is required for transfers: the account the money moves to.
	CounterAccountId  int    `json:"counter_account_id"`
	InstallmentsTotal int    `json:"installments_total"`
	IsDraft           *bool  `json:"is_draft"`
	Notes             string `json:"notes"`
}

type TransactionsEdge Edge[Transaction]
type TransactionsConnection struct {
	PageInfo *PageInfo           `json:"pageInfo"`
	Edges    []*TransactionsEdge `json:"edges"`
}

func (t Transaction) GetCursor() string {
	return t.TransactionDate.String()
}

func (t Transaction) GetId() int {
	return t.ID
}

func (t Transaction) GetProfileId() string {
	return t.ProfileId
}

func (t Transaction) isDraft() bool {
	return utils.DereferencePtr(t.IsDraft)
}

func (t Transaction) isDeleted() bool {
	return utils.DereferencePtr(t.IsDeleted)
}

func (input *NewTransaction) validate(ctx context.Context, profileId string) (*Account, *Account, error) {
	if !input.Amount.IsPositive() {
		return nil, nil, errors.New("amount must be positive")
	}

	account, err := utils.FetchModel[Account](ctx, profileId, input.AccountId)
	if err != nil {
		return nil, nil, errors.New("account not found")
	}
	if utils.DereferencePtr(account.IsArchived) {
		return nil, nil, utils.ErrorArchivedAccount
	}

	var counter *Account
	if input.Type == TransactionTypeTransfer {
		if input.CounterAccountId == 0 {
			return nil, nil, errors.New("counter account is required for transfers")
		}
		if input.CounterAccountId == input.AccountId {
			return nil, nil, errors.New("cannot transfer to the same account")
		}
		counter, err = utils.FetchModel[Account](ctx, profileId, input.CounterAccountId)
		if err != nil {
			return nil, nil, errors.New("counter account not found")
		}
		if utils.DereferencePtr(counter.IsArchived) {
			return nil, nil, utils.ErrorArchivedAccount
		}
	}

	if input.InstallmentsTotal < 0 {
		return nil, nil, errors.New("installments total cannot be negative")
	}
	if input.InstallmentsTotal > 1 && input.Type != TransactionTypeExpense {
		return nil, nil, errors.New("installments only apply to expenses")
	}
	if !installmentAccountEligible(input.InstallmentsTotal, account.Kind) {
		return nil, nil, errors.New("installments only apply to credit accounts")
	}

	return account, counter, nil
}

// installmentAccountEligible holds on create and on account moves: an
// installment purchase may only live on a credit account.
func installmentAccountEligible(installmentsTotal int, kind AccountKind) bool {
	return installmentsTotal <= 1 || kind == AccountKindCredit
}

// CreateTransaction records a transaction and keeps the owning account's
// balance in sync within the same DB transaction. Transfers create two rows,
// one per leg, sharing a transfer group id.
func CreateTransaction(ctx context.Context, input *NewTransaction) (*Transaction, error) {

	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	account, counter, err := input.validate(ctx, profileId)
	if err != nil {
		return nil, err
	}

	isDraft := utils.DereferencePtr(input.IsDraft)

	transaction := Transaction{
		ProfileId:         profileId,
		AccountId:         input.AccountId,
		Type:              input.Type,
		Origin:            TransactionOriginManual,
		Amount:            input.Amount,
		TransactionDate:   input.TransactionDate,
		Description:       input.Description,
		Category:          input.Category,
		InstallmentsTotal: input.InstallmentsTotal,
		IsDraft:           utils.NewFalse(),
		IsDeleted:         utils.NewFalse(),
		Notes:             input.Notes,
	}
	if isDraft {
		transaction.IsDraft = utils.NewTrue()
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireProfilePostingLock(tx, profileId); err != nil {
			return err
		}
		defer ReleaseProfilePostingLock(tx, profileId)

		if input.Type == TransactionTypeTransfer {
			groupId := uuid.NewString()
			transaction.TransferGroupId = &groupId
			transaction.TransferSide = TransferSideOutgoing

			incoming := transaction
			incoming.AccountId = input.CounterAccountId
			incoming.TransferSide = TransferSideIncoming

			if err := tx.Create(&transaction).Error; err != nil {
				return err
			}
			if err := tx.Create(&incoming).Error; err != nil {
				return err
			}
			if !isDraft {
				if err := ApplyBalanceDelta(tx, account.ID, BalanceDelta(account.Class, transaction.Type, transaction.TransferSide, transaction.Amount)); err != nil {
					return err
				}
				if err := ApplyBalanceDelta(tx, counter.ID, BalanceDelta(counter.Class, incoming.Type, incoming.TransferSide, incoming.Amount)); err != nil {
					return err
				}
			}
			return nil
		}

		if err := tx.Create(&transaction).Error; err != nil {
			return err
		}
		if !isDraft {
			return ApplyBalanceDelta(tx, account.ID, TransactionBalanceDelta(account.Class, &transaction))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

type UpdateTransactionInput struct {
	AccountId       int             `json:"account_id" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	TransactionDate time.Time       `json:"transaction_date" binding:"required"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	IsDraft         *bool           `json:"is_draft"`
	Notes           string          `json:"notes"`
}

// UpdateTransaction edits a transaction and adjusts account balances by the
// difference between the old and new effective deltas. Draft rows contribute
// nothing, so draft transitions fall out of the same arithmetic. Moving a
// transaction across accounts reverts the old account and applies to the new.
func UpdateTransaction(ctx context.Context, id int, input *UpdateTransactionInput) (*Transaction, error) {

	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	old, err := utils.FetchModel[Transaction](ctx, profileId, id)
	if err != nil {
		return nil, err
	}
	if old.isDeleted() {
		return nil, errors.New("transaction has been deleted")
	}
	if old.Type == TransactionTypeTransfer {
		return nil, errors.New("edit transfers through their transfer group")
	}
	if old.InstallmentsPaid > 0 {
		return nil, errors.New("transaction has settled installments and is locked")
	}
	if !input.Amount.IsPositive() {
		return nil, errors.New("amount must be positive")
	}

	newDraft := utils.DereferencePtr(input.IsDraft, old.isDraft())

	db := config.GetDB()
	var updated Transaction
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireProfilePostingLock(tx, profileId); err != nil {
			return err
		}
		defer ReleaseProfilePostingLock(tx, profileId)

		oldAccount, err := utils.FetchModel[Account](ctx, profileId, old.AccountId)
		if err != nil {
			return err
		}
		newAccount := oldAccount
		if input.AccountId != old.AccountId {
			newAccount, err = utils.FetchModel[Account](ctx, profileId, input.AccountId)
			if err != nil {
				return errors.New("account not found")
			}
			if utils.DereferencePtr(newAccount.IsArchived) {
				return utils.ErrorArchivedAccount
			}
			if !installmentAccountEligible(old.InstallmentsTotal, newAccount.Kind) {
				return errors.New("installments only apply to credit accounts")
			}
		}

		oldDelta := decimal.Zero
		if !old.isDraft() {
			oldDelta = TransactionBalanceDelta(oldAccount.Class, old)
		}
		newDelta := decimal.Zero
		if !newDraft {
			edited := *old
			edited.AccountId = input.AccountId
			edited.Amount = input.Amount
			newDelta = TransactionBalanceDelta(newAccount.Class, &edited)
		}

		if input.AccountId == old.AccountId {
			if err := ApplyBalanceDelta(tx, old.AccountId, newDelta.Sub(oldDelta)); err != nil {
				return err
			}
		} else {
			if err := ApplyBalanceDelta(tx, old.AccountId, oldDelta.Neg()); err != nil {
				return err
			}
			if err := ApplyBalanceDelta(tx, input.AccountId, newDelta); err != nil {
				return err
			}
		}

		updated = *old
		updated.AccountId = input.AccountId
		updated.Amount = input.Amount
		updated.TransactionDate = input.TransactionDate
		updated.Description = input.Description
		updated.Category = input.Category
		updated.Notes = input.Notes
		if newDraft {
			updated.IsDraft = utils.NewTrue()
		} else {
			updated.IsDraft = utils.NewFalse()
		}

		return tx.Model(&Transaction{}).Where("id = ?", id).Updates(map[string]interface{}{
			"AccountId":       updated.AccountId,
			"Amount":          updated.Amount,
			"TransactionDate": updated.TransactionDate,
			"Description":     updated.Description,
			"Category":        updated.Category,
			"Notes":           updated.Notes,
			"IsDraft":         newDraft,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ConfirmTransaction settles a draft: applies its balance contribution and
// clears the draft flag. Transfer drafts confirm both legs.
func ConfirmTransaction(ctx context.Context, id int) (*Transaction, error) {

	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	result, err := utils.FetchModel[Transaction](ctx, profileId, id)
	if err != nil {
		return nil, err
	}
	if result.isDeleted() {
		return nil, errors.New("transaction has been deleted")
	}
	if !result.isDraft() {
		return nil, errors.New("transaction is not a draft")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireProfilePostingLock(tx, profileId); err != nil {
			return err
		}
		defer ReleaseProfilePostingLock(tx, profileId)

		legs := []*Transaction{result}
		if result.TransferGroupId != nil {
			legs = nil
			if err := tx.Where("transfer_group_id = ? AND is_deleted = 0 AND is_draft = 1", *result.TransferGroupId).
				Find(&legs).Error; err != nil {
				return err
			}
		}

		for _, leg := range legs {
			delta, err := balanceDeltaForRow(tx, leg)
			if err != nil {
				return err
			}
			if err := ApplyBalanceDelta(tx, leg.AccountId, delta); err != nil {
				return err
			}
			if err := tx.Model(&Transaction{}).Where("id = ? AND is_draft = 1", leg.ID).
				UpdateColumn("is_draft", false).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.IsDraft = utils.NewFalse()
	return result, nil
}

// DeleteTransaction soft-deletes a transaction and reverts its balance
// contribution. Deleting a transfer leg removes both legs of the pair.
func DeleteTransaction(ctx context.Context, id int) (*Transaction, error) {

	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	result, err := utils.FetchModel[Transaction](ctx, profileId, id)
	if err != nil {
		return nil, err
	}
	if result.isDeleted() {
		return nil, errors.New("transaction has already been deleted")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireProfilePostingLock(tx, profileId); err != nil {
			return err
		}
		defer ReleaseProfilePostingLock(tx, profileId)

		legs := []*Transaction{result}
		if result.TransferGroupId != nil {
			legs = nil
			if err := tx.Where("transfer_group_id = ? AND is_deleted = 0", *result.TransferGroupId).
				Find(&legs).Error; err != nil {
				return err
			}
		}

		for _, leg := range legs {
			if !leg.isDraft() {
				delta, err := balanceDeltaForRow(tx, leg)
				if err != nil {
					return err
				}
				if err := ApplyBalanceDelta(tx, leg.AccountId, delta.Neg()); err != nil {
					return err
				}
			}
			if err := tx.Model(&Transaction{}).Where("id = ?", leg.ID).
				UpdateColumn("is_deleted", true).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func GetTransaction(ctx context.Context, id int) (*Transaction, error) {

	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}
	return utils.FetchModel[Transaction](ctx, profileId, id)
}

func GetTransactions(ctx context.Context, accountId *int, txType *string, origin *string,
	fromDate *time.Time, toDate *time.Time) ([]*Transaction, error) {

	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	db := config.GetDB()
	var results []*Transaction

	dbCtx := db.WithContext(ctx).Where("profile_id = ? AND is_deleted = 0", profileId)
	if accountId != nil && *accountId > 0 {
		dbCtx = dbCtx.Where("account_id = ?", accountId)
	}
	if txType != nil && len(*txType) > 0 {
		dbCtx = dbCtx.Where("type = ?", txType)
	}
	if origin != nil && len(*origin) > 0 {
		dbCtx = dbCtx.Where("origin = ?", origin)
	}
	if fromDate != nil {
		dbCtx = dbCtx.Where("transaction_date >= ?", fromDate)
	}
	if toDate != nil {
		dbCtx = dbCtx.Where("transaction_date <= ?", toDate)
	}
	err := dbCtx.Order("transaction_date DESC, id DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func PaginateTransaction(ctx context.Context, limit *int, after *string,
	accountId *int) (*TransactionsConnection, error) {

	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("profile_id = ? AND is_deleted = 0", profileId)
	if accountId != nil && *accountId > 0 {
		dbCtx.Where("account_id = ?", accountId)
	}
	edges, pageInfo, err := FetchPageCompositeCursor[Transaction](dbCtx, *limit, after, "transaction_date", "<")
	if err != nil {
		return nil, err
	}
	var transactionsConnection TransactionsConnection
	transactionsConnection.PageInfo = pageInfo
	for _, edge := range edges {
		transactionEdge := TransactionsEdge(edge)
		transactionsConnection.Edges = append(transactionsConnection.Edges, &transactionEdge)
	}
	return &transactionsConnection, err
}
