package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/config"
	"bitbucket.org/mmdatafocus/fintrack_backend/models"
	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const installmentHandlerName = "installment_settlement"

type InstallmentRunResult struct {
	Posted  int `json:"posted"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type installmentPostedPayload struct {
	PurchaseId    int             `json:"purchase_id"`
	TransactionId int             `json:"transaction_id"`
	AccountId     int             `json:"account_id"`
	Installment   int             `json:"installment"`
	Total         int             `json:"total"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"due_date"`
}

// RunInstallmentSettlement posts at most one installment per open purchase
// for the profile in ctx. With catch-up on (the default) any installment due
// on or before end of runDate is posted; a purchase that fell several cycles
// behind converges over successive ticks. With catch-up off only same-day
// due dates post.
func RunInstallmentSettlement(ctx context.Context, runDate time.Time) (*InstallmentRunResult, error) {
	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	db := config.GetDB()
	var purchases []*models.Transaction
	if err := db.WithContext(ctx).
		Where("profile_id = ? AND is_deleted = 0 AND is_draft = 0", profileId).
		Where("installments_total > 1 AND installments_paid < installments_total").
		Order("id").
		Find(&purchases).Error; err != nil {
		return nil, err
	}

	catchUp := config.InstallmentCatchUp()
	endOfDay := utils.EndOfDay(runDate)
	result := InstallmentRunResult{}

	for _, purchase := range purchases {
		n := purchase.InstallmentsPaid + 1
		due := models.InstallmentDueDate(purchase.TransactionDate, n)

		if catchUp {
			if due.After(endOfDay) {
				result.Skipped++
				continue
			}
		} else if !sameDay(due, runDate) {
			result.Skipped++
			continue
		}

		if err := settleInstallment(ctx, profileId, purchase, n, due); err != nil {
			if errors.Is(err, ErrIdempotencyInProgress) {
				result.Skipped++
				continue
			}
			result.Failed++
			config.LogError(config.GetLogger(), "workflow", "RunInstallmentSettlement",
				fmt.Sprintf("purchase %d installment %d", purchase.ID, n), purchase, err)
			continue
		}
		result.Posted++
	}

	if result.Posted > 0 {
		if err := ClearCalendarCache(profileId); err != nil {
			config.LogError(config.GetLogger(), "workflow", "RunInstallmentSettlement", "clear calendar cache", profileId, err)
		}
	}
	return &result, nil
}

func settleInstallment(ctx context.Context, profileId string, purchase *models.Transaction, n int, due time.Time) error {
	account, err := utils.FetchModel[models.Account](ctx, profileId, purchase.AccountId)
	if err != nil {
		return err
	}

	monthly := purchase.Amount.DivRound(decimal.NewFromInt(int64(purchase.InstallmentsTotal)), 4)
	entityKey := fmt.Sprintf("msi:%d:%d", purchase.ID, n)

	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := models.AcquireProfilePostingLock(tx, profileId); err != nil {
			return err
		}
		defer models.ReleaseProfilePostingLock(tx, profileId)

		skip, err := BeginIdempotency(tx, profileId, installmentHandlerName, entityKey)
		if err != nil {
			return err
		}
		if skip {
			return nil
		}

		// Re-read the counter under the lock; another runner may have settled
		// this installment between the scan and here.
		var current models.Transaction
		if err := tx.Where("id = ?", purchase.ID).First(&current).Error; err != nil {
			return err
		}
		if current.InstallmentsPaid >= n {
			return MarkIdempotencySucceeded(tx, profileId, installmentHandlerName, entityKey)
		}

		settlement := models.Transaction{
			ProfileId:           profileId,
			AccountId:           purchase.AccountId,
			Type:                models.TransactionTypeExpense,
			Origin:              models.TransactionOriginRecurring,
			Amount:              monthly,
			TransactionDate:     due,
			Description:         fmt.Sprintf("%s (%d/%d)", purchase.Description, n, purchase.InstallmentsTotal),
			Category:            purchase.Category,
			SourceTransactionId: &purchase.ID,
			IsDraft:             utils.NewFalse(),
			IsDeleted:           utils.NewFalse(),
		}
		if err := tx.Create(&settlement).Error; err != nil {
			_ = MarkIdempotencyFailed(tx, profileId, installmentHandlerName, entityKey, err)
			return err
		}

		delta := models.TransactionBalanceDelta(account.Class, &settlement)
		if err := models.ApplyBalanceDelta(tx, account.ID, delta); err != nil {
			_ = MarkIdempotencyFailed(tx, profileId, installmentHandlerName, entityKey, err)
			return err
		}

		if err := tx.Model(&models.Transaction{}).
			Where("id = ? AND installments_paid = ?", purchase.ID, n-1).
			UpdateColumn("installments_paid", gorm.Expr("installments_paid + 1")).Error; err != nil {
			_ = MarkIdempotencyFailed(tx, profileId, installmentHandlerName, entityKey, err)
			return err
		}

		if config.SettlementEventsEnabled() {
			payload := installmentPostedPayload{
				PurchaseId:    purchase.ID,
				TransactionId: settlement.ID,
				AccountId:     purchase.AccountId,
				Installment:   n,
				Total:         purchase.InstallmentsTotal,
				Amount:        monthly,
				DueDate:       due,
			}
			if err := models.RecordSettlementEvent(ctx, tx, profileId, due,
				fmt.Sprint(settlement.ID), models.SettlementReferenceTypeTransaction,
				models.SettlementActionInstallmentPosted, payload); err != nil {
				_ = MarkIdempotencyFailed(tx, profileId, installmentHandlerName, entityKey, err)
				return err
			}
		}

		return MarkIdempotencySucceeded(tx, profileId, installmentHandlerName, entityKey)
	})
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
