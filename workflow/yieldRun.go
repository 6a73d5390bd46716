package workflow

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/config"
	"bitbucket.org/mmdatafocus/fintrack_backend/models"
	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const yieldHandlerName = "yield_accrual"

type YieldRunResult struct {
	Accrued int `json:"accrued"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type yieldAccruedPayload struct {
	AccountId     int             `json:"account_id"`
	TransactionId int             `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	MissedDays    int             `json:"missed_days"`
	AccrualDate   time.Time       `json:"accrual_date"`
}

// dailyYieldRate converts an account's rate (a percentage on the configured
// basis) into a simple per-day fraction.
func dailyYieldRate(rate decimal.Decimal, frequency models.YieldFrequency) decimal.Decimal {
	fraction := rate.Div(decimal.NewFromInt(100))
	switch frequency {
	case models.YieldFrequencyDaily:
		return fraction
	case models.YieldFrequencyMonthly:
		return fraction.Div(decimal.NewFromInt(30))
	default:
		return fraction.Div(decimal.NewFromInt(365))
	}
}

// missedAccrualDays counts whole days since the last accrual, rounding up so
// a partial day still accrues once. An account that never accrued gets one.
func missedAccrualDays(lastAccrual *time.Time, now time.Time) int {
	if lastAccrual == nil {
		return 1
	}
	hours := now.Sub(*lastAccrual).Hours()
	if hours <= 0 {
		return 0
	}
	return int(math.Ceil(hours / 24))
}

// RunYieldAccrual accrues simple (non-compounding within a run) yield on the
// profile's investment accounts. Each run posts a single income transaction
// covering every missed day since the last accrual.
func RunYieldAccrual(ctx context.Context, runDate time.Time) (*YieldRunResult, error) {
	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	db := config.GetDB()
	var accounts []*models.Account
	if err := db.WithContext(ctx).
		Where("profile_id = ? AND kind = ? AND is_archived = 0", profileId, models.AccountKindInvestment).
		Where("yield_rate > 0").
		Order("id").
		Find(&accounts).Error; err != nil {
		return nil, err
	}

	result := YieldRunResult{}
	for _, account := range accounts {
		missed := missedAccrualDays(account.LastAccrualDate, runDate)
		if missed == 0 {
			result.Skipped++
			continue
		}
		accrued := computeAccrual(account, missed)
		if !accrued.IsPositive() {
			result.Skipped++
			continue
		}

		if err := accrueYield(ctx, profileId, account, accrued, missed, runDate); err != nil {
			if errors.Is(err, ErrIdempotencyInProgress) {
				result.Skipped++
				continue
			}
			result.Failed++
			config.LogError(config.GetLogger(), "workflow", "RunYieldAccrual",
				fmt.Sprintf("account %d", account.ID), account, err)
			continue
		}
		result.Accrued++
	}
	return &result, nil
}

// computeAccrual is the full catch-up amount for an account: simple interest
// on the current balance over every missed day.
func computeAccrual(account *models.Account, missed int) decimal.Decimal {
	rate := dailyYieldRate(account.YieldRate, account.YieldFrequency)
	return account.CurrentBalance.Mul(rate).Mul(decimal.NewFromInt(int64(missed))).Round(4)
}

func accrueYield(ctx context.Context, profileId string, account *models.Account, accrued decimal.Decimal, missed int, runDate time.Time) error {
	entityKey := fmt.Sprintf("yield:%d:%s", account.ID, runDate.Format("2006-01-02"))

	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := models.AcquireProfilePostingLock(tx, profileId); err != nil {
			return err
		}
		defer models.ReleaseProfilePostingLock(tx, profileId)

		skip, err := BeginIdempotency(tx, profileId, yieldHandlerName, entityKey)
		if err != nil {
			return err
		}
		if skip {
			return nil
		}

		accrual := models.Transaction{
			ProfileId:       profileId,
			AccountId:       account.ID,
			Type:            models.TransactionTypeIncome,
			Origin:          models.TransactionOriginYield,
			Amount:          accrued,
			TransactionDate: runDate,
			Description:     fmt.Sprintf("Yield accrual (%d day(s))", missed),
			Category:        "yield",
			IsDraft:         utils.NewFalse(),
			IsDeleted:       utils.NewFalse(),
		}
		if err := tx.Create(&accrual).Error; err != nil {
			_ = MarkIdempotencyFailed(tx, profileId, yieldHandlerName, entityKey, err)
			return err
		}

		delta := models.BalanceDelta(account.Class, accrual.Type, accrual.TransferSide, accrual.Amount)
		if err := models.ApplyBalanceDelta(tx, account.ID, delta); err != nil {
			_ = MarkIdempotencyFailed(tx, profileId, yieldHandlerName, entityKey, err)
			return err
		}

		if err := tx.Model(&models.Account{}).Where("id = ?", account.ID).
			UpdateColumn("last_accrual_date", runDate).Error; err != nil {
			_ = MarkIdempotencyFailed(tx, profileId, yieldHandlerName, entityKey, err)
			return err
		}

		if config.SettlementEventsEnabled() {
			payload := yieldAccruedPayload{
				AccountId:     account.ID,
				TransactionId: accrual.ID,
				Amount:        accrued,
				MissedDays:    missed,
				AccrualDate:   runDate,
			}
			if err := models.RecordSettlementEvent(ctx, tx, profileId, runDate,
				fmt.Sprint(account.ID), models.SettlementReferenceTypeAccount,
				models.SettlementActionYieldAccrued, payload); err != nil {
				_ = MarkIdempotencyFailed(tx, profileId, yieldHandlerName, entityKey, err)
				return err
			}
		}

		if err := utils.RemoveRedisItem[models.Account](account.ID); err != nil {
			return err
		}
		return MarkIdempotencySucceeded(tx, profileId, yieldHandlerName, entityKey)
	})
}
