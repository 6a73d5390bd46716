package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/config"
	"bitbucket.org/mmdatafocus/fintrack_backend/models"
	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const recurringHandlerName = "recurring_settlement"

type RecurringRunResult struct {
	Posted  int `json:"posted"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type ruleConfirmedPayload struct {
	RuleId        int       `json:"rule_id"`
	TransactionId int       `json:"transaction_id"`
	RunDate       time.Time `json:"run_date"`
	Draft         bool      `json:"draft"`
}

// RunRecurringSettlement settles every due rule for the profile in ctx. A
// rule advances exactly one step per run, so a rule that fell behind catches
// up over successive ticks rather than flooding a single run.
func RunRecurringSettlement(ctx context.Context, runDate time.Time) (*RecurringRunResult, error) {
	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	rules, err := models.GetRecurringRules(ctx, nil, true)
	if err != nil {
		return nil, err
	}

	result := RecurringRunResult{}
	for _, rule := range rules {
		if !IsRuleDue(rule, runDate) {
			result.Skipped++
			continue
		}
		if !validFrequencyForRun(rule.Frequency) {
			// Leave the schedule untouched so the rule surfaces in audits
			// instead of silently drifting.
			result.Failed++
			config.LogError(config.GetLogger(), "workflow", "RunRecurringSettlement",
				fmt.Sprintf("rule %d", rule.ID), rule, utils.ErrorUnknownFrequency)
			continue
		}

		if err := settleRule(ctx, profileId, rule); err != nil {
			if errors.Is(err, ErrIdempotencyInProgress) {
				result.Skipped++
				continue
			}
			result.Failed++
			config.LogError(config.GetLogger(), "workflow", "RunRecurringSettlement",
				fmt.Sprintf("rule %d", rule.ID), rule, err)
			continue
		}
		result.Posted++
	}

	if result.Posted > 0 {
		if err := ClearCalendarCache(profileId); err != nil {
			config.LogError(config.GetLogger(), "workflow", "RunRecurringSettlement", "clear calendar cache", profileId, err)
		}
	}
	return &result, nil
}

func validFrequencyForRun(f models.Frequency) bool {
	_, err := NextOccurrence(f, 1, time.Now())
	return err == nil
}

func settleRule(ctx context.Context, profileId string, rule *models.RecurringRule) error {
	account, err := utils.FetchModel[models.Account](ctx, profileId, rule.AccountId)
	if err != nil {
		return err
	}
	var counter *models.Account
	if rule.Type == models.TransactionTypeTransfer {
		counter, err = utils.FetchModel[models.Account](ctx, profileId, rule.CounterAccountId)
		if err != nil {
			return err
		}
	}

	occurrence := rule.NextRunDate
	autoConfirm := utils.DereferencePtr(rule.AutoConfirm, true)
	entityKey := fmt.Sprintf("rule:%d:%s", rule.ID, occurrence.Format("2006-01-02"))

	next, err := NextOccurrence(rule.Frequency, rule.Interval, occurrence)
	if err != nil {
		return err
	}

	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := models.AcquireProfilePostingLock(tx, profileId); err != nil {
			return err
		}
		defer models.ReleaseProfilePostingLock(tx, profileId)

		skip, err := BeginIdempotency(tx, profileId, recurringHandlerName, entityKey)
		if err != nil {
			return err
		}
		if skip {
			// Another runner settled this occurrence but the schedule may not
			// have advanced yet; push it forward so the rule does not stall.
			return advanceRuleSchedule(tx, rule.ID, occurrence, next)
		}

		transaction := models.Transaction{
			ProfileId:       profileId,
			AccountId:       rule.AccountId,
			Type:            rule.Type,
			Origin:          models.TransactionOriginRecurring,
			Amount:          rule.Amount,
			TransactionDate: occurrence,
			Description:     rule.Name,
			Category:        rule.Category,
			SourceRuleId:    &rule.ID,
			IsDraft:         utils.NewFalse(),
			IsDeleted:       utils.NewFalse(),
			Notes:           rule.Notes,
		}
		if !autoConfirm {
			transaction.IsDraft = utils.NewTrue()
		}

		if rule.Type == models.TransactionTypeTransfer {
			groupId := uuid.NewString()
			transaction.TransferGroupId = &groupId
			transaction.TransferSide = models.TransferSideOutgoing

			incoming := transaction
			incoming.AccountId = rule.CounterAccountId
			incoming.TransferSide = models.TransferSideIncoming

			if err := tx.Create(&transaction).Error; err != nil {
				_ = MarkIdempotencyFailed(tx, profileId, recurringHandlerName, entityKey, err)
				return err
			}
			if err := tx.Create(&incoming).Error; err != nil {
				_ = MarkIdempotencyFailed(tx, profileId, recurringHandlerName, entityKey, err)
				return err
			}
			if autoConfirm {
				if err := models.ApplyBalanceDelta(tx, account.ID,
					models.BalanceDelta(account.Class, transaction.Type, transaction.TransferSide, transaction.Amount)); err != nil {
					_ = MarkIdempotencyFailed(tx, profileId, recurringHandlerName, entityKey, err)
					return err
				}
				if err := models.ApplyBalanceDelta(tx, counter.ID,
					models.BalanceDelta(counter.Class, incoming.Type, incoming.TransferSide, incoming.Amount)); err != nil {
					_ = MarkIdempotencyFailed(tx, profileId, recurringHandlerName, entityKey, err)
					return err
				}
			}
		} else {
			if err := tx.Create(&transaction).Error; err != nil {
				_ = MarkIdempotencyFailed(tx, profileId, recurringHandlerName, entityKey, err)
				return err
			}
			if autoConfirm {
				delta := models.BalanceDelta(account.Class, transaction.Type, transaction.TransferSide, transaction.Amount)
				if err := models.ApplyBalanceDelta(tx, account.ID, delta); err != nil {
					_ = MarkIdempotencyFailed(tx, profileId, recurringHandlerName, entityKey, err)
					return err
				}
			}
		}

		if err := advanceRuleSchedule(tx, rule.ID, occurrence, next); err != nil {
			_ = MarkIdempotencyFailed(tx, profileId, recurringHandlerName, entityKey, err)
			return err
		}

		if config.SettlementEventsEnabled() {
			payload := ruleConfirmedPayload{
				RuleId:        rule.ID,
				TransactionId: transaction.ID,
				RunDate:       occurrence,
				Draft:         !autoConfirm,
			}
			if err := models.RecordSettlementEvent(ctx, tx, profileId, occurrence,
				fmt.Sprint(rule.ID), models.SettlementReferenceTypeRecurringRule,
				models.SettlementActionRuleConfirmed, payload); err != nil {
				_ = MarkIdempotencyFailed(tx, profileId, recurringHandlerName, entityKey, err)
				return err
			}
		}

		if err := utils.RemoveRedisItem[models.RecurringRule](rule.ID); err != nil {
			return err
		}
		return MarkIdempotencySucceeded(tx, profileId, recurringHandlerName, entityKey)
	})
}

// advanceRuleSchedule moves NextRunDate one step forward, guarded so a stale
// runner cannot rewind a schedule another runner already advanced.
func advanceRuleSchedule(tx *gorm.DB, ruleId int, occurrence, next time.Time) error {
	now := time.Now()
	return tx.Model(&models.RecurringRule{}).
		Where("id = ? AND next_run_date = ?", ruleId, occurrence).
		Updates(map[string]interface{}{"NextRunDate": next, "LastRunAt": &now}).Error
}
