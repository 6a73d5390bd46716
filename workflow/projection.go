package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/config"
	"bitbucket.org/mmdatafocus/fintrack_backend/models"
	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
	"github.com/shopspring/decimal"
)

// CalendarEntry is one projected cashflow event: a future recurring
// occurrence or an upcoming installment share. Projection is read-only; it
// never writes transactions.
type CalendarEntry struct {
	Date        time.Time              `json:"date"`
	AccountId   int                    `json:"account_id"`
	Type        models.TransactionType `json:"type"`
	Amount      decimal.Decimal        `json:"amount"`
	Description string                 `json:"description"`
	// Source is "rule" or "installment".
	Source       string `json:"source"`
	SourceRuleId int    `json:"source_rule_id,omitempty"`
	SourceTxId   int    `json:"source_tx_id,omitempty"`
	Installment  string `json:"installment,omitempty"`
}

type CalendarProjection struct {
	From    time.Time       `json:"from"`
	To      time.Time       `json:"to"`
	Entries []CalendarEntry `json:"entries"`
}

const calendarCacheLifespan = 10 * time.Minute

func calendarCacheKey(profileId string, from, to time.Time) string {
	return fmt.Sprintf("Calendar:%s:%s:%s", profileId, from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// ClearCalendarCache drops every cached projection window for a profile.
// Settlement runs call this after posting.
func ClearCalendarCache(profileId string) error {
	setKey := "CalendarKeys:" + profileId
	keys, err := config.GetRedisSetMembers(setKey)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := config.RemoveRedisKey(key); err != nil {
			return err
		}
		if err := config.RemoveRedisSetMember(setKey, key); err != nil {
			return err
		}
	}
	return nil
}

// ProjectCalendar expands the profile's recurring rules and open installment
// purchases into dated entries for [from, to]. Results are cached per window
// in redis; settlement runs invalidate the cache.
func ProjectCalendar(ctx context.Context, from time.Time, to time.Time) (*CalendarProjection, error) {
	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}
	if to.Before(from) {
		return nil, errors.New("projection window end precedes start")
	}

	cacheKey := calendarCacheKey(profileId, from, to)
	var cached CalendarProjection
	exists, err := config.GetRedisObject(cacheKey, &cached)
	if err != nil {
		return nil, err
	}
	if exists {
		return &cached, nil
	}

	projection := CalendarProjection{From: from, To: to, Entries: make([]CalendarEntry, 0)}

	// Recurring rule occurrences.
	rules, err := models.GetRecurringRules(ctx, nil, true)
	if err != nil {
		return nil, err
	}
	for _, rule := range rules {
		for _, date := range GenerateOccurrences(rule, from, to) {
			projection.Entries = append(projection.Entries, CalendarEntry{
				Date:         date,
				AccountId:    rule.AccountId,
				Type:         rule.Type,
				Amount:       rule.Amount,
				Description:  rule.Name,
				Source:       "rule",
				SourceRuleId: rule.ID,
			})
		}
	}

	// Open installment shares: installments 2..N land one month apart after
	// the purchase date.
	if err := appendInstallmentEntries(ctx, profileId, &projection, from, to); err != nil {
		return nil, err
	}

	sort.SliceStable(projection.Entries, func(i, j int) bool {
		return projection.Entries[i].Date.Before(projection.Entries[j].Date)
	})

	if err := config.SetRedisObject(cacheKey, &projection, calendarCacheLifespan); err != nil {
		return nil, err
	}
	if err := config.AddRedisSet("CalendarKeys:"+profileId, cacheKey); err != nil {
		return nil, err
	}

	return &projection, nil
}

func appendInstallmentEntries(ctx context.Context, profileId string, projection *CalendarProjection, from, to time.Time) error {
	db := config.GetDB()
	var purchases []*models.Transaction
	if err := db.WithContext(ctx).
		Where("profile_id = ? AND is_deleted = 0 AND is_draft = 0", profileId).
		Where("installments_total > 1 AND installments_paid < installments_total").
		Find(&purchases).Error; err != nil {
		return err
	}

	for _, purchase := range purchases {
		monthly := purchase.Amount.DivRound(decimal.NewFromInt(int64(purchase.InstallmentsTotal)), 4)
		for n := purchase.InstallmentsPaid + 1; n <= purchase.InstallmentsTotal; n++ {
			due := models.InstallmentDueDate(purchase.TransactionDate, n)
			if due.Before(from) || due.After(to) {
				continue
			}
			projection.Entries = append(projection.Entries, CalendarEntry{
				Date:        due,
				AccountId:   purchase.AccountId,
				Type:        models.TransactionTypeExpense,
				Amount:      monthly,
				Description: purchase.Description,
				Source:      "installment",
				SourceTxId:  purchase.ID,
				Installment: fmt.Sprintf("%d/%d", n, purchase.InstallmentsTotal),
			})
		}
	}
	return nil
}
