package workflow

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/fintrack_backend/config"
	"bitbucket.org/mmdatafocus/fintrack_backend/models"
	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
	"github.com/shopspring/decimal"
)

// BalanceDrift reports one account whose stored balance disagreed with the
// replayed transaction history. The stored value has already been corrected.
type BalanceDrift struct {
	AccountId   int             `json:"account_id"`
	AccountName string          `json:"account_name"`
	Stored      decimal.Decimal `json:"stored"`
	Recomputed  decimal.Decimal `json:"recomputed"`
}

type ReconciliationResult struct {
	Checked int            `json:"checked"`
	Drifts  []BalanceDrift `json:"drifts"`
}

// ReconcileProfileBalances replays every account's transaction history and
// repairs stored balances that drifted. Runs under the profile lock so it
// never races a settlement tick.
func ReconcileProfileBalances(ctx context.Context) (*ReconciliationResult, error) {
	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	release, err := utils.ProfileLock(ctx, profileId, "settlement", "workflow", "ReconcileProfileBalances")
	if err != nil {
		return nil, err
	}
	defer release()

	accounts, err := models.GetAccounts(ctx, nil, nil, true)
	if err != nil {
		return nil, err
	}

	result := ReconciliationResult{Drifts: make([]BalanceDrift, 0)}
	for _, account := range accounts {
		stored, recomputed, err := models.SyncAccountBalance(ctx, account.ID)
		if err != nil {
			config.LogError(config.GetLogger(), "workflow", "ReconcileProfileBalances",
				fmt.Sprintf("account %d", account.ID), account, err)
			continue
		}
		result.Checked++
		if !stored.Equal(recomputed) {
			result.Drifts = append(result.Drifts, BalanceDrift{
				AccountId:   account.ID,
				AccountName: account.Name,
				Stored:      stored,
				Recomputed:  recomputed,
			})
			if err := utils.RemoveRedisItem[models.Account](account.ID); err != nil {
				return nil, err
			}
		}
	}
	return &result, nil
}
