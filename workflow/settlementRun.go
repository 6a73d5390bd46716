package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/config"
	"bitbucket.org/mmdatafocus/fintrack_backend/models"
	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
)

// SettlementRunResult aggregates one profile's settlement tick.
type SettlementRunResult struct {
	ProfileId   string                `json:"profile_id"`
	RunDate     time.Time             `json:"run_date"`
	Installment *InstallmentRunResult `json:"installment"`
	Yield       *YieldRunResult       `json:"yield"`
	Recurring   *RecurringRunResult   `json:"recurring"`
}

// RunSettlementForProfile runs the three settlement processors for one
// profile under a redis lock, so overlapping scheduler ticks and manual
// triggers cannot double-process. Processor errors don't abort the run; each
// processor already isolates per-item failures.
func RunSettlementForProfile(ctx context.Context, profileId string, runDate time.Time) (*SettlementRunResult, error) {
	ctx = utils.SetProfileIdInContext(ctx, profileId)

	release, err := utils.ProfileLock(ctx, profileId, "settlement", "workflow", "RunSettlementForProfile")
	if err != nil {
		return nil, err
	}
	defer release()

	result := SettlementRunResult{ProfileId: profileId, RunDate: runDate}

	result.Installment, err = RunInstallmentSettlement(ctx, runDate)
	if err != nil {
		config.LogError(config.GetLogger(), "workflow", "RunSettlementForProfile", "installment settlement", profileId, err)
	}
	result.Yield, err = RunYieldAccrual(ctx, runDate)
	if err != nil {
		config.LogError(config.GetLogger(), "workflow", "RunSettlementForProfile", "yield accrual", profileId, err)
	}
	result.Recurring, err = RunRecurringSettlement(ctx, runDate)
	if err != nil {
		config.LogError(config.GetLogger(), "workflow", "RunSettlementForProfile", "recurring settlement", profileId, err)
	}

	return &result, nil
}

// RunSettlementForAllProfiles ticks every profile that owns at least one
// account. Profiles are processed independently; one profile's failure never
// blocks the rest.
func RunSettlementForAllProfiles(ctx context.Context, runDate time.Time) ([]*SettlementRunResult, error) {
	profileIds, err := listProfileIds(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*SettlementRunResult, 0, len(profileIds))
	for _, profileId := range profileIds {
		result, err := RunSettlementForProfile(ctx, profileId, runDate)
		if err != nil {
			config.LogError(config.GetLogger(), "workflow", "RunSettlementForAllProfiles", "profile tick", profileId, err)
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func listProfileIds(ctx context.Context) ([]string, error) {
	scanCtx := utils.SetSkipProfileScopeInContext(ctx, true)
	db := config.GetDB()
	var profileIds []string
	if err := db.WithContext(scanCtx).Model(&models.Account{}).
		Distinct("profile_id").
		Pluck("profile_id", &profileIds).Error; err != nil {
		return nil, err
	}
	return profileIds, nil
}
