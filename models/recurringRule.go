package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/config"
	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
	"github.com/shopspring/decimal"
)

type RecurringRule struct {
	ID        int             `gorm:"primary_key" json:"id"`
	ProfileId string          `gorm:"index;not null" json:"profile_id"`
	Name      string          `gorm:"size:100;not null" json:"name" binding:"required"`
	AccountId int             `gorm:"index;not null" json:"account_id" binding:"required"`
	Type      TransactionType `gorm:"type:enum('expense','income','transfer');size:12;not null" json:"type" binding:"required"`
	// CounterAccountId pairs transfer rules with a destination account.
	CounterAccountId int             `json:"counter_account_id"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Frequency        Frequency       `gorm:"type:enum('daily','weekly','biweekly','monthly','bimonthly','quarterly','semiannually','annually');size:16;not null" json:"frequency" binding:"required"`
	// Interval multiplies the frequency step ("every 2 weeks" = weekly, 2).
	Interval  int       `gorm:"not null;default:1" json:"interval"`
	StartDate time.Time `gorm:"not null" json:"start_date" binding:"required"`
	EndDate          *time.Time      `json:"end_date"`
	// NextRunDate is the next occurrence the runner should settle. Advanced
	// exactly one step per settled occurrence.
	NextRunDate time.Time `gorm:"index;not null" json:"next_run_date"`
	// AutoConfirm false means occurrences post as drafts awaiting the user.
	AutoConfirm *bool      `gorm:"not null;default:true" json:"auto_confirm"`
	IsActive    *bool      `gorm:"not null;default:true" json:"is_active"`
	Category    string     `gorm:"size:100" json:"category"`
	Notes       string     `gorm:"type:text" json:"notes"`
	LastRunAt   *time.Time `json:"last_run_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRecurringRule struct {
	Name             string          `json:"name" binding:"required"`
	AccountId        int             `json:"account_id" binding:"required"`
	Type             TransactionType `json:"type" binding:"required"`
	CounterAccountId int             `json:"counter_account_id"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	Frequency        Frequency       `json:"frequency" binding:"required"`
	Interval         int             `json:"interval"`
	StartDate        time.Time       `json:"start_date" binding:"required"`
	EndDate          *time.Time      `json:"end_date"`
	AutoConfirm      *bool           `json:"auto_confirm"`
	Category         string          `json:"category"`
	Notes            string          `json:"notes"`
}

type RecurringRulesEdge Edge[RecurringRule]
type RecurringRulesConnection struct {
	PageInfo *PageInfo             `json:"pageInfo"`
	Edges    []*RecurringRulesEdge `json:"edges"`
}

func (r RecurringRule) GetCursor() string {
	return r.CreatedAt.String()
}

func (r RecurringRule) GetId() int {
	return r.ID
}

func (r RecurringRule) GetProfileId() string {
	return r.ProfileId
}

func validFrequency(f Frequency) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly,
		FrequencyBimonthly, FrequencyQuarterly, FrequencySemiannually, FrequencyAnnually:
		return true
	}
	return false
}

// validate input for both create & update. (id = 0 for create)

func (input *NewRecurringRule) validate(ctx context.Context, profileId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[RecurringRule](ctx, profileId, id); err != nil {
			return err
		}
	}
	if !input.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	if !validFrequency(input.Frequency) {
		return utils.ErrorUnknownFrequency
	}
	if input.Interval < 0 {
		return errors.New("interval must be positive")
	}
	if input.EndDate != nil && input.EndDate.Before(input.StartDate) {
		return errors.New("end date cannot precede start date")
	}
	if err := utils.ValidateResourceId[Account](ctx, profileId, input.AccountId); err != nil {
		return errors.New("account not found")
	}
	if input.Type == TransactionTypeTransfer {
		if input.CounterAccountId == 0 {
			return errors.New("counter account is required for transfer rules")
		}
		if err := utils.ValidateResourceId[Account](ctx, profileId, input.CounterAccountId); err != nil {
			return errors.New("counter account not found")
		}
	}
	return nil
}

func CreateRecurringRule(ctx context.Context, input *NewRecurringRule) (*RecurringRule, error) {

	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	if err := input.validate(ctx, profileId, 0); err != nil {
		return nil, err
	}

	autoConfirm := utils.DereferencePtr(input.AutoConfirm, true)

	interval := input.Interval
	if interval < 1 {
		interval = 1
	}

	rule := RecurringRule{
		ProfileId:        profileId,
		Name:             input.Name,
		AccountId:        input.AccountId,
		Type:             input.Type,
		CounterAccountId: input.CounterAccountId,
		Amount:           input.Amount,
		Frequency:        input.Frequency,
		Interval:         interval,
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		NextRunDate:      input.StartDate,
		IsActive:         utils.NewTrue(),
		Category:         input.Category,
		Notes:            input.Notes,
	}
	if autoConfirm {
		rule.AutoConfirm = utils.NewTrue()
	} else {
		rule.AutoConfirm = utils.NewFalse()
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func UpdateRecurringRule(ctx context.Context, id int, input *NewRecurringRule) (*RecurringRule, error) {

	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	if err := input.validate(ctx, profileId, id); err != nil {
		return nil, err
	}

	rule, err := utils.FetchModel[RecurringRule](ctx, profileId, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"Name":             input.Name,
		"AccountId":        input.AccountId,
		"Type":             input.Type,
		"CounterAccountId": input.CounterAccountId,
		"Amount":           input.Amount,
		"Frequency":        input.Frequency,
		"StartDate":        input.StartDate,
		"EndDate":          input.EndDate,
		"Category":         input.Category,
		"Notes":            input.Notes,
	}
	if input.AutoConfirm != nil {
		updates["AutoConfirm"] = *input.AutoConfirm
	}
	if input.Interval >= 1 {
		updates["Interval"] = input.Interval
	}
	// Moving the start date forward re-anchors the schedule.
	if rule.NextRunDate.Before(input.StartDate) {
		updates["NextRunDate"] = input.StartDate
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&rule).Updates(updates).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[RecurringRule](id); err != nil {
		return nil, err
	}
	return rule, nil
}

func DeleteRecurringRule(ctx context.Context, id int) (*RecurringRule, error) {

	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}
	result, err := utils.FetchModel[RecurringRule](ctx, profileId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[RecurringRule](id); err != nil {
		return nil, err
	}

	return result, nil
}

func GetRecurringRule(ctx context.Context, id int) (*RecurringRule, error) {

	return GetResource[RecurringRule](ctx, id)
}

func GetRecurringRules(ctx context.Context, accountId *int, activeOnly bool) ([]*RecurringRule, error) {

	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	db := config.GetDB()
	var results []*RecurringRule

	dbCtx := db.WithContext(ctx).Where("profile_id = ?", profileId)
	if accountId != nil && *accountId > 0 {
		dbCtx = dbCtx.Where("account_id = ?", accountId)
	}
	if activeOnly {
		dbCtx = dbCtx.Where("is_active = 1")
	}
	err := dbCtx.Order("next_run_date").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ToggleActiveRecurringRule(ctx context.Context, id int, isActive bool) (*RecurringRule, error) {
	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	rule, err := utils.FetchModel[RecurringRule](ctx, profileId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&rule).UpdateColumn("IsActive", isActive).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[RecurringRule](id); err != nil {
		return nil, err
	}
	return rule, nil
}

func PaginateRecurringRule(ctx context.Context, limit *int, after *string,
	name *string) (*RecurringRulesConnection, error) {

	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("profile_id = ?", profileId)
	if name != nil && *name != "" {
		dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	edges, pageInfo, err := FetchPageCompositeCursor[RecurringRule](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}
	var connection RecurringRulesConnection
	connection.PageInfo = pageInfo
	for _, edge := range edges {
		ruleEdge := RecurringRulesEdge(edge)
		connection.Edges = append(connection.Edges, &ruleEdge)
	}
	return &connection, err
}
