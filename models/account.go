package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/config"
	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
	"github.com/shopspring/decimal"
)

type Account struct {
	ID        int          `gorm:"primary_key" json:"id"`
	ProfileId string       `gorm:"index;not null" json:"profile_id"`
	Name      string       `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Class     AccountClass `gorm:"type:enum('asset','liability');default:'asset';size:12;not null" json:"class" binding:"required"`
	Kind      AccountKind  `gorm:"type:enum('cash','bank','credit','investment');default:'cash';size:12;not null" json:"kind" binding:"required"`
	Currency  string       `gorm:"size:3;not null;default:'USD'" json:"currency"`
	// StatementCutDay is the day of month the card statement closes (credit accounts).
	// Zero means no statement cycle.
	StatementCutDay int             `gorm:"not null;default:0" json:"statement_cut_day"`
	OpeningBalance  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_balance"`
	CurrentBalance  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_balance"`
	// Yield config (investment accounts). Rate is a percentage, e.g. 10.5.
	YieldRate       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"yield_rate"`
	YieldFrequency  YieldFrequency  `gorm:"type:enum('daily','monthly','annually');default:'annually';size:12" json:"yield_frequency"`
	LastAccrualDate *time.Time      `json:"last_accrual_date"`
	Description     string          `gorm:"type:text" json:"description"`
	IsArchived      *bool           `gorm:"not null;default:false" json:"is_archived"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAccount struct {
	Name            string          `json:"name" binding:"required"`
	Class           AccountClass    `json:"class" binding:"required"`
	Kind            AccountKind     `json:"kind" binding:"required"`
	Currency        string          `json:"currency"`
	StatementCutDay int             `json:"statement_cut_day"`
	OpeningBalance  decimal.Decimal `json:"opening_balance"`
	YieldRate       decimal.Decimal `json:"yield_rate"`
	YieldFrequency  YieldFrequency  `json:"yield_frequency"`
	Description     string          `json:"description"`
}

type AccountsEdge Edge[Account]
type AccountsConnection struct {
	PageInfo *PageInfo       `json:"pageInfo"`
	Edges    []*AccountsEdge `json:"edges"`
}

// node
// returns decoded cursor string
func (a Account) GetCursor() string {
	return a.CreatedAt.String()
}

func (a Account) GetId() int {
	return a.ID
}

func (a Account) GetProfileId() string {
	return a.ProfileId
}

// validate input for both create & update. (id = 0 for create)

func (input *NewAccount) validate(ctx context.Context, profileId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Account](ctx, profileId, id); err != nil {
			return err
		}
	}
	// name
	if err := utils.ValidateUnique[Account](ctx, profileId, "name", input.Name, id); err != nil {
		return err
	}
	if input.StatementCutDay < 0 || input.StatementCutDay > 31 {
		return errors.New("statement cut day must be between 1 and 31")
	}
	if input.StatementCutDay > 0 && input.Kind != AccountKindCredit {
		return errors.New("statement cut day only applies to credit accounts")
	}
	if input.YieldRate.IsNegative() {
		return errors.New("yield rate cannot be negative")
	}
	if !input.YieldRate.IsZero() && input.Kind != AccountKindInvestment {
		return errors.New("yield rate only applies to investment accounts")
	}
	return nil
}

func CreateAccount(ctx context.Context, input *NewAccount) (*Account, error) {

	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	if err := input.validate(ctx, profileId, 0); err != nil {
		return nil, err
	}

	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}
	yieldFrequency := input.YieldFrequency
	if yieldFrequency == "" {
		yieldFrequency = YieldFrequencyAnnually
	}

	account := Account{
		ProfileId:       profileId,
		Name:            input.Name,
		Class:           input.Class,
		Kind:            input.Kind,
		Currency:        currency,
		StatementCutDay: input.StatementCutDay,
		OpeningBalance:  input.OpeningBalance,
		CurrentBalance:  input.OpeningBalance,
		YieldRate:       input.YieldRate,
		YieldFrequency:  yieldFrequency,
		Description:     input.Description,
		IsArchived:      utils.NewFalse(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func UpdateAccount(ctx context.Context, id int, input *NewAccount) (*Account, error) {

	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	if err := input.validate(ctx, profileId, id); err != nil {
		return nil, err
	}

	account, err := utils.FetchModel[Account](ctx, profileId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	// db action
	err = db.WithContext(ctx).Model(&account).Updates(map[string]interface{}{
		"Name":            input.Name,
		"Class":           input.Class,
		"Kind":            input.Kind,
		"Currency":        input.Currency,
		"StatementCutDay": input.StatementCutDay,
		"YieldRate":       input.YieldRate,
		"YieldFrequency":  input.YieldFrequency,
		"Description":     input.Description,
	}).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[Account](id); err != nil {
		return nil, err
	}
	return account, nil
}

func DeleteAccount(ctx context.Context, id int) (*Account, error) {

	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}
	result, err := utils.FetchModel[Account](ctx, profileId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()

	// Accounts with transactions cannot be deleted, only archived.
	var count int64
	err = db.WithContext(ctx).Model(&Transaction{}).Where("account_id = ?", id).Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("account has transactions; archive it instead")
	}

	// db action
	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[Account](id); err != nil {
		return nil, err
	}

	return result, nil
}

func GetAccount(ctx context.Context, id int) (*Account, error) {

	return GetResource[Account](ctx, id)
}

func GetAccounts(ctx context.Context, class *string, kind *string, includeArchived bool) ([]*Account, error) {

	db := config.GetDB()
	var results []*Account

	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	dbCtx := db.WithContext(ctx).Where("profile_id = ?", profileId)
	if class != nil && len(*class) > 0 {
		dbCtx = dbCtx.Where("class = ?", class)
	}
	if kind != nil && len(*kind) > 0 {
		dbCtx = dbCtx.Where("kind = ?", kind)
	}
	if !includeArchived {
		dbCtx = dbCtx.Where("is_archived = 0")
	}
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ToggleArchiveAccount(ctx context.Context, id int, isArchived bool) (*Account, error) {
	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	account, err := utils.FetchModel[Account](ctx, profileId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&account).UpdateColumn("IsArchived", isArchived).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[Account](id); err != nil {
		return nil, err
	}
	return account, nil
}

func PaginateAccount(ctx context.Context, limit *int, after *string,
	name *string) (*AccountsConnection, error) {

	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("profile_id = ?", profileId)
	if name != nil && *name != "" {
		dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	edges, pageInfo, err := FetchPageCompositeCursor[Account](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}
	var accountsConnection AccountsConnection
	accountsConnection.PageInfo = pageInfo
	for _, edge := range edges {
		accountEdge := AccountsEdge(edge)
		accountsConnection.Edges = append(accountsConnection.Edges, &accountEdge)
	}
	return &accountsConnection, err
}
