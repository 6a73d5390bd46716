package models

// AccountClass determines the sign convention for balance updates.
// Asset accounts decrease on expenses; liability (credit) accounts increase.
type AccountClass string

const (
	AccountClassAsset     AccountClass = "asset"
	AccountClassLiability AccountClass = "liability"
)

type AccountKind string

const (
	AccountKindCash       AccountKind = "cash"
	AccountKindBank       AccountKind = "bank"
	AccountKindCredit     AccountKind = "credit"
	AccountKindInvestment AccountKind = "investment"
)

type TransactionType string

const (
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeTransfer TransactionType = "transfer"
)

// TransactionOrigin records which subsystem created a transaction row.
type TransactionOrigin string

const (
	TransactionOriginManual     TransactionOrigin = "manual"
	TransactionOriginRecurring  TransactionOrigin = "recurring"
	TransactionOriginYield      TransactionOrigin = "yield"
	TransactionOriginAggregator TransactionOrigin = "aggregator"
)

// TransferSide marks which leg of a transfer pair a row represents.
type TransferSide string

const (
	TransferSideOutgoing TransferSide = "outgoing"
	TransferSideIncoming TransferSide = "incoming"
)

// Frequency is the recurrence step of a rule.
type Frequency string

const (
	FrequencyDaily        Frequency = "daily"
	FrequencyWeekly       Frequency = "weekly"
	FrequencyBiweekly     Frequency = "biweekly"
	FrequencyMonthly      Frequency = "monthly"
	FrequencyBimonthly    Frequency = "bimonthly"
	FrequencyQuarterly    Frequency = "quarterly"
	FrequencySemiannually Frequency = "semiannually"
	FrequencyAnnually     Frequency = "annually"
)

// YieldFrequency is the accrual basis of an investment account's rate.
type YieldFrequency string

const (
	YieldFrequencyDaily    YieldFrequency = "daily"
	YieldFrequencyMonthly  YieldFrequency = "monthly"
	YieldFrequencyAnnually YieldFrequency = "annually"
)

// SettlementAction is the action field on outbox events.
type SettlementAction string

const (
	SettlementActionInstallmentPosted SettlementAction = "INSTALLMENT_POSTED"
	SettlementActionYieldAccrued      SettlementAction = "YIELD_ACCRUED"
	SettlementActionRuleConfirmed     SettlementAction = "RULE_CONFIRMED"
)

// SettlementReferenceType identifies the entity an outbox event refers to.
type SettlementReferenceType string

const (
	SettlementReferenceTypeTransaction   SettlementReferenceType = "TXN"
	SettlementReferenceTypeAccount       SettlementReferenceType = "ACC"
	SettlementReferenceTypeRecurringRule SettlementReferenceType = "RULE"
)
