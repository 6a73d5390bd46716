package models

import "time"

type IdempotencyStatus string

const (
	IdempotencyStatusStarted   IdempotencyStatus = "STARTED"
	IdempotencyStatusSucceeded IdempotencyStatus = "SUCCEEDED"
	IdempotencyStatusFailed    IdempotencyStatus = "FAILED"
)

// IdempotencyKey provides durable, DB-backed idempotency for settlement
// handlers. Unique constraint: (profile_id, handler_name, entity_key).
//
// Entity key formats:
//
//	installment: msi:<txID>:<installmentNo>
//	yield:       yield:<accountID>:<YYYY-MM-DD>
//	recurring:   rule:<ruleID>:<YYYY-MM-DD>
type IdempotencyKey struct {
	ID          int               `gorm:"primary_key" json:"id"`
	ProfileId   string            `gorm:"size:64;not null;index:uniq_idem,unique" json:"profile_id"`
	HandlerName string            `gorm:"size:100;not null;index:uniq_idem,unique" json:"handler_name"`
	EntityKey   string            `gorm:"size:255;not null;index:uniq_idem,unique" json:"entity_key"`
	Status      IdempotencyStatus `gorm:"size:20;not null;index" json:"status"`
	LastError   *string           `gorm:"type:text" json:"last_error"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}
