package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/config"
	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Outbox publish statuses for SettlementMessageRecord.PublishStatus.
// Keep these as strings (DB values).
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

// SettlementMessageRecord is the transactional outbox row for settlement
// events. It is written inside the settlement DB transaction; publishing to
// Pub/Sub happens after commit via the outbox dispatcher.
type SettlementMessageRecord struct {
	ID            int                     `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	ProfileId     string                  `gorm:"size:64;not null;index" json:"profile_id"`
	OccurredAt    time.Time               `gorm:"index;not null" json:"occurred_at"`
	ReferenceId   string                  `gorm:"size:64;not null" json:"reference_id"`
	ReferenceType SettlementReferenceType `gorm:"type:enum('TXN','ACC','RULE')" json:"reference_type"`
	Action        SettlementAction        `gorm:"size:32;not null" json:"action"`
	Payload       []byte                  `gorm:"type:blob" json:"payload"`
	// Publish metadata (publish happens after commit via dispatcher).
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToSettlementMessage(record SettlementMessageRecord) config.SettlementMessage {
	return config.SettlementMessage{
		ID:            record.ID,
		ProfileId:     record.ProfileId,
		OccurredAt:    record.OccurredAt,
		ReferenceId:   record.ReferenceId,
		ReferenceType: string(record.ReferenceType),
		Action:        string(record.Action),
		Payload:       record.Payload,
		CorrelationId: record.CorrelationId,
	}
}

// RecordSettlementEvent writes the outbox row inside the caller's DB
// transaction. It does NOT publish; the dispatcher picks the row up after
// commit, so consumers never see events for rolled-back settlements.
func RecordSettlementEvent(ctx context.Context, tx *gorm.DB, profileId string, occurredAt time.Time, refId string, refType SettlementReferenceType, action SettlementAction, payload interface{}) error {
	var payloadBytes []byte
	var err error
	if payload != nil {
		payloadBytes, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}

	record := SettlementMessageRecord{
		ProfileId:     profileId,
		OccurredAt:    occurredAt,
		ReferenceId:   refId,
		ReferenceType: refType,
		Action:        action,
		Payload:       payloadBytes,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
