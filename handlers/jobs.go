package handlers

import (
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/config"
	"bitbucket.org/mmdatafocus/fintrack_backend/models"
	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
	"bitbucket.org/mmdatafocus/fintrack_backend/workflow"
	"github.com/gin-gonic/gin"
)

// Job trigger endpoints. Each runs synchronously and reports the run result;
// the external scheduler (Cloud Scheduler or cron) hits these on its tick.

func runDate(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return time.Now().UTC(), true
	}
	parsed, err := models.ParseDateOnly(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return time.Time{}, false
	}
	return parsed, true
}

func RunInstallmentsJob(c *gin.Context) {
	date, ok := runDate(c)
	if !ok {
		return
	}
	result, err := workflow.RunInstallmentSettlement(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func RunYieldJob(c *gin.Context) {
	date, ok := runDate(c)
	if !ok {
		return
	}
	result, err := workflow.RunYieldAccrual(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func RunRecurringJob(c *gin.Context) {
	date, ok := runDate(c)
	if !ok {
		return
	}
	result, err := workflow.RunRecurringSettlement(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RunSettlementJob ticks all three processors for the calling profile under
// the profile lock.
func RunSettlementJob(c *gin.Context) {
	date, ok := runDate(c)
	if !ok {
		return
	}
	profileId, found := utils.GetProfileIdFromContext(c.Request.Context())
	if !found || profileId == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-Profile-Id header is required"})
		return
	}
	result, err := workflow.RunSettlementForProfile(c.Request.Context(), profileId, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RunSettlementAllJob ticks every profile. Exempt from the profile header;
// meant for the scheduler, not end users.
func RunSettlementAllJob(c *gin.Context) {
	date, ok := runDate(c)
	if !ok {
		return
	}
	results, err := workflow.RunSettlementForAllProfiles(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func RunReconciliationJob(c *gin.Context) {
	result, err := workflow.ReconcileProfileBalances(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RunOutboxJob forces one dispatch pass, useful when the background
// dispatcher is disabled or an operator wants an immediate flush.
func RunOutboxJob(c *gin.Context) {
	if !config.SettlementEventsEnabled() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "settlement events are disabled"})
		return
	}
	dispatcher := workflow.NewOutboxDispatcher(config.GetDB(), config.GetLogger())
	dispatcher.DispatchOnce(c.Request.Context())
	c.Status(http.StatusNoContent)
}

type outboxReplayRequest struct {
	RecordId int `json:"record_id" binding:"required"`
}

// ReplayOutboxRecord requeues a DEAD or FAILED outbox row for publishing.
func ReplayOutboxRecord(c *gin.Context) {
	profileId, found := utils.GetProfileIdFromContext(c.Request.Context())
	if !found || profileId == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-Profile-Id header is required"})
		return
	}

	var req outboxReplayRequest
	if !bindJSON(c, &req) {
		return
	}

	db := config.GetDB()
	now := time.Now().UTC()
	if err := db.WithContext(c.Request.Context()).
		Model(&models.SettlementMessageRecord{}).
		Where("id = ? AND profile_id = ?", req.RecordId, profileId).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxPublishStatusFailed,
			"next_attempt_at":    &now,
			"locked_at":          nil,
			"locked_by":          nil,
			"last_publish_error": nil,
		}).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"record_id":       req.RecordId,
		"publish_status":  models.OutboxPublishStatusFailed,
		"next_attempt_at": now.Format(time.RFC3339Nano),
	})
}
