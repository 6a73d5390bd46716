package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/fintrack_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateRecurringRule(c *gin.Context) {
	var input models.NewRecurringRule
	if !bindJSON(c, &input) {
		return
	}
	rule, err := models.CreateRecurringRule(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func GetRecurringRule(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	rule, err := models.GetRecurringRule(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func ListRecurringRules(c *gin.Context) {
	rules, err := models.GetRecurringRules(c.Request.Context(),
		queryInt(c, "account_id"), queryBool(c, "active_only"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

func UpdateRecurringRule(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewRecurringRule
	if !bindJSON(c, &input) {
		return
	}
	rule, err := models.UpdateRecurringRule(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func DeleteRecurringRule(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	rule, err := models.DeleteRecurringRule(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

type toggleRuleRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func ToggleRecurringRule(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req toggleRuleRequest
	if !bindJSON(c, &req) {
		return
	}
	rule, err := models.ToggleActiveRecurringRule(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}
