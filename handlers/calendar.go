package handlers

import (
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/models"
	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
	"bitbucket.org/mmdatafocus/fintrack_backend/workflow"
	"github.com/gin-gonic/gin"
)

// Calendar returns the projected cashflow entries for a date window. The
// entries are virtual: nothing is written, the settlement runners post the
// real rows when the dates arrive.
func Calendar(c *gin.Context) {
	from, err := models.ParseDateOnly(c.DefaultQuery("from", time.Now().UTC().Format("2006-01-02")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
		return
	}

	to := utils.EndOfDay(from.AddDate(0, 3, 0))
	if raw := c.Query("to"); raw != "" {
		parsed, err := models.ParseDateOnly(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return
		}
		to = utils.EndOfDay(parsed)
	}

	projection, err := workflow.ProjectCalendar(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projection)
}
