package handlers

import (
	"fmt"
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/models"
	"github.com/gin-gonic/gin"
)

// StatementExcel streams one billing cycle's statement as an XLSX download.
// The cycle is the one containing the given year/month's cut date; both
// default to the current month.
func StatementExcel(c *gin.Context) {
	accountId := queryInt(c, "account")
	if accountId == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account is required"})
		return
	}

	now := time.Now().UTC()
	year := now.Year()
	month := int(now.Month())
	if v := queryInt(c, "year"); v != nil {
		year = *v
	}
	if v := queryInt(c, "month"); v != nil {
		month = *v
	}
	if month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be between 1 and 12"})
		return
	}
	refDate := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)

	report, err := models.BuildStatementReport(c.Request.Context(), *accountId, refDate)
	if err != nil {
		respondError(c, err)
		return
	}
	file, err := models.ExportStatementExcel(report)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("statement_%d_%04d-%02d.xlsx", *accountId, year, month)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := file.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

// StatementJSON returns the same statement without the XLSX wrapping.
func StatementJSON(c *gin.Context) {
	accountId := queryInt(c, "account")
	if accountId == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account is required"})
		return
	}

	now := time.Now().UTC()
	year := now.Year()
	month := int(now.Month())
	if v := queryInt(c, "year"); v != nil {
		year = *v
	}
	if v := queryInt(c, "month"); v != nil {
		month = *v
	}
	refDate := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)

	report, err := models.BuildStatementReport(c.Request.Context(), *accountId, refDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
