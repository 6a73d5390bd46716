package handlers

import (
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateTransaction(c *gin.Context) {
	var input models.NewTransaction
	if !bindJSON(c, &input) {
		return
	}
	transaction, err := models.CreateTransaction(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transaction)
}

func GetTransaction(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	transaction, err := models.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transaction)
}

func ListTransactions(c *gin.Context) {
	var fromDate, toDate *time.Time
	if raw := c.Query("from"); raw != "" {
		parsed, err := models.ParseDateOnly(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		fromDate = &parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := models.ParseDateOnly(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return
		}
		toDate = &parsed
	}

	transactions, err := models.GetTransactions(c.Request.Context(),
		queryInt(c, "account_id"), queryString(c, "type"), queryString(c, "origin"), fromDate, toDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}

func UpdateTransaction(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.UpdateTransactionInput
	if !bindJSON(c, &input) {
		return
	}
	transaction, err := models.UpdateTransaction(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transaction)
}

func DeleteTransaction(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	transaction, err := models.DeleteTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transaction)
}

func ConfirmTransaction(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	transaction, err := models.ConfirmTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transaction)
}

// InstallmentStatus exposes the derived repayment progress of an installment
// purchase without touching stored rows.
func InstallmentStatus(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	transaction, err := models.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	account, err := models.GetAccount(c.Request.Context(), transaction.AccountId)
	if err != nil {
		respondError(c, err)
		return
	}
	status := models.CalculateInstallmentStatus(transaction.TransactionDate, transaction.Amount,
		transaction.InstallmentsTotal, account.StatementCutDay, time.Now().UTC())
	if status == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transaction is not an installment purchase"})
		return
	}
	c.JSON(http.StatusOK, status)
}
