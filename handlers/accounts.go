package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/fintrack_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateAccount(c *gin.Context) {
	var input models.NewAccount
	if !bindJSON(c, &input) {
		return
	}
	account, err := models.CreateAccount(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func GetAccount(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	account, err := models.GetAccount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func ListAccounts(c *gin.Context) {
	accounts, err := models.GetAccounts(c.Request.Context(),
		queryString(c, "class"), queryString(c, "kind"), queryBool(c, "include_archived"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func UpdateAccount(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewAccount
	if !bindJSON(c, &input) {
		return
	}
	account, err := models.UpdateAccount(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func DeleteAccount(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	account, err := models.DeleteAccount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

type archiveAccountRequest struct {
	IsArchived *bool `json:"is_archived" binding:"required"`
}

func ArchiveAccount(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req archiveAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	account, err := models.ToggleArchiveAccount(c.Request.Context(), id, *req.IsArchived)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}
