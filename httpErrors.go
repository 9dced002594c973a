package main

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/models"
	"github.com/mmdatafocus/gate_entry/utils"
	"gorm.io/gorm"
)

// writeError maps engine errors to status codes. Unknown errors are logged and hidden.
func writeError(c *gin.Context, funcName string, err error) {
	var ve *models.ValidationError
	var pe *models.PermissionError
	var le *models.LinkedReceiptsError
	switch {
	case errors.As(err, &le):
		c.JSON(http.StatusExpectationFailed, gin.H{"title": le.Title(), "error": le.Error(), "receipts": le.Receipts})
	case errors.As(err, &ve):
		c.JSON(http.StatusExpectationFailed, ve)
	case errors.As(err, &pe):
		c.JSON(http.StatusForbidden, gin.H{"error": pe.Message})
	case models.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.Is(err, utils.ErrorUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, utils.ErrorBusinessId):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		config.LogError(config.GetLogger(), "server.go", funcName, "request "+cid, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// bindJSON writes 400 on a malformed body and 417 on failed field validation.
func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return false
	}
	return validateInput(c, dest)
}

func bindQuery(c *gin.Context, dest any) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query: " + err.Error()})
		return false
	}
	return validateInput(c, dest)
}

func validateInput(c *gin.Context, dest any) bool {
	errs := utils.ValidateStruct(dest)
	if len(errs) == 0 {
		return true
	}
	parts := make([]string, 0, len(errs))
	for field, msg := range errs {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	c.JSON(http.StatusExpectationFailed, gin.H{"error": strings.Join(parts, "; "), "fields": errs})
	return false
}
