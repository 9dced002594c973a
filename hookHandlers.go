package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/middlewares"
	"github.com/mmdatafocus/gate_entry/models"
	"github.com/sirupsen/logrus"
)

// Hooks are called by the ERP after it commits the stock entry or receipt change.

func logHookCall(c *gin.Context, funcName string) {
	fields := logrus.Fields{"field": funcName, "document": c.Param("name")}
	if claims := middlewares.CtxValue(c.Request.Context()); claims != nil {
		fields["business_id"] = claims.BusinessId
		fields["caller"] = claims.Caller
	}
	config.GetLogger().WithFields(fields).Info("erp hook")
}

func stockEntryHook(funcName string, run func(e *models.GatePassEngine, ctx context.Context, name string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		logHookCall(c, funcName)
		if err := run(gatePassEngine(), c.Request.Context(), c.Param("name")); err != nil {
			writeError(c, funcName, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func stockEntrySubmitHook() gin.HandlerFunc {
	return stockEntryHook("stockEntrySubmitHook", (*models.GatePassEngine).OnStockEntrySubmit)
}

func stockEntryCancelHook() gin.HandlerFunc {
	return stockEntryHook("stockEntryCancelHook", (*models.GatePassEngine).OnStockEntryCancel)
}

func stockEntryTrashHook() gin.HandlerFunc {
	return stockEntryHook("stockEntryTrashHook", (*models.GatePassEngine).OnStockEntryTrash)
}

type receiptHookRequest struct {
	// GatePass is optional; the receipt row is read when it is empty.
	GatePass string `json:"gate_pass"`
}

func receiptClearedHook(receiptType models.ReceiptType) gin.HandlerFunc {
	return func(c *gin.Context) {
		logHookCall(c, "receiptClearedHook")
		var req receiptHookRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
				return
			}
		}
		err := gatePassEngine().ClearReceiptReference(c.Request.Context(), receiptType, c.Param("name"), req.GatePass)
		if err != nil {
			writeError(c, "receiptClearedHook", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
