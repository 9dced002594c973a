package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/gate_entry/models"
)

// referenceParam accepts either the doctype ("Purchase Order") or its slug ("purchase-order").
func referenceParam(c *gin.Context) (models.DocumentReference, bool) {
	ref, ok := models.ParseDocumentReference(c.Param("doctype"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported document type: " + c.Param("doctype")})
		return "", false
	}
	return ref, true
}

func referenceItemsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := referenceParam(c)
		if !ok {
			return
		}
		items, err := gatePassEngine().GetItems(c.Request.Context(), ref, c.Param("name"))
		if err != nil {
			writeError(c, "referenceItemsHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func referenceAddressHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := referenceParam(c)
		if !ok {
			return
		}
		address, err := gatePassEngine().GetAddress(c.Request.Context(), ref, c.Param("name"))
		if err != nil {
			writeError(c, "referenceAddressHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"address_display": address})
	}
}

func referenceDetailsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := referenceParam(c)
		if !ok {
			return
		}
		details, err := gatePassEngine().GetReferenceDetails(c.Request.Context(), ref, c.Param("name"))
		if err != nil {
			writeError(c, "referenceDetailsHandler", err)
			return
		}
		c.JSON(http.StatusOK, details)
	}
}

func referenceComplianceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := referenceParam(c)
		if !ok {
			return
		}
		advisory, err := gatePassEngine().GetOutboundComplianceStatus(c.Request.Context(), ref, c.Param("name"))
		if err != nil {
			writeError(c, "referenceComplianceHandler", err)
			return
		}
		c.JSON(http.StatusOK, advisory)
	}
}

func referenceReceivedQtyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := referenceParam(c)
		if !ok {
			return
		}
		itemCode := c.Query("item_code")
		if itemCode == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "item_code is required"})
			return
		}
		qty, err := gatePassEngine().GetGatePassReceivedQty(c.Request.Context(), ref, c.Param("name"), itemCode)
		if err != nil {
			writeError(c, "referenceReceivedQtyHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"item_code": itemCode, "received_qty": qty})
	}
}
