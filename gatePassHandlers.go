package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/gate_entry/models"
)

type gatePassListQuery struct {
	DocumentReference string `form:"document_reference"`
	ReferenceNumber   string `form:"reference_number"`
	LinkedTo          string `form:"linked_to"`
	EntryType         string `form:"entry_type" validate:"omitempty,oneof='Gate In' 'Gate Out'"`
	DocStatus         *int   `form:"docstatus" validate:"omitempty,min=0,max=2"`
	Supplier          string `form:"supplier"`
	Company           string `form:"company"`
	WithItems         bool   `form:"with_items"`
	Limit             int    `form:"limit" validate:"omitempty,min=1,max=500"`
	Offset            int    `form:"offset" validate:"min=0"`
}

func (q *gatePassListQuery) filter() (models.GatePassFilter, bool) {
	filter := models.GatePassFilter{
		ReferenceNumber: q.ReferenceNumber,
		LinkedTo:        q.LinkedTo,
		EntryType:       models.EntryType(q.EntryType),
		Supplier:        q.Supplier,
		Company:         q.Company,
		WithItems:       q.WithItems,
		OrderByLatest:   true,
		Limit:           q.Limit,
		Offset:          q.Offset,
	}
	if filter.Limit == 0 {
		filter.Limit = 50
	}
	if q.DocStatus != nil {
		status := models.DocStatus(*q.DocStatus)
		filter.DocStatus = &status
	}
	if q.DocumentReference != "" {
		ref, ok := models.ParseDocumentReference(q.DocumentReference)
		if !ok {
			return filter, false
		}
		filter.DocumentReference = ref
	}
	return filter, true
}

func listGatePassesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var q gatePassListQuery
		if !bindQuery(c, &q) {
			return
		}
		filter, ok := q.filter()
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown document_reference"})
			return
		}
		passes, err := gatePassEngine().List(c.Request.Context(), filter)
		if err != nil {
			writeError(c, "listGatePassesHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": passes})
	}
}

func getGatePassHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gp, err := gatePassEngine().Get(c.Request.Context(), c.Param("name"))
		if err != nil {
			writeError(c, "getGatePassHandler", err)
			return
		}
		c.JSON(http.StatusOK, gp)
	}
}

func createGatePassHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewGatePass
		if !bindJSON(c, &input) {
			return
		}
		var gp models.GatePass
		input.Apply(&gp)
		saved, err := gatePassEngine().Save(c.Request.Context(), &gp)
		if err != nil {
			writeError(c, "createGatePassHandler", err)
			return
		}
		c.JSON(http.StatusCreated, saved)
	}
}

func updateGatePassHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewGatePass
		if !bindJSON(c, &input) {
			return
		}
		engine := gatePassEngine()
		gp, err := engine.Get(c.Request.Context(), c.Param("name"))
		if err != nil {
			writeError(c, "updateGatePassHandler", err)
			return
		}
		input.Apply(gp)
		saved, err := engine.Save(c.Request.Context(), gp)
		if err != nil {
			writeError(c, "updateGatePassHandler", err)
			return
		}
		c.JSON(http.StatusOK, saved)
	}
}

func deleteGatePassHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := gatePassEngine().Delete(c.Request.Context(), c.Param("name")); err != nil {
			writeError(c, "deleteGatePassHandler", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func submitGatePassHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gp, err := gatePassEngine().Submit(c.Request.Context(), c.Param("name"))
		if err != nil {
			writeError(c, "submitGatePassHandler", err)
			return
		}
		c.JSON(http.StatusOK, gp)
	}
}

func cancelGatePassHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gp, err := gatePassEngine().Cancel(c.Request.Context(), c.Param("name"))
		if err != nil {
			writeError(c, "cancelGatePassHandler", err)
			return
		}
		c.JSON(http.StatusOK, gp)
	}
}

// The generators save a draft document and link it back to the pass.

func purchaseReceiptHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		pr, err := gatePassEngine().CreatePurchaseReceipt(c.Request.Context(), c.Param("name"))
		if err != nil {
			writeError(c, "purchaseReceiptHandler", err)
			return
		}
		c.JSON(http.StatusCreated, pr)
	}
}

func subcontractingReceiptHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sr, err := gatePassEngine().CreateSubcontractingReceipt(c.Request.Context(), c.Param("name"))
		if err != nil {
			writeError(c, "subcontractingReceiptHandler", err)
			return
		}
		c.JSON(http.StatusCreated, sr)
	}
}

func returnStockEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		se, err := gatePassEngine().CreateReturnStockEntry(c.Request.Context(), c.Param("name"))
		if err != nil {
			writeError(c, "returnStockEntryHandler", err)
			return
		}
		c.JSON(http.StatusCreated, se)
	}
}

func gatePassStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := gatePassEngine().GetGatePassStatus(c.Request.Context(), c.Param("name"))
		if err != nil {
			writeError(c, "gatePassStatusHandler", err)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

func outboundTransferHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		name, err := gatePassEngine().GetOutboundTransferReference(c.Request.Context(), c.Param("name"))
		if err != nil {
			writeError(c, "outboundTransferHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"outbound_material_transfer": name})
	}
}
