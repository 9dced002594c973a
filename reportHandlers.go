package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/middlewares"
	"github.com/mmdatafocus/gate_entry/models"
	"github.com/mmdatafocus/gate_entry/models/reports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func reportLookups(ctx context.Context) reports.Lookups {
	if loaders := middlewares.For(ctx); loaders != nil {
		return loaders
	}
	return reports.NewDBLookups(config.GetDB())
}

func requireReportAccess(c *gin.Context) bool {
	ok, err := models.RolePermissionChecker{}.HasPermission(c.Request.Context(), models.DocTypeGatePass, models.ActionRead)
	if err != nil {
		writeError(c, "requireReportAccess", err)
		return false
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to view gate pass reports"})
		return false
	}
	return true
}

// reportHandler binds the shared filters, builds the report and writes it as JSON, or as a
// workbook when format=xlsx.
func reportHandler[R reports.ExcelReport](name string, columns func(R) []reports.Column,
	build func(ctx context.Context, f reports.Filters, l reports.Lookups) (R, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireReportAccess(c) {
			return
		}
		var filters reports.Filters
		if !bindQuery(c, &filters) {
			return
		}
		ctx := c.Request.Context()
		report, err := build(ctx, filters, reportLookups(ctx))
		if err != nil {
			writeError(c, name, err)
			return
		}
		if c.Query("format") != "xlsx" {
			c.JSON(http.StatusOK, report)
			return
		}

		var buf bytes.Buffer
		if err := reports.WriteExcel(&buf, columns(report), report.ExcelRows()); err != nil {
			writeError(c, name, err)
			return
		}
		filename := fmt.Sprintf("%s_%s.xlsx", name, time.Now().Format("20060102"))
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}

func gateRegisterReportHandler() gin.HandlerFunc {
	return reportHandler("gate_register",
		func(r *reports.GateRegisterReport) []reports.Column { return r.Columns },
		reports.GetGateRegisterReport)
}

func pendingGatePassReportHandler() gin.HandlerFunc {
	return reportHandler("pending_gate_passes",
		func(r *reports.PendingGatePassReport) []reports.Column { return r.Columns },
		reports.GetPendingGatePassReport)
}

func materialReconciliationReportHandler() gin.HandlerFunc {
	return reportHandler("material_reconciliation",
		func(r *reports.MaterialReconciliationReport) []reports.Column { return r.Columns },
		reports.GetMaterialReconciliationReport)
}

// invalidateReportsOnWrite drops the cached reports of the caller's business after a
// successful write.
func invalidateReportsOnWrite() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Request.Method == http.MethodGet || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		reports.InvalidateReportCache(c.Request.Context())
	}
}
