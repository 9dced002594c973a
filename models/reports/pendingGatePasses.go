package reports

import (
	"context"
	"sort"
	"time"

	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/models"
	"github.com/mmdatafocus/gate_entry/utils"
	"github.com/shopspring/decimal"
)

var pendingGatePassColumns = []Column{
	{Label: "Gate Pass ID", FieldName: "gate_pass", FieldType: "Link", Options: "Gate Pass", Width: 160},
	{Label: "Direction", FieldName: "direction", FieldType: "Data", Width: 110},
	{Label: "Status", FieldName: "pending_reason", FieldType: "Data", Width: 200},
	{Label: "Date", FieldName: "gate_pass_date", FieldType: "Date", Width: 110},
	{Label: "Reference Document", FieldName: "reference_document", FieldType: "Data", Width: 160},
	{Label: "Reference", FieldName: "reference_number", FieldType: "Dynamic Link", Options: "reference_document", Width: 180},
	{Label: "Stock Entry", FieldName: "stock_entry", FieldType: "Link", Options: "Stock Entry", Width: 160},
	{Label: "Stock Entry Type", FieldName: "stock_entry_type", FieldType: "Data", Width: 160},
	{Label: "Stock Entry Posting Date", FieldName: "se_posting_date", FieldType: "Date", Width: 110},
	{Label: "Source Warehouses", FieldName: "source_warehouses", FieldType: "Data", Width: 160},
	{Label: "Target Warehouses", FieldName: "target_warehouses", FieldType: "Data", Width: 160},
	{Label: "Item Details", FieldName: "item_details", FieldType: "Data", Width: 300},
	{Label: "Party", FieldName: "party_name", FieldType: "Data", Width: 200},
	{Label: "Compliance Status", FieldName: "compliance_status", FieldType: "Data", Width: 180},
	{Label: "Total Items", FieldName: "total_items", FieldType: "Int", Width: 110},
	{Label: "Aging (Days)", FieldName: "aging", FieldType: "Int", Width: 110},
}

const (
	pendingAwaitingReceipt    = "Awaiting Receipt"
	pendingCompliance         = "Compliance pending"
	pendingAwaitingSubmission = "Awaiting Guard Submission"
	pendingReview             = "Pending Review"
)

type PendingGatePassRow struct {
	GatePass          string `json:"gate_pass"`
	Direction         string `json:"direction"`
	PendingReason     string `json:"pending_reason"`
	GatePassDate      string `json:"gate_pass_date"`
	ReferenceDocument string `json:"reference_document"`
	ReferenceNumber   string `json:"reference_number"`
	StockEntry        string `json:"stock_entry"`
	StockEntryType    string `json:"stock_entry_type"`
	SePostingDate     string `json:"se_posting_date"`
	SourceWarehouses  string `json:"source_warehouses"`
	TargetWarehouses  string `json:"target_warehouses"`
	ItemDetails       string `json:"item_details"`
	PartyName         string `json:"party_name"`
	ComplianceStatus  string `json:"compliance_status"`
	TotalItems        int    `json:"total_items"`
	Aging             int    `json:"aging"`
	AgingColor        string `json:"aging_color"`
	CompliancePending bool   `json:"compliance_pending"`
}

func (r *PendingGatePassRow) GetCellValues() []interface{} {
	return []interface{}{
		r.GatePass, r.Direction, r.PendingReason, r.GatePassDate, r.ReferenceDocument, r.ReferenceNumber,
		r.StockEntry, r.StockEntryType, r.SePostingDate, r.SourceWarehouses, r.TargetWarehouses,
		r.ItemDetails, r.PartyName, r.ComplianceStatus, r.TotalItems, r.Aging,
	}
}

type PendingGatePassReport struct {
	Columns []Column              `json:"columns"`
	Rows    []*PendingGatePassRow `json:"data"`
	Summary []SummaryCard         `json:"report_summary"`
}

func (r *PendingGatePassReport) ExcelRows() []ExcelExporter {
	rows := make([]ExcelExporter, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, row)
	}
	return rows
}

type pendingRecord struct {
	Name              string
	EntryType         string
	DocStatus         models.DocStatus `gorm:"column:docstatus"`
	PendingDate       *time.Time
	DocumentReference string
	ReferenceNumber   string
	Supplier          string
	StockEntry        string
	StockEntryType    string
	SePostingDate     *time.Time
	EInvoiceStatus    string
	EWaybillStatus    string
	TotalItems        int
}

const pendingGatePassSQL = `
SELECT
    gp.name,
    gp.entry_type,
    gp.docstatus,
    COALESCE(gp.gate_pass_date, DATE(gp.created_at)) AS pending_date,
    gp.document_reference,
    gp.reference_number,
    gp.supplier,
    IFNULL(MAX(se.name), '') AS stock_entry,
    IFNULL(MAX(se.stock_entry_type), '') AS stock_entry_type,
    MAX(se.posting_date) AS se_posting_date,
    {{- if .inbound }}
    '' AS e_invoice_status,
    '' AS e_waybill_status,
    {{- else }}
    gp.e_invoice_status,
    gp.e_waybill_status,
    {{- end }}
    COUNT(gpi.id) AS total_items
FROM
    gate_passes gp
    LEFT JOIN gate_pass_items gpi ON gpi.gate_pass_id = gp.id
    LEFT JOIN stock_entries se ON gp.document_reference = 'Stock Entry'
        AND se.business_id = gp.business_id
        AND se.name = gp.reference_number
WHERE
    gp.business_id = @businessId
    AND gp.document_reference IN @references
    {{- if .inbound }}
    AND gp.docstatus = 1
    AND gp.entry_type = 'Gate In'
    AND IFNULL(gp.purchase_receipt, '') = ''
    AND IFNULL(gp.subcontracting_receipt, '') = ''
    {{- if .fromDate }} AND gp.gate_pass_date >= @fromDate {{- end }}
    {{- if .toDate }} AND gp.gate_pass_date <= @toDate {{- end }}
    {{- if .supplier }} AND gp.supplier = @supplier {{- end }}
    {{- else }}
    AND gp.docstatus = 0
    AND gp.entry_type = 'Gate Out'
    {{- if .fromDate }} AND COALESCE(gp.gate_pass_date, DATE(gp.created_at)) >= @fromDate {{- end }}
    {{- if .toDate }} AND COALESCE(gp.gate_pass_date, DATE(gp.created_at)) <= @toDate {{- end }}
    {{- end }}
    {{- if .company }} AND gp.company = @company {{- end }}
    {{- if .stockEntry }} AND gp.document_reference = 'Stock Entry' AND gp.reference_number = @stockEntry {{- end }}
    {{- if .stockEntryType }} AND (gp.document_reference != 'Stock Entry' OR se.stock_entry_type = @stockEntryType) {{- end }}
    AND (gp.document_reference != 'Stock Entry' OR IFNULL(se.docstatus, 0) != 2)
GROUP BY gp.id
ORDER BY pending_date DESC, gp.name DESC
`

func GetPendingGatePassReport(ctx context.Context, filters Filters, lookups Lookups) (*PendingGatePassReport, error) {
	started := time.Now()
	defer logSlowReport(ctx, "pending_gate_passes", started, map[string]any{"filters": filters})

	return cachedReport(ctx, "pending_gate_passes", filters, func() (*PendingGatePassReport, error) {
		rows, err := getPendingGatePassRows(ctx, filters, lookups)
		if err != nil {
			return nil, err
		}
		return &PendingGatePassReport{
			Columns: pendingGatePassColumns,
			Rows:    rows,
			Summary: pendingGatePassSummary(rows),
		}, nil
	})
}

// pendingReferences is the document reference set a direction may list, narrowed by the filter.
func pendingReferences(inbound bool, filter string) []string {
	allowed := []models.DocumentReference{models.DocumentReferenceDeliveryNote, models.DocumentReferenceSalesInvoice, models.DocumentReferenceStockEntry}
	if inbound {
		allowed = []models.DocumentReference{models.DocumentReferencePurchaseOrder, models.DocumentReferenceStockEntry, models.DocumentReferenceSubcontractingOrder}
	}
	refs := make([]string, 0, len(allowed))
	for _, ref := range allowed {
		if filter == "" || filter == string(ref) {
			refs = append(refs, string(ref))
		}
	}
	return refs
}

func fetchPendingRecords(ctx context.Context, businessId string, f Filters, inbound bool) ([]*pendingRecord, error) {
	wantType := string(models.EntryTypeGateOut)
	if inbound {
		wantType = string(models.EntryTypeGateIn)
	}
	if f.EntryType != "" && f.EntryType != wantType {
		return nil, nil
	}
	refs := pendingReferences(inbound, f.DocumentReference)
	if len(refs) == 0 {
		return nil, nil
	}
	if !inbound && f.Supplier != "" {
		return nil, nil
	}

	sql, err := utils.ExecTemplate(pendingGatePassSQL, map[string]interface{}{
		"inbound":        inbound,
		"fromDate":       f.FromDate != "",
		"toDate":         f.ToDate != "",
		"supplier":       f.Supplier != "",
		"company":        f.Company != "",
		"stockEntry":     f.StockEntry != "",
		"stockEntryType": f.StockEntryType != "",
	})
	if err != nil {
		return nil, err
	}
	var records []*pendingRecord
	err = config.GetDB().WithContext(ctx).Raw(sql, map[string]interface{}{
		"businessId":     businessId,
		"references":     refs,
		"fromDate":       f.FromDate,
		"toDate":         f.ToDate,
		"supplier":       f.Supplier,
		"company":        f.Company,
		"stockEntry":     f.StockEntry,
		"stockEntryType": f.StockEntryType,
	}).Scan(&records).Error
	return records, err
}

func getPendingGatePassRows(ctx context.Context, f Filters, lookups Lookups) ([]*PendingGatePassRow, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.ErrorBusinessId
	}
	inbound, err := fetchPendingRecords(ctx, businessId, f, true)
	if err != nil {
		return nil, err
	}
	outbound, err := fetchPendingRecords(ctx, businessId, f, false)
	if err != nil {
		return nil, err
	}
	records := append(inbound, outbound...)
	if len(records) == 0 {
		return []*PendingGatePassRow{}, nil
	}

	var seNames []string
	for _, rec := range records {
		if rec.DocumentReference == string(models.DocumentReferenceStockEntry) && rec.ReferenceNumber != "" {
			seNames = append(seNames, rec.ReferenceNumber)
		}
	}
	entries, err := lookups.LoadStockEntries(ctx, utils.UniqueSlice(seNames))
	if err != nil {
		return nil, err
	}
	parties, err := lookups.LoadReferenceSummaries(ctx, referenceKeys(records, func(r *pendingRecord) (models.DocumentReference, string) {
		return models.DocumentReference(r.DocumentReference), r.ReferenceNumber
	}))
	if err != nil {
		return nil, err
	}
	var settings *models.ComplianceSettings
	if len(outbound) > 0 {
		gst, err := models.NewGormStore(config.GetDB()).GetGstSettings(ctx)
		if err != nil {
			return nil, err
		}
		settings = gst.ComplianceSettings()
	}
	return buildPendingRows(records, entries, parties, settings, f, time.Now()), nil
}

func buildPendingRows(records []*pendingRecord, entries map[string]*models.StockEntry, parties map[models.ReferenceKey]*models.ReferenceSummary, settings *models.ComplianceSettings, f Filters, now time.Time) []*PendingGatePassRow {
	today := truncateDay(now)
	sorted := make([]*pendingRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := pendingDate(sorted[i], today), pendingDate(sorted[j], today)
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return sorted[i].Name > sorted[j].Name
	})

	rows := make([]*PendingGatePassRow, 0, len(sorted))
	for _, rec := range sorted {
		ref := models.DocumentReference(rec.DocumentReference)
		party := parties[models.ReferenceKey{DocType: ref, Name: rec.ReferenceNumber}]
		isInbound := rec.EntryType == string(models.EntryTypeGateIn)

		if f.Customer != "" {
			if isInbound || party == nil || party.Party != f.Customer {
				continue
			}
		}
		if f.Supplier != "" && rec.EntryType == string(models.EntryTypeGateOut) {
			continue
		}

		date := pendingDate(rec, today)
		aging := int(today.Sub(date).Hours() / 24)
		row := &PendingGatePassRow{
			GatePass:          rec.Name,
			Direction:         rec.EntryType,
			GatePassDate:      date.Format(time.DateOnly),
			ReferenceDocument: rec.DocumentReference,
			ReferenceNumber:   rec.ReferenceNumber,
			StockEntry:        rec.StockEntry,
			StockEntryType:    rec.StockEntryType,
			SePostingDate:     formatDate(rec.SePostingDate),
			PartyName:         utils.FirstNonEmpty(party.DisplayParty(), rec.Supplier),
			TotalItems:        rec.TotalItems,
			Aging:             aging,
			AgingColor:        agingColor(aging),
		}

		if isInbound {
			row.PendingReason = pendingAwaitingReceipt
			row.ComplianceStatus = "-"
		} else {
			row.PendingReason, row.ComplianceStatus, row.CompliancePending = outboundPendingState(rec, party, settings)
		}

		if ref == models.DocumentReferenceStockEntry {
			if se, ok := entries[rec.ReferenceNumber]; ok {
				s := summarizeStockEntry(se)
				row.SourceWarehouses = s.SourceWarehouses
				row.TargetWarehouses = s.TargetWarehouses
				row.ItemDetails = stockEntryItemDetails(s.Items)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// outboundPendingState returns the pending reason, the compliance status line and whether a
// required compliance document is missing.
func outboundPendingState(rec *pendingRecord, party *models.ReferenceSummary, settings *models.ComplianceSettings) (string, string, bool) {
	ref := models.DocumentReference(rec.DocumentReference)
	if !ref.IsOutboundGroup() {
		return pendingReasonFor(rec, false), "-", false
	}
	status := models.ComplianceDetails{EInvoiceStatus: rec.EInvoiceStatus, EWaybillStatus: rec.EWaybillStatus}
	total := decimal.Zero
	if party != nil {
		total = party.Total
	}
	res := models.EvaluateCompliance(ref, total, status, settings)
	missing := len(res.Missing) > 0
	return pendingReasonFor(rec, missing), models.ComplianceSummary(ref, res, status), missing
}

func pendingReasonFor(rec *pendingRecord, missing bool) string {
	switch {
	case missing:
		return pendingCompliance
	case rec.DocStatus == models.DocStatusDraft:
		return pendingAwaitingSubmission
	}
	return pendingReview
}

func pendingDate(rec *pendingRecord, today time.Time) time.Time {
	if rec.PendingDate == nil {
		return today
	}
	return truncateDay(*rec.PendingDate)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func agingColor(aging int) string {
	switch {
	case aging <= 0:
		return "green"
	case aging <= 1:
		return "orange"
	}
	return "red"
}

func pendingGatePassSummary(rows []*PendingGatePassRow) []SummaryCard {
	if len(rows) == 0 {
		return []SummaryCard{}
	}
	var inbound, outbound, compliance, items int
	for _, row := range rows {
		items += row.TotalItems
		switch row.Direction {
		case string(models.EntryTypeGateIn):
			inbound++
		case string(models.EntryTypeGateOut):
			outbound++
		}
		if row.CompliancePending {
			compliance++
		}
	}
	indicator := func(n int, nonZero string) string {
		if n > 0 {
			return nonZero
		}
		return "green"
	}
	return []SummaryCard{
		{Label: "Pending Gate Passes", Value: len(rows), Indicator: "blue", DataType: "Int"},
		{Label: "Inbound Awaiting Receipt", Value: inbound, Indicator: indicator(inbound, "orange"), DataType: "Int"},
		{Label: "Outbound Awaiting Submission", Value: outbound, Indicator: indicator(outbound, "orange"), DataType: "Int"},
		{Label: "Compliance Pending", Value: compliance, Indicator: indicator(compliance, "red"), DataType: "Int"},
		{Label: "Total Items", Value: items, Indicator: "orange", DataType: "Int"},
	}
}
