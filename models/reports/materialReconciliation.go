package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/models"
	"github.com/mmdatafocus/gate_entry/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var materialReconciliationColumns = []Column{
	{Label: "Direction", FieldName: "direction", FieldType: "Data", Width: 110},
	{Label: "Document Type", FieldName: "document_reference", FieldType: "Data", Width: 160},
	{Label: "Reference Document", FieldName: "reference_label", FieldType: "Data", Width: 220},
	{Label: "Stock Entry", FieldName: "stock_entry", FieldType: "Link", Options: "Stock Entry", Width: 160},
	{Label: "Stock Entry Type", FieldName: "stock_entry_type", FieldType: "Data", Width: 160},
	{Label: "Warehouses", FieldName: "warehouses", FieldType: "Data", Width: 200},
	{Label: "Party", FieldName: "party_name", FieldType: "Data", Width: 220},
	{Label: "Item Code", FieldName: "item_code", FieldType: "Link", Options: "Item", Width: 150},
	{Label: "Item Name", FieldName: "item_name", FieldType: "Data", Width: 200},
	{Label: "Gate Pass Qty", FieldName: "gate_pass_qty", FieldType: "Float", Width: 140},
	{Label: "Reference Qty", FieldName: "receipt_qty", FieldType: "Float", Width: 140},
	{Label: "Discrepancy", FieldName: "discrepancy", FieldType: "Float", Width: 140},
}

// discrepancyTolerance is the absolute difference below which quantities reconcile.
var discrepancyTolerance = decimal.New(1, -6)

type MaterialReconciliationRow struct {
	Direction         string          `json:"direction"`
	DocumentReference string          `json:"document_reference"`
	ReferenceLabel    string          `json:"reference_label"`
	ReferenceNumber   string          `json:"reference_number"`
	StockEntry        string          `json:"stock_entry"`
	StockEntryType    string          `json:"stock_entry_type"`
	Warehouses        string          `json:"warehouses"`
	PartyName         string          `json:"party_name"`
	ItemCode          string          `json:"item_code"`
	ItemName          string          `json:"item_name"`
	GatePassQty       decimal.Decimal `json:"gate_pass_qty"`
	ReceiptQty        decimal.Decimal `json:"receipt_qty"`
	Discrepancy       decimal.Decimal `json:"discrepancy"`
	HasDiscrepancy    bool            `json:"has_discrepancy"`
}

func (r *MaterialReconciliationRow) GetCellValues() []interface{} {
	return []interface{}{
		r.Direction, r.DocumentReference, r.ReferenceLabel, r.StockEntry, r.StockEntryType, r.Warehouses,
		r.PartyName, r.ItemCode, r.ItemName,
		r.GatePassQty.InexactFloat64(), r.ReceiptQty.InexactFloat64(), r.Discrepancy.InexactFloat64(),
	}
}

type MaterialReconciliationReport struct {
	Columns []Column                     `json:"columns"`
	Rows    []*MaterialReconciliationRow `json:"data"`
	Summary []SummaryCard                `json:"report_summary"`
}

func (r *MaterialReconciliationReport) ExcelRows() []ExcelExporter {
	rows := make([]ExcelExporter, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, row)
	}
	return rows
}

type reconciliationKey struct {
	DocumentReference models.DocumentReference
	ReferenceNumber   string
	ItemCode          string
}

func (k reconciliationKey) less(o reconciliationKey) bool {
	if k.DocumentReference != o.DocumentReference {
		return k.DocumentReference < o.DocumentReference
	}
	if k.ReferenceNumber != o.ReferenceNumber {
		return k.ReferenceNumber < o.ReferenceNumber
	}
	return k.ItemCode < o.ItemCode
}

type quantityTotal struct {
	DocumentReference string
	ReferenceNumber   string
	EntryType         string
	ItemCode          string
	ItemName          string
	Qty               decimal.Decimal
}

// allocationRow is one gate pass row attributed to a stock entry.
type allocationRow struct {
	StockEntry    string
	RowId         int
	GatePass      string
	ItemCode      string
	ItemName      string
	ReceivedQty   decimal.Decimal
	DispatchedQty decimal.Decimal
}

// NormaliseDocumentType maps the document_type filter to a reference; "" and "All" mean any.
func NormaliseDocumentType(value string) (models.DocumentReference, error) {
	if value == "" || value == "All" {
		return "", nil
	}
	for _, ref := range models.AllDocumentReferences {
		if string(ref) == value {
			return ref, nil
		}
	}
	return "", &models.ValidationError{Message: fmt.Sprintf("Unsupported document type filter: %s", value)}
}

func formatReferenceLabel(ref models.DocumentReference, name string) string {
	return fmt.Sprintf("%s (%s)", name, ref.Abbreviation())
}

func GetMaterialReconciliationReport(ctx context.Context, filters Filters, lookups Lookups) (*MaterialReconciliationReport, error) {
	started := time.Now()
	defer logSlowReport(ctx, "material_reconciliation", started, map[string]any{"filters": filters})

	docType, err := NormaliseDocumentType(filters.DocumentType)
	if err != nil {
		return nil, err
	}
	return cachedReport(ctx, "material_reconciliation", filters, func() (*MaterialReconciliationReport, error) {
		rows, err := getMaterialReconciliationRows(ctx, filters, docType, lookups)
		if err != nil {
			return nil, err
		}
		return &MaterialReconciliationReport{
			Columns: materialReconciliationColumns,
			Rows:    rows,
			Summary: materialReconciliationSummary(rows),
		}, nil
	})
}

func getMaterialReconciliationRows(ctx context.Context, f Filters, docType models.DocumentReference, lookups Lookups) ([]*MaterialReconciliationRow, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.ErrorBusinessId
	}
	db := config.GetDB().WithContext(ctx)
	params := map[string]interface{}{
		"businessId":   businessId,
		"fromDate":     f.FromDate,
		"toDate":       f.ToDate,
		"supplier":     f.Supplier,
		"customer":     f.Customer,
		"company":      f.Company,
		"stockEntry":   f.StockEntry,
		"docType":      string(docType),
		"stockEntryGP": string(models.DocumentReferenceStockEntry),
	}
	flags := map[string]interface{}{
		"fromDate":   f.FromDate != "",
		"toDate":     f.ToDate != "",
		"supplier":   f.Supplier != "",
		"customer":   f.Customer != "",
		"company":    f.Company != "",
		"stockEntry": f.StockEntry != "",
		"docType":    docType != "",
	}

	gatePassTotals, err := queryGatePassTotals(db, flags, params)
	if err != nil {
		return nil, err
	}
	receiptTotals, err := queryReceiptTotals(db, f, docType, flags, params)
	if err != nil {
		return nil, err
	}

	keys := make([]reconciliationKey, 0, len(gatePassTotals)+len(receiptTotals))
	var seNames []string
	for _, m := range []map[reconciliationKey]*quantityTotal{gatePassTotals, receiptTotals} {
		for key := range m {
			keys = append(keys, key)
			if key.DocumentReference == models.DocumentReferenceStockEntry {
				seNames = append(seNames, key.ReferenceNumber)
			}
		}
	}
	if len(keys) == 0 {
		return []*MaterialReconciliationRow{}, nil
	}
	entries, err := lookups.LoadStockEntries(ctx, utils.UniqueSlice(seNames))
	if err != nil {
		return nil, err
	}
	parties, err := lookups.LoadReferenceSummaries(ctx, referenceKeys(keys, func(k reconciliationKey) (models.DocumentReference, string) {
		if k.DocumentReference == models.DocumentReferenceStockEntry {
			return "", ""
		}
		return k.DocumentReference, k.ReferenceNumber
	}))
	if err != nil {
		return nil, err
	}
	return reconcile(gatePassTotals, receiptTotals, entries, parties, f), nil
}

func queryGatePassTotals(db *gorm.DB, flags, params map[string]interface{}) (map[reconciliationKey]*quantityTotal, error) {
	sql, err := utils.ExecTemplate(`
SELECT
    gp.document_reference,
    gp.reference_number,
    MAX(gp.entry_type) AS entry_type,
    gpi.item_code,
    IFNULL(MAX(gpi.item_name), '') AS item_name,
    SUM(
        CASE
            WHEN gp.entry_type = 'Gate Out' THEN IFNULL(gpi.dispatched_qty, 0)
            ELSE IFNULL(gpi.received_qty, 0)
        END
    ) AS qty
FROM
    gate_passes gp
    JOIN gate_pass_items gpi ON gpi.gate_pass_id = gp.id
WHERE
    gp.business_id = @businessId
    AND gp.docstatus = 1
    {{- if .docType }} AND gp.document_reference = @docType
    {{- else }} AND gp.document_reference IN ('Delivery Note', 'Purchase Order', 'Sales Invoice', 'Stock Entry', 'Subcontracting Order')
    {{- end }}
    {{- if .fromDate }} AND gp.gate_pass_date >= @fromDate {{- end }}
    {{- if .toDate }} AND gp.gate_pass_date <= @toDate {{- end }}
    {{- if .supplier }} AND gp.supplier = @supplier {{- end }}
    {{- if .company }} AND gp.company = @company {{- end }}
    {{- if .stockEntry }} AND gp.reference_number = @stockEntry {{- end }}
GROUP BY gp.document_reference, gp.reference_number, gpi.item_code
`, flags)
	if err != nil {
		return nil, err
	}
	var results []*quantityTotal
	if err := db.Raw(sql, params).Scan(&results).Error; err != nil {
		return nil, err
	}
	return keyTotals(results, ""), nil
}

func keyTotals(results []*quantityTotal, ref models.DocumentReference) map[reconciliationKey]*quantityTotal {
	totals := make(map[reconciliationKey]*quantityTotal, len(results))
	for _, row := range results {
		if row.ReferenceNumber == "" {
			continue
		}
		docRef := ref
		if docRef == "" {
			docRef = models.DocumentReference(row.DocumentReference)
		}
		totals[reconciliationKey{DocumentReference: docRef, ReferenceNumber: row.ReferenceNumber, ItemCode: row.ItemCode}] = row
	}
	return totals
}

// receiptTotalSQL groups downstream document rows by the order or document they fulfil.
var receiptTotalSQL = map[models.DocumentReference]string{
	models.DocumentReferencePurchaseOrder: `
SELECT pri.purchase_order AS reference_number, pri.item_code, MAX(IFNULL(pri.item_name, '')) AS item_name, SUM(pri.qty) AS qty
FROM purchase_receipt_items pri
    JOIN purchase_receipts pr ON pr.id = pri.parent_id
WHERE pr.business_id = @businessId
    AND pr.docstatus = 1
    AND IFNULL(pri.purchase_order, '') != ''
    AND pr.is_subcontracted = 0
    {{- if .fromDate }} AND pr.posting_date >= @fromDate {{- end }}
    {{- if .toDate }} AND pr.posting_date <= @toDate {{- end }}
    {{- if .supplier }} AND pr.supplier = @supplier {{- end }}
    {{- if .company }} AND pr.company = @company {{- end }}
GROUP BY pri.purchase_order, pri.item_code
`,
	models.DocumentReferenceSubcontractingOrder: `
SELECT sri.subcontracting_order AS reference_number, sri.item_code, MAX(IFNULL(sri.item_name, '')) AS item_name, SUM(sri.qty) AS qty
FROM subcontracting_receipt_items sri
    JOIN subcontracting_receipts sr ON sr.id = sri.parent_id
WHERE sr.business_id = @businessId
    AND sr.docstatus = 1
    AND IFNULL(sri.subcontracting_order, '') != ''
    {{- if .fromDate }} AND sr.posting_date >= @fromDate {{- end }}
    {{- if .toDate }} AND sr.posting_date <= @toDate {{- end }}
    {{- if .supplier }} AND sr.supplier = @supplier {{- end }}
    {{- if .company }} AND sr.company = @company {{- end }}
GROUP BY sri.subcontracting_order, sri.item_code
`,
	models.DocumentReferenceSalesInvoice: `
SELECT si.name AS reference_number, sii.item_code, MAX(IFNULL(sii.item_name, '')) AS item_name, SUM(sii.qty) AS qty
FROM sales_invoice_items sii
    JOIN sales_invoices si ON si.id = sii.parent_id
WHERE si.business_id = @businessId
    AND si.docstatus = 1
    {{- if .fromDate }} AND si.posting_date >= @fromDate {{- end }}
    {{- if .toDate }} AND si.posting_date <= @toDate {{- end }}
    {{- if .customer }} AND si.customer = @customer {{- end }}
    {{- if .company }} AND si.company = @company {{- end }}
GROUP BY si.name, sii.item_code
`,
	models.DocumentReferenceDeliveryNote: `
SELECT dn.name AS reference_number, dni.item_code, MAX(IFNULL(dni.item_name, '')) AS item_name, SUM(dni.qty) AS qty
FROM delivery_note_items dni
    JOIN delivery_notes dn ON dn.id = dni.parent_id
WHERE dn.business_id = @businessId
    AND dn.docstatus = 1
    {{- if .fromDate }} AND dn.posting_date >= @fromDate {{- end }}
    {{- if .toDate }} AND dn.posting_date <= @toDate {{- end }}
    {{- if .customer }} AND dn.customer = @customer {{- end }}
    {{- if .company }} AND dn.company = @company {{- end }}
GROUP BY dn.name, dni.item_code
`,
}

// stockEntryAllocationSQL lists submitted pass rows per stock entry they allocate against,
// directly or through the outbound transfer link. UNION drops a row matched both ways.
const stockEntryAllocationSQL = `
SELECT gp.reference_number AS stock_entry, gpi.id AS row_id, gp.name AS gate_pass, gpi.item_code, IFNULL(gpi.item_name, '') AS item_name, gpi.received_qty, gpi.dispatched_qty
FROM gate_passes gp
    JOIN gate_pass_items gpi ON gpi.gate_pass_id = gp.id
WHERE gp.business_id = @businessId
    AND gp.docstatus = 1
    AND gp.document_reference = @stockEntryGP
    AND IFNULL(gp.reference_number, '') != ''
    {{- if .fromDate }} AND gp.gate_pass_date >= @fromDate {{- end }}
    {{- if .toDate }} AND gp.gate_pass_date <= @toDate {{- end }}
    {{- if .stockEntry }} AND gp.reference_number = @stockEntry {{- end }}
UNION
SELECT gp.outbound_material_transfer AS stock_entry, gpi.id AS row_id, gp.name AS gate_pass, gpi.item_code, IFNULL(gpi.item_name, '') AS item_name, gpi.received_qty, gpi.dispatched_qty
FROM gate_passes gp
    JOIN gate_pass_items gpi ON gpi.gate_pass_id = gp.id
WHERE gp.business_id = @businessId
    AND gp.docstatus = 1
    AND IFNULL(gp.outbound_material_transfer, '') != ''
    {{- if .fromDate }} AND gp.gate_pass_date >= @fromDate {{- end }}
    {{- if .toDate }} AND gp.gate_pass_date <= @toDate {{- end }}
    {{- if .stockEntry }} AND gp.outbound_material_transfer = @stockEntry {{- end }}
`

func queryReceiptTotals(db *gorm.DB, f Filters, docType models.DocumentReference, flags, params map[string]interface{}) (map[reconciliationKey]*quantityTotal, error) {
	totals := map[reconciliationKey]*quantityTotal{}
	for _, ref := range models.AllDocumentReferences {
		if docType != "" && docType != ref {
			continue
		}
		switch {
		case ref.IsInboundGroup() && f.Customer != "":
			continue
		case ref.IsOutboundGroup() && f.Supplier != "":
			continue
		case ref == models.DocumentReferenceStockEntry && (f.Customer != "" || f.Supplier != ""):
			continue
		}

		if ref == models.DocumentReferenceStockEntry {
			sql, err := utils.ExecTemplate(stockEntryAllocationSQL, flags)
			if err != nil {
				return nil, err
			}
			var rows []*allocationRow
			if err := db.Raw(sql, params).Scan(&rows).Error; err != nil {
				return nil, err
			}
			allocated, err := allocatedQuantities(rows)
			if err != nil {
				return nil, err
			}
			for key, total := range allocated {
				totals[key] = total
			}
			continue
		}

		sql, err := utils.ExecTemplate(receiptTotalSQL[ref], flags)
		if err != nil {
			return nil, err
		}
		var results []*quantityTotal
		if err := db.Raw(sql, params).Scan(&results).Error; err != nil {
			return nil, err
		}
		for key, total := range keyTotals(results, ref) {
			totals[key] = total
		}
	}
	return totals, nil
}

// allocatedQuantities sums, per stock entry and item, the quantity each pass row moved. A row
// moves in one direction only; a row carrying both quantities is reported as an error.
func allocatedQuantities(rows []*allocationRow) (map[reconciliationKey]*quantityTotal, error) {
	totals := make(map[reconciliationKey]*quantityTotal)
	for _, row := range rows {
		if !row.ReceivedQty.IsZero() && !row.DispatchedQty.IsZero() {
			return nil, &models.ValidationError{Message: fmt.Sprintf(
				"Gate Pass %s row for item %s has both received and dispatched quantities", row.GatePass, row.ItemCode)}
		}
		key := reconciliationKey{DocumentReference: models.DocumentReferenceStockEntry, ReferenceNumber: row.StockEntry, ItemCode: row.ItemCode}
		total, ok := totals[key]
		if !ok {
			total = &quantityTotal{
				DocumentReference: string(models.DocumentReferenceStockEntry),
				ReferenceNumber:   row.StockEntry,
				ItemCode:          row.ItemCode,
			}
			totals[key] = total
		}
		if total.ItemName == "" {
			total.ItemName = row.ItemName
		}
		total.Qty = total.Qty.Add(row.ReceivedQty).Add(row.DispatchedQty)
	}
	return totals, nil
}

func reconcile(gatePassTotals, receiptTotals map[reconciliationKey]*quantityTotal, entries map[string]*models.StockEntry, parties map[models.ReferenceKey]*models.ReferenceSummary, f Filters) []*MaterialReconciliationRow {
	seen := make(map[reconciliationKey]struct{}, len(gatePassTotals)+len(receiptTotals))
	keys := make([]reconciliationKey, 0, len(gatePassTotals)+len(receiptTotals))
	for _, m := range []map[reconciliationKey]*quantityTotal{gatePassTotals, receiptTotals} {
		for key := range m {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	rows := make([]*MaterialReconciliationRow, 0, len(keys))
	for _, key := range keys {
		isStockEntry := key.DocumentReference == models.DocumentReferenceStockEntry
		se := entries[key.ReferenceNumber]
		if isStockEntry && se != nil && se.DocStatus == models.DocStatusCancelled {
			continue
		}

		gp, receipt := gatePassTotals[key], receiptTotals[key]
		party := parties[models.ReferenceKey{DocType: key.DocumentReference, Name: key.ReferenceNumber}]

		if f.Customer != "" {
			if key.DocumentReference.IsInboundGroup() || party == nil || party.Party != f.Customer {
				continue
			}
		}
		if f.Supplier != "" && key.DocumentReference.IsOutboundGroup() {
			continue
		}

		row := &MaterialReconciliationRow{
			Direction:         reconciliationDirection(gp, key.DocumentReference),
			DocumentReference: string(key.DocumentReference),
			ReferenceLabel:    formatReferenceLabel(key.DocumentReference, key.ReferenceNumber),
			ReferenceNumber:   key.ReferenceNumber,
			PartyName:         party.DisplayParty(),
			ItemCode:          key.ItemCode,
		}
		if gp != nil {
			row.GatePassQty = gp.Qty
			row.ItemName = gp.ItemName
		}
		if receipt != nil {
			row.ReceiptQty = receipt.Qty
			row.ItemName = utils.FirstNonEmpty(row.ItemName, receipt.ItemName)
		}

		if isStockEntry {
			if f.StockEntry != "" && key.ReferenceNumber != f.StockEntry {
				continue
			}
			s := summarizeStockEntry(se)
			if f.StockEntryType != "" && s.StockEntryType != f.StockEntryType {
				continue
			}
			row.StockEntry = key.ReferenceNumber
			row.StockEntryType = s.StockEntryType
			row.Warehouses = joinWarehouses(s.SourceWarehouses, s.TargetWarehouses)
			if row.ItemName == "" {
				for _, item := range s.Items {
					if item.ItemCode == key.ItemCode {
						row.ItemName = item.ItemName
						break
					}
				}
			}
		}

		row.Discrepancy = row.GatePassQty.Sub(row.ReceiptQty)
		row.HasDiscrepancy = row.Discrepancy.Abs().GreaterThan(discrepancyTolerance)
		rows = append(rows, row)
	}
	return rows
}

func reconciliationDirection(gp *quantityTotal, ref models.DocumentReference) string {
	switch {
	case gp != nil && gp.EntryType != "":
		return gp.EntryType
	case ref.IsOutboundGroup():
		return string(models.EntryTypeGateOut)
	case ref.IsInboundGroup():
		return string(models.EntryTypeGateIn)
	}
	return ""
}

func joinWarehouses(source, target string) string {
	switch {
	case source != "" && target != "":
		return "Src: " + source + ", Tgt: " + target
	case source != "":
		return "Src: " + source
	case target != "":
		return "Tgt: " + target
	}
	return ""
}

func materialReconciliationSummary(rows []*MaterialReconciliationRow) []SummaryCard {
	if len(rows) == 0 {
		return []SummaryCard{}
	}
	gatePassQty, receiptQty, discrepancy := decimal.Zero, decimal.Zero, decimal.Zero
	for _, row := range rows {
		gatePassQty = gatePassQty.Add(row.GatePassQty.Round(6))
		receiptQty = receiptQty.Add(row.ReceiptQty.Round(6))
		discrepancy = discrepancy.Add(row.Discrepancy.Round(6))
	}
	indicator := "green"
	if discrepancy.Abs().GreaterThan(discrepancyTolerance) {
		indicator = "red"
	}
	return []SummaryCard{
		{Label: "Total Gate Pass Qty", Value: gatePassQty, Indicator: "blue", DataType: "Float"},
		{Label: "Total Receipt Qty", Value: receiptQty, Indicator: "green", DataType: "Float"},
		{Label: "Total Discrepancy", Value: discrepancy, Indicator: indicator, DataType: "Float"},
	}
}
