package reports

import (
	"context"
	"strings"
	"time"

	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/models"
	"github.com/mmdatafocus/gate_entry/utils"
)

var gateRegisterColumns = []Column{
	{Label: "Date", FieldName: "gate_entry_date", FieldType: "Date", Width: 110},
	{Label: "Time", FieldName: "gate_entry_time", FieldType: "Time", Width: 90},
	{Label: "Gate Pass ID", FieldName: "gate_pass", FieldType: "Link", Options: "Gate Pass", Width: 160},
	{Label: "Direction", FieldName: "entry_type", FieldType: "Data", Width: 110},
	{Label: "Source Type", FieldName: "document_reference", FieldType: "Data", Width: 150},
	{Label: "Reference", FieldName: "reference_number", FieldType: "Dynamic Link", Options: "document_reference", Width: 180},
	{Label: "Stock Entry", FieldName: "stock_entry", FieldType: "Link", Options: "Stock Entry", Width: 160},
	{Label: "Stock Entry Type", FieldName: "stock_entry_type", FieldType: "Data", Width: 160},
	{Label: "SE Posting Date", FieldName: "se_posting_date", FieldType: "Date", Width: 110},
	{Label: "SE Posting Time", FieldName: "se_posting_time", FieldType: "Time", Width: 90},
	{Label: "From Warehouses", FieldName: "from_warehouses", FieldType: "Data", Width: 160},
	{Label: "To Warehouses", FieldName: "to_warehouses", FieldType: "Data", Width: 160},
	{Label: "Outbound Transfer", FieldName: "outbound_transfer", FieldType: "Link", Options: "Stock Entry", Width: 160},
	{Label: "Party Type", FieldName: "party_type", FieldType: "Data", Width: 120},
	{Label: "Party", FieldName: "party_name", FieldType: "Data", Width: 220},
	{Label: "Vehicle Number", FieldName: "vehicle_number", FieldType: "Data", Width: 130},
	{Label: "Driver Name", FieldName: "driver_name", FieldType: "Data", Width: 150},
	{Label: "Material Summary", FieldName: "material_summary", FieldType: "Data", Width: 400},
}

type GateRegisterRow struct {
	GateEntryDate     string `json:"gate_entry_date"`
	GateEntryTime     string `json:"gate_entry_time"`
	GatePass          string `json:"gate_pass"`
	EntryType         string `json:"entry_type"`
	DocumentReference string `json:"document_reference"`
	ReferenceNumber   string `json:"reference_number"`
	StockEntry        string `json:"stock_entry"`
	StockEntryType    string `json:"stock_entry_type"`
	SePostingDate     string `json:"se_posting_date"`
	SePostingTime     string `json:"se_posting_time"`
	FromWarehouses    string `json:"from_warehouses"`
	ToWarehouses      string `json:"to_warehouses"`
	OutboundTransfer  string `json:"outbound_transfer"`
	PartyType         string `json:"party_type"`
	PartyName         string `json:"party_name"`
	VehicleNumber     string `json:"vehicle_number"`
	DriverName        string `json:"driver_name"`
	MaterialSummary   string `json:"material_summary"`
}

func (r *GateRegisterRow) GetCellValues() []interface{} {
	return []interface{}{
		r.GateEntryDate, r.GateEntryTime, r.GatePass, r.EntryType, r.DocumentReference, r.ReferenceNumber,
		r.StockEntry, r.StockEntryType, r.SePostingDate, r.SePostingTime, r.FromWarehouses, r.ToWarehouses,
		r.OutboundTransfer, r.PartyType, r.PartyName, r.VehicleNumber, r.DriverName, r.MaterialSummary,
	}
}

type GateRegisterReport struct {
	Columns []Column           `json:"columns"`
	Rows    []*GateRegisterRow `json:"data"`
	Summary []SummaryCard      `json:"report_summary"`
}

func (r *GateRegisterReport) ExcelRows() []ExcelExporter {
	rows := make([]ExcelExporter, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, row)
	}
	return rows
}

type gateRegisterRecord struct {
	Id                       int
	Name                     string
	GateEntryDate            *time.Time
	GateEntryTime            string
	EntryType                string
	DocumentReference        string
	ReferenceNumber          string
	VehicleNumber            string
	DriverName               string
	Supplier                 string
	OutboundMaterialTransfer string
}

func GetGateRegisterReport(ctx context.Context, filters Filters, lookups Lookups) (*GateRegisterReport, error) {
	started := time.Now()
	defer logSlowReport(ctx, "gate_register", started, map[string]any{"filters": filters})

	return cachedReport(ctx, "gate_register", filters, func() (*GateRegisterReport, error) {
		rows, err := getGateRegisterRows(ctx, filters, lookups)
		if err != nil {
			return nil, err
		}
		return &GateRegisterReport{
			Columns: gateRegisterColumns,
			Rows:    rows,
			Summary: gateRegisterSummary(rows),
		}, nil
	})
}

func getGateRegisterRows(ctx context.Context, f Filters, lookups Lookups) ([]*GateRegisterRow, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.ErrorBusinessId
	}
	db := config.GetDB()

	var stockEntries []string
	restrictToStockEntries := f.StockEntryType != "" || f.Warehouse != ""
	if restrictToStockEntries {
		sql, err := utils.ExecTemplate(`
SELECT DISTINCT se.name
FROM stock_entries se
{{- if .warehouse }}
    JOIN stock_entry_details sed ON sed.parent_id = se.id
{{- end }}
WHERE
    se.business_id = @businessId
    AND se.docstatus != 2
    {{- if .stockEntryType }} AND se.stock_entry_type = @stockEntryType {{- end }}
    {{- if .warehouse }} AND (sed.s_warehouse = @warehouse OR sed.t_warehouse = @warehouse) {{- end }}
`, map[string]interface{}{
			"stockEntryType": f.StockEntryType != "",
			"warehouse":      f.Warehouse != "",
		})
		if err != nil {
			return nil, err
		}
		if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
			"businessId":     businessId,
			"stockEntryType": f.StockEntryType,
			"warehouse":      f.Warehouse,
		}).Scan(&stockEntries).Error; err != nil {
			return nil, err
		}
		if len(stockEntries) == 0 {
			return []*GateRegisterRow{}, nil
		}
	}

	sqlT := `
SELECT
    gp.id,
    gp.name,
    gp.gate_entry_date,
    gp.gate_entry_time,
    gp.entry_type,
    gp.document_reference,
    gp.reference_number,
    gp.vehicle_number,
    gp.driver_name,
    gp.supplier,
    gp.outbound_material_transfer
FROM
    gate_passes gp
WHERE
    gp.business_id = @businessId
    AND gp.docstatus < 2
    {{- if .fromDate }} AND gp.gate_entry_date >= @fromDate {{- end }}
    {{- if .toDate }} AND gp.gate_entry_date <= @toDate {{- end }}
    {{- if .entryType }} AND gp.entry_type = @entryType {{- end }}
    {{- if .documentReference }} AND gp.document_reference = @documentReference {{- end }}
    {{- if .supplier }} AND gp.supplier = @supplier {{- end }}
    {{- if .vehicleNumber }} AND gp.vehicle_number LIKE @vehicleNumber {{- end }}
    {{- if .company }} AND gp.company = @company {{- end }}
    {{- if .stockEntries }} AND gp.document_reference = 'Stock Entry' AND gp.reference_number IN @stockEntries {{- end }}
ORDER BY gp.gate_entry_date DESC, gp.gate_entry_time DESC, gp.name DESC
`
	sql, err := utils.ExecTemplate(sqlT, map[string]interface{}{
		"fromDate":          f.FromDate != "",
		"toDate":            f.ToDate != "",
		"entryType":         f.EntryType != "",
		"documentReference": f.DocumentReference != "",
		"supplier":          f.Supplier != "",
		"vehicleNumber":     f.VehicleNumber != "",
		"company":           f.Company != "",
		"stockEntries":      restrictToStockEntries,
	})
	if err != nil {
		return nil, err
	}
	var records []*gateRegisterRecord
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"businessId":        businessId,
		"fromDate":          f.FromDate,
		"toDate":            f.ToDate,
		"entryType":         f.EntryType,
		"documentReference": f.DocumentReference,
		"supplier":          f.Supplier,
		"vehicleNumber":     "%" + f.VehicleNumber + "%",
		"company":           f.Company,
		"stockEntries":      stockEntries,
	}).Scan(&records).Error; err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []*GateRegisterRow{}, nil
	}

	ids := make([]int, 0, len(records))
	var seNames []string
	for _, rec := range records {
		ids = append(ids, rec.Id)
		if rec.DocumentReference == string(models.DocumentReferenceStockEntry) && rec.ReferenceNumber != "" {
			seNames = append(seNames, rec.ReferenceNumber)
		}
	}
	items, err := lookups.LoadGatePassItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	entries, err := lookups.LoadStockEntries(ctx, utils.UniqueSlice(seNames))
	if err != nil {
		return nil, err
	}
	parties, err := lookups.LoadReferenceSummaries(ctx, referenceKeys(records, func(r *gateRegisterRecord) (models.DocumentReference, string) {
		return models.DocumentReference(r.DocumentReference), r.ReferenceNumber
	}))
	if err != nil {
		return nil, err
	}
	return buildGateRegisterRows(records, items, entries, parties), nil
}

func buildGateRegisterRows(records []*gateRegisterRecord, items map[int][]*models.GatePassItem, entries map[string]*models.StockEntry, parties map[models.ReferenceKey]*models.ReferenceSummary) []*GateRegisterRow {
	rows := make([]*GateRegisterRow, 0, len(records))
	for _, rec := range records {
		ref := models.DocumentReference(rec.DocumentReference)
		party := parties[models.ReferenceKey{DocType: ref, Name: rec.ReferenceNumber}]

		row := &GateRegisterRow{
			GateEntryDate:     formatDate(rec.GateEntryDate),
			GateEntryTime:     rec.GateEntryTime,
			GatePass:          rec.Name,
			EntryType:         rec.EntryType,
			DocumentReference: rec.DocumentReference,
			ReferenceNumber:   rec.ReferenceNumber,
			OutboundTransfer:  rec.OutboundMaterialTransfer,
			PartyType:         models.PartyTypeFor(ref),
			PartyName:         utils.FirstNonEmpty(party.DisplayParty(), rec.Supplier),
			VehicleNumber:     rec.VehicleNumber,
			DriverName:        rec.DriverName,
			MaterialSummary:   materialSummary(items[rec.Id], rec.EntryType == string(models.EntryTypeGateOut)),
		}
		if ref == models.DocumentReferenceStockEntry {
			row.StockEntry = rec.ReferenceNumber
			if se, ok := entries[rec.ReferenceNumber]; ok && se.DocStatus != models.DocStatusCancelled {
				s := summarizeStockEntry(se)
				row.StockEntryType = s.StockEntryType
				row.SePostingDate = s.PostingDate
				row.SePostingTime = s.PostingTime
				row.FromWarehouses = s.SourceWarehouses
				row.ToWarehouses = s.TargetWarehouses
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// materialSummary renders "CODE (qty uom)" per row using the direction's quantity, falling back
// to the other column when it is zero.
func materialSummary(items []*models.GatePassItem, outbound bool) string {
	if len(items) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		qty, fallback := item.ReceivedQty, item.DispatchedQty
		if outbound {
			qty, fallback = item.DispatchedQty, item.ReceivedQty
		}
		if qty.IsZero() {
			qty = fallback
		}
		parts = append(parts, item.ItemCode+" ("+strings.TrimSpace(qty.StringFixed(3)+" "+item.Uom)+")")
	}
	return strings.Join(parts, ", ")
}

func gateRegisterSummary(rows []*GateRegisterRow) []SummaryCard {
	if len(rows) == 0 {
		return []SummaryCard{}
	}
	var inbound, outbound int
	for _, row := range rows {
		switch row.EntryType {
		case string(models.EntryTypeGateIn):
			inbound++
		case string(models.EntryTypeGateOut):
			outbound++
		}
	}
	summary := []SummaryCard{{Label: "Gate Passes", Value: len(rows), Indicator: "blue", DataType: "Int"}}
	if inbound > 0 {
		summary = append(summary, SummaryCard{Label: "Inbound", Value: inbound, Indicator: "green", DataType: "Int"})
	}
	if outbound > 0 {
		summary = append(summary, SummaryCard{Label: "Outbound", Value: outbound, Indicator: "orange", DataType: "Int"})
	}
	return summary
}
