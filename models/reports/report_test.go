package reports

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/gate_entry/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(s string) *time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func transferEntry(name string, status models.DocStatus) *models.StockEntry {
	return &models.StockEntry{
		Name:           name,
		DocStatus:      status,
		StockEntryType: models.StockEntryTypeMaterialTransfer,
		PostingDate:    date("2026-10-01"),
		PostingTime:    "09:30:00",
		Items: []*models.StockEntryDetail{
			{ItemCode: "DIE", ItemName: "Forging Die", Qty: dec("10"), Uom: "Nos", SWarehouse: "Stores", TWarehouse: "Job Work"},
			{ItemCode: "JIG", ItemName: "Drill Jig", Qty: dec("4"), Uom: "Nos", SWarehouse: "Finished", TWarehouse: "Job Work"},
		},
	}
}

func TestMaterialSummary(t *testing.T) {
	items := []*models.GatePassItem{
		{ReferenceItem: models.ReferenceItem{ItemCode: "STEEL", Uom: "Kg", ReceivedQty: dec("12.5")}},
		{ReferenceItem: models.ReferenceItem{ItemCode: "BOLT", DispatchedQty: dec("3")}},
	}
	if got := materialSummary(items, false); got != "STEEL (12.500 Kg), BOLT (3.000)" {
		t.Errorf("inbound summary = %q", got)
	}
	if got := materialSummary(items, true); got != "STEEL (12.500 Kg), BOLT (3.000)" {
		t.Errorf("outbound summary should fall back to the other column, got %q", got)
	}
	if got := materialSummary(nil, false); got != "-" {
		t.Errorf("empty summary = %q", got)
	}
}

func TestStockEntryWarehouses(t *testing.T) {
	source, target := stockEntryWarehouses(transferEntry("SE-1", models.DocStatusSubmitted))
	if source != "Finished, Stores" || target != "Job Work" {
		t.Errorf("warehouses = %q / %q", source, target)
	}
	if got := stockEntryItemDetails(transferEntry("SE-1", 1).Items); got != "DIE: 10 Nos, JIG: 4 Nos" {
		t.Errorf("item details = %q", got)
	}
}

func TestBuildGateRegisterRows(t *testing.T) {
	records := []*gateRegisterRecord{
		{Id: 1, Name: "GP-2026-00002", GateEntryDate: date("2026-10-02"), EntryType: "Gate Out",
			DocumentReference: "Stock Entry", ReferenceNumber: "SE-1", OutboundMaterialTransfer: ""},
		{Id: 2, Name: "GP-2026-00001", GateEntryDate: date("2026-10-01"), EntryType: "Gate In",
			DocumentReference: "Purchase Order", ReferenceNumber: "PO-1", Supplier: "SUP-1"},
		{Id: 3, Name: "GP-2026-00003", EntryType: "Gate Out", DocumentReference: "Sales Invoice", ReferenceNumber: "SINV-1"},
	}
	items := map[int][]*models.GatePassItem{
		1: {{ReferenceItem: models.ReferenceItem{ItemCode: "DIE", Uom: "Nos", DispatchedQty: dec("10")}}},
	}
	entries := map[string]*models.StockEntry{"SE-1": transferEntry("SE-1", models.DocStatusSubmitted)}
	parties := map[models.ReferenceKey]*models.ReferenceSummary{
		{DocType: models.DocumentReferenceSalesInvoice, Name: "SINV-1"}: {Party: "CUST-1", PartyName: "Pump House"},
	}

	rows := buildGateRegisterRows(records, items, entries, parties)
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	se := rows[0]
	if se.StockEntry != "SE-1" || se.StockEntryType != "Material Transfer" || se.FromWarehouses != "Finished, Stores" {
		t.Errorf("stock entry row = %+v", se)
	}
	if se.PartyType != "Internal" || se.MaterialSummary != "DIE (10.000 Nos)" || se.SePostingDate != "2026-10-01" {
		t.Errorf("stock entry row = %+v", se)
	}
	if rows[1].PartyName != "SUP-1" || rows[1].PartyType != "Supplier" || rows[1].MaterialSummary != "-" {
		t.Errorf("supplier fallback row = %+v", rows[1])
	}
	if rows[2].PartyName != "Pump House" || rows[2].PartyType != "Customer" || rows[2].GateEntryDate != "" {
		t.Errorf("customer row = %+v", rows[2])
	}
}

func TestGateRegisterSkipsCancelledStockEntryDetails(t *testing.T) {
	records := []*gateRegisterRecord{{Id: 1, Name: "GP-1", EntryType: "Gate Out", DocumentReference: "Stock Entry", ReferenceNumber: "SE-9"}}
	entries := map[string]*models.StockEntry{"SE-9": transferEntry("SE-9", models.DocStatusCancelled)}
	rows := buildGateRegisterRows(records, nil, entries, nil)
	if rows[0].StockEntry != "SE-9" || rows[0].StockEntryType != "" || rows[0].FromWarehouses != "" {
		t.Errorf("row = %+v", rows[0])
	}
}

func TestGateRegisterSummary(t *testing.T) {
	if got := gateRegisterSummary(nil); len(got) != 0 {
		t.Errorf("empty summary = %+v", got)
	}
	got := gateRegisterSummary([]*GateRegisterRow{{EntryType: "Gate In"}, {EntryType: "Gate In"}})
	if len(got) != 2 || got[0].Value != 2 || got[1].Label != "Inbound" || got[1].Indicator != "green" {
		t.Errorf("summary = %+v", got)
	}
}

func TestAgingColor(t *testing.T) {
	cases := map[int]string{-1: "green", 0: "green", 1: "orange", 2: "red", 30: "red"}
	for aging, want := range cases {
		if got := agingColor(aging); got != want {
			t.Errorf("agingColor(%d) = %q, want %q", aging, got, want)
		}
	}
}

func TestBuildPendingRows(t *testing.T) {
	now := time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)
	records := []*pendingRecord{
		{Name: "GP-A", EntryType: "Gate In", DocStatus: models.DocStatusSubmitted, PendingDate: date("2026-10-10"),
			DocumentReference: "Purchase Order", ReferenceNumber: "PO-1", Supplier: "SUP-1", TotalItems: 2},
		{Name: "GP-B", EntryType: "Gate Out", DocStatus: models.DocStatusDraft, PendingDate: date("2026-10-14"),
			DocumentReference: "Sales Invoice", ReferenceNumber: "SINV-1", EInvoiceStatus: "generated", TotalItems: 1},
		{Name: "GP-C", EntryType: "Gate Out", DocStatus: models.DocStatusDraft, PendingDate: date("2026-10-13"),
			DocumentReference: "Stock Entry", ReferenceNumber: "SE-1", StockEntry: "SE-1", TotalItems: 2},
	}
	entries := map[string]*models.StockEntry{"SE-1": transferEntry("SE-1", models.DocStatusSubmitted)}
	parties := map[models.ReferenceKey]*models.ReferenceSummary{
		{DocType: models.DocumentReferenceSalesInvoice, Name: "SINV-1"}: {Party: "CUST-1", PartyName: "Pump House", Total: dec("75000")},
		{DocType: models.DocumentReferencePurchaseOrder, Name: "PO-1"}:  {Party: "SUP-1", PartyName: "Steel Supplies"},
	}
	settings := &models.ComplianceSettings{Threshold: dec("50000")}

	rows := buildPendingRows(records, entries, parties, settings, Filters{}, now)
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].GatePass != "GP-B" || rows[1].GatePass != "GP-C" || rows[2].GatePass != "GP-A" {
		t.Fatalf("order = %s, %s, %s", rows[0].GatePass, rows[1].GatePass, rows[2].GatePass)
	}

	invoice := rows[0]
	if !invoice.CompliancePending || invoice.PendingReason != "Compliance pending" {
		t.Errorf("invoice row = %+v", invoice)
	}
	if invoice.ComplianceStatus != "E-Invoice: Generated, E-Way Bill: Not Generated" || invoice.Aging != 0 || invoice.AgingColor != "green" {
		t.Errorf("invoice row = %+v", invoice)
	}

	transfer := rows[1]
	if transfer.PendingReason != "Awaiting Guard Submission" || transfer.ComplianceStatus != "-" || transfer.CompliancePending {
		t.Errorf("transfer row = %+v", transfer)
	}
	if transfer.ItemDetails != "DIE: 10 Nos, JIG: 4 Nos" || transfer.Aging != 1 || transfer.AgingColor != "orange" {
		t.Errorf("transfer row = %+v", transfer)
	}

	receipt := rows[2]
	if receipt.PendingReason != "Awaiting Receipt" || receipt.ComplianceStatus != "-" || receipt.PartyName != "Steel Supplies" {
		t.Errorf("receipt row = %+v", receipt)
	}
	if receipt.Aging != 4 || receipt.AgingColor != "red" {
		t.Errorf("aging = %d %s", receipt.Aging, receipt.AgingColor)
	}

	summary := pendingGatePassSummary(rows)
	if summary[1].Value != 1 || summary[2].Value != 2 || summary[3].Value != 1 || summary[3].Indicator != "red" || summary[4].Value != 5 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestPendingRowsCustomerAndSupplierFilters(t *testing.T) {
	now := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	records := []*pendingRecord{
		{Name: "GP-A", EntryType: "Gate In", DocumentReference: "Purchase Order", ReferenceNumber: "PO-1"},
		{Name: "GP-B", EntryType: "Gate Out", DocumentReference: "Sales Invoice", ReferenceNumber: "SINV-1"},
		{Name: "GP-C", EntryType: "Gate Out", DocumentReference: "Sales Invoice", ReferenceNumber: "SINV-2"},
	}
	parties := map[models.ReferenceKey]*models.ReferenceSummary{
		{DocType: models.DocumentReferenceSalesInvoice, Name: "SINV-1"}: {Party: "CUST-1"},
		{DocType: models.DocumentReferenceSalesInvoice, Name: "SINV-2"}: {Party: "CUST-2"},
	}

	rows := buildPendingRows(records, nil, parties, nil, Filters{Customer: "CUST-1"}, now)
	if len(rows) != 1 || rows[0].GatePass != "GP-B" {
		t.Errorf("customer filter rows = %+v", rows)
	}
	if rows[0].PendingReason != "Awaiting Guard Submission" || rows[0].ComplianceStatus != "E-Invoice: Not Required, E-Way Bill: Not Required" {
		t.Errorf("row without settings = %+v", rows[0])
	}

	rows = buildPendingRows(records, nil, parties, nil, Filters{Supplier: "SUP-1"}, now)
	if len(rows) != 1 || rows[0].GatePass != "GP-A" {
		t.Errorf("supplier filter rows = %+v", rows)
	}
}

func TestPendingReferences(t *testing.T) {
	if got := pendingReferences(true, ""); len(got) != 3 || got[1] != "Stock Entry" {
		t.Errorf("inbound refs = %v", got)
	}
	if got := pendingReferences(false, "Purchase Order"); len(got) != 0 {
		t.Errorf("outbound refs for a purchase order filter = %v", got)
	}
}

func TestNormaliseDocumentType(t *testing.T) {
	for _, v := range []string{"", "All"} {
		if ref, err := NormaliseDocumentType(v); err != nil || ref != "" {
			t.Errorf("NormaliseDocumentType(%q) = %q, %v", v, ref, err)
		}
	}
	if ref, err := NormaliseDocumentType("Delivery Note"); err != nil || ref != models.DocumentReferenceDeliveryNote {
		t.Errorf("delivery note = %q, %v", ref, err)
	}
	_, err := NormaliseDocumentType("Journal Entry")
	var ve *models.ValidationError
	if !errors.As(err, &ve) || ve.Message != "Unsupported document type filter: Journal Entry" {
		t.Errorf("err = %v", err)
	}
}

func TestFormatReferenceLabel(t *testing.T) {
	if got := formatReferenceLabel(models.DocumentReferenceSubcontractingOrder, "SCO-7"); got != "SCO-7 (SO)" {
		t.Errorf("label = %q", got)
	}
	if got := formatReferenceLabel(models.DocumentReferenceStockEntry, "SE-1"); got != "SE-1 (SE)" {
		t.Errorf("label = %q", got)
	}
}

func TestAllocatedQuantities(t *testing.T) {
	rows := []*allocationRow{
		{StockEntry: "SE-OUT", RowId: 1, GatePass: "GP-1", ItemCode: "DIE", ItemName: "Forging Die", DispatchedQty: dec("10")},
		{StockEntry: "SE-OUT", RowId: 5, GatePass: "GP-2", ItemCode: "DIE", ReceivedQty: dec("4")},
		{StockEntry: "SE-RET", RowId: 5, GatePass: "GP-2", ItemCode: "DIE", ReceivedQty: dec("4")},
	}
	got, err := allocatedQuantities(rows)
	if err != nil {
		t.Fatalf("allocatedQuantities: %v", err)
	}
	out := got[reconciliationKey{DocumentReference: models.DocumentReferenceStockEntry, ReferenceNumber: "SE-OUT", ItemCode: "DIE"}]
	if out == nil || !out.Qty.Equal(dec("14")) || out.ItemName != "Forging Die" {
		t.Errorf("outbound allocation = %+v", out)
	}
	ret := got[reconciliationKey{DocumentReference: models.DocumentReferenceStockEntry, ReferenceNumber: "SE-RET", ItemCode: "DIE"}]
	if ret == nil || !ret.Qty.Equal(dec("4")) {
		t.Errorf("return allocation = %+v", ret)
	}

	_, err = allocatedQuantities([]*allocationRow{{StockEntry: "SE-OUT", GatePass: "GP-3", ItemCode: "JIG", ReceivedQty: dec("1"), DispatchedQty: dec("1")}})
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected a validation error for a row moving both ways, got %v", err)
	}
}

func TestReconcile(t *testing.T) {
	poKey := reconciliationKey{DocumentReference: models.DocumentReferencePurchaseOrder, ReferenceNumber: "PO-1", ItemCode: "STEEL"}
	siKey := reconciliationKey{DocumentReference: models.DocumentReferenceSalesInvoice, ReferenceNumber: "SINV-1", ItemCode: "PUMP"}
	seKey := reconciliationKey{DocumentReference: models.DocumentReferenceStockEntry, ReferenceNumber: "SE-1", ItemCode: "DIE"}
	cancelledKey := reconciliationKey{DocumentReference: models.DocumentReferenceStockEntry, ReferenceNumber: "SE-X", ItemCode: "DIE"}

	gatePass := map[reconciliationKey]*quantityTotal{
		poKey:        {EntryType: "Gate In", ItemName: "Steel Rod", Qty: dec("20")},
		seKey:        {EntryType: "Gate Out", Qty: dec("10")},
		cancelledKey: {EntryType: "Gate Out", Qty: dec("3")},
	}
	receipts := map[reconciliationKey]*quantityTotal{
		poKey: {Qty: dec("18")},
		siKey: {ItemName: "Pump", Qty: dec("2")},
		seKey: {Qty: dec("10")},
	}
	entries := map[string]*models.StockEntry{
		"SE-1": transferEntry("SE-1", models.DocStatusSubmitted),
		"SE-X": transferEntry("SE-X", models.DocStatusCancelled),
	}
	parties := map[models.ReferenceKey]*models.ReferenceSummary{
		{DocType: models.DocumentReferencePurchaseOrder, Name: "PO-1"}: {Party: "SUP-1", PartyName: "Steel Supplies"},
		{DocType: models.DocumentReferenceSalesInvoice, Name: "SINV-1"}: {Party: "CUST-1"},
	}

	rows := reconcile(gatePass, receipts, entries, parties, Filters{})
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	po, si, se := rows[0], rows[1], rows[2]
	if po.ReferenceLabel != "PO-1 (PO)" || !po.Discrepancy.Equal(dec("2")) || !po.HasDiscrepancy || po.PartyName != "Steel Supplies" {
		t.Errorf("po row = %+v", po)
	}
	if si.Direction != "Gate Out" || !si.GatePassQty.IsZero() || !si.Discrepancy.Equal(dec("-2")) || si.ItemName != "Pump" || si.PartyName != "CUST-1" {
		t.Errorf("si row = %+v", si)
	}
	if se.HasDiscrepancy || se.Warehouses != "Src: Finished, Stores, Tgt: Job Work" || se.ItemName != "Forging Die" || se.StockEntry != "SE-1" {
		t.Errorf("se row = %+v", se)
	}

	summary := materialReconciliationSummary(rows)
	if !summary[0].Value.(decimal.Decimal).Equal(dec("30")) || !summary[1].Value.(decimal.Decimal).Equal(dec("30")) || summary[2].Indicator != "green" {
		t.Errorf("summary = %+v", summary)
	}

	customerRows := reconcile(gatePass, receipts, entries, parties, Filters{Customer: "CUST-1"})
	if len(customerRows) != 1 || customerRows[0].DocumentReference != "Sales Invoice" {
		t.Errorf("customer rows = %+v", customerRows)
	}
	typeRows := reconcile(gatePass, receipts, entries, parties, Filters{StockEntryType: "Material Receipt"})
	if len(typeRows) != 2 {
		t.Errorf("stock entry type filter should drop the transfer row, got %d rows", len(typeRows))
	}
}

func TestJoinWarehouses(t *testing.T) {
	if got := joinWarehouses("", "Job Work"); got != "Tgt: Job Work" {
		t.Errorf("joinWarehouses = %q", got)
	}
	if got := joinWarehouses("", ""); got != "" {
		t.Errorf("joinWarehouses = %q", got)
	}
}

func TestReportCacheKey(t *testing.T) {
	a, err := reportCacheKey("gate_register", "biz-1", Filters{Supplier: "SUP-1"})
	if err != nil {
		t.Fatalf("reportCacheKey: %v", err)
	}
	b, _ := reportCacheKey("gate_register", "biz-1", Filters{Supplier: "SUP-2"})
	if a == b {
		t.Errorf("different filters share a key: %s", a)
	}
	if want := "report:biz-1:gate_register:"; a[:len(want)] != want {
		t.Errorf("key = %s", a)
	}
}

func TestWriteExcel(t *testing.T) {
	report := &GateRegisterReport{
		Columns: gateRegisterColumns,
		Rows:    []*GateRegisterRow{{GatePass: "GP-2026-00001", EntryType: "Gate In", MaterialSummary: "STEEL (1.000 Kg)"}},
	}
	var buf bytes.Buffer
	if err := WriteExcel(&buf, report.Columns, report.ExcelRows()); err != nil {
		t.Fatalf("WriteExcel: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	if v, _ := f.GetCellValue(excelSheet, "C1"); v != "Gate Pass ID" {
		t.Errorf("C1 = %q", v)
	}
	if v, _ := f.GetCellValue(excelSheet, "C2"); v != "GP-2026-00001" {
		t.Errorf("C2 = %q", v)
	}
	if v, _ := f.GetCellValue(excelSheet, "R2"); v != "STEEL (1.000 Kg)" {
		t.Errorf("R2 = %q", v)
	}
}
