package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type GatePass struct {
	ID                       int               `gorm:"primary_key" json:"id"`
	BusinessId               string            `gorm:"size:64;not null;uniqueIndex:idx_gate_pass_name,priority:1" json:"business_id"`
	Name                     string            `gorm:"size:140;not null;uniqueIndex:idx_gate_pass_name,priority:2" json:"name"`
	DocStatus                DocStatus         `gorm:"column:docstatus;not null;default:0" json:"docstatus"`
	AmendedFrom              string            `gorm:"size:140" json:"amended_from"`
	EntryType                EntryType         `gorm:"size:20;not null" json:"entry_type"`
	DocumentReference        DocumentReference `gorm:"size:40;index:idx_gate_pass_reference,priority:1" json:"document_reference"`
	ReferenceNumber          string            `gorm:"size:140;index:idx_gate_pass_reference,priority:2" json:"reference_number"`
	Company                  string            `gorm:"size:140" json:"company"`
	Supplier                 string            `gorm:"size:140;index" json:"supplier"`
	SupplierDeliveryNote     string            `gorm:"size:140" json:"supplier_delivery_note"`
	AddressDisplay           string            `gorm:"type:text" json:"address_display"`
	VehicleNumber            string            `gorm:"size:40" json:"vehicle_number"`
	DriverName               string            `gorm:"size:140" json:"driver_name"`
	DriverContact            string            `gorm:"size:40" json:"driver_contact"`
	SecurityGuardName        string            `gorm:"size:140" json:"security_guard_name"`
	GatePassDate             *time.Time        `gorm:"type:date" json:"gate_pass_date"`
	GatePassTime             string            `gorm:"size:8" json:"gate_pass_time"`
	GateEntryDate            *time.Time        `gorm:"type:date;index" json:"gate_entry_date"`
	GateEntryTime            string            `gorm:"size:8" json:"gate_entry_time"`
	HasDiscrepancy           bool              `gorm:"not null;default:false" json:"has_discrepancy"`
	LostQuantity             decimal.Decimal   `gorm:"type:decimal(20,6);default:0" json:"lost_quantity"`
	DamagedQuantity          decimal.Decimal   `gorm:"type:decimal(20,6);default:0" json:"damaged_quantity"`
	DiscrepancyNotes         string            `gorm:"type:text" json:"discrepancy_notes"`
	EInvoiceStatus           string            `gorm:"size:40" json:"e_invoice_status"`
	EInvoiceReference        string            `gorm:"size:140" json:"e_invoice_reference"`
	EWaybillStatus           string            `gorm:"size:40" json:"e_waybill_status"`
	EWaybillNumber           string            `gorm:"size:140" json:"e_waybill_number"`
	StockEntry               string            `gorm:"size:140;index" json:"stock_entry"`
	OutboundMaterialTransfer string            `gorm:"size:140;index" json:"outbound_material_transfer"`
	ReturnMaterialTransfer   string            `gorm:"size:140;index" json:"return_material_transfer"`
	ManualReturnFlow         bool              `gorm:"not null;default:false" json:"manual_return_flow"`
	PurchaseReceipt          string            `gorm:"size:140" json:"purchase_receipt"`
	SubcontractingReceipt    string            `gorm:"size:140" json:"subcontracting_receipt"`
	VehiclePhoto             string            `gorm:"size:255" json:"vehicle_photo"`
	Owner                    string            `gorm:"size:100" json:"owner"`
	Items                    []*GatePassItem   `gorm:"foreignKey:GatePassId" json:"items"`
	CreatedAt                time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type GatePassItem struct {
	ID            int    `gorm:"primary_key" json:"id"`
	BusinessId    string `gorm:"size:64;index;not null" json:"business_id"`
	GatePassId    int    `gorm:"index;not null" json:"gate_pass_id"`
	Idx           int    `gorm:"not null;default:0" json:"idx"`
	ReferenceItem `gorm:"embedded"`
}

// ReferenceItem is one normalized source row. GatePassItem embeds it so a row can be
// refreshed from the source with a single assignment.
type ReferenceItem struct {
	ItemCode             string          `gorm:"size:140;index;not null" json:"item_code"`
	ItemName             string          `gorm:"size:140" json:"item_name"`
	Description          string          `gorm:"type:text" json:"description"`
	Uom                  string          `gorm:"size:40" json:"uom"`
	StockUom             string          `gorm:"size:40" json:"stock_uom"`
	ConversionFactor     decimal.Decimal `gorm:"type:decimal(20,6);default:1" json:"conversion_factor"`
	OrderedQty           decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"ordered_qty"`
	ReceivedQty          decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"received_qty"`
	DispatchedQty        decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"dispatched_qty"`
	PendingQty           decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"pending_qty"`
	IsRateContract       bool            `gorm:"not null;default:false" json:"is_rate_contract"`
	Rate                 decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"rate"`
	Amount               decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"amount"`
	Warehouse            string          `gorm:"size:140" json:"warehouse"`
	RejectedWarehouse    string          `gorm:"size:140" json:"rejected_warehouse"`
	ExpenseAccount       string          `gorm:"size:140" json:"expense_account"`
	CostCenter           string          `gorm:"size:140" json:"cost_center"`
	Project              string          `gorm:"size:140" json:"project"`
	ScheduleDate         *time.Time      `gorm:"type:date" json:"schedule_date"`
	Bom                  string          `gorm:"size:140" json:"bom"`
	IncludeExplodedItems bool            `gorm:"not null;default:false" json:"include_exploded_items"`
	OrderItemName        string          `gorm:"size:140;index" json:"order_item_name"`
}

// Key joins a row to its source row: the source row id, else "item_code::warehouse".
func (r ReferenceItem) Key() string {
	if r.OrderItemName != "" {
		return r.OrderItemName
	}
	return r.ItemCode + "::" + r.Warehouse
}

func (gp *GatePass) IsGateIn() bool {
	return strings.EqualFold(strings.TrimSpace(string(gp.EntryType)), string(EntryTypeGateIn))
}

func (gp *GatePass) IsStockEntryReference() bool {
	return gp.DocumentReference == DocumentReferenceStockEntry
}

// IsOutbound: Stock Entry passes are outbound unless they are Gate In.
func (gp *GatePass) IsOutbound() bool {
	if gp.IsStockEntryReference() {
		return !gp.IsGateIn()
	}
	return gp.DocumentReference.IsOutboundGroup()
}

func (gp *GatePass) IsInbound() bool {
	if gp.IsStockEntryReference() {
		return gp.IsGateIn()
	}
	return gp.DocumentReference.IsInboundGroup()
}

// MovementQty is the quantity a row moves in the pass's direction.
func (gp *GatePass) MovementQty(item *GatePassItem) decimal.Decimal {
	if gp.IsOutbound() {
		return item.DispatchedQty
	}
	return item.ReceivedQty
}

func (gp *GatePass) TotalDispatched() decimal.Decimal {
	total := decimal.Zero
	for _, item := range gp.Items {
		total = total.Add(item.DispatchedQty)
	}
	return total
}

func (gp *GatePass) TotalReceived() decimal.Decimal {
	total := decimal.Zero
	for _, item := range gp.Items {
		total = total.Add(item.ReceivedQty)
	}
	return total
}

// Clone copies the pass and its rows.
func (gp *GatePass) Clone() *GatePass {
	if gp == nil {
		return nil
	}
	c := *gp
	c.GatePassDate = cloneTime(gp.GatePassDate)
	c.GateEntryDate = cloneTime(gp.GateEntryDate)
	c.Items = make([]*GatePassItem, 0, len(gp.Items))
	for _, item := range gp.Items {
		row := *item
		row.ScheduleDate = cloneTime(item.ScheduleDate)
		c.Items = append(c.Items, &row)
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// reindex numbers rows from 1 and stamps the owning pass.
func (gp *GatePass) reindex() {
	for i, item := range gp.Items {
		item.Idx = i + 1
		item.GatePassId = gp.ID
		item.BusinessId = gp.BusinessId
	}
}

type NewGatePass struct {
	EntryType                EntryType          `json:"entry_type"`
	DocumentReference        DocumentReference  `json:"document_reference"`
	ReferenceNumber          string             `json:"reference_number" validate:"required_with=DocumentReference"`
	AmendedFrom              string             `json:"amended_from"`
	Company                  string             `json:"company"`
	Supplier                 string             `json:"supplier"`
	SupplierDeliveryNote     string             `json:"supplier_delivery_note"`
	AddressDisplay           string             `json:"address_display"`
	VehicleNumber            string             `json:"vehicle_number" validate:"max=40"`
	DriverName               string             `json:"driver_name" validate:"max=140"`
	DriverContact            string             `json:"driver_contact" validate:"max=40"`
	SecurityGuardName        string             `json:"security_guard_name"`
	GatePassDate             string             `json:"gate_pass_date" validate:"omitempty,datetime=2006-01-02"`
	GatePassTime             string             `json:"gate_pass_time" validate:"omitempty,datetime=15:04:05"`
	GateEntryDate            string             `json:"gate_entry_date" validate:"omitempty,datetime=2006-01-02"`
	GateEntryTime            string             `json:"gate_entry_time" validate:"omitempty,datetime=15:04:05"`
	HasDiscrepancy           bool               `json:"has_discrepancy"`
	LostQuantity             decimal.Decimal    `json:"lost_quantity"`
	DamagedQuantity          decimal.Decimal    `json:"damaged_quantity"`
	DiscrepancyNotes         string             `json:"discrepancy_notes"`
	OutboundMaterialTransfer string             `json:"outbound_material_transfer"`
	ManualReturnFlow         bool               `json:"manual_return_flow"`
	Items                    []*NewGatePassItem `json:"items" validate:"dive"`
}

type NewGatePassItem struct {
	ReferenceItem
	ItemCode string `json:"item_code" validate:"required"`
}

// Apply copies the editable fields onto gp. Rows are replaced wholesale.
func (input *NewGatePass) Apply(gp *GatePass) {
	gp.EntryType = input.EntryType
	gp.DocumentReference = input.DocumentReference
	gp.ReferenceNumber = strings.TrimSpace(input.ReferenceNumber)
	gp.AmendedFrom = input.AmendedFrom
	gp.Company = input.Company
	gp.Supplier = input.Supplier
	gp.SupplierDeliveryNote = input.SupplierDeliveryNote
	gp.AddressDisplay = input.AddressDisplay
	gp.VehicleNumber = input.VehicleNumber
	gp.DriverName = input.DriverName
	gp.DriverContact = input.DriverContact
	gp.SecurityGuardName = input.SecurityGuardName
	gp.GatePassDate = parseDate(input.GatePassDate)
	gp.GatePassTime = input.GatePassTime
	gp.GateEntryDate = parseDate(input.GateEntryDate)
	gp.GateEntryTime = input.GateEntryTime
	gp.HasDiscrepancy = input.HasDiscrepancy
	gp.LostQuantity = input.LostQuantity
	gp.DamagedQuantity = input.DamagedQuantity
	gp.DiscrepancyNotes = input.DiscrepancyNotes
	gp.OutboundMaterialTransfer = input.OutboundMaterialTransfer
	gp.ManualReturnFlow = input.ManualReturnFlow

	gp.Items = make([]*GatePassItem, 0, len(input.Items))
	for _, in := range input.Items {
		line := in.ReferenceItem
		line.ItemCode = in.ItemCode
		if line.ConversionFactor.IsZero() {
			line.ConversionFactor = decimal.NewFromInt(1)
		}
		gp.Items = append(gp.Items, &GatePassItem{ReferenceItem: line})
	}
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil
	}
	return &t
}

type GatePassFilter struct {
	DocumentReference        DocumentReference
	ReferenceNumber          string
	OutboundMaterialTransfer string
	ReturnMaterialTransfer   string
	// LinkedTo matches any of reference_number, stock_entry, outbound and return transfer.
	LinkedTo      string
	EntryType     EntryType
	DocStatus     *DocStatus
	NotCancelled  bool
	Supplier      string
	Company       string
	WithItems     bool
	OrderByLatest bool
	Limit         int
	Offset        int
}
