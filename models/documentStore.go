package models

import (
	"context"

	"github.com/shopspring/decimal"
)

// DocumentStore is the persistence surface the engine runs against. Every call is scoped
// to the business id carried by ctx.
type DocumentStore interface {
	// Transaction runs fn in one unit of work. Nested calls join the outer transaction.
	Transaction(ctx context.Context, fn func(ctx context.Context, tx DocumentStore) error) error

	GetGatePass(ctx context.Context, name string) (*GatePass, error)
	FindGatePasses(ctx context.Context, filter GatePassFilter) ([]*GatePass, error)
	InsertGatePass(ctx context.Context, gp *GatePass) error
	UpdateGatePass(ctx context.Context, gp *GatePass) error
	DeleteGatePass(ctx context.Context, name string) error
	// AdminUpdateGatePass writes the given fields without running validation or touching rows.
	AdminUpdateGatePass(ctx context.Context, name string, upd GatePassFieldUpdate) error

	// LockAllocatingGatePasses locks, until the transaction ends, the non-cancelled Stock Entry
	// passes that reference stockEntry directly or as their outbound transfer.
	LockAllocatingGatePasses(ctx context.Context, stockEntry string, excludeName string) ([]int, error)
	SumGatePassItemQty(ctx context.Context, gatePassIds []int, column QtyColumn) (map[string]decimal.Decimal, error)
	SumReceivedQty(ctx context.Context, ref DocumentReference, referenceNumber string, itemCode string) (decimal.Decimal, error)

	GetPurchaseOrder(ctx context.Context, name string) (*PurchaseOrder, error)
	GetSubcontractingOrder(ctx context.Context, name string) (*SubcontractingOrder, error)
	GetSalesInvoice(ctx context.Context, name string) (*SalesInvoice, error)
	GetDeliveryNote(ctx context.Context, name string) (*DeliveryNote, error)
	GetStockEntry(ctx context.Context, name string) (*StockEntry, error)
	InsertStockEntry(ctx context.Context, se *StockEntry) error
	AdminUpdateStockEntry(ctx context.Context, name string, upd StockEntryFieldUpdate) error

	GetReceipt(ctx context.Context, docType ReceiptType, name string) (*ReceiptHeader, error)
	InsertPurchaseReceipt(ctx context.Context, pr *PurchaseReceipt) error
	InsertSubcontractingReceipt(ctx context.Context, scr *SubcontractingReceipt) error

	// GetGstSettings returns nil, nil when the compliance subsystem is not configured.
	GetGstSettings(ctx context.Context) (*GstSettings, error)
	NextName(ctx context.Context, series string) (string, error)
}

type QtyColumn string

const (
	QtyColumnReceived   QtyColumn = "received_qty"
	QtyColumnDispatched QtyColumn = "dispatched_qty"
)

func qtyColumnFor(entryType EntryType) QtyColumn {
	if normalizeEntryType(entryType) == EntryTypeGateIn {
		return QtyColumnReceived
	}
	return QtyColumnDispatched
}

// GatePassFieldUpdate lists post-submit writes; nil fields are left alone.
type GatePassFieldUpdate struct {
	DocStatus                *DocStatus
	ReferenceNumber          *string
	StockEntry               *string
	OutboundMaterialTransfer *string
	ReturnMaterialTransfer   *string
	ManualReturnFlow         *bool
	PurchaseReceipt          *string
	SubcontractingReceipt    *string
	VehiclePhoto             *string
}

func (u GatePassFieldUpdate) IsEmpty() bool {
	return len(u.Columns()) == 0
}

func (u GatePassFieldUpdate) Columns() map[string]any {
	cols := map[string]any{}
	if u.DocStatus != nil {
		cols["docstatus"] = *u.DocStatus
	}
	if u.ReferenceNumber != nil {
		cols["reference_number"] = *u.ReferenceNumber
	}
	if u.StockEntry != nil {
		cols["stock_entry"] = *u.StockEntry
	}
	if u.OutboundMaterialTransfer != nil {
		cols["outbound_material_transfer"] = *u.OutboundMaterialTransfer
	}
	if u.ReturnMaterialTransfer != nil {
		cols["return_material_transfer"] = *u.ReturnMaterialTransfer
	}
	if u.ManualReturnFlow != nil {
		cols["manual_return_flow"] = *u.ManualReturnFlow
	}
	if u.PurchaseReceipt != nil {
		cols["purchase_receipt"] = *u.PurchaseReceipt
	}
	if u.SubcontractingReceipt != nil {
		cols["subcontracting_receipt"] = *u.SubcontractingReceipt
	}
	if u.VehiclePhoto != nil {
		cols["vehicle_photo"] = *u.VehiclePhoto
	}
	return cols
}

// ApplyTo mirrors the update onto an in-memory pass.
func (u GatePassFieldUpdate) ApplyTo(gp *GatePass) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&gp.ReferenceNumber, u.ReferenceNumber)
	set(&gp.StockEntry, u.StockEntry)
	set(&gp.OutboundMaterialTransfer, u.OutboundMaterialTransfer)
	set(&gp.ReturnMaterialTransfer, u.ReturnMaterialTransfer)
	set(&gp.PurchaseReceipt, u.PurchaseReceipt)
	set(&gp.SubcontractingReceipt, u.SubcontractingReceipt)
	set(&gp.VehiclePhoto, u.VehiclePhoto)
	if u.ManualReturnFlow != nil {
		gp.ManualReturnFlow = *u.ManualReturnFlow
	}
	if u.DocStatus != nil {
		gp.DocStatus = *u.DocStatus
	}
}

type StockEntryFieldUpdate struct {
	GatePass *string
}

func ptr[T any](v T) *T { return &v }
