package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/gate_entry/utils"
	"github.com/shopspring/decimal"
)

type TransportDetails struct {
	VehicleNumber string `json:"vehicle_number"`
	DriverName    string `json:"driver_name"`
	DriverContact string `json:"driver_contact"`
}

type ComplianceDetails struct {
	EInvoiceStatus    string `json:"e_invoice_status"`
	EInvoiceReference string `json:"e_invoice_reference"`
	EWaybillStatus    string `json:"e_waybill_status"`
	EWaybillNumber    string `json:"e_waybill_number"`
}

// ReferenceSnapshot is an upstream document normalized for the engine.
type ReferenceSnapshot struct {
	DocType              DocumentReference
	Name                 string
	DocStatus            DocStatus
	Company              string
	PartyType            string
	Party                string
	PartyName            string
	HasSupplier          bool
	Supplier             string
	SupplierDeliveryNote string
	Address              string
	Transport            TransportDetails
	Compliance           ComplianceDetails
	Total                decimal.Decimal
	PostingDate          *time.Time
	PostingTime          string
	TransactionDate      *time.Time
	Items                []ReferenceItem

	// StockEntry is set for Stock Entry references.
	StockEntry *StockEntry
}

// DocumentDate is the transaction date when the doctype has one, else the posting date.
func (s *ReferenceSnapshot) DocumentDate() *time.Time {
	if s.DocType.IsInboundGroup() {
		return s.TransactionDate
	}
	return s.PostingDate
}

type referenceAdapter struct {
	load func(ctx context.Context, store DocumentStore, name string) (*ReferenceSnapshot, error)
}

// referenceAdapters is the closed set of supported reference types.
var referenceAdapters = map[DocumentReference]referenceAdapter{
	DocumentReferencePurchaseOrder:       {load: loadPurchaseOrder},
	DocumentReferenceSubcontractingOrder: {load: loadSubcontractingOrder},
	DocumentReferenceSalesInvoice:        {load: loadSalesInvoice},
	DocumentReferenceDeliveryNote:        {load: loadDeliveryNote},
	DocumentReferenceStockEntry:          {load: loadStockEntryReference},
}

func LoadReference(ctx context.Context, store DocumentStore, ref DocumentReference, name string) (*ReferenceSnapshot, error) {
	adapter, ok := referenceAdapters[ref]
	if !ok {
		return nil, validationErrorf(msgUnsupportedReference, ref)
	}
	return adapter.load(ctx, store, name)
}

var (
	vehicleCandidates = []string{"vehicle_number", "vehicle_no", "vehicle"}
	driverCandidates  = []string{"driver_name", "driver"}
	contactCandidates = []string{"driver_contact", "driver_mobile_no", "driver_contact_number", "driver_mobile", "driver_phone", "contact_phone"}
)

func pickField(fields map[string]string, candidates []string) string {
	for _, key := range candidates {
		if v := fields[key]; v != "" {
			return v
		}
	}
	return ""
}

func extractTransportDetails(fields map[string]string) TransportDetails {
	return TransportDetails{
		VehicleNumber: pickField(fields, vehicleCandidates),
		DriverName:    pickField(fields, driverCandidates),
		DriverContact: pickField(fields, contactCandidates),
	}
}

// complianceSource carries the raw e-invoice and e-way bill fields of an outbound document.
type complianceSource struct {
	Irn            string
	IrnCancelled   bool
	EInvoiceStatus string
	Ewaybill       string
	EWaybillNumber string
	EWaybillStatus string
}

func extractComplianceDetails(ref DocumentReference, src complianceSource) ComplianceDetails {
	if !ref.IsOutboundGroup() {
		return ComplianceDetails{}
	}

	var invoiceStatus string
	if ref == DocumentReferenceSalesInvoice {
		switch {
		case src.Irn != "" && src.IrnCancelled:
			invoiceStatus = "Cancelled"
		case src.Irn != "":
			invoiceStatus = "Generated"
		default:
			invoiceStatus = utils.FirstNonEmpty(src.EInvoiceStatus, "Not Generated")
		}
	}

	number := utils.FirstNonEmpty(src.Ewaybill, src.EWaybillNumber)
	status := src.EWaybillStatus
	if status == "" && number != "" {
		status = "Generated"
	} else if status == "" {
		status = "Not Generated"
	}

	return ComplianceDetails{
		EInvoiceStatus:    invoiceStatus,
		EInvoiceReference: src.Irn,
		EWaybillStatus:    status,
		EWaybillNumber:    number,
	}
}

func oneIfZero(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return decimal.NewFromInt(1)
	}
	return d
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func loadPurchaseOrder(ctx context.Context, store DocumentStore, name string) (*ReferenceSnapshot, error) {
	po, err := store.GetPurchaseOrder(ctx, name)
	if err != nil {
		return nil, err
	}
	snap := &ReferenceSnapshot{
		DocType:         DocumentReferencePurchaseOrder,
		Name:            po.Name,
		DocStatus:       po.DocStatus,
		Company:         po.Company,
		PartyType:       "Supplier",
		Party:           po.Supplier,
		PartyName:       po.SupplierName,
		HasSupplier:     true,
		Supplier:        po.Supplier,
		Address:         po.AddressDisplay,
		Total:           po.DocumentTotal(),
		TransactionDate: po.TransactionDate,
	}
	// Rows of a draft order are not offered.
	if po.DocStatus != DocStatusSubmitted {
		return snap, nil
	}
	for _, row := range po.Items {
		ordered := row.Qty
		pending := nonNegative(row.Qty.Sub(row.ReceivedQty))
		if po.HasUnitPriceItems {
			ordered = decimal.Zero
			pending = decimal.Zero
		}
		snap.Items = append(snap.Items, ReferenceItem{
			ItemCode:         row.ItemCode,
			ItemName:         row.ItemName,
			Description:      row.Description,
			Uom:              row.Uom,
			StockUom:         row.StockUom,
			ConversionFactor: oneIfZero(row.ConversionFactor),
			OrderedQty:       ordered,
			ReceivedQty:      row.ReceivedQty,
			PendingQty:       pending,
			IsRateContract:   po.HasUnitPriceItems,
			Rate:             row.Rate,
			Amount:           row.Amount,
			Warehouse:        row.Warehouse,
			ExpenseAccount:   row.ExpenseAccount,
			CostCenter:       row.CostCenter,
			Project:          row.Project,
			ScheduleDate:     row.ScheduleDate,
			Bom:              row.Bom,
			OrderItemName:    row.Name,
		})
	}
	return snap, nil
}

func loadSubcontractingOrder(ctx context.Context, store DocumentStore, name string) (*ReferenceSnapshot, error) {
	sco, err := store.GetSubcontractingOrder(ctx, name)
	if err != nil {
		return nil, err
	}
	snap := &ReferenceSnapshot{
		DocType:         DocumentReferenceSubcontractingOrder,
		Name:            sco.Name,
		DocStatus:       sco.DocStatus,
		Company:         sco.Company,
		PartyType:       "Supplier",
		Party:           sco.Supplier,
		PartyName:       sco.SupplierName,
		HasSupplier:     true,
		Supplier:        sco.Supplier,
		Address:         sco.AddressDisplay,
		Total:           sco.DocumentTotal(),
		TransactionDate: sco.TransactionDate,
	}
	if sco.DocStatus != DocStatusSubmitted {
		return snap, nil
	}
	for _, row := range sco.Items {
		snap.Items = append(snap.Items, ReferenceItem{
			ItemCode:             row.ItemCode,
			ItemName:             row.ItemName,
			Description:          row.Description,
			Uom:                  row.StockUom,
			StockUom:             row.StockUom,
			ConversionFactor:     oneIfZero(row.ConversionFactor),
			OrderedQty:           row.Qty,
			ReceivedQty:          row.ReceivedQty,
			PendingQty:           nonNegative(row.Qty.Sub(row.ReceivedQty)),
			Rate:                 row.Rate,
			Amount:               row.Amount,
			Warehouse:            row.Warehouse,
			ExpenseAccount:       row.ExpenseAccount,
			CostCenter:           row.CostCenter,
			Project:              row.Project,
			ScheduleDate:         row.ScheduleDate,
			Bom:                  row.Bom,
			IncludeExplodedItems: row.IncludeExplodedItems,
			OrderItemName:        row.Name,
		})
	}
	return snap, nil
}

func loadSalesInvoice(ctx context.Context, store DocumentStore, name string) (*ReferenceSnapshot, error) {
	si, err := store.GetSalesInvoice(ctx, name)
	if err != nil {
		return nil, err
	}
	snap := &ReferenceSnapshot{
		DocType:     DocumentReferenceSalesInvoice,
		Name:        si.Name,
		DocStatus:   si.DocStatus,
		Company:     si.Company,
		PartyType:   "Customer",
		Party:       si.Customer,
		PartyName:   si.CustomerName,
		Address:     utils.FirstNonEmpty(si.ShippingAddressDisplay, si.AddressDisplay, si.CustomerAddress),
		Total:       si.DocumentTotal(),
		PostingDate: si.PostingDate,
		PostingTime: si.PostingTime,
		Transport: extractTransportDetails(map[string]string{
			"vehicle_no":  si.VehicleNo,
			"driver_name": si.DriverName,
		}),
		Compliance: extractComplianceDetails(DocumentReferenceSalesInvoice, complianceSource{
			Irn:            si.Irn,
			IrnCancelled:   si.IrnCancelled,
			EInvoiceStatus: si.EInvoiceStatus,
			Ewaybill:       si.Ewaybill,
			EWaybillStatus: si.EWaybillStatus,
		}),
	}
	for _, row := range si.Items {
		snap.Items = append(snap.Items, ReferenceItem{
			ItemCode:         row.ItemCode,
			ItemName:         row.ItemName,
			Description:      row.Description,
			Uom:              row.Uom,
			StockUom:         row.StockUom,
			ConversionFactor: oneIfZero(row.ConversionFactor),
			OrderedQty:       row.Qty,
			DispatchedQty:    row.Qty,
			Warehouse:        row.Warehouse,
			Project:          row.Project,
			ScheduleDate:     row.DeliveryDate,
			OrderItemName:    row.Name,
		})
	}
	return snap, nil
}

func loadDeliveryNote(ctx context.Context, store DocumentStore, name string) (*ReferenceSnapshot, error) {
	dn, err := store.GetDeliveryNote(ctx, name)
	if err != nil {
		return nil, err
	}
	snap := &ReferenceSnapshot{
		DocType:     DocumentReferenceDeliveryNote,
		Name:        dn.Name,
		DocStatus:   dn.DocStatus,
		Company:     dn.Company,
		PartyType:   "Customer",
		Party:       dn.Customer,
		PartyName:   dn.CustomerName,
		Address:     utils.FirstNonEmpty(dn.ShippingAddressDisplay, dn.AddressDisplay),
		Total:       dn.DocumentTotal(),
		PostingDate: dn.PostingDate,
		PostingTime: dn.PostingTime,
		Transport: extractTransportDetails(map[string]string{
			"vehicle_no":  dn.VehicleNo,
			"driver_name": dn.DriverName,
			"driver":      dn.Driver,
		}),
		Compliance: extractComplianceDetails(DocumentReferenceDeliveryNote, complianceSource{
			Ewaybill:       dn.Ewaybill,
			EWaybillNumber: dn.EWaybillNumber,
			EWaybillStatus: dn.EWaybillStatus,
		}),
	}
	for _, row := range dn.Items {
		snap.Items = append(snap.Items, ReferenceItem{
			ItemCode:         row.ItemCode,
			ItemName:         row.ItemName,
			Description:      row.Description,
			Uom:              row.Uom,
			StockUom:         row.StockUom,
			ConversionFactor: oneIfZero(row.ConversionFactor),
			OrderedQty:       row.Qty,
			DispatchedQty:    row.Qty,
			Warehouse:        utils.FirstNonEmpty(row.TargetWarehouse, row.Warehouse),
			Project:          row.Project,
			ScheduleDate:     row.ScheduleDate,
			OrderItemName:    row.Name,
		})
	}
	return snap, nil
}

func loadStockEntryReference(ctx context.Context, store DocumentStore, name string) (*ReferenceSnapshot, error) {
	se, err := store.GetStockEntry(ctx, name)
	if err != nil {
		return nil, err
	}
	return stockEntrySnapshot(se, !se.IsReturn), nil
}

// stockEntrySnapshot normalizes an entry; dispatching controls whether rows carry dispatched qty.
func stockEntrySnapshot(se *StockEntry, dispatching bool) *ReferenceSnapshot {
	snap := &ReferenceSnapshot{
		DocType:     DocumentReferenceStockEntry,
		Name:        se.Name,
		DocStatus:   se.DocStatus,
		Company:     se.Company,
		HasSupplier: true,
		Supplier:    se.Supplier,
		PostingDate: se.PostingDate,
		PostingTime: se.PostingTime,
		Transport: extractTransportDetails(map[string]string{
			"vehicle_no":     se.VehicleNo,
			"driver_name":    se.DriverName,
			"driver_contact": se.DriverContact,
		}),
		StockEntry: se,
		Items:      stockEntryItems(se, dispatching),
	}
	return snap
}

func stockEntryItems(se *StockEntry, dispatching bool) []ReferenceItem {
	items := make([]ReferenceItem, 0, len(se.Items))
	for _, row := range se.Items {
		transferQty := row.EffectiveTransferQty()
		dispatched := decimal.Zero
		if dispatching {
			dispatched = transferQty
		}
		items = append(items, ReferenceItem{
			ItemCode:         row.ItemCode,
			ItemName:         row.ItemName,
			Description:      row.Description,
			Uom:              utils.FirstNonEmpty(row.Uom, row.StockUom),
			StockUom:         row.StockUom,
			ConversionFactor: oneIfZero(row.ConversionFactor),
			OrderedQty:       transferQty,
			DispatchedQty:    dispatched,
			PendingQty:       transferQty,
			Rate:             row.BasicRate,
			Amount:           row.BasicAmount,
			Warehouse:        utils.FirstNonEmpty(row.SWarehouse, row.TWarehouse),
			CostCenter:       row.CostCenter,
			Project:          row.Project,
			OrderItemName:    row.Name,
		})
	}
	return items
}
