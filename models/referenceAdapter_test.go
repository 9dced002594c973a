package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestLoadPurchaseOrderPendingQty(t *testing.T) {
	store := newFakeStore()
	store.putPurchaseOrder(submittedPurchaseOrder())

	snap, err := LoadReference(testContext(), store, DocumentReferencePurchaseOrder, "PO-0001")
	if err != nil {
		t.Fatalf("LoadReference: %v", err)
	}
	if !snap.HasSupplier || snap.Supplier != "SUP-1" || snap.PartyName != "Steel Supplies" {
		t.Errorf("party = %+v", snap)
	}
	if len(snap.Items) != 2 {
		t.Fatalf("items = %d", len(snap.Items))
	}
	steel := snap.Items[0]
	if !steel.PendingQty.Equal(dec("80")) || !steel.OrderedQty.Equal(dec("100")) || steel.OrderItemName != "po-row-1" {
		t.Errorf("steel row = %+v", steel)
	}
}

func TestLoadPurchaseOrderRateContract(t *testing.T) {
	store := newFakeStore()
	po := submittedPurchaseOrder()
	po.HasUnitPriceItems = true
	store.putPurchaseOrder(po)

	snap, err := LoadReference(testContext(), store, DocumentReferencePurchaseOrder, "PO-0001")
	if err != nil {
		t.Fatalf("LoadReference: %v", err)
	}
	for _, item := range snap.Items {
		if !item.IsRateContract || !item.OrderedQty.IsZero() || !item.PendingQty.IsZero() {
			t.Errorf("rate contract row = %+v", item)
		}
	}
}

func TestLoadDraftPurchaseOrderHasNoItems(t *testing.T) {
	store := newFakeStore()
	po := submittedPurchaseOrder()
	po.DocStatus = DocStatusDraft
	store.putPurchaseOrder(po)

	snap, err := LoadReference(testContext(), store, DocumentReferencePurchaseOrder, "PO-0001")
	if err != nil {
		t.Fatalf("LoadReference: %v", err)
	}
	if len(snap.Items) != 0 {
		t.Errorf("draft order offered %d rows", len(snap.Items))
	}
}

func TestLoadSalesInvoiceTransportAndCompliance(t *testing.T) {
	store := newFakeStore()
	si := salesInvoice()
	si.Irn = "IRN-9"
	si.IrnCancelled = true
	si.ShippingAddressDisplay = "Warehouse Gate 2"
	store.putSalesInvoice(si)

	snap, err := LoadReference(testContext(), store, DocumentReferenceSalesInvoice, "SINV-1")
	if err != nil {
		t.Fatalf("LoadReference: %v", err)
	}
	if snap.Compliance.EInvoiceStatus != "Cancelled" {
		t.Errorf("e-invoice status = %q", snap.Compliance.EInvoiceStatus)
	}
	if snap.Transport.VehicleNumber != "MH12XY0001" {
		t.Errorf("vehicle = %q", snap.Transport.VehicleNumber)
	}
	if snap.Address != "Warehouse Gate 2" {
		t.Errorf("address = %q", snap.Address)
	}
	if !snap.Total.Equal(dec("100000")) {
		t.Errorf("total = %s", snap.Total)
	}
}

func TestLoadDeliveryNoteDriverFallback(t *testing.T) {
	store := newFakeStore()
	store.putDeliveryNote(&DeliveryNote{
		Name:      "DN-1",
		DocStatus: DocStatusSubmitted,
		Company:   "Acme",
		Driver:    "DRV-7",
		Items: []*DeliveryNoteItem{
			{Name: "dn-row-1", ItemCode: "PUMP", Qty: dec("1"), Warehouse: "FG Store", TargetWarehouse: "Customer WH"},
		},
	})

	snap, err := LoadReference(testContext(), store, DocumentReferenceDeliveryNote, "DN-1")
	if err != nil {
		t.Fatalf("LoadReference: %v", err)
	}
	if snap.Transport.DriverName != "DRV-7" {
		t.Errorf("driver = %q", snap.Transport.DriverName)
	}
	if snap.Items[0].Warehouse != "Customer WH" {
		t.Errorf("warehouse = %q", snap.Items[0].Warehouse)
	}
	if snap.Compliance.EInvoiceStatus != "" || snap.Compliance.EWaybillStatus != "Not Generated" {
		t.Errorf("compliance = %+v", snap.Compliance)
	}
}

func TestLoadReferenceErrors(t *testing.T) {
	store := newFakeStore()

	_, err := LoadReference(testContext(), store, DocumentReference("Journal Entry"), "JV-1")
	expectValidation(t, err, fmt.Sprintf(msgUnsupportedReference, "Journal Entry"))

	_, err = LoadReference(testContext(), store, DocumentReferencePurchaseOrder, "PO-404")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Name != "PO-404" {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false", err)
	}
}

func TestStockEntryItemsDirection(t *testing.T) {
	se := externalTransfer("MAT-STE-OUT")
	se.Items[0].TransferQty = dec("0")

	out := stockEntryItems(se, true)
	if !out[0].DispatchedQty.Equal(dec("10")) {
		t.Errorf("transfer qty should fall back to qty, got %s", out[0].DispatchedQty)
	}
	if out[0].Warehouse != "Stores" {
		t.Errorf("warehouse = %q", out[0].Warehouse)
	}

	in := stockEntryItems(se, false)
	if !in[1].DispatchedQty.IsZero() || !in[1].PendingQty.Equal(dec("4")) {
		t.Errorf("inbound row = %+v", in[1])
	}
}
