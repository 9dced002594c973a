package models

import "testing"

func TestGetItemsAndAddress(t *testing.T) {
	store := newFakeStore()
	store.putPurchaseOrder(submittedPurchaseOrder())
	engine := newTestEngine(store)
	ctx := testContext()

	items, err := engine.GetItems(ctx, DocumentReferencePurchaseOrder, "PO-0001")
	if err != nil {
		t.Fatalf("GetItems: %v", err)
	}
	if len(items) != 2 || !items[1].PendingQty.Equal(dec("10")) {
		t.Errorf("items = %+v", items)
	}

	_, err = engine.GetItems(ctx, DocumentReferencePurchaseOrder, " ")
	expectValidation(t, err, msgReferenceRequired)

	address, err := engine.GetAddress(ctx, DocumentReferencePurchaseOrder, "PO-0001")
	if err != nil || address != "1 Mill Road" {
		t.Errorf("GetAddress = %q, %v", address, err)
	}
	if address, err := engine.GetAddress(ctx, "", "PO-0001"); err != nil || address != "" {
		t.Errorf("GetAddress without reference = %q, %v", address, err)
	}
}

func TestGetItemsOfDraftReferenceIsEmpty(t *testing.T) {
	store := newFakeStore()
	po := submittedPurchaseOrder()
	po.DocStatus = DocStatusDraft
	store.putPurchaseOrder(po)

	items, err := newTestEngine(store).GetItems(testContext(), DocumentReferencePurchaseOrder, "PO-0001")
	if err != nil {
		t.Fatalf("GetItems: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("items = %#v, want empty slice", items)
	}
}

func TestGetReferenceDetails(t *testing.T) {
	store := newFakeStore()
	store.putPurchaseOrder(submittedPurchaseOrder())
	store.putSalesInvoice(salesInvoice())
	engine := newTestEngine(store)
	ctx := testContext()

	inbound, err := engine.GetReferenceDetails(ctx, DocumentReferencePurchaseOrder, "PO-0001")
	if err != nil {
		t.Fatalf("inbound details: %v", err)
	}
	if inbound.Supplier != "SUP-1" || inbound.PartyType != "Supplier" || inbound.Customer != "" {
		t.Errorf("inbound = %+v", inbound)
	}

	outbound, err := engine.GetReferenceDetails(ctx, DocumentReferenceSalesInvoice, "SINV-1")
	if err != nil {
		t.Fatalf("outbound details: %v", err)
	}
	if outbound.Customer != "CUST-1" || outbound.PartyName != "Pump House" || outbound.Supplier != "" {
		t.Errorf("outbound = %+v", outbound)
	}
	if outbound.VehicleNumber != "MH12XY0001" || outbound.EWaybillStatus != "Not Generated" {
		t.Errorf("transport/compliance = %+v / %+v", outbound.TransportDetails, outbound.ComplianceDetails)
	}
}

func TestGetOutboundComplianceStatus(t *testing.T) {
	engine := newTestEngine(newFakeStore())
	ctx := testContext()

	advisory, err := engine.GetOutboundComplianceStatus(ctx, DocumentReferenceDeliveryNote, "DN-1")
	if err != nil {
		t.Fatalf("GetOutboundComplianceStatus: %v", err)
	}
	if advisory == nil || advisory.Level != "info" || len(advisory.Messages) != 2 {
		t.Errorf("advisory = %+v", advisory)
	}

	if advisory, err := engine.GetOutboundComplianceStatus(ctx, DocumentReferencePurchaseOrder, "PO-0001"); err != nil || advisory != nil {
		t.Errorf("inbound advisory = %+v, %v", advisory, err)
	}
}

func TestGetGatePassReceivedQty(t *testing.T) {
	store := newFakeStore()
	store.putPurchaseOrder(submittedPurchaseOrder())
	engine := newTestEngine(store)
	ctx := testContext()

	for _, qty := range []string{"12", "3.5"} {
		if _, err := engine.Save(ctx, purchaseOrderPass(qty)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	got, err := engine.GetGatePassReceivedQty(ctx, "", "PO-0001", "STEEL")
	if err != nil {
		t.Fatalf("GetGatePassReceivedQty: %v", err)
	}
	if !got.Equal(dec("15.5")) {
		t.Errorf("received = %s, want 15.5", got)
	}

	none, err := engine.GetGatePassReceivedQty(ctx, DocumentReferencePurchaseOrder, "PO-0001", "BOLT")
	if err != nil || !none.IsZero() {
		t.Errorf("bolt received = %s, %v", none, err)
	}
}
