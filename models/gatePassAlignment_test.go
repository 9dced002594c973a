package models

import "testing"

func sourceRows() []ReferenceItem {
	return []ReferenceItem{
		{ItemCode: "DIE", OrderItemName: "r1", OrderedQty: dec("10"), DispatchedQty: dec("10"), Rate: dec("5")},
		{ItemCode: "JIG", OrderItemName: "r2", OrderedQty: dec("4"), DispatchedQty: dec("4"), Rate: dec("8")},
	}
}

func TestAlignPopulatesEmptyTable(t *testing.T) {
	gp := &GatePass{}
	alignGatePassItems(gp, sourceRows(), true)
	if len(gp.Items) != 2 || gp.Items[0].ItemCode != "DIE" || gp.Items[1].OrderItemName != "r2" {
		t.Fatalf("items = %+v", gp.Items)
	}
}

func TestAlignPreservesReceived(t *testing.T) {
	gp := &GatePass{}
	alignGatePassItems(gp, sourceRows(), true)
	gp.Items[0].ReceivedQty = dec("6")
	gp.Items[0].Rate = dec("99")

	alignGatePassItems(gp, sourceRows(), true)
	if !gp.Items[0].ReceivedQty.Equal(dec("6")) {
		t.Errorf("received = %s, want 6", gp.Items[0].ReceivedQty)
	}
	if !gp.Items[0].Rate.Equal(dec("5")) {
		t.Errorf("rate not refreshed from source: %s", gp.Items[0].Rate)
	}

	// running it again changes nothing
	before := gp.Clone()
	alignGatePassItems(gp, sourceRows(), true)
	for i := range gp.Items {
		if gp.Items[i].ReferenceItem.Key() != before.Items[i].Key() || !gp.Items[i].ReceivedQty.Equal(before.Items[i].ReceivedQty) {
			t.Errorf("row %d changed on second pass", i)
		}
	}
}

func TestAlignWithoutPreserveTakesSource(t *testing.T) {
	gp := &GatePass{}
	alignGatePassItems(gp, sourceRows(), false)
	gp.Items[1].DispatchedQty = dec("1")
	gp.Items[1].ReceivedQty = dec("2")

	alignGatePassItems(gp, sourceRows(), false)
	if !gp.Items[1].DispatchedQty.Equal(dec("4")) || !gp.Items[1].ReceivedQty.IsZero() {
		t.Errorf("row = %+v", gp.Items[1].ReferenceItem)
	}
}

func TestAlignRebuildsOnKeyChange(t *testing.T) {
	gp := &GatePass{Items: []*GatePassItem{
		{ReferenceItem: ReferenceItem{ItemCode: "OLD", OrderItemName: "x9", ReceivedQty: dec("3")}},
	}}
	alignGatePassItems(gp, sourceRows(), true)
	if len(gp.Items) != 2 || gp.Items[0].OrderItemName != "r1" {
		t.Fatalf("items = %+v", gp.Items)
	}
	if !gp.Items[0].ReceivedQty.IsZero() {
		t.Errorf("rebuilt row kept received %s", gp.Items[0].ReceivedQty)
	}
}

func TestAlignEmptySourceClearsRows(t *testing.T) {
	gp := &GatePass{Items: []*GatePassItem{{ReferenceItem: ReferenceItem{ItemCode: "DIE"}}}}
	alignGatePassItems(gp, nil, true)
	if gp.Items != nil {
		t.Errorf("items = %+v", gp.Items)
	}
}

func TestReferenceItemKeyFallback(t *testing.T) {
	row := ReferenceItem{ItemCode: "BOLT", Warehouse: "Stores"}
	if got := row.Key(); got != "BOLT::Stores" {
		t.Errorf("key = %q", got)
	}
	row.OrderItemName = "po-row-2"
	if got := row.Key(); got != "po-row-2" {
		t.Errorf("key = %q", got)
	}
}

func TestRecalculateItemAmounts(t *testing.T) {
	gp := &GatePass{
		DocumentReference: DocumentReferencePurchaseOrder,
		Items: []*GatePassItem{
			{ReferenceItem: ReferenceItem{ItemCode: "STEEL", Rate: dec("2.5"), ReceivedQty: dec("4"), DispatchedQty: dec("100")}},
		},
	}
	recalculateItemAmounts(gp)
	if !gp.Items[0].Amount.Equal(dec("10")) {
		t.Errorf("inbound amount = %s", gp.Items[0].Amount)
	}
	gp.DocumentReference = DocumentReferenceSalesInvoice
	recalculateItemAmounts(gp)
	if !gp.Items[0].Amount.Equal(dec("250")) {
		t.Errorf("outbound amount = %s", gp.Items[0].Amount)
	}
}

func TestAlignRebuildsRepeatedKeys(t *testing.T) {
	gp := &GatePass{}
	alignGatePassItems(gp, sourceRows(), true)
	gp.Items = append(gp.Items, &GatePassItem{ReferenceItem: gp.Items[0].ReferenceItem})
	gp.Items[2].ReceivedQty = dec("6")

	alignGatePassItems(gp, sourceRows(), true)
	if len(gp.Items) != 2 {
		t.Fatalf("rows = %d, want one per source row", len(gp.Items))
	}
	if !gp.Items[0].ReceivedQty.IsZero() {
		t.Errorf("rebuilt row kept received %s", gp.Items[0].ReceivedQty)
	}
}
