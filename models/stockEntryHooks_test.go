package models

import (
	"context"
	"errors"
	"testing"

	"github.com/mmdatafocus/gate_entry/utils"
)

func TestOnStockEntrySubmitEnqueues(t *testing.T) {
	store := newFakeStore()
	store.putStockEntry(externalTransfer("MAT-STE-OUT"))
	receipt := externalTransfer("MAT-STE-RCV")
	receipt.StockEntryType = StockEntryTypeMaterialReceipt
	store.putStockEntry(receipt)
	internal := externalTransfer("MAT-STE-INT")
	internal.GeExternalTransfer = false
	store.putStockEntry(internal)

	engine := newTestEngine(store)
	queue := engine.Jobs.(*recordingQueue)
	ctx := testContext()

	for _, name := range []string{"MAT-STE-OUT", "MAT-STE-RCV", "MAT-STE-INT"} {
		if err := engine.OnStockEntrySubmit(ctx, name); err != nil {
			t.Fatalf("OnStockEntrySubmit(%s): %v", name, err)
		}
	}
	if len(queue.jobs) != 1 {
		t.Fatalf("%d jobs enqueued, want 1", len(queue.jobs))
	}
	job := queue.jobs[0]
	if job.Kind != GatePassJobCreateFromStockEntry || job.StockEntry != "MAT-STE-OUT" || job.EnqueuedBy != "guard@test" {
		t.Errorf("job = %+v", job)
	}
}

func TestOnStockEntrySubmitDisabled(t *testing.T) {
	t.Setenv("GATE_PASS_AUTO_CREATE", "false")
	store := newFakeStore()
	store.putStockEntry(externalTransfer("MAT-STE-OUT"))
	engine := newTestEngine(store)

	if err := engine.OnStockEntrySubmit(testContext(), "MAT-STE-OUT"); err != nil {
		t.Fatalf("OnStockEntrySubmit: %v", err)
	}
	if n := len(engine.Jobs.(*recordingQueue).jobs); n != 0 {
		t.Fatalf("%d jobs enqueued with auto create off", n)
	}
}

func TestOnStockEntrySubmitSwallowsQueueErrors(t *testing.T) {
	store := newFakeStore()
	store.putStockEntry(externalTransfer("MAT-STE-OUT"))
	engine := newTestEngine(store)
	engine.Jobs = &recordingQueue{err: errors.New("pubsub unavailable")}

	if err := engine.OnStockEntrySubmit(testContext(), "MAT-STE-OUT"); err != nil {
		t.Fatalf("queue failure leaked into submit: %v", err)
	}
}

func TestCreateGatePassFromStockEntry(t *testing.T) {
	store := newFakeStore()
	store.putStockEntry(externalTransfer("MAT-STE-OUT"))
	engine := newTestEngine(store)
	// background job context: tenant only, no user
	ctx := utils.SetBusinessIdInContext(context.Background(), testBusinessId)

	gp, err := engine.CreateGatePassFromStockEntry(ctx, "MAT-STE-OUT", "clerk@test")
	if err != nil {
		t.Fatalf("CreateGatePassFromStockEntry: %v", err)
	}
	if gp == nil {
		t.Fatalf("no pass created")
	}
	if gp.EntryType != EntryTypeGateOut || gp.Owner != "clerk@test" || gp.VehicleNumber != "KA01AB1234" {
		t.Errorf("pass = type %q owner %q vehicle %q", gp.EntryType, gp.Owner, gp.VehicleNumber)
	}
	if len(gp.Items) != 2 || !gp.Items[1].DispatchedQty.Equal(dec("4")) {
		t.Errorf("rows = %+v", gp.Items)
	}

	again, err := engine.CreateGatePassFromStockEntry(ctx, "MAT-STE-OUT", "clerk@test")
	if err != nil || again != nil {
		t.Fatalf("second run = %v, %v; want nil, nil", again, err)
	}
	if n := store.gatePassCount(); n != 1 {
		t.Fatalf("%d passes, want 1", n)
	}
}

func TestCreateGatePassFromIneligibleEntry(t *testing.T) {
	store := newFakeStore()
	draft := externalTransfer("MAT-STE-OUT")
	draft.DocStatus = DocStatusDraft
	store.putStockEntry(draft)

	gp, err := newTestEngine(store).CreateGatePassFromStockEntry(testContext(), "MAT-STE-OUT", "")
	if err != nil || gp != nil {
		t.Fatalf("got %v, %v; want nil, nil", gp, err)
	}
}

func TestReturnEntryAdoptsWaitingDraft(t *testing.T) {
	store := newFakeStore()
	store.putStockEntry(externalTransfer("MAT-STE-OUT"))
	store.putStockEntry(returnTransfer("MAT-STE-RET", "MAT-STE-OUT"))
	engine := newTestEngine(store)
	ctx := testContext()

	waiting, err := engine.Save(ctx, &GatePass{
		DocumentReference: DocumentReferenceStockEntry,
		ReferenceNumber:   "MAT-STE-OUT",
		ManualReturnFlow:  true,
		Items:             returnPassItems("MAT-STE-OUT", "0", "0"),
	})
	if err != nil {
		t.Fatalf("Save waiting draft: %v", err)
	}

	// the adopted draft has nothing counted yet, so the save is rejected and the draft stays
	_, err = engine.CreateGatePassFromStockEntry(ctx, "MAT-STE-RET", "guard@test")
	expectValidation(t, err, msgReceivedPositive)

	stored, _ := store.GetGatePass(ctx, waiting.Name)
	if stored.ReferenceNumber != "MAT-STE-OUT" || !stored.ManualReturnFlow {
		t.Errorf("failed adoption changed the draft: ref %q manual %v", stored.ReferenceNumber, stored.ManualReturnFlow)
	}
}

func TestOnStockEntryCancelCascades(t *testing.T) {
	store := newFakeStore()
	store.putStockEntry(externalTransfer("MAT-STE-OUT"))
	engine := newTestEngine(store)
	ctx := testContext()

	gp, err := engine.CreateGatePassFromStockEntry(ctx, "MAT-STE-OUT", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := engine.Submit(ctx, gp.Name); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	se, _ := store.GetStockEntry(ctx, "MAT-STE-OUT")
	if se.GatePass != gp.Name {
		t.Fatalf("stock entry gate pass = %q", se.GatePass)
	}

	if err := engine.OnStockEntryCancel(ctx, "MAT-STE-OUT"); err != nil {
		t.Fatalf("OnStockEntryCancel: %v", err)
	}
	cancelled, _ := store.GetGatePass(ctx, gp.Name)
	if cancelled.DocStatus != DocStatusCancelled {
		t.Errorf("docstatus = %v", cancelled.DocStatus)
	}
	if cancelled.ReferenceNumber != "" || cancelled.StockEntry != "" {
		t.Errorf("links kept: ref %q se %q", cancelled.ReferenceNumber, cancelled.StockEntry)
	}
	se, _ = store.GetStockEntry(ctx, "MAT-STE-OUT")
	if se.GatePass != "" {
		t.Errorf("stock entry still points at %q", se.GatePass)
	}
}

func TestOnStockEntryCancelDeletesDrafts(t *testing.T) {
	store := newFakeStore()
	store.putStockEntry(externalTransfer("MAT-STE-OUT"))
	engine := newTestEngine(store)
	ctx := testContext()

	gp, err := engine.CreateGatePassFromStockEntry(ctx, "MAT-STE-OUT", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := engine.OnStockEntryCancel(ctx, "MAT-STE-OUT"); err != nil {
		t.Fatalf("OnStockEntryCancel: %v", err)
	}
	if _, err := store.GetGatePass(ctx, gp.Name); !IsNotFound(err) {
		t.Fatalf("draft not deleted: %v", err)
	}
}

func TestOnStockEntryTrashOnlyUnlinks(t *testing.T) {
	store := newFakeStore()
	store.putStockEntry(externalTransfer("MAT-STE-OUT"))
	engine := newTestEngine(store)
	ctx := testContext()

	gp, err := engine.CreateGatePassFromStockEntry(ctx, "MAT-STE-OUT", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := engine.OnStockEntryTrash(ctx, "MAT-STE-OUT"); err != nil {
		t.Fatalf("OnStockEntryTrash: %v", err)
	}
	stored, err := store.GetGatePass(ctx, gp.Name)
	if err != nil {
		t.Fatalf("pass removed by trash: %v", err)
	}
	if stored.DocStatus != DocStatusDraft || stored.ReferenceNumber != "" || stored.StockEntry != "" {
		t.Errorf("pass = docstatus %v ref %q se %q", stored.DocStatus, stored.ReferenceNumber, stored.StockEntry)
	}
}

func TestStockEntryUnlinkUpdate(t *testing.T) {
	gp := &GatePass{
		DocumentReference:        DocumentReferencePurchaseOrder,
		ReferenceNumber:          "MAT-STE-1",
		StockEntry:               "MAT-STE-1",
		OutboundMaterialTransfer: "MAT-STE-1",
		ReturnMaterialTransfer:   "MAT-STE-2",
	}
	upd := stockEntryUnlinkUpdate(gp, "MAT-STE-1")
	if upd.ReferenceNumber != nil {
		t.Errorf("reference number on a non stock entry pass must stay")
	}
	if upd.StockEntry == nil || upd.OutboundMaterialTransfer == nil || upd.ReturnMaterialTransfer != nil {
		t.Errorf("update = %+v", upd)
	}

	if !stockEntryUnlinkUpdate(gp, "MAT-STE-9").IsEmpty() {
		t.Errorf("unrelated entry produced an update")
	}
}

func TestGetOutboundTransferReference(t *testing.T) {
	store := newFakeStore()
	ret := returnTransfer("MAT-STE-RET", "MAT-STE-B")
	store.putStockEntry(ret)
	withRef := returnTransfer("MAT-STE-RET2", "MAT-STE-B")
	withRef.DocReferences = []*StockEntryDocReference{{RefDoctype: string(DocumentReferenceStockEntry), Docname: "MAT-STE-A"}}
	store.putStockEntry(withRef)
	engine := newTestEngine(store)
	ctx := testContext()

	cases := map[string]string{
		"MAT-STE-RET":  "MAT-STE-B",
		"MAT-STE-RET2": "MAT-STE-A",
		"MAT-STE-404":  "",
		"":             "",
	}
	for name, want := range cases {
		got, err := engine.GetOutboundTransferReference(ctx, name)
		if err != nil {
			t.Fatalf("GetOutboundTransferReference(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("GetOutboundTransferReference(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestGetGatePassStatusForReturns(t *testing.T) {
	store := newFakeStore()
	store.putStockEntry(externalTransfer("MAT-STE-OUT"))
	store.putStockEntry(returnTransfer("MAT-STE-RET", "MAT-STE-OUT"))
	engine := newTestEngine(store)
	ctx := testContext()

	status, err := engine.GetGatePassStatus(ctx, "MAT-STE-RET")
	if err != nil || status.Exists {
		t.Fatalf("status before pass = %+v, %v", status, err)
	}

	gp, err := engine.Save(ctx, &GatePass{
		DocumentReference: DocumentReferenceStockEntry,
		ReferenceNumber:   "MAT-STE-RET",
		Items:             returnPassItems("MAT-STE-OUT", "1", "1"),
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	status, err = engine.GetGatePassStatus(ctx, "MAT-STE-RET")
	if err != nil {
		t.Fatalf("GetGatePassStatus: %v", err)
	}
	if !status.Exists || *status.Name != gp.Name || *status.DocStatus != DocStatusDraft {
		t.Errorf("status = %+v", status)
	}

	missing, err := engine.GetGatePassStatus(ctx, "MAT-STE-404")
	if err != nil || missing.Exists {
		t.Errorf("missing entry status = %+v, %v", missing, err)
	}
}

func TestClearReceiptReferenceUnsupportedType(t *testing.T) {
	store := newFakeStore()
	store.putPurchaseOrder(submittedPurchaseOrder())
	engine := newTestEngine(store)
	ctx := testContext()

	gp, err := engine.Save(ctx, purchaseOrderPass("1"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	err = engine.ClearReceiptReference(ctx, ReceiptType("Delivery Note"), "DN-1", gp.Name)
	expectValidation(t, err, "Unsupported receipt type: Delivery Note")

	if err := engine.ClearReceiptReference(ctx, ReceiptTypePurchaseReceipt, "MAT-PRE-404", ""); err != nil {
		t.Errorf("missing receipt should be ignored: %v", err)
	}
}
