package models

import (
	"reflect"
	"testing"
)

func TestExistingAllocationsLocksBeforeSumming(t *testing.T) {
	store := newFakeStore()
	store.putStockEntry(externalTransfer("MAT-STE-OUT"))
	engine := newTestEngine(store)
	ctx := testContext()

	out, err := engine.Save(ctx, &GatePass{DocumentReference: DocumentReferenceStockEntry, ReferenceNumber: "MAT-STE-OUT"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	store.allocationCalls = nil
	got, err := ExistingAllocations(ctx, store, "MAT-STE-OUT", EntryTypeGateOut, "")
	if err != nil {
		t.Fatalf("ExistingAllocations: %v", err)
	}
	want := []string{"lock MAT-STE-OUT", "sum dispatched_qty"}
	if !reflect.DeepEqual(store.allocationCalls, want) {
		t.Errorf("calls = %v, want %v", store.allocationCalls, want)
	}
	if !got["MAT-STE-OUT-r1"].Equal(dec("10")) {
		t.Errorf("allocated = %v", got)
	}

	// nothing left to sum once the only pass is excluded
	store.allocationCalls = nil
	if _, err := ExistingAllocations(ctx, store, "MAT-STE-OUT", EntryTypeGateOut, out.Name); err != nil {
		t.Fatalf("ExistingAllocations: %v", err)
	}
	if !reflect.DeepEqual(store.allocationCalls, []string{"lock MAT-STE-OUT"}) {
		t.Errorf("calls = %v", store.allocationCalls)
	}
}
