package models

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// eligibleForGatePass: submitted Send to Subcontractor entries and submitted external
// Material Transfers get a pass of their own.
func eligibleForGatePass(se *StockEntry) bool {
	if se.DocStatus != DocStatusSubmitted {
		return false
	}
	switch se.StockEntryType {
	case StockEntryTypeSendToSubcontractor:
		return true
	case StockEntryTypeMaterialTransfer:
		return se.GeExternalTransfer
	}
	return false
}

// OnStockEntrySubmit queues creation of the entry's gate pass. Queue failures are logged
// and never fail the submission.
func (e *GatePassEngine) OnStockEntrySubmit(ctx context.Context, stockEntryName string) error {
	se, err := e.Store.GetStockEntry(ctx, stockEntryName)
	if err != nil {
		return err
	}
	if !eligibleForGatePass(se) || !config.GateAutoCreateEnabled() {
		return nil
	}
	if e.Jobs == nil {
		e.logger().WithFields(logrus.Fields{
			"field":       "OnStockEntrySubmit",
			"stock_entry": se.Name,
		}).Warn("no job queue configured; gate pass not created")
		return nil
	}

	enqueuedBy, _ := utils.GetUsernameFromContext(ctx)
	job := GatePassJobRequest{
		Kind:       GatePassJobCreateFromStockEntry,
		StockEntry: se.Name,
		EnqueuedBy: enqueuedBy,
	}
	if err := e.Jobs.Enqueue(ctx, job); err != nil {
		config.LogError(e.logger(), "GatePassEngine", "OnStockEntrySubmit", "enqueue gate pass job", job, err)
	}
	return nil
}

// CreateGatePassFromStockEntry creates, or for returns adopts, the pass of an eligible
// entry. It is idempotent: an entry that already has a pass is left alone. Callers that
// need it serialized per entry hold the advisory lock around it.
func (e *GatePassEngine) CreateGatePassFromStockEntry(ctx context.Context, stockEntryName string, enqueuedBy string) (*GatePass, error) {
	ctx, span := e.startSpan(ctx, "GatePassEngine.CreateGatePassFromStockEntry", attribute.String("stock_entry", stockEntryName))
	defer span.End()

	ctx = utils.SetIgnorePermissionsInContext(ctx, true)
	if enqueuedBy != "" {
		if _, ok := utils.GetUsernameFromContext(ctx); !ok {
			ctx = utils.SetUsernameInContext(ctx, enqueuedBy)
		}
	}

	se, err := e.Store.GetStockEntry(ctx, stockEntryName)
	if err != nil {
		return nil, err
	}
	if !eligibleForGatePass(se) {
		return nil, nil
	}

	if se.IsReturn {
		draft := DocStatusDraft
		waiting, err := e.Store.FindGatePasses(ctx, GatePassFilter{
			DocumentReference:        DocumentReferenceStockEntry,
			EntryType:                EntryTypeGateIn,
			DocStatus:                &draft,
			OutboundMaterialTransfer: se.ReturnAgainst,
			WithItems:                true,
			Limit:                    1,
		})
		if err != nil {
			return nil, err
		}
		if len(waiting) > 0 {
			gp := waiting[0]
			gp.ReferenceNumber = se.Name
			gp.ManualReturnFlow = false
			gp.ReturnMaterialTransfer = se.Name
			gp.StockEntry = se.Name
			gp.DocumentReference = DocumentReferenceStockEntry
			gp.EntryType = EntryTypeGateIn
			populateGatePassItems(gp, stockEntryItems(se, false))
			return e.Save(ctx, gp)
		}
	}

	existing, err := e.Store.FindGatePasses(ctx, GatePassFilter{
		DocumentReference: DocumentReferenceStockEntry,
		ReferenceNumber:   se.Name,
		Limit:             1,
	})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, nil
	}

	gp := &GatePass{
		DocumentReference: DocumentReferenceStockEntry,
		ReferenceNumber:   se.Name,
		Company:           se.Company,
		VehicleNumber:     se.VehicleNo,
		EntryType:         EntryTypeGateOut,
		StockEntry:        se.Name,
	}
	if se.IsReturn {
		gp.EntryType = EntryTypeGateIn
		gp.ReturnMaterialTransfer = se.Name
		gp.OutboundMaterialTransfer = se.ReturnAgainst
	}
	populateGatePassItems(gp, stockEntryItems(se, !se.IsReturn))
	return e.Save(ctx, gp)
}

// OnStockEntryCancel unlinks every pass from the cancelled entry, then cancels the submitted
// passes raised for it and deletes their drafts. Each step is best-effort and runs in its
// own transaction, so a pass that fails to cancel leaves the others cancelled.
func (e *GatePassEngine) OnStockEntryCancel(ctx context.Context, stockEntryName string) error {
	ctx = utils.SetIgnorePermissionsInContext(ctx, true)

	// Collected before the links are cleared, which would hide them.
	raised, err := e.Store.FindGatePasses(ctx, GatePassFilter{
		DocumentReference: DocumentReferenceStockEntry,
		ReferenceNumber:   stockEntryName,
	})
	if err != nil {
		e.logBestEffort("OnStockEntryCancel", stockEntryName, err)
	}

	e.unlinkStockEntry(ctx, stockEntryName)

	for _, gp := range raised {
		switch gp.DocStatus {
		case DocStatusSubmitted:
			if _, err := e.Cancel(ctx, gp.Name); err != nil {
				e.logBestEffort("OnStockEntryCancel", gp.Name, fmt.Errorf("cancel gate pass: %w", err))
			}
		case DocStatusDraft:
			if err := e.Delete(ctx, gp.Name); err != nil {
				e.logBestEffort("OnStockEntryCancel", gp.Name, fmt.Errorf("delete gate pass: %w", err))
			}
		}
	}
	return nil
}

// OnStockEntryTrash unlinks every pass from a deleted entry.
func (e *GatePassEngine) OnStockEntryTrash(ctx context.Context, stockEntryName string) error {
	ctx = utils.SetIgnorePermissionsInContext(ctx, true)
	e.unlinkStockEntry(ctx, stockEntryName)
	return nil
}

func (e *GatePassEngine) unlinkStockEntry(ctx context.Context, stockEntryName string) {
	se, err := e.Store.GetStockEntry(ctx, stockEntryName)
	switch {
	case IsNotFound(err):
	case err != nil:
		e.logBestEffort("unlinkStockEntry", stockEntryName, err)
	case se.GatePass != "":
		if err := e.Store.AdminUpdateStockEntry(ctx, se.Name, StockEntryFieldUpdate{GatePass: ptr("")}); err != nil {
			e.logBestEffort("unlinkStockEntry", stockEntryName, fmt.Errorf("clear stock entry gate pass: %w", err))
		}
	}

	linked, err := e.Store.FindGatePasses(ctx, GatePassFilter{LinkedTo: stockEntryName, NotCancelled: true})
	if err != nil {
		e.logBestEffort("unlinkStockEntry", stockEntryName, err)
		return
	}
	cleared := 0
	for _, gp := range linked {
		upd := stockEntryUnlinkUpdate(gp, stockEntryName)
		if upd.IsEmpty() {
			continue
		}
		if err := e.Store.AdminUpdateGatePass(ctx, gp.Name, upd); err != nil {
			e.logBestEffort("unlinkStockEntry", gp.Name, err)
			continue
		}
		cleared++
	}
	if cleared > 0 {
		e.logger().WithFields(logrus.Fields{
			"field":       "unlinkStockEntry",
			"stock_entry": stockEntryName,
			"gate_passes": cleared,
		}).Info("cleared stock entry references")
	}
}

// stockEntryUnlinkUpdate blanks each field of gp that points at stockEntry. The reference
// number is only a stock entry link on Stock Entry passes.
func stockEntryUnlinkUpdate(gp *GatePass, stockEntry string) GatePassFieldUpdate {
	var upd GatePassFieldUpdate
	if gp.ReferenceNumber == stockEntry && gp.IsStockEntryReference() {
		upd.ReferenceNumber = ptr("")
	}
	if gp.ReturnMaterialTransfer == stockEntry {
		upd.ReturnMaterialTransfer = ptr("")
	}
	if gp.OutboundMaterialTransfer == stockEntry {
		upd.OutboundMaterialTransfer = ptr("")
	}
	if gp.StockEntry == stockEntry {
		upd.StockEntry = ptr("")
	}
	return upd
}

// ClearReceiptReference runs when a receipt is cancelled or deleted. gatePass may be empty,
// in which case the receipt itself is consulted.
func (e *GatePassEngine) ClearReceiptReference(ctx context.Context, receiptType ReceiptType, receiptName string, gatePass string) error {
	if gatePass == "" {
		receipt, err := e.Store.GetReceipt(ctx, receiptType, receiptName)
		if IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		gatePass = receipt.GatePass
	}
	if gatePass == "" {
		return nil
	}

	if _, err := e.Store.GetGatePass(ctx, gatePass); err != nil {
		if !IsNotFound(err) {
			e.logBestEffort("ClearReceiptReference", gatePass, err)
		}
		return nil
	}

	var upd GatePassFieldUpdate
	switch receiptType {
	case ReceiptTypePurchaseReceipt:
		upd.PurchaseReceipt = ptr("")
	case ReceiptTypeSubcontractingReceipt:
		upd.SubcontractingReceipt = ptr("")
	default:
		return validationErrorf("Unsupported receipt type: %s", receiptType)
	}
	if err := e.Store.AdminUpdateGatePass(ctx, gatePass, upd); err != nil {
		e.logBestEffort("ClearReceiptReference", map[string]string{"gate_pass": gatePass, "receipt": receiptName}, err)
	}
	return nil
}

type GatePassStatus struct {
	Exists    bool       `json:"exists"`
	Name      *string    `json:"name"`
	DocStatus *DocStatus `json:"docstatus"`
}

// GetGatePassStatus reports the pass linked to a stock entry. Returns are also found
// through the pass's return transfer.
func (e *GatePassEngine) GetGatePassStatus(ctx context.Context, stockEntryName string) (*GatePassStatus, error) {
	none := &GatePassStatus{}
	if stockEntryName == "" {
		return none, nil
	}
	se, err := e.Store.GetStockEntry(ctx, stockEntryName)
	if IsNotFound(err) {
		return none, nil
	}
	if err != nil {
		return nil, err
	}

	if se.GatePass != "" {
		status := &GatePassStatus{Exists: true, Name: ptr(se.GatePass)}
		gp, err := e.Store.GetGatePass(ctx, se.GatePass)
		switch {
		case err == nil:
			status.DocStatus = ptr(gp.DocStatus)
		case !IsNotFound(err):
			return nil, err
		}
		return status, nil
	}
	if !se.IsReturn {
		return none, nil
	}

	found, err := e.Store.FindGatePasses(ctx, GatePassFilter{
		DocumentReference:      DocumentReferenceStockEntry,
		ReturnMaterialTransfer: se.Name,
		Limit:                  1,
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return none, nil
	}
	return &GatePassStatus{Exists: true, Name: ptr(found[0].Name), DocStatus: ptr(found[0].DocStatus)}, nil
}

// GetOutboundTransferReference returns the transfer a return entry goes back against, or ""
// when there is none. Explicit doc references win over return_against.
func (e *GatePassEngine) GetOutboundTransferReference(ctx context.Context, stockEntryName string) (string, error) {
	if stockEntryName == "" {
		return "", nil
	}
	se, err := e.Store.GetStockEntry(ctx, stockEntryName)
	if IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	for _, ref := range se.DocReferences {
		if ref.RefDoctype == string(DocumentReferenceStockEntry) && ref.Docname != "" {
			return ref.Docname, nil
		}
	}
	return se.OriginalOutboundTransfer(), nil
}
