package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/gate_entry/utils"
	"github.com/shopspring/decimal"
)

// stockEntryContext is what a Stock Entry reference resolves to for one pass.
type stockEntryContext struct {
	isStockEntry bool
	entryType    EntryType
	stockEntry   *StockEntry
	isReturn     bool
	manualReturn bool
	// outboundReference is the transfer a Gate In pass returns goods against.
	outboundReference string
	// baseForItems supplies the rows and the allocation ceiling.
	baseForItems *StockEntry
}

// gatePassRun holds the lookups of one lifecycle operation so that each upstream
// document is loaded once and the allocation locks are taken once.
type gatePassRun struct {
	engine *GatePassEngine
	tx     DocumentStore
	gp     *GatePass

	stockEntries map[string]*StockEntry
	reference    *ReferenceSnapshot
	allocations  map[string]map[string]decimal.Decimal
}

func newGatePassRun(e *GatePassEngine, tx DocumentStore, gp *GatePass) *gatePassRun {
	return &gatePassRun{
		engine:       e,
		tx:           tx,
		gp:           gp,
		stockEntries: map[string]*StockEntry{},
		allocations:  map[string]map[string]decimal.Decimal{},
	}
}

// stockEntry returns nil, nil for a missing entry.
func (r *gatePassRun) stockEntry(ctx context.Context, name string) (*StockEntry, error) {
	if name == "" {
		return nil, nil
	}
	if se, ok := r.stockEntries[name]; ok {
		return se, nil
	}
	se, err := r.tx.GetStockEntry(ctx, name)
	if IsNotFound(err) {
		r.stockEntries[name] = nil
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.stockEntries[name] = se
	return se, nil
}

// referenceDoc loads the referenced document once per run.
func (r *gatePassRun) referenceDoc(ctx context.Context) (*ReferenceSnapshot, error) {
	gp := r.gp
	if gp.DocumentReference == "" || gp.ReferenceNumber == "" {
		return nil, nil
	}
	if r.reference != nil && r.reference.DocType == gp.DocumentReference && r.reference.Name == gp.ReferenceNumber {
		return r.reference, nil
	}
	snap, err := LoadReference(ctx, r.tx, gp.DocumentReference, gp.ReferenceNumber)
	if err != nil {
		return nil, err
	}
	r.reference = snap
	return snap, nil
}

// submittedReference is referenceDoc that also requires the document to be submitted.
func (r *gatePassRun) submittedReference(ctx context.Context) (*ReferenceSnapshot, error) {
	snap, err := r.referenceDoc(ctx)
	if err != nil || snap == nil {
		return snap, err
	}
	if snap.DocStatus != DocStatusSubmitted {
		return nil, validationErrorf(msgReferenceNotSubmitted, r.gp.ReferenceNumber)
	}
	return snap, nil
}

func (r *gatePassRun) existingAllocations(ctx context.Context, stockEntry string, entryType EntryType) (map[string]decimal.Decimal, error) {
	key := stockEntry + "|" + string(entryType)
	if m, ok := r.allocations[key]; ok {
		return m, nil
	}
	m, err := ExistingAllocations(ctx, r.tx, stockEntry, entryType, r.gp.Name)
	if err != nil {
		return nil, err
	}
	r.allocations[key] = m
	return m, nil
}

func (r *gatePassRun) stockEntryContext(ctx context.Context) (stockEntryContext, error) {
	gp := r.gp
	sc := stockEntryContext{entryType: EntryTypeGateOut}
	if strings.TrimSpace(string(gp.EntryType)) != "" {
		sc.entryType = normalizeEntryType(gp.EntryType)
	}
	if !gp.IsStockEntryReference() || gp.ReferenceNumber == "" {
		return sc, nil
	}
	se, err := r.stockEntry(ctx, gp.ReferenceNumber)
	if err != nil || se == nil {
		return sc, err
	}

	sc.isStockEntry = true
	sc.stockEntry = se
	sc.isReturn = se.IsReturn
	sc.manualReturn = gp.ManualReturnFlow && !se.IsReturn
	switch {
	case sc.isReturn:
		sc.outboundReference = se.OriginalOutboundTransfer()
	case sc.manualReturn:
		sc.outboundReference = utils.FirstNonEmpty(gp.OutboundMaterialTransfer, se.Name)
	}

	sc.baseForItems = se
	if sc.entryType == EntryTypeGateIn && sc.outboundReference != "" {
		outbound, err := r.stockEntry(ctx, sc.outboundReference)
		if err != nil {
			return sc, err
		}
		if outbound != nil {
			sc.baseForItems = outbound
		}
	}
	return sc, nil
}

// saveHooks runs the hooks shared by save and submit.
func (r *gatePassRun) saveHooks(ctx context.Context) error {
	if err := r.beforeValidate(ctx); err != nil {
		return err
	}
	if err := r.validate(ctx); err != nil {
		return err
	}
	return r.beforeSave(ctx)
}

func (r *gatePassRun) beforeValidate(ctx context.Context) error {
	if err := r.setEntryType(ctx); err != nil {
		return err
	}
	sc, err := r.stockEntryContext(ctx)
	if err != nil {
		return err
	}
	r.syncStockEntryLinks(sc)
	r.cleanupDiscrepancyFields()
	return nil
}

func (r *gatePassRun) setEntryType(ctx context.Context) error {
	gp := r.gp
	if gp.IsStockEntryReference() {
		t, err := r.deriveEntryTypeFromStockEntry(ctx)
		if err != nil {
			return err
		}
		gp.EntryType = t
		return nil
	}
	if gp.DocumentReference.IsOutboundGroup() {
		gp.EntryType = EntryTypeGateOut
	} else {
		gp.EntryType = EntryTypeGateIn
	}
	return nil
}

func (r *gatePassRun) deriveEntryTypeFromStockEntry(ctx context.Context) (EntryType, error) {
	gp := r.gp
	current := EntryTypeGateOut
	if strings.TrimSpace(string(gp.EntryType)) != "" {
		current = normalizeEntryType(gp.EntryType)
	}
	if gp.ReferenceNumber == "" {
		return current, nil
	}
	se, err := r.stockEntry(ctx, gp.ReferenceNumber)
	if err != nil || se == nil {
		return current, err
	}
	switch {
	case gp.ManualReturnFlow:
		return EntryTypeGateIn, nil
	case se.IsMaterialTransfer() && se.IsReturn:
		return EntryTypeGateIn, nil
	case se.IsMaterialTransfer():
		return EntryTypeGateOut, nil
	case se.StockEntryType == StockEntryTypeSendToSubcontractor:
		return EntryTypeGateOut, nil
	}
	return current, nil
}

func (r *gatePassRun) syncStockEntryLinks(sc stockEntryContext) {
	gp := r.gp
	if !sc.isStockEntry {
		gp.OutboundMaterialTransfer = ""
		gp.ReturnMaterialTransfer = ""
		gp.StockEntry = ""
		gp.ManualReturnFlow = false
		return
	}

	gp.StockEntry = sc.stockEntry.Name
	switch {
	case sc.isReturn:
		gp.ReturnMaterialTransfer = sc.stockEntry.Name
		gp.OutboundMaterialTransfer = sc.outboundReference
		gp.ManualReturnFlow = false
	case sc.manualReturn:
		gp.ReturnMaterialTransfer = ""
		gp.OutboundMaterialTransfer = sc.outboundReference
	default:
		gp.ReturnMaterialTransfer = ""
		gp.OutboundMaterialTransfer = ""
		gp.ManualReturnFlow = false
	}
}

func (r *gatePassRun) cleanupDiscrepancyFields() {
	if r.gp.HasDiscrepancy {
		return
	}
	r.gp.LostQuantity = decimal.Zero
	r.gp.DamagedQuantity = decimal.Zero
	r.gp.DiscrepancyNotes = ""
}

func (r *gatePassRun) validate(ctx context.Context) error {
	gp := r.gp
	sc, err := r.stockEntryContext(ctx)
	if err != nil {
		return err
	}

	var reference *ReferenceSnapshot
	var referenceItems []ReferenceItem
	switch {
	case sc.isStockEntry:
		reference, referenceItems, err = r.ensureStockEntryItems(ctx, sc)
	case gp.IsOutbound():
		reference, referenceItems, err = r.ensureOutboundItems(ctx)
	}
	if err != nil {
		return err
	}

	if err := r.validateItemQuantities(); err != nil {
		return err
	}

	if gp.DocumentReference != "" && gp.ReferenceNumber != "" {
		if reference == nil {
			if reference, err = r.submittedReference(ctx); err != nil {
				return err
			}
		}
		r.populateReferenceDefaults(reference)
		if err := r.ensureCompanyMatchesReference(reference); err != nil {
			return err
		}

		if gp.IsInbound() {
			if err := r.validateSupplier(reference); err != nil {
				return err
			}
		} else if gp.IsOutbound() {
			expected := referenceItems
			if len(expected) == 0 {
				expected = r.fetchReferenceItems(reference)
			}
			if err := r.validateOutboundQuantities(expected); err != nil {
				return err
			}
			if err := r.enforceOutboundCompliance(ctx, reference); err != nil {
				return err
			}
		}
	}

	if gp.IsStockEntryReference() && reference != nil && reference.StockEntry != nil {
		allocationDoc := reference.StockEntry
		if gp.IsGateIn() && gp.OutboundMaterialTransfer != "" && sc.baseForItems != nil {
			allocationDoc = sc.baseForItems
		}
		if err := r.validateStockEntryAllocations(ctx, allocationDoc, sc); err != nil {
			return err
		}
	}

	return r.validateDiscrepancyQuantities()
}

// validateItemQuantities enforces the direction rules on the rows.
func (r *gatePassRun) validateItemQuantities() error {
	gp := r.gp
	if len(gp.Items) == 0 {
		return validationErrorf(msgAddAtLeastOneItem)
	}
	if gp.IsOutbound() {
		for _, item := range gp.Items {
			if !item.DispatchedQty.IsPositive() {
				return validationErrorf(msgDispatchedPositive, item.ItemCode)
			}
		}
		return nil
	}

	hasPositive := false
	for _, item := range gp.Items {
		if item.ReceivedQty.IsNegative() {
			return validationErrorf(msgReceivedNegative, item.ItemCode)
		}
		if item.ReceivedQty.IsPositive() {
			hasPositive = true
		}
	}
	// A manual return may be saved before anything has been counted in.
	if !hasPositive && !gp.ManualReturnFlow {
		return validationErrorf(msgReceivedPositive)
	}
	return nil
}

func (r *gatePassRun) fetchReferenceItems(reference *ReferenceSnapshot) []ReferenceItem {
	if reference == nil {
		return nil
	}
	if reference.StockEntry != nil {
		return stockEntryItems(reference.StockEntry, !r.gp.IsInbound())
	}
	if reference.DocType.IsOutboundGroup() {
		return reference.Items
	}
	return nil
}

// ensureStockEntryItems refreshes the rows from the entry that supplies them, with the
// pending qty reduced by what other passes already claim.
func (r *gatePassRun) ensureStockEntryItems(ctx context.Context, sc stockEntryContext) (*ReferenceSnapshot, []ReferenceItem, error) {
	gp := r.gp
	if sc.stockEntry.DocStatus != DocStatusSubmitted {
		return nil, nil, validationErrorf(msgReferenceNotSubmitted, gp.ReferenceNumber)
	}

	base := sc.baseForItems
	if base == nil {
		base = sc.stockEntry
	}
	items := stockEntryItems(base, !gp.IsInbound())
	if len(items) == 0 {
		return nil, nil, validationErrorf(msgStockEntryNoItems, base.Name)
	}

	entryType := sc.entryType
	allocated, err := r.existingAllocations(ctx, base.Name, entryType)
	if err != nil {
		return nil, nil, err
	}
	for i := range items {
		if items[i].OrderItemName == "" {
			continue
		}
		items[i].PendingQty = remainingQty(items[i].OrderedQty, allocated[items[i].OrderItemName])
	}

	alignGatePassItems(gp, items, entryType == EntryTypeGateIn)
	recalculateItemAmounts(gp)

	snap := stockEntrySnapshot(sc.stockEntry, !sc.stockEntry.IsReturn)
	r.reference = snap
	return snap, items, nil
}

// ensureOutboundItems replaces the rows with the invoice or delivery note rows so the
// dispatched quantities cannot be edited at the gate.
func (r *gatePassRun) ensureOutboundItems(ctx context.Context) (*ReferenceSnapshot, []ReferenceItem, error) {
	gp := r.gp
	if !gp.DocumentReference.IsOutboundGroup() {
		return nil, nil, nil
	}
	reference, err := r.submittedReference(ctx)
	if err != nil {
		return nil, nil, err
	}
	if reference == nil {
		return nil, nil, nil
	}
	if len(reference.Items) == 0 {
		return nil, nil, validationErrorf(msgNoItemsToDispatch, gp.DocumentReference, gp.ReferenceNumber)
	}

	gp.Items = make([]*GatePassItem, 0, len(reference.Items))
	for _, item := range reference.Items {
		line := item
		line.ReceivedQty = decimal.Zero
		line.ConversionFactor = oneIfZero(line.ConversionFactor)
		gp.Items = append(gp.Items, &GatePassItem{ReferenceItem: line})
	}
	return reference, reference.Items, nil
}

func (r *gatePassRun) validateOutboundQuantities(expected []ReferenceItem) error {
	if len(expected) == 0 {
		return nil
	}
	gp := r.gp
	expectedMap := make(map[string]ReferenceItem, len(expected))
	order := make([]string, 0, len(expected))
	for _, item := range expected {
		key := item.Key()
		if _, dup := expectedMap[key]; !dup {
			order = append(order, key)
		}
		expectedMap[key] = item
	}

	seen := make(map[string]bool, len(expected))
	for _, row := range gp.Items {
		key := row.Key()
		want, ok := expectedMap[key]
		if !ok {
			return validationErrorf(msgItemNotInReference, row.ItemCode, gp.DocumentReference)
		}
		if !utils.QtyEqual(row.DispatchedQty, want.DispatchedQty) {
			return validationErrorf(msgDispatchedMustMatch, row.ItemCode, utils.FormatQty(want.DispatchedQty))
		}
		seen[key] = true
	}

	var missing []string
	for _, key := range order {
		if !seen[key] {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return validationErrorf(msgMissingReferenceRows, strings.Join(missing, ", "))
	}
	return nil
}

// populateReferenceDefaults fills empty header fields from the reference. Inbound passes
// take the supplier, outbound passes take transport and compliance details.
func (r *gatePassRun) populateReferenceDefaults(reference *ReferenceSnapshot) {
	gp := r.gp
	if reference == nil {
		return
	}
	if gp.Company == "" {
		gp.Company = reference.Company
	}
	if gp.AddressDisplay == "" {
		gp.AddressDisplay = reference.Address
	}

	if gp.IsInbound() {
		if reference.HasSupplier && gp.Supplier == "" {
			gp.Supplier = reference.Supplier
		}
		if reference.SupplierDeliveryNote != "" {
			gp.SupplierDeliveryNote = reference.SupplierDeliveryNote
		}
	} else {
		gp.Supplier = ""
		gp.SupplierDeliveryNote = ""
	}

	if gp.IsOutbound() {
		setIfEmpty(&gp.VehicleNumber, reference.Transport.VehicleNumber)
		setIfEmpty(&gp.DriverName, reference.Transport.DriverName)
		setIfEmpty(&gp.DriverContact, reference.Transport.DriverContact)
		gp.applyComplianceDetails(reference.Compliance)
	} else {
		gp.applyComplianceDetails(ComplianceDetails{})
	}
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func (gp *GatePass) applyComplianceDetails(d ComplianceDetails) {
	gp.EInvoiceStatus = d.EInvoiceStatus
	gp.EInvoiceReference = d.EInvoiceReference
	gp.EWaybillStatus = d.EWaybillStatus
	gp.EWaybillNumber = d.EWaybillNumber
}

func (gp *GatePass) complianceDetails() ComplianceDetails {
	return ComplianceDetails{
		EInvoiceStatus:    gp.EInvoiceStatus,
		EInvoiceReference: gp.EInvoiceReference,
		EWaybillStatus:    gp.EWaybillStatus,
		EWaybillNumber:    gp.EWaybillNumber,
	}
}

func (r *gatePassRun) ensureCompanyMatchesReference(reference *ReferenceSnapshot) error {
	if reference == nil || reference.Company == "" {
		return nil
	}
	if r.gp.Company == "" {
		r.gp.Company = reference.Company
		return nil
	}
	if r.gp.Company != reference.Company {
		return validationErrorf(msgCompanyMismatch, r.gp.Company, reference.Company)
	}
	return nil
}

func (r *gatePassRun) validateSupplier(reference *ReferenceSnapshot) error {
	if reference == nil || !reference.HasSupplier || reference.Supplier == "" || r.gp.Supplier == "" {
		return nil
	}
	if reference.Supplier != r.gp.Supplier {
		return validationErrorf(msgSupplierMismatch)
	}
	return nil
}

func (r *gatePassRun) enforceOutboundCompliance(ctx context.Context, reference *ReferenceSnapshot) error {
	if reference == nil {
		return nil
	}
	settings, err := r.tx.GetGstSettings(ctx)
	if err != nil {
		return err
	}
	return EnforceCompliance(r.gp.DocumentReference, reference.Total, r.gp.complianceDetails(), settings.ComplianceSettings())
}

// validateStockEntryAllocations keeps the claimed quantity per source row within the
// row's transfer qty across all non-cancelled passes.
func (r *gatePassRun) validateStockEntryAllocations(ctx context.Context, se *StockEntry, sc stockEntryContext) error {
	if se == nil || len(se.Items) == 0 {
		return nil
	}
	gp := r.gp
	entryType := sc.entryType
	target := make(map[string]decimal.Decimal, len(se.Items))
	for _, row := range se.Items {
		target[row.Name] = row.EffectiveTransferQty()
	}

	existing, err := r.existingAllocations(ctx, se.Name, entryType)
	if err != nil {
		return err
	}
	column := qtyColumnFor(entryType)

	// rows of this pass that repeat a source row share its ceiling
	claimed := make(map[string]decimal.Decimal, len(gp.Items))
	for _, item := range gp.Items {
		if item.OrderItemName == "" {
			continue
		}
		ceiling, ok := target[item.OrderItemName]
		if !ok {
			continue
		}
		current := item.DispatchedQty
		if column == QtyColumnReceived {
			current = item.ReceivedQty
		}
		if !current.IsPositive() && !(entryType == EntryTypeGateIn && gp.ManualReturnFlow) {
			return validationErrorf(msgAllocationPositive, item.ItemCode)
		}
		allocated := existing[item.OrderItemName].Add(claimed[item.OrderItemName])
		if utils.QtyGreater(allocated.Add(current), ceiling) {
			return validationErrorf(msgAllocationExceeded, item.ItemCode, utils.FormatQty(ceiling.Sub(allocated)))
		}
		claimed[item.OrderItemName] = claimed[item.OrderItemName].Add(current)
	}
	return nil
}

func (r *gatePassRun) validateDiscrepancyQuantities() error {
	gp := r.gp
	if !gp.HasDiscrepancy {
		return nil
	}
	total := gp.TotalDispatched()
	if total.IsZero() {
		total = gp.TotalReceived()
	}
	if gp.LostQuantity.IsNegative() || gp.DamagedQuantity.IsNegative() {
		return validationErrorf(msgDiscrepancyNegative)
	}
	if !total.IsZero() && gp.LostQuantity.Add(gp.DamagedQuantity).GreaterThan(total) {
		return validationErrorf(msgDiscrepancyExceeds)
	}
	return nil
}

func (r *gatePassRun) beforeSave(ctx context.Context) error {
	gp := r.gp
	if err := r.setEntryType(ctx); err != nil {
		return err
	}

	if gp.SecurityGuardName == "" {
		fullName, _ := utils.GetUserNameFromContext(ctx)
		username, _ := utils.GetUsernameFromContext(ctx)
		gp.SecurityGuardName = utils.FirstNonEmpty(fullName, username)
	}

	now := r.engine.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	clock := now.Format(time.TimeOnly)
	if gp.GatePassDate == nil {
		gp.GatePassDate = cloneTime(&today)
	}
	if gp.GatePassTime == "" {
		gp.GatePassTime = clock
	}
	if gp.GateEntryDate == nil {
		gp.GateEntryDate = cloneTime(&today)
	}
	if gp.GateEntryTime == "" {
		gp.GateEntryTime = clock
	}

	gp.DriverContact = utils.NormalizeContactNumber(gp.DriverContact, utils.DefaultPhoneRegion())
	return nil
}

// beforeSubmit requires a positive receipt on every non-outbound pass, manual returns included.
func (r *gatePassRun) beforeSubmit() error {
	if r.gp.IsOutbound() {
		return nil
	}
	for _, item := range r.gp.Items {
		if item.ReceivedQty.IsPositive() {
			return nil
		}
	}
	return validationErrorf(msgReceivedBeforeSubmit)
}

func (r *gatePassRun) onSubmit(ctx context.Context) error {
	gp := r.gp
	if gp.AmendedFrom != "" {
		if err := r.checkReceiptsInAmendedDocument(ctx); err != nil {
			return err
		}
	}
	return r.updateStockEntryReference(ctx)
}

func (r *gatePassRun) checkReceiptsInAmendedDocument(ctx context.Context) error {
	original, err := r.tx.GetGatePass(ctx, r.gp.AmendedFrom)
	if err != nil {
		return err
	}
	blocking, err := r.linkedReceipts(ctx, original, DocStatusSubmitted)
	if err != nil {
		return err
	}
	if len(blocking) > 0 {
		return &LinkedReceiptsError{Action: LinkedReceiptActionAmend, Receipts: blocking}
	}
	return nil
}

// linkedReceipts returns the receipts on gp whose docstatus is one of statuses.
func (r *gatePassRun) linkedReceipts(ctx context.Context, gp *GatePass, statuses ...DocStatus) ([]ReceiptHeader, error) {
	var out []ReceiptHeader
	links := []struct {
		docType ReceiptType
		name    string
	}{
		{ReceiptTypePurchaseReceipt, gp.PurchaseReceipt},
		{ReceiptTypeSubcontractingReceipt, gp.SubcontractingReceipt},
	}
	for _, link := range links {
		if link.name == "" {
			continue
		}
		receipt, err := r.tx.GetReceipt(ctx, link.docType, link.name)
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, s := range statuses {
			if receipt.DocStatus == s {
				out = append(out, *receipt)
				break
			}
		}
	}
	return out, nil
}

func (r *gatePassRun) updateStockEntryReference(ctx context.Context) error {
	gp := r.gp
	if !gp.IsStockEntryReference() || gp.ReferenceNumber == "" || gp.DocStatus != DocStatusSubmitted {
		return nil
	}
	se, err := r.stockEntry(ctx, gp.ReferenceNumber)
	if err != nil || se == nil {
		return err
	}
	return r.tx.AdminUpdateStockEntry(ctx, se.Name, StockEntryFieldUpdate{GatePass: ptr(gp.Name)})
}

func (r *gatePassRun) beforeCancel(ctx context.Context) error {
	r.clearStockEntryReference(ctx)

	blocking, err := r.linkedReceipts(ctx, r.gp, DocStatusSubmitted, DocStatusDraft)
	if err != nil {
		return err
	}
	if len(blocking) > 0 {
		return &LinkedReceiptsError{Action: LinkedReceiptActionCancel, Receipts: blocking}
	}
	return nil
}

// clearStockEntryReference drops the entry's back-link to this pass. Failures are logged
// so that the pass can still be cancelled.
func (r *gatePassRun) clearStockEntryReference(ctx context.Context) {
	gp := r.gp
	if !gp.IsStockEntryReference() || gp.ReferenceNumber == "" {
		return
	}
	se, err := r.stockEntry(ctx, gp.ReferenceNumber)
	if err != nil {
		r.engine.logBestEffort("clearStockEntryReference", gp.ReferenceNumber, err)
		return
	}
	if se == nil || se.GatePass != gp.Name {
		return
	}
	if err := r.tx.AdminUpdateStockEntry(ctx, se.Name, StockEntryFieldUpdate{GatePass: ptr("")}); err != nil {
		r.engine.logBestEffort("clearStockEntryReference", gp.ReferenceNumber, fmt.Errorf("clear gate pass on stock entry: %w", err))
		return
	}
	se.GatePass = ""
}

// onCancel releases the outbound transfer held by a manual return that never got its
// return entry, so that the transfer can be returned again.
func (r *gatePassRun) onCancel(ctx context.Context) error {
	gp := r.gp
	if !gp.ManualReturnFlow || !gp.IsGateIn() || gp.ReturnMaterialTransfer != "" || !gp.IsStockEntryReference() {
		return nil
	}
	upd := GatePassFieldUpdate{
		OutboundMaterialTransfer: ptr(""),
		ReferenceNumber:          ptr(""),
	}
	if err := r.tx.AdminUpdateGatePass(ctx, gp.Name, upd); err != nil {
		return err
	}
	upd.ApplyTo(gp)
	return nil
}
