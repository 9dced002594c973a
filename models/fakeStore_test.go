package models

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mmdatafocus/gate_entry/utils"
	"github.com/shopspring/decimal"
)

const testBusinessId = "biz-1"

func testContext() context.Context {
	ctx := utils.SetBusinessIdInContext(context.Background(), testBusinessId)
	ctx = utils.SetUsernameInContext(ctx, "guard@test")
	return utils.SetUserNameInContext(ctx, "Gate Guard")
}

// fakeState is everything the fake persists. It is copied wholesale for rollback.
type fakeState struct {
	gatePasses     map[string]*GatePass
	purchaseOrders map[string]*PurchaseOrder
	scOrders       map[string]*SubcontractingOrder
	salesInvoices  map[string]*SalesInvoice
	deliveryNotes  map[string]*DeliveryNote
	stockEntries   map[string]*StockEntry
	purchaseRcpts  map[string]*PurchaseReceipt
	scReceipts     map[string]*SubcontractingReceipt
	series         map[string]int
	gst            *GstSettings
	nextGatePassId int
	nextStockEntry int
	nextReceiptId  int
}

func newFakeState() fakeState {
	return fakeState{
		gatePasses:     map[string]*GatePass{},
		purchaseOrders: map[string]*PurchaseOrder{},
		scOrders:       map[string]*SubcontractingOrder{},
		salesInvoices:  map[string]*SalesInvoice{},
		deliveryNotes:  map[string]*DeliveryNote{},
		stockEntries:   map[string]*StockEntry{},
		purchaseRcpts:  map[string]*PurchaseReceipt{},
		scReceipts:     map[string]*SubcontractingReceipt{},
		series:         map[string]int{},
	}
}

// snapshot copies the mutable parts; upstream orders are never written by the engine.
func (s fakeState) snapshot() fakeState {
	c := s
	c.gatePasses = make(map[string]*GatePass, len(s.gatePasses))
	for k, v := range s.gatePasses {
		c.gatePasses[k] = v.Clone()
	}
	c.stockEntries = make(map[string]*StockEntry, len(s.stockEntries))
	for k, v := range s.stockEntries {
		c.stockEntries[k] = cloneStockEntry(v)
	}
	c.purchaseRcpts = make(map[string]*PurchaseReceipt, len(s.purchaseRcpts))
	for k, v := range s.purchaseRcpts {
		c.purchaseRcpts[k] = v
	}
	c.scReceipts = make(map[string]*SubcontractingReceipt, len(s.scReceipts))
	for k, v := range s.scReceipts {
		c.scReceipts[k] = v
	}
	c.series = make(map[string]int, len(s.series))
	for k, v := range s.series {
		c.series[k] = v
	}
	return c
}

func cloneStockEntry(se *StockEntry) *StockEntry {
	c := *se
	c.PostingDate = cloneTime(se.PostingDate)
	c.Items = make([]*StockEntryDetail, 0, len(se.Items))
	for _, item := range se.Items {
		row := *item
		c.Items = append(c.Items, &row)
	}
	c.DocReferences = make([]*StockEntryDocReference, 0, len(se.DocReferences))
	for _, ref := range se.DocReferences {
		row := *ref
		c.DocReferences = append(c.DocReferences, &row)
	}
	return &c
}

// fakeStore is an in-memory DocumentStore. Transactions are serialized, which stands in
// for the row locks of the MySQL store, and roll back by restoring a snapshot.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   fakeState

	// failNextName makes NextName fail once, to exercise rollback.
	failNextName error

	// allocationCalls records the allocation ledger calls in order.
	allocationCalls []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{st: newFakeState()}
}

type fakeTx struct {
	*fakeStore
}

func (tx fakeTx) Transaction(ctx context.Context, fn func(ctx context.Context, tx DocumentStore) error) error {
	return fn(ctx, tx)
}

func (s *fakeStore) Transaction(ctx context.Context, fn func(ctx context.Context, tx DocumentStore) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	saved := s.st.snapshot()
	s.mu.Unlock()

	if err := fn(ctx, fakeTx{s}); err != nil {
		s.mu.Lock()
		s.st = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *fakeStore) GetGatePass(ctx context.Context, name string) (*GatePass, error) {
	if _, err := businessIdFrom(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	gp, ok := s.st.gatePasses[name]
	if !ok {
		return nil, &NotFoundError{DocType: DocTypeGatePass, Name: name}
	}
	return gp.Clone(), nil
}

func (s *fakeStore) FindGatePasses(ctx context.Context, f GatePassFilter) ([]*GatePass, error) {
	if _, err := businessIdFrom(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*GatePass
	for _, gp := range s.st.gatePasses {
		if !matchesFilter(gp, f) {
			continue
		}
		c := gp.Clone()
		if !f.WithItems {
			c.Items = nil
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.OrderByLatest {
			return out[i].Name > out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
		if len(out) > f.Limit {
			out = out[:f.Limit]
		}
	}
	return out, nil
}

func matchesFilter(gp *GatePass, f GatePassFilter) bool {
	eq := func(want, got string) bool { return want == "" || want == got }
	switch {
	case !eq(string(f.DocumentReference), string(gp.DocumentReference)),
		!eq(f.ReferenceNumber, gp.ReferenceNumber),
		!eq(f.OutboundMaterialTransfer, gp.OutboundMaterialTransfer),
		!eq(f.ReturnMaterialTransfer, gp.ReturnMaterialTransfer),
		!eq(string(f.EntryType), string(gp.EntryType)),
		!eq(f.Supplier, gp.Supplier),
		!eq(f.Company, gp.Company):
		return false
	case f.DocStatus != nil && gp.DocStatus != *f.DocStatus:
		return false
	case f.NotCancelled && gp.DocStatus == DocStatusCancelled:
		return false
	}
	if f.LinkedTo != "" {
		l := f.LinkedTo
		if gp.ReferenceNumber != l && gp.StockEntry != l && gp.OutboundMaterialTransfer != l && gp.ReturnMaterialTransfer != l {
			return false
		}
	}
	return true
}

func (s *fakeStore) InsertGatePass(ctx context.Context, gp *GatePass) error {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.st.gatePasses[gp.Name]; dup {
		return &ValidationError{Message: "Duplicate name"}
	}
	s.st.nextGatePassId++
	gp.ID = s.st.nextGatePassId
	gp.BusinessId = businessId
	gp.CreatedAt = time.Now()
	gp.reindex()
	s.st.gatePasses[gp.Name] = gp.Clone()
	return nil
}

func (s *fakeStore) UpdateGatePass(ctx context.Context, gp *GatePass) error {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.st.gatePasses[gp.Name]
	if !ok || stored.ID != gp.ID {
		return &NotFoundError{DocType: DocTypeGatePass, Name: gp.Name}
	}
	gp.BusinessId = businessId
	gp.reindex()
	s.st.gatePasses[gp.Name] = gp.Clone()
	return nil
}

func (s *fakeStore) DeleteGatePass(ctx context.Context, name string) error {
	if _, err := businessIdFrom(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.gatePasses[name]; !ok {
		return &NotFoundError{DocType: DocTypeGatePass, Name: name}
	}
	delete(s.st.gatePasses, name)
	return nil
}

func (s *fakeStore) AdminUpdateGatePass(ctx context.Context, name string, upd GatePassFieldUpdate) error {
	if _, err := businessIdFrom(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if gp, ok := s.st.gatePasses[name]; ok {
		upd.ApplyTo(gp)
	}
	return nil
}

func (s *fakeStore) LockAllocatingGatePasses(ctx context.Context, stockEntry string, excludeName string) ([]int, error) {
	if _, err := businessIdFrom(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocationCalls = append(s.allocationCalls, "lock "+stockEntry)
	var ids []int
	for _, gp := range s.st.gatePasses {
		if gp.DocumentReference != DocumentReferenceStockEntry || gp.DocStatus == DocStatusCancelled {
			continue
		}
		if gp.Name == excludeName {
			continue
		}
		if gp.ReferenceNumber == stockEntry || gp.OutboundMaterialTransfer == stockEntry {
			ids = append(ids, gp.ID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *fakeStore) SumGatePassItemQty(ctx context.Context, gatePassIds []int, column QtyColumn) (map[string]decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocationCalls = append(s.allocationCalls, "sum "+string(column))
	wanted := make(map[int]bool, len(gatePassIds))
	for _, id := range gatePassIds {
		wanted[id] = true
	}
	totals := map[string]decimal.Decimal{}
	for _, gp := range s.st.gatePasses {
		if !wanted[gp.ID] {
			continue
		}
		for _, item := range gp.Items {
			if item.OrderItemName == "" {
				continue
			}
			qty := item.DispatchedQty
			if column == QtyColumnReceived {
				qty = item.ReceivedQty
			}
			totals[item.OrderItemName] = totals[item.OrderItemName].Add(qty)
		}
	}
	return totals, nil
}

func (s *fakeStore) SumReceivedQty(ctx context.Context, ref DocumentReference, referenceNumber string, itemCode string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, gp := range s.st.gatePasses {
		if gp.DocumentReference != ref || gp.ReferenceNumber != referenceNumber || gp.DocStatus == DocStatusCancelled {
			continue
		}
		for _, item := range gp.Items {
			if item.ItemCode == itemCode {
				total = total.Add(item.ReceivedQty)
			}
		}
	}
	return total, nil
}

func lookup[T any](s *fakeStore, pick func(st *fakeState) map[string]*T, docType string, name string) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := pick(&s.st)[name]
	if !ok {
		return nil, &NotFoundError{DocType: docType, Name: name}
	}
	return doc, nil
}

func (s *fakeStore) GetPurchaseOrder(ctx context.Context, name string) (*PurchaseOrder, error) {
	return lookup(s, func(st *fakeState) map[string]*PurchaseOrder { return st.purchaseOrders },
		string(DocumentReferencePurchaseOrder), name)
}

func (s *fakeStore) GetSubcontractingOrder(ctx context.Context, name string) (*SubcontractingOrder, error) {
	return lookup(s, func(st *fakeState) map[string]*SubcontractingOrder { return st.scOrders },
		string(DocumentReferenceSubcontractingOrder), name)
}

func (s *fakeStore) GetSalesInvoice(ctx context.Context, name string) (*SalesInvoice, error) {
	return lookup(s, func(st *fakeState) map[string]*SalesInvoice { return st.salesInvoices },
		string(DocumentReferenceSalesInvoice), name)
}

func (s *fakeStore) GetDeliveryNote(ctx context.Context, name string) (*DeliveryNote, error) {
	return lookup(s, func(st *fakeState) map[string]*DeliveryNote { return st.deliveryNotes },
		string(DocumentReferenceDeliveryNote), name)
}

func (s *fakeStore) GetStockEntry(ctx context.Context, name string) (*StockEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	se, ok := s.st.stockEntries[name]
	if !ok {
		return nil, &NotFoundError{DocType: string(DocumentReferenceStockEntry), Name: name}
	}
	return cloneStockEntry(se), nil
}

func (s *fakeStore) InsertStockEntry(ctx context.Context, se *StockEntry) error {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.nextStockEntry++
	se.ID = 1000 + s.st.nextStockEntry
	se.BusinessId = businessId
	for i, item := range se.Items {
		item.Idx = i + 1
		if item.Name == "" {
			item.Name = rowName()
		}
	}
	s.st.stockEntries[se.Name] = cloneStockEntry(se)
	return nil
}

func (s *fakeStore) AdminUpdateStockEntry(ctx context.Context, name string, upd StockEntryFieldUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if se, ok := s.st.stockEntries[name]; ok && upd.GatePass != nil {
		se.GatePass = *upd.GatePass
	}
	return nil
}

func (s *fakeStore) GetReceipt(ctx context.Context, docType ReceiptType, name string) (*ReceiptHeader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch docType {
	case ReceiptTypePurchaseReceipt:
		if pr, ok := s.st.purchaseRcpts[name]; ok {
			return &ReceiptHeader{DocType: docType, Name: pr.Name, DocStatus: pr.DocStatus, GatePass: pr.GatePass}, nil
		}
	case ReceiptTypeSubcontractingReceipt:
		if scr, ok := s.st.scReceipts[name]; ok {
			return &ReceiptHeader{DocType: docType, Name: scr.Name, DocStatus: scr.DocStatus, GatePass: scr.GatePass}, nil
		}
	}
	return nil, &NotFoundError{DocType: string(docType), Name: name}
}

func (s *fakeStore) InsertPurchaseReceipt(ctx context.Context, pr *PurchaseReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.nextReceiptId++
	pr.ID = s.st.nextReceiptId
	pr.BusinessId = testBusinessId
	s.st.purchaseRcpts[pr.Name] = pr
	return nil
}

func (s *fakeStore) InsertSubcontractingReceipt(ctx context.Context, scr *SubcontractingReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.nextReceiptId++
	scr.ID = s.st.nextReceiptId
	scr.BusinessId = testBusinessId
	s.st.scReceipts[scr.Name] = scr
	return nil
}

func (s *fakeStore) GetGstSettings(ctx context.Context) (*GstSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.gst, nil
}

func (s *fakeStore) NextName(ctx context.Context, series string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNextName; err != nil {
		s.failNextName = nil
		return "", err
	}
	s.st.series[series]++
	return formatSeriesName(series, s.st.series[series]), nil
}

// fixtures

func (s *fakeStore) putPurchaseOrder(po *PurchaseOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.purchaseOrders[po.Name] = po
}

func (s *fakeStore) putSubcontractingOrder(sco *SubcontractingOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.scOrders[sco.Name] = sco
}

func (s *fakeStore) putSalesInvoice(si *SalesInvoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.salesInvoices[si.Name] = si
}

func (s *fakeStore) putDeliveryNote(dn *DeliveryNote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.deliveryNotes[dn.Name] = dn
}

func (s *fakeStore) putStockEntry(se *StockEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.stockEntries[se.Name] = cloneStockEntry(se)
}

func (s *fakeStore) setGstSettings(gst *GstSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.gst = gst
}

func (s *fakeStore) setReceiptStatus(docType ReceiptType, name string, status DocStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch docType {
	case ReceiptTypePurchaseReceipt:
		s.st.purchaseRcpts[name].DocStatus = status
	case ReceiptTypeSubcontractingReceipt:
		s.st.scReceipts[name].DocStatus = status
	}
}

func (s *fakeStore) gatePassCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.gatePasses)
}

// recordingQueue is a JobQueue that keeps what was enqueued.
type recordingQueue struct {
	mu   sync.Mutex
	jobs []GatePassJobRequest
	err  error
}

func (q *recordingQueue) Enqueue(ctx context.Context, job GatePassJobRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

// denyChecker refuses the listed "doctype:action" pairs.
type denyChecker map[string]bool

func (d denyChecker) HasPermission(ctx context.Context, docType string, action string) (bool, error) {
	return !d[docType+":"+action], nil
}

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestEngine(store DocumentStore) *GatePassEngine {
	e := NewGatePassEngine(store, nil, &recordingQueue{})
	e.Now = func() time.Time { return testNow }
	return e
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func submittedPurchaseOrder() *PurchaseOrder {
	return &PurchaseOrder{
		Name:           "PO-0001",
		DocStatus:      DocStatusSubmitted,
		Company:        "Acme",
		Supplier:       "SUP-1",
		SupplierName:   "Steel Supplies",
		Currency:       "INR",
		ConversionRate: dec("1"),
		ContactFields:  ContactFields{AddressDisplay: "1 Mill Road"},
		Items: []*PurchaseOrderItem{
			{Name: "po-row-1", ItemCode: "STEEL", ItemName: "Steel Rod", Uom: "Nos", StockUom: "Nos", ConversionFactor: dec("1"), Qty: dec("100"), ReceivedQty: dec("20"), Rate: dec("50"), Warehouse: "Stores"},
			{Name: "po-row-2", ItemCode: "BOLT", ItemName: "Bolt", Uom: "Nos", StockUom: "Nos", ConversionFactor: dec("1"), Qty: dec("10"), Rate: dec("2"), Warehouse: "Stores"},
		},
	}
}

// externalTransfer is a submitted outbound Material Transfer with two rows.
func externalTransfer(name string) *StockEntry {
	return &StockEntry{
		ID:                 500,
		Name:               name,
		DocStatus:          DocStatusSubmitted,
		Company:            "Acme",
		StockEntryType:     StockEntryTypeMaterialTransfer,
		GeExternalTransfer: true,
		VehicleNo:          "KA01AB1234",
		Items: []*StockEntryDetail{
			{Name: name + "-r1", ItemCode: "DIE", StockUom: "Nos", Qty: dec("10"), TransferQty: dec("10"), SWarehouse: "Stores", TWarehouse: "Vendor WH", BasicRate: dec("5")},
			{Name: name + "-r2", ItemCode: "JIG", StockUom: "Nos", Qty: dec("4"), TransferQty: dec("4"), SWarehouse: "Stores", TWarehouse: "Vendor WH", BasicRate: dec("8")},
		},
	}
}

func returnTransfer(name string, against string) *StockEntry {
	se := externalTransfer(name)
	se.ID = 600
	se.IsReturn = true
	se.ReturnAgainst = against
	for _, item := range se.Items {
		item.SWarehouse, item.TWarehouse = item.TWarehouse, item.SWarehouse
	}
	return se
}
