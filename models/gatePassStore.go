package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/mmdatafocus/gate_entry/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const mysqlDuplicateEntry = 1062

// GormStore is the MySQL DocumentStore.
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// NewGormStoreInTx wraps a transaction the caller already opened, e.g. one holding an advisory lock.
func NewGormStoreInTx(tx *gorm.DB) *GormStore {
	return &GormStore{db: tx, inTx: true}
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *GormStore) Transaction(ctx context.Context, fn func(ctx context.Context, tx DocumentStore) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &GormStore{db: tx, inTx: true})
	})
}

func businessIdFrom(ctx context.Context) (string, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return "", utils.ErrorBusinessId
	}
	return businessId, nil
}

// mapWriteError turns duplicate keys into a user-facing error.
func mapWriteError(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return &ValidationError{Message: "Duplicate name"}
	}
	return err
}

func orderByIdx(db *gorm.DB) *gorm.DB { return db.Order("idx") }

func orderById(db *gorm.DB) *gorm.DB { return db.Order("id") }

// getByName loads one upstream document of the current business.
func getByName[T any](ctx context.Context, db *gorm.DB, docType string, name string, preloads map[string]func(*gorm.DB) *gorm.DB) (*T, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	var doc T
	q := db.WithContext(ctx)
	for assoc, scope := range preloads {
		q = q.Preload(assoc, scope)
	}
	if err := q.Where("business_id = ? AND name = ?", businessId, name).Take(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{DocType: docType, Name: name}
		}
		return nil, err
	}
	return &doc, nil
}

func rowName() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

func (s *GormStore) GetGatePass(ctx context.Context, name string) (*GatePass, error) {
	return getByName[GatePass](ctx, s.db, DocTypeGatePass, name, map[string]func(*gorm.DB) *gorm.DB{"Items": orderByIdx})
}

func (s *GormStore) FindGatePasses(ctx context.Context, f GatePassFilter) ([]*GatePass, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	q := s.conn(ctx).Model(&GatePass{}).Where("business_id = ?", businessId)
	if f.DocumentReference != "" {
		q = q.Where("document_reference = ?", f.DocumentReference)
	}
	if f.ReferenceNumber != "" {
		q = q.Where("reference_number = ?", f.ReferenceNumber)
	}
	if f.OutboundMaterialTransfer != "" {
		q = q.Where("outbound_material_transfer = ?", f.OutboundMaterialTransfer)
	}
	if f.ReturnMaterialTransfer != "" {
		q = q.Where("return_material_transfer = ?", f.ReturnMaterialTransfer)
	}
	if f.LinkedTo != "" {
		q = q.Where("(reference_number = ? OR stock_entry = ? OR outbound_material_transfer = ? OR return_material_transfer = ?)",
			f.LinkedTo, f.LinkedTo, f.LinkedTo, f.LinkedTo)
	}
	if f.EntryType != "" {
		q = q.Where("entry_type = ?", f.EntryType)
	}
	if f.DocStatus != nil {
		q = q.Where("docstatus = ?", *f.DocStatus)
	}
	if f.NotCancelled {
		q = q.Where("docstatus < ?", DocStatusCancelled)
	}
	if f.Supplier != "" {
		q = q.Where("supplier = ?", f.Supplier)
	}
	if f.Company != "" {
		q = q.Where("company = ?", f.Company)
	}
	if f.WithItems {
		q = q.Preload("Items", orderByIdx)
	}
	if f.OrderByLatest {
		q = q.Order("gate_entry_date DESC, gate_entry_time DESC, name DESC")
	} else {
		q = q.Order("id")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	var results []*GatePass
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *GormStore) InsertGatePass(ctx context.Context, gp *GatePass) error {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return err
	}
	gp.BusinessId = businessId
	gp.reindex()
	if err := s.conn(ctx).Create(gp).Error; err != nil {
		return mapWriteError(err)
	}
	return nil
}

// UpdateGatePass rewrites the header and replaces the item rows.
func (s *GormStore) UpdateGatePass(ctx context.Context, gp *GatePass) error {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return err
	}
	if gp.ID == 0 {
		return errors.New("gate pass id is required")
	}
	gp.BusinessId = businessId

	db := s.conn(ctx)
	if err := db.Model(gp).Select("*").Omit("ID", "CreatedAt", "Items").Updates(gp).Error; err != nil {
		return mapWriteError(err)
	}
	if err := db.Where("gate_pass_id = ?", gp.ID).Delete(&GatePassItem{}).Error; err != nil {
		return err
	}
	if len(gp.Items) == 0 {
		return nil
	}
	gp.reindex()
	for _, item := range gp.Items {
		item.ID = 0
	}
	return db.Create(&gp.Items).Error
}

func (s *GormStore) DeleteGatePass(ctx context.Context, name string) error {
	gp, err := s.GetGatePass(ctx, name)
	if err != nil {
		return err
	}
	db := s.conn(ctx)
	if err := db.Where("gate_pass_id = ?", gp.ID).Delete(&GatePassItem{}).Error; err != nil {
		return err
	}
	return db.Delete(gp).Error
}

func (s *GormStore) AdminUpdateGatePass(ctx context.Context, name string, upd GatePassFieldUpdate) error {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return err
	}
	cols := upd.Columns()
	if len(cols) == 0 {
		return nil
	}
	return s.conn(ctx).Model(&GatePass{}).
		Where("business_id = ? AND name = ?", businessId, name).
		UpdateColumns(cols).Error
}

func (s *GormStore) LockAllocatingGatePasses(ctx context.Context, stockEntry string, excludeName string) ([]int, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	db := s.conn(ctx)

	// The source entry row is locked first so that the very first allocations also queue
	// behind each other when there are no gate pass rows to lock yet.
	var anchor []int
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Model(&StockEntry{}).
		Where("business_id = ? AND name = ?", businessId, stockEntry).
		Pluck("id", &anchor).Error; err != nil {
		return nil, err
	}

	var ids []int
	q := db.Clauses(clause.Locking{Strength: "UPDATE"}).Model(&GatePass{}).
		Where("business_id = ? AND document_reference = ? AND docstatus < ?", businessId, DocumentReferenceStockEntry, DocStatusCancelled).
		Where("(reference_number = ? OR outbound_material_transfer = ?)", stockEntry, stockEntry)
	if excludeName != "" {
		q = q.Where("name <> ?", excludeName)
	}
	if err := q.Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *GormStore) SumGatePassItemQty(ctx context.Context, gatePassIds []int, column QtyColumn) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal)
	if len(gatePassIds) == 0 {
		return totals, nil
	}
	if column != QtyColumnReceived && column != QtyColumnDispatched {
		return nil, fmt.Errorf("unsupported quantity column %q", column)
	}

	var rows []struct {
		OrderItemName string
		Qty           decimal.Decimal
	}
	if err := s.conn(ctx).Model(&GatePassItem{}).
		Select("order_item_name, COALESCE(SUM("+string(column)+"), 0) AS qty").
		Where("gate_pass_id IN ?", gatePassIds).
		Group("order_item_name").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r.OrderItemName == "" {
			continue
		}
		totals[r.OrderItemName] = r.Qty
	}
	return totals, nil
}

func (s *GormStore) SumReceivedQty(ctx context.Context, ref DocumentReference, referenceNumber string, itemCode string) (decimal.Decimal, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	var total decimal.NullDecimal
	row := s.conn(ctx).Raw(`
		SELECT SUM(i.received_qty)
		FROM gate_pass_items i
		JOIN gate_passes g ON g.id = i.gate_pass_id
		WHERE g.business_id = ? AND g.reference_number = ? AND g.document_reference = ?
			AND g.docstatus <> ? AND i.item_code = ?`,
		businessId, referenceNumber, ref, DocStatusCancelled, itemCode).Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (s *GormStore) GetPurchaseOrder(ctx context.Context, name string) (*PurchaseOrder, error) {
	return getByName[PurchaseOrder](ctx, s.db, string(DocumentReferencePurchaseOrder), name,
		map[string]func(*gorm.DB) *gorm.DB{"Items": orderByIdx})
}

func (s *GormStore) GetSubcontractingOrder(ctx context.Context, name string) (*SubcontractingOrder, error) {
	return getByName[SubcontractingOrder](ctx, s.db, string(DocumentReferenceSubcontractingOrder), name,
		map[string]func(*gorm.DB) *gorm.DB{"Items": orderByIdx, "AdditionalCosts": orderById})
}

func (s *GormStore) GetSalesInvoice(ctx context.Context, name string) (*SalesInvoice, error) {
	return getByName[SalesInvoice](ctx, s.db, string(DocumentReferenceSalesInvoice), name,
		map[string]func(*gorm.DB) *gorm.DB{"Items": orderByIdx})
}

func (s *GormStore) GetDeliveryNote(ctx context.Context, name string) (*DeliveryNote, error) {
	return getByName[DeliveryNote](ctx, s.db, string(DocumentReferenceDeliveryNote), name,
		map[string]func(*gorm.DB) *gorm.DB{"Items": orderByIdx})
}

func (s *GormStore) GetStockEntry(ctx context.Context, name string) (*StockEntry, error) {
	return getByName[StockEntry](ctx, s.db, string(DocumentReferenceStockEntry), name,
		map[string]func(*gorm.DB) *gorm.DB{"Items": orderByIdx, "DocReferences": orderById})
}

func (s *GormStore) InsertStockEntry(ctx context.Context, se *StockEntry) error {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return err
	}
	se.BusinessId = businessId
	for i, item := range se.Items {
		item.BusinessId = businessId
		item.Idx = i + 1
		if item.Name == "" {
			item.Name = rowName()
		}
	}
	for _, ref := range se.DocReferences {
		ref.BusinessId = businessId
	}
	return mapWriteError(s.conn(ctx).Create(se).Error)
}

func (s *GormStore) AdminUpdateStockEntry(ctx context.Context, name string, upd StockEntryFieldUpdate) error {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return err
	}
	cols := map[string]any{}
	if upd.GatePass != nil {
		cols["gate_pass"] = *upd.GatePass
	}
	if len(cols) == 0 {
		return nil
	}
	return s.conn(ctx).Model(&StockEntry{}).
		Where("business_id = ? AND name = ?", businessId, name).
		UpdateColumns(cols).Error
}

func (s *GormStore) GetReceipt(ctx context.Context, docType ReceiptType, name string) (*ReceiptHeader, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	var model any
	switch docType {
	case ReceiptTypePurchaseReceipt:
		model = &PurchaseReceipt{}
	case ReceiptTypeSubcontractingReceipt:
		model = &SubcontractingReceipt{}
	default:
		return nil, fmt.Errorf("unsupported receipt type %q", docType)
	}

	var header ReceiptHeader
	if err := s.conn(ctx).Model(model).
		Select("name, docstatus AS doc_status, gate_pass").
		Where("business_id = ? AND name = ?", businessId, name).
		Take(&header).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{DocType: string(docType), Name: name}
		}
		return nil, err
	}
	header.DocType = docType
	return &header, nil
}

func (s *GormStore) InsertPurchaseReceipt(ctx context.Context, pr *PurchaseReceipt) error {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return err
	}
	pr.BusinessId = businessId
	for i, item := range pr.Items {
		item.BusinessId = businessId
		item.Idx = i + 1
		if item.Name == "" {
			item.Name = rowName()
		}
	}
	return mapWriteError(s.conn(ctx).Create(pr).Error)
}

func (s *GormStore) InsertSubcontractingReceipt(ctx context.Context, scr *SubcontractingReceipt) error {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return err
	}
	scr.BusinessId = businessId
	for i, item := range scr.Items {
		item.BusinessId = businessId
		item.Idx = i + 1
		if item.Name == "" {
			item.Name = rowName()
		}
	}
	for _, cost := range scr.AdditionalCosts {
		cost.BusinessId = businessId
	}
	return mapWriteError(s.conn(ctx).Create(scr).Error)
}

func (s *GormStore) GetGstSettings(ctx context.Context) (*GstSettings, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	var settings GstSettings
	err = s.conn(ctx).Where("business_id = ?", businessId).Take(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *GormStore) NextName(ctx context.Context, series string) (string, error) {
	return nextSeriesNumber(ctx, s.db, series)
}
