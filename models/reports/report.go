package reports

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mmdatafocus/gate_entry/models"
	"gorm.io/gorm"
)

type Column struct {
	FieldName string `json:"fieldname"`
	Label     string `json:"label"`
	FieldType string `json:"fieldtype"`
	Options   string `json:"options,omitempty"`
	Width     int    `json:"width"`
}

type SummaryCard struct {
	Label     string `json:"label"`
	Value     any    `json:"value"`
	Indicator string `json:"indicator"`
	DataType  string `json:"datatype"`
}

// Filters is shared by the three reports; each report reads the fields it supports.
type Filters struct {
	FromDate          string `form:"from_date" json:"from_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ToDate            string `form:"to_date" json:"to_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EntryType         string `form:"entry_type" json:"entry_type,omitempty" validate:"omitempty,oneof='Gate In' 'Gate Out'"`
	DocumentReference string `form:"document_reference" json:"document_reference,omitempty"`
	DocumentType      string `form:"document_type" json:"document_type,omitempty"`
	Supplier          string `form:"supplier" json:"supplier,omitempty"`
	Customer          string `form:"customer" json:"customer,omitempty"`
	Company           string `form:"company" json:"company,omitempty"`
	VehicleNumber     string `form:"vehicle_number" json:"vehicle_number,omitempty"`
	StockEntry        string `form:"stock_entry" json:"stock_entry,omitempty"`
	StockEntryType    string `form:"stock_entry_type" json:"stock_entry_type,omitempty"`
	Warehouse         string `form:"warehouse" json:"warehouse,omitempty"`
}

// Lookups batches the per-row reads of a report. The request dataloaders implement it.
type Lookups interface {
	LoadStockEntries(ctx context.Context, names []string) (map[string]*models.StockEntry, error)
	LoadReferenceSummaries(ctx context.Context, keys []models.ReferenceKey) (map[models.ReferenceKey]*models.ReferenceSummary, error)
	LoadGatePassItems(ctx context.Context, ids []int) (map[int][]*models.GatePassItem, error)
}

// dbLookups reads straight from the database when no request loaders are installed.
type dbLookups struct {
	db *gorm.DB
}

func NewDBLookups(db *gorm.DB) Lookups {
	return &dbLookups{db: db}
}

func (l *dbLookups) LoadStockEntries(ctx context.Context, names []string) (map[string]*models.StockEntry, error) {
	result := make(map[string]*models.StockEntry, len(names))
	if len(names) == 0 {
		return result, nil
	}
	entries, err := models.GetStockEntriesByName(ctx, l.db, names)
	if err != nil {
		return nil, err
	}
	for _, se := range entries {
		result[se.Name] = se
	}
	return result, nil
}

func (l *dbLookups) LoadReferenceSummaries(ctx context.Context, keys []models.ReferenceKey) (map[models.ReferenceKey]*models.ReferenceSummary, error) {
	if len(keys) == 0 {
		return map[models.ReferenceKey]*models.ReferenceSummary{}, nil
	}
	return models.GetReferenceSummaries(ctx, l.db, keys)
}

func (l *dbLookups) LoadGatePassItems(ctx context.Context, ids []int) (map[int][]*models.GatePassItem, error) {
	if len(ids) == 0 {
		return map[int][]*models.GatePassItem{}, nil
	}
	return models.GetGatePassItemsByPassIds(ctx, l.db, ids)
}

// stockEntrySummary is what the reports show about a stock entry.
type stockEntrySummary struct {
	StockEntryType   string
	PostingDate      string
	PostingTime      string
	SourceWarehouses string
	TargetWarehouses string
	Cancelled        bool
	Items            []*models.StockEntryDetail
}

func summarizeStockEntry(se *models.StockEntry) stockEntrySummary {
	if se == nil {
		return stockEntrySummary{}
	}
	source, target := stockEntryWarehouses(se)
	return stockEntrySummary{
		StockEntryType:   string(se.StockEntryType),
		PostingDate:      formatDate(se.PostingDate),
		PostingTime:      se.PostingTime,
		SourceWarehouses: source,
		TargetWarehouses: target,
		Cancelled:        se.DocStatus == models.DocStatusCancelled,
		Items:            se.Items,
	}
}

// stockEntryWarehouses returns the sorted distinct source and target warehouses, comma joined.
func stockEntryWarehouses(se *models.StockEntry) (string, string) {
	source := map[string]struct{}{}
	target := map[string]struct{}{}
	for _, item := range se.Items {
		if item.SWarehouse != "" {
			source[item.SWarehouse] = struct{}{}
		}
		if item.TWarehouse != "" {
			target[item.TWarehouse] = struct{}{}
		}
	}
	return joinSorted(source), joinSorted(target)
}

func joinSorted(set map[string]struct{}) string {
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return strings.Join(values, ", ")
}

// stockEntryItemDetails renders "CODE: qty uom" per row.
func stockEntryItemDetails(items []*models.StockEntryDetail) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, strings.TrimSpace(item.ItemCode+": "+item.Qty.String()+" "+item.Uom))
	}
	return strings.Join(parts, ", ")
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

func referenceKeys[T any](rows []T, key func(T) (models.DocumentReference, string)) []models.ReferenceKey {
	seen := map[models.ReferenceKey]struct{}{}
	keys := make([]models.ReferenceKey, 0)
	for _, row := range rows {
		ref, name := key(row)
		if ref == "" || name == "" {
			continue
		}
		k := models.ReferenceKey{DocType: ref, Name: name}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}
