package models

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReferenceKey identifies an upstream document; its string form "doctype|name" is the loader key.
type ReferenceKey struct {
	DocType DocumentReference
	Name    string
}

func (k ReferenceKey) String() string {
	return string(k.DocType) + "|" + k.Name
}

func ParseReferenceKey(s string) ReferenceKey {
	docType, name, _ := strings.Cut(s, "|")
	return ReferenceKey{DocType: DocumentReference(docType), Name: name}
}

// ReferenceSummary is the party and total of a reference, batched for list views and reports.
type ReferenceSummary struct {
	DocType   DocumentReference `json:"doctype"`
	Name      string            `json:"name"`
	DocStatus DocStatus         `json:"docstatus"`
	Company   string            `json:"company"`
	PartyType string            `json:"party_type"`
	Party     string            `json:"party"`
	PartyName string            `json:"party_name"`
	Total     decimal.Decimal   `json:"total"`
}

// DisplayParty is the party name, else the party id.
func (s *ReferenceSummary) DisplayParty() string {
	if s == nil {
		return ""
	}
	if s.PartyName != "" {
		return s.PartyName
	}
	return s.Party
}

// PartyTypeFor is the party type shown for a reference doctype.
func PartyTypeFor(ref DocumentReference) string {
	switch {
	case ref.IsInboundGroup():
		return "Supplier"
	case ref.IsOutboundGroup():
		return "Customer"
	case ref == DocumentReferenceStockEntry:
		return "Internal"
	}
	return ""
}

type referenceSummaryRow struct {
	Name      string
	DocStatus DocStatus `gorm:"column:docstatus"`
	Company   string
	Party     string
	PartyName string
	DocumentTotals
}

var referenceSummaryTables = map[DocumentReference]struct {
	table     string
	party     string
	partyName string
}{
	DocumentReferencePurchaseOrder:       {"purchase_orders", "supplier", "supplier_name"},
	DocumentReferenceSubcontractingOrder: {"subcontracting_orders", "supplier", "supplier_name"},
	DocumentReferenceSalesInvoice:        {"sales_invoices", "customer", "customer_name"},
	DocumentReferenceDeliveryNote:        {"delivery_notes", "customer", "customer_name"},
}

// GetReferenceSummaries loads the summaries of keys with one query per doctype. Stock Entry
// keys and unknown doctypes get a summary with only the party type set; missing documents are
// absent from the result.
func GetReferenceSummaries(ctx context.Context, db *gorm.DB, keys []ReferenceKey) (map[ReferenceKey]*ReferenceSummary, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	byType := make(map[DocumentReference][]string)
	result := make(map[ReferenceKey]*ReferenceSummary, len(keys))
	for _, key := range keys {
		if _, ok := referenceSummaryTables[key.DocType]; !ok {
			result[key] = &ReferenceSummary{DocType: key.DocType, Name: key.Name, PartyType: PartyTypeFor(key.DocType)}
			continue
		}
		byType[key.DocType] = append(byType[key.DocType], key.Name)
	}

	for docType, names := range byType {
		t := referenceSummaryTables[docType]
		var rows []referenceSummaryRow
		err := db.WithContext(ctx).Table(t.table).
			Select("name, docstatus, company, "+t.party+" AS party, "+t.partyName+" AS party_name, "+
				"rounded_total, grand_total, base_grand_total, net_total, total, base_total").
			Where("business_id = ? AND name IN ?", businessId, names).
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			result[ReferenceKey{DocType: docType, Name: row.Name}] = &ReferenceSummary{
				DocType:   docType,
				Name:      row.Name,
				DocStatus: row.DocStatus,
				Company:   row.Company,
				PartyType: PartyTypeFor(docType),
				Party:     row.Party,
				PartyName: row.PartyName,
				Total:     row.DocumentTotal(),
			}
		}
	}
	return result, nil
}

// GetStockEntriesByName loads stock entries with their rows; missing names are skipped.
func GetStockEntriesByName(ctx context.Context, db *gorm.DB, names []string) ([]*StockEntry, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	var entries []*StockEntry
	err = db.WithContext(ctx).
		Preload("Items", orderByIdx).
		Where("business_id = ? AND name IN ?", businessId, names).
		Find(&entries).Error
	return entries, err
}

// GetGatePassItemsByPassIds loads the rows of the given passes keyed by pass id.
func GetGatePassItemsByPassIds(ctx context.Context, db *gorm.DB, ids []int) (map[int][]*GatePassItem, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	var items []*GatePassItem
	err = db.WithContext(ctx).
		Where("business_id = ? AND gate_pass_id IN ?", businessId, ids).
		Order("gate_pass_id, idx").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	result := make(map[int][]*GatePassItem, len(ids))
	for _, item := range items {
		result[item.GatePassId] = append(result[item.GatePassId], item)
	}
	return result, nil
}
