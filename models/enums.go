package models

import (
	"encoding/json"
	"errors"
	"strings"
)

type EntryType string

const (
	EntryTypeGateIn  EntryType = "Gate In"
	EntryTypeGateOut EntryType = "Gate Out"
)

func (t *EntryType) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("entry type must be string")
	}
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "":
		*t = ""
	case "gate in":
		*t = EntryTypeGateIn
	case "gate out":
		*t = EntryTypeGateOut
	default:
		return errors.New("invalid entry type")
	}
	return nil
}

// normalizeEntryType title-cases the stored value; anything but "gate in" is treated as Gate Out.
func normalizeEntryType(t EntryType) EntryType {
	if strings.EqualFold(strings.TrimSpace(string(t)), string(EntryTypeGateIn)) {
		return EntryTypeGateIn
	}
	return EntryTypeGateOut
}

type DocumentReference string

const (
	DocumentReferencePurchaseOrder       DocumentReference = "Purchase Order"
	DocumentReferenceSubcontractingOrder DocumentReference = "Subcontracting Order"
	DocumentReferenceSalesInvoice        DocumentReference = "Sales Invoice"
	DocumentReferenceDeliveryNote        DocumentReference = "Delivery Note"
	DocumentReferenceStockEntry          DocumentReference = "Stock Entry"
)

var AllDocumentReferences = []DocumentReference{
	DocumentReferencePurchaseOrder,
	DocumentReferenceSubcontractingOrder,
	DocumentReferenceSalesInvoice,
	DocumentReferenceDeliveryNote,
	DocumentReferenceStockEntry,
}

func (r *DocumentReference) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("document reference must be string")
	}
	if str == "" {
		*r = ""
		return nil
	}
	ref, ok := ParseDocumentReference(str)
	if !ok {
		return errors.New("invalid document reference")
	}
	*r = ref
	return nil
}

// ParseDocumentReference accepts the doctype name or its slug, e.g. "purchase-order".
func ParseDocumentReference(s string) (DocumentReference, bool) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", " "))
	key = strings.ReplaceAll(key, "_", " ")
	for _, ref := range AllDocumentReferences {
		if strings.ToLower(string(ref)) == key {
			return ref, true
		}
	}
	return "", false
}

// IsInboundGroup is the static inbound set; Stock Entry direction depends on the pass.
func (r DocumentReference) IsInboundGroup() bool {
	return r == DocumentReferencePurchaseOrder || r == DocumentReferenceSubcontractingOrder
}

func (r DocumentReference) IsOutboundGroup() bool {
	return r == DocumentReferenceSalesInvoice || r == DocumentReferenceDeliveryNote
}

// short label used by the reconciliation report
func (r DocumentReference) Abbreviation() string {
	switch r {
	case DocumentReferencePurchaseOrder:
		return "PO"
	case DocumentReferenceSubcontractingOrder:
		return "SO"
	case DocumentReferenceSalesInvoice:
		return "SI"
	case DocumentReferenceDeliveryNote:
		return "DN"
	case DocumentReferenceStockEntry:
		return "SE"
	}
	return string(r)
}

type DocStatus int

const (
	DocStatusDraft     DocStatus = 0
	DocStatusSubmitted DocStatus = 1
	DocStatusCancelled DocStatus = 2
)

func (s DocStatus) String() string {
	switch s {
	case DocStatusDraft:
		return "Draft"
	case DocStatusSubmitted:
		return "Submitted"
	case DocStatusCancelled:
		return "Cancelled"
	}
	return "Unknown"
}

type StockEntryType string

const (
	StockEntryTypeMaterialTransfer    StockEntryType = "Material Transfer"
	StockEntryTypeSendToSubcontractor StockEntryType = "Send to Subcontractor"
	StockEntryTypeMaterialReceipt     StockEntryType = "Material Receipt"
	StockEntryTypeMaterialIssue       StockEntryType = "Material Issue"
	StockEntryTypeManufacture         StockEntryType = "Manufacture"
	StockEntryTypeRepack              StockEntryType = "Repack"
)

type ReceiptType string

const (
	ReceiptTypePurchaseReceipt       ReceiptType = "Purchase Receipt"
	ReceiptTypeSubcontractingReceipt ReceiptType = "Subcontracting Receipt"
)

type UserRole string

const (
	UserRoleAdmin  UserRole = "A"
	UserRoleOwner  UserRole = "O"
	UserRoleCustom UserRole = "C"
)

func (p *UserRole) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("user role must be string")
	}

	userRole := map[string]UserRole{
		"A": UserRoleAdmin,
		"O": UserRoleOwner,
		"C": UserRoleCustom,
	}

	var ok bool
	*p, ok = userRole[str]
	if !ok {
		return errors.New("invalid user role")
	}
	return nil
}

// permission actions, stored lowercase and ";"-separated on RolePermission
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionWrite  = "write"
	ActionSubmit = "submit"
	ActionCancel = "cancel"
	ActionDelete = "delete"
)

const DocTypeGatePass = "Gate Pass"
