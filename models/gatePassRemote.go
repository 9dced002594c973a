package models

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// loadPermittedReference checks the read permission on ref before loading it.
func (e *GatePassEngine) loadPermittedReference(ctx context.Context, ref DocumentReference, name string) (*ReferenceSnapshot, error) {
	if ref == "" || strings.TrimSpace(name) == "" {
		return nil, validationErrorf(msgReferenceRequired)
	}
	if err := e.requireReference(ctx, ref); err != nil {
		return nil, err
	}
	return LoadReference(ctx, e.Store, ref, name)
}

// GetItems returns the source rows of a reference with their pending quantities.
func (e *GatePassEngine) GetItems(ctx context.Context, ref DocumentReference, name string) ([]ReferenceItem, error) {
	snap, err := e.loadPermittedReference(ctx, ref, name)
	if err != nil {
		return nil, err
	}
	if snap.Items == nil {
		return []ReferenceItem{}, nil
	}
	return snap.Items, nil
}

// GetAddress returns "" when either argument is empty.
func (e *GatePassEngine) GetAddress(ctx context.Context, ref DocumentReference, name string) (string, error) {
	if ref == "" || strings.TrimSpace(name) == "" {
		return "", nil
	}
	snap, err := e.loadPermittedReference(ctx, ref, name)
	if err != nil {
		return "", err
	}
	return snap.Address, nil
}

type ReferenceDetails struct {
	Company      string     `json:"company"`
	Address      string     `json:"address_display"`
	PostingDate  *time.Time `json:"posting_date"`
	PostingTime  string     `json:"posting_time,omitempty"`
	DocumentDate *time.Time `json:"document_date"`
	TransportDetails
	ComplianceDetails
	PartyType            string `json:"party_type,omitempty"`
	Party                string `json:"party,omitempty"`
	PartyName            string `json:"party_name,omitempty"`
	Supplier             string `json:"supplier,omitempty"`
	SupplierDeliveryNote string `json:"supplier_delivery_note,omitempty"`
	Customer             string `json:"customer,omitempty"`
}

// GetReferenceDetails returns the header fields a new pass is prefilled with.
func (e *GatePassEngine) GetReferenceDetails(ctx context.Context, ref DocumentReference, name string) (*ReferenceDetails, error) {
	snap, err := e.loadPermittedReference(ctx, ref, name)
	if err != nil {
		return nil, err
	}
	details := &ReferenceDetails{
		Company:           snap.Company,
		Address:           snap.Address,
		PostingDate:       cloneTime(snap.PostingDate),
		PostingTime:       snap.PostingTime,
		DocumentDate:      cloneTime(snap.DocumentDate()),
		TransportDetails:  snap.Transport,
		ComplianceDetails: snap.Compliance,
	}
	switch {
	case ref.IsInboundGroup():
		details.PartyType = snap.PartyType
		details.Party = snap.Party
		details.PartyName = snap.PartyName
		details.Supplier = snap.Supplier
		details.SupplierDeliveryNote = snap.SupplierDeliveryNote
	case ref.IsOutboundGroup():
		details.PartyType = snap.PartyType
		details.Party = snap.Party
		details.PartyName = snap.PartyName
		details.Customer = snap.Party
	}
	return details, nil
}

// GetOutboundComplianceStatus returns nil for inbound and stock entry references.
func (e *GatePassEngine) GetOutboundComplianceStatus(ctx context.Context, ref DocumentReference, name string) (*ComplianceAdvisory, error) {
	if !ref.IsOutboundGroup() {
		return nil, nil
	}
	if err := e.requireReference(ctx, ref); err != nil {
		return nil, err
	}
	return outboundComplianceAdvisory(), nil
}

// GetGatePassReceivedQty sums the received qty of itemCode across non-cancelled passes on
// the reference.
func (e *GatePassEngine) GetGatePassReceivedQty(ctx context.Context, ref DocumentReference, name string, itemCode string) (decimal.Decimal, error) {
	if ref == "" {
		ref = DocumentReferencePurchaseOrder
	}
	if err := e.requireReference(ctx, ref); err != nil {
		return decimal.Zero, err
	}
	return e.Store.SumReceivedQty(ctx, ref, name, itemCode)
}
