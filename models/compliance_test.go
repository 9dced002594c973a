package models

import (
	"reflect"
	"strings"
	"testing"
)

func TestEvaluateCompliance(t *testing.T) {
	threshold := &ComplianceSettings{Threshold: dec("50000")}
	generated := ComplianceDetails{EInvoiceStatus: "Generated", EWaybillStatus: "generated"}

	tests := []struct {
		name     string
		ref      DocumentReference
		total    string
		status   ComplianceDetails
		settings *ComplianceSettings
		want     []string
		required bool
	}{
		{name: "no settings", ref: DocumentReferenceSalesInvoice, total: "90000"},
		{name: "zero threshold", ref: DocumentReferenceSalesInvoice, total: "90000", settings: &ComplianceSettings{}},
		{name: "below threshold", ref: DocumentReferenceSalesInvoice, total: "49999.99", settings: threshold},
		{name: "inbound reference", ref: DocumentReferencePurchaseOrder, total: "90000", settings: threshold},
		{
			name: "invoice at threshold", ref: DocumentReferenceSalesInvoice, total: "50000", settings: threshold,
			want: []string{ComplianceEInvoice, ComplianceEWaybill}, required: true,
		},
		{
			name: "invoice generated", ref: DocumentReferenceSalesInvoice, total: "50000", settings: threshold,
			status: generated, required: true,
		},
		{
			name: "manually generated counts", ref: DocumentReferenceSalesInvoice, total: "60000", settings: threshold,
			status: ComplianceDetails{EInvoiceStatus: "Manually Generated", EWaybillStatus: "Active"}, required: true,
		},
		{
			name: "delivery note without e-way bill setting", ref: DocumentReferenceDeliveryNote, total: "60000",
			settings: threshold, required: true,
		},
		{
			name: "delivery note with e-way bill setting", ref: DocumentReferenceDeliveryNote, total: "60000",
			settings: &ComplianceSettings{Threshold: dec("50000"), EnableEWaybillFromDn: true},
			want:     []string{ComplianceEWaybill}, required: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := EvaluateCompliance(tt.ref, dec(tt.total), tt.status, tt.settings)
			if res.Required != tt.required {
				t.Errorf("required = %v, want %v", res.Required, tt.required)
			}
			if !reflect.DeepEqual(res.Missing, tt.want) {
				t.Errorf("missing = %v, want %v", res.Missing, tt.want)
			}
		})
	}
}

func TestEnforceComplianceMessage(t *testing.T) {
	err := EnforceCompliance(DocumentReferenceSalesInvoice, dec("75000"), ComplianceDetails{EInvoiceStatus: "Generated"},
		&ComplianceSettings{Threshold: dec("50000")})
	if err == nil {
		t.Fatalf("expected missing e-way bill")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("error type %T", err)
	}
	if ve.Title != titleComplianceFailed || !strings.HasSuffix(ve.Message, ": E-Way Bill") {
		t.Errorf("error = %+v", ve)
	}
	if err := EnforceCompliance(DocumentReferenceSalesInvoice, dec("75000"), ComplianceDetails{}, nil); err != nil {
		t.Errorf("nil settings should disable the gate: %v", err)
	}
}

func TestComplianceSummary(t *testing.T) {
	settings := &ComplianceSettings{Threshold: dec("50000")}
	status := ComplianceDetails{EInvoiceStatus: "generated", EWaybillStatus: ""}

	res := EvaluateCompliance(DocumentReferenceSalesInvoice, dec("60000"), status, settings)
	if got := ComplianceSummary(DocumentReferenceSalesInvoice, res, status); got != "E-Invoice: Generated, E-Way Bill: Not Generated" {
		t.Errorf("summary = %q", got)
	}

	res = EvaluateCompliance(DocumentReferenceSalesInvoice, dec("100"), status, settings)
	if got := ComplianceSummary(DocumentReferenceSalesInvoice, res, status); got != "E-Invoice: Not Required, E-Way Bill: Not Required" {
		t.Errorf("below threshold summary = %q", got)
	}

	res = EvaluateCompliance(DocumentReferenceDeliveryNote, dec("60000"), status, settings)
	if got := ComplianceSummary(DocumentReferenceDeliveryNote, res, status); got != "E-Invoice: Not Applicable, E-Way Bill: Not Required" {
		t.Errorf("delivery note summary = %q", got)
	}

	if got := ComplianceSummary(DocumentReferencePurchaseOrder, ComplianceResult{}, status); got != "-" {
		t.Errorf("inbound summary = %q", got)
	}
}

func TestNormaliseComplianceStatus(t *testing.T) {
	cases := map[string]string{
		"manually generated": "Manually Generated",
		"  GENERATED ":       "Generated",
		"":                   "Not Generated",
		"not   applicable":   "Not Applicable",
	}
	for in, want := range cases {
		if got := NormaliseComplianceStatus(in, "Not Generated"); got != want {
			t.Errorf("NormaliseComplianceStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractComplianceDetails(t *testing.T) {
	tests := []struct {
		name string
		ref  DocumentReference
		src  complianceSource
		want ComplianceDetails
	}{
		{
			name: "irn generated",
			ref:  DocumentReferenceSalesInvoice,
			src:  complianceSource{Irn: "IRN-1", Ewaybill: "EWB-1"},
			want: ComplianceDetails{EInvoiceStatus: "Generated", EInvoiceReference: "IRN-1", EWaybillStatus: "Generated", EWaybillNumber: "EWB-1"},
		},
		{
			name: "irn cancelled",
			ref:  DocumentReferenceSalesInvoice,
			src:  complianceSource{Irn: "IRN-1", IrnCancelled: true},
			want: ComplianceDetails{EInvoiceStatus: "Cancelled", EInvoiceReference: "IRN-1", EWaybillStatus: "Not Generated"},
		},
		{
			name: "stored status kept",
			ref:  DocumentReferenceSalesInvoice,
			src:  complianceSource{EInvoiceStatus: "Pending", EWaybillStatus: "Cancelled", Ewaybill: "EWB-2"},
			want: ComplianceDetails{EInvoiceStatus: "Pending", EWaybillStatus: "Cancelled", EWaybillNumber: "EWB-2"},
		},
		{
			name: "delivery note has no e-invoice",
			ref:  DocumentReferenceDeliveryNote,
			src:  complianceSource{EWaybillNumber: "EWB-3"},
			want: ComplianceDetails{EWaybillStatus: "Generated", EWaybillNumber: "EWB-3"},
		},
		{
			name: "inbound",
			ref:  DocumentReferencePurchaseOrder,
			src:  complianceSource{Irn: "IRN-1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractComplianceDetails(tt.ref, tt.src); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
