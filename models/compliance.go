package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type ComplianceSettings struct {
	Threshold            decimal.Decimal
	EnableEWaybillFromDn bool
}

// ComplianceSettings is nil when no threshold is configured, which disables the gate.
func (s *GstSettings) ComplianceSettings() *ComplianceSettings {
	if s == nil {
		return nil
	}
	return &ComplianceSettings{
		Threshold:            s.EWaybillThreshold,
		EnableEWaybillFromDn: s.EnableEWaybillFromDn,
	}
}

const (
	ComplianceEInvoice = "E-Invoice"
	ComplianceEWaybill = "E-Way Bill"
)

type ComplianceResult struct {
	// Required is true when the document total reaches the threshold.
	Required         bool
	EInvoiceRequired bool
	EWaybillRequired bool
	Missing          []string
}

var generatedStatuses = map[string]struct{}{
	"generated":          {},
	"manually generated": {},
	"valid":              {},
	"active":             {},
}

func IsGeneratedStatus(status string) bool {
	_, ok := generatedStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// EvaluateCompliance decides which compliance documents an outbound reference needs and
// which of them are missing. It does not touch the store.
func EvaluateCompliance(ref DocumentReference, total decimal.Decimal, status ComplianceDetails, settings *ComplianceSettings) ComplianceResult {
	var res ComplianceResult
	if !ref.IsOutboundGroup() || settings == nil || !settings.Threshold.IsPositive() {
		return res
	}
	if total.LessThan(settings.Threshold) {
		return res
	}
	res.Required = true

	if ref == DocumentReferenceSalesInvoice {
		res.EInvoiceRequired = true
		if !IsGeneratedStatus(status.EInvoiceStatus) {
			res.Missing = append(res.Missing, ComplianceEInvoice)
		}
	}

	res.EWaybillRequired = !(ref == DocumentReferenceDeliveryNote && !settings.EnableEWaybillFromDn)
	if res.EWaybillRequired && !IsGeneratedStatus(status.EWaybillStatus) {
		res.Missing = append(res.Missing, ComplianceEWaybill)
	}
	return res
}

// EnforceCompliance fails submission when a required document has not been generated.
func EnforceCompliance(ref DocumentReference, total decimal.Decimal, status ComplianceDetails, settings *ComplianceSettings) error {
	res := EvaluateCompliance(ref, total, status, settings)
	if len(res.Missing) == 0 {
		return nil
	}
	return &ValidationError{
		Title:   titleComplianceFailed,
		Message: fmt.Sprintf(msgComplianceMissing, strings.Join(res.Missing, ", ")),
	}
}

// NormaliseComplianceStatus title-cases a stored status for display, e.g. "generated" -> "Generated".
func NormaliseComplianceStatus(value string, def string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	words := strings.Fields(strings.ToLower(value))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ComplianceSummary is the one-line status shown on pending outbound passes.
func ComplianceSummary(ref DocumentReference, res ComplianceResult, status ComplianceDetails) string {
	if !ref.IsOutboundGroup() {
		return "-"
	}
	parts := make([]string, 0, 2)
	switch {
	case ref != DocumentReferenceSalesInvoice:
		parts = append(parts, "E-Invoice: Not Applicable")
	case res.Required:
		parts = append(parts, "E-Invoice: "+NormaliseComplianceStatus(status.EInvoiceStatus, "Not Generated"))
	default:
		parts = append(parts, "E-Invoice: Not Required")
	}
	if res.EWaybillRequired {
		parts = append(parts, "E-Way Bill: "+NormaliseComplianceStatus(status.EWaybillStatus, "Not Generated"))
	} else {
		parts = append(parts, "E-Way Bill: Not Required")
	}
	return strings.Join(parts, ", ")
}

// ComplianceAdvisory is returned to the pass form for outbound references.
type ComplianceAdvisory struct {
	Level    string   `json:"level"`
	Title    string   `json:"title"`
	Messages []string `json:"messages"`
}

func outboundComplianceAdvisory() *ComplianceAdvisory {
	return &ComplianceAdvisory{
		Level: "info",
		Title: "Compliance checks pending",
		Messages: []string{
			"Compliance validation will run during Gate Pass submission.",
			"Ensure e-invoice and e-way bill are generated before proceeding.",
		},
	}
}
