package utils

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

// QtyTolerance is the slack allowed when comparing quantities.
var QtyTolerance = decimal.New(1, -6)

// DefaultPhoneRegion is the region used to parse contact numbers without a leading "+".
func DefaultPhoneRegion() string {
	if v := strings.TrimSpace(os.Getenv("DEFAULT_PHONE_REGION")); v != "" {
		return strings.ToUpper(v)
	}
	return "IN"
}

// CountryCodePlaceholder is the "+<code>" prefix a blank phone input carries for the region.
func CountryCodePlaceholder(region string) string {
	code := libphonenumber.GetCountryCodeForRegion(region)
	if code == 0 {
		return ""
	}
	return fmt.Sprintf("+%d", code)
}

// NormalizeContactNumber strips spaces and dashes. An empty value or a bare country code
// placeholder becomes "". A number valid for the region is returned in E.164; anything else
// is returned as cleaned.
func NormalizeContactNumber(raw string, region string) string {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" || cleaned == CountryCodePlaceholder(region) {
		return ""
	}
	p, err := libphonenumber.Parse(cleaned, region)
	if err != nil || !libphonenumber.IsValidNumber(p) {
		return cleaned
	}
	return libphonenumber.Format(p, libphonenumber.E164)
}

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

func NilIfEmpty[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}

// FirstNonEmpty returns the first value that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// FirstNonZero returns the first non-zero amount, or zero.
func FirstNonZero(values ...decimal.Decimal) decimal.Decimal {
	for _, v := range values {
		if !v.IsZero() {
			return v
		}
	}
	return decimal.Zero
}

// QtyGreater reports a > b beyond QtyTolerance.
func QtyGreater(a, b decimal.Decimal) bool {
	return a.Sub(b).GreaterThan(QtyTolerance)
}

// QtyEqual reports |a-b| <= QtyTolerance.
func QtyEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(QtyTolerance)
}

// FormatQty renders a quantity without trailing zeros, e.g. 5 or 2.5.
func FormatQty(d decimal.Decimal) string {
	return d.Round(6).String()
}

// ExecTemplate renders the optional clauses of a raw SQL template.
func ExecTemplate(tString string, data map[string]interface{}) (string, error) {
	t, err := template.New("sql").Parse(tString)
	if err != nil {
		return "", errors.New("error parsing sql template: " + err.Error())
	}
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return "", errors.New("failed to execute sql template: " + err.Error())
	}
	return b.String(), nil
}
