package records

import (
	"regexp"
	"strings"
)

// Legal designations stripped from company and provider names.
var legalSuffixes = []string{
	"LIMITED", "LTD", "LTD.", "LLP", "PLC", "COMPANY", "CO", "CO.",
	"CORP", "CORPORATION", "INC", "INCORPORATED", "LLC", "L.L.C.",
	"GMBH", "AG", "SA", "SRL", "BV", "NV", "C.I.C.",
}

var ukprnSuffix = regexp.MustCompile(`\s*\(\d+\)$`)

// CleanCompanyName removes common legal designations from the end of a
// company name, e.g. "Tech Solutions LTD" becomes "Tech Solutions".
// The suffix pass cascades, so stacked designations are all removed:
// "Acme Corp LIMITED" becomes "Acme".
func CleanCompanyName(name string) string {
	cleaned := strings.TrimSpace(name)
	if cleaned == "" {
		return name
	}
	for _, suffix := range legalSuffixes {
		upper := strings.ToUpper(cleaned)
		if strings.HasSuffix(upper, " "+suffix) {
			cleaned = cleaned[:len(cleaned)-len(suffix)-1]
		} else if strings.HasSuffix(upper, suffix) && len(cleaned) > len(suffix) {
			cleaned = cleaned[:len(cleaned)-len(suffix)]
		}
	}
	return strings.TrimSpace(cleaned)
}

// CleanProviderName removes a trailing UKPRN code in parentheses and then
// applies the general company-name cleaning.
func CleanProviderName(name string) string {
	cleaned := strings.TrimSpace(name)
	if cleaned == "" {
		return name
	}
	cleaned = ukprnSuffix.ReplaceAllString(cleaned, "")
	return CleanCompanyName(cleaned)
}
