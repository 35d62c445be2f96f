package verify

import (
	"regexp"
	"strings"
)

// gstinPattern is the registration number format: two-digit state code,
// five letters and four digits of PAN, entity letter, registration count,
// the literal Z and a check character.
var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z]{1}[1-9A-Z]{1}Z[0-9A-Z]{1}$`)

// ValidGSTIN reports whether s is a structurally valid GSTIN after
// trimming and upper-casing. It checks shape only, not registry status.
func ValidGSTIN(s string) bool {
	return gstinPattern.MatchString(NormalizeGSTIN(s))
}

// NormalizeGSTIN applies the canonical form used everywhere a GSTIN is
// compared: trimmed and upper-cased.
func NormalizeGSTIN(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// StateCode returns the two-digit state prefix of a GSTIN, or "" when
// the value is too short to carry one.
func StateCode(gstin string) string {
	g := NormalizeGSTIN(gstin)
	if len(g) < 2 {
		return ""
	}
	return g[:2]
}
