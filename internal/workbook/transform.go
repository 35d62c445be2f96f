package workbook

import (
	"regexp"
	"strings"
	"time"
)

var (
	posPrefixPattern = regexp.MustCompile(`^\d+-\s*`)
	shortDatePattern = regexp.MustCompile(`(\d{1,2})-([A-Za-z]{3})-(\d{2})`)
)

// DetectSheet maps an uploaded filename to its template sheet. The
// markers mirror the portal's export naming; longer markers are checked
// before their prefixes so CDNUR does not land on the CDNR sheet.
func DetectSheet(filename string) (string, bool) {
	upper := strings.ToUpper(filename)
	switch {
	case strings.Contains(upper, "HSN"):
		return SheetHSN, true
	case strings.Contains(upper, "B2B"):
		return SheetB2B, true
	case strings.Contains(upper, "B2CL"):
		return SheetB2CL, true
	case strings.Contains(upper, "B2CS"):
		return SheetB2CS, true
	case strings.Contains(upper, "EXP"):
		return SheetExport, true
	case strings.Contains(upper, "EXEMP"):
		return SheetExempt, true
	case strings.Contains(upper, "CDNUR"):
		return SheetCDNUR, true
	case strings.Contains(upper, "CDNR"):
		return SheetCDNR, true
	case strings.Contains(upper, "ATADJ"):
		return SheetATAdj, true
	case strings.Contains(upper, "AT"):
		return SheetAT, true
	case strings.Contains(upper, "DOC"):
		return SheetDocs, true
	default:
		return "", false
	}
}

// CleanPlaceOfSupply strips the numeric state prefix:
// "33-Tamil Nadu" -> "Tamil Nadu".
func CleanPlaceOfSupply(value string) string {
	if value == "" {
		return ""
	}
	return strings.TrimSpace(posPrefixPattern.ReplaceAllString(value, ""))
}

// NormalizeDate rewrites DD-MMM-YY dates to DD-MM-YYYY. Anything that
// does not match passes through untouched.
func NormalizeDate(value string) string {
	m := shortDatePattern.FindStringSubmatch(value)
	if m == nil {
		return value
	}
	t, err := time.Parse("2-Jan-06", m[1]+"-"+m[2]+"-"+m[3])
	if err != nil {
		return value
	}
	return t.Format("02-01-2006")
}

// expandReverseCharge turns the portal's Y/N flag into the template's
// Yes/No wording.
func expandReverseCharge(value string) string {
	switch value {
	case "Y":
		return "Yes"
	case "N":
		return "No"
	default:
		return value
	}
}

// cleanInvoiceType drops the audience suffix the portal appends to
// invoice type labels ("Regular B2B" -> "Regular").
func cleanInvoiceType(value string) string {
	value = strings.ReplaceAll(value, " B2B", "")
	value = strings.ReplaceAll(value, " B2C", "")
	return strings.TrimSpace(value)
}
