package verify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"camate/internal/gstr"
)

// dashboardSheets maps workbook sheets to dashboard record prefixes.
// B2CL folds into the consumer total; unregistered notes fold into the
// registered note total.
var dashboardSheets = []struct {
	sheet  string
	prefix string
}{
	{"b2b", "b2b"},
	{"b2cs", "b2c"},
	{"b2cl", "b2c"},
	{"hsn", "hsn"},
	{"cdnr", "cdnr"},
	{"cdnur", "cdnr"},
}

var posCodePattern = regexp.MustCompile(`^(\d+)[-\s]+`)

// implicitBucket accumulates gross tax for rows that carry a rate but no
// explicit tax columns, keyed by normalized place of supply.
type implicitBucket struct {
	code     string
	total    decimal.Decimal
	byPrefix map[string]decimal.Decimal
}

// dashboard recomputes the raw dashboard record from the corrected
// workbook. Sheets with explicit tax columns are summed directly; sheets
// that only carry a rate get taxable*rate/100 apportioned by place of
// supply: the home state splits into CGST and SGST, everything else is
// IGST. With no home state configured the split falls back to the place
// of supply whose half-tax sits closest to the HSN CGST total.
func dashboard(f *excelize.File, homeStateCode string) gstr.RawReturn {
	dash := map[string]decimal.Decimal{}
	for _, prefix := range []string{"b2b", "b2c", "hsn", "cdnr"} {
		for _, suffix := range []string{"taxable", "igst", "cgst", "sgst", "cess"} {
			dash[prefix+"_"+suffix] = decimal.Zero
		}
	}

	implicit := map[string]*implicitBucket{}

	for _, m := range dashboardSheets {
		sumSheet(f, m.sheet, m.prefix, dash, implicit)
	}

	if len(implicit) > 0 {
		home := homeStateCode
		if home == "" {
			home = inferHomeState(implicit, dash["hsn_cgst"])
		}
		two := decimal.NewFromInt(2)
		for _, b := range implicit {
			isHome := b.code != "" && b.code == home
			for prefix, gross := range b.byPrefix {
				if isHome {
					half := gross.Div(two)
					dash[prefix+"_cgst"] = dash[prefix+"_cgst"].Add(half)
					dash[prefix+"_sgst"] = dash[prefix+"_sgst"].Add(half)
				} else {
					dash[prefix+"_igst"] = dash[prefix+"_igst"].Add(gross)
				}
			}
		}
	}

	for _, prefix := range []string{"b2b", "b2c", "hsn", "cdnr"} {
		dash[prefix+"_total_tax"] = dash[prefix+"_igst"].Add(dash[prefix+"_cgst"]).Add(dash[prefix+"_sgst"])
	}

	raw := gstr.RawReturn{}
	for k, v := range dash {
		raw[k] = v
	}
	return raw
}

func sumSheet(f *excelize.File, sheet, prefix string, dash map[string]decimal.Decimal, implicit map[string]*implicitBucket) {
	if !sheetExists(f, sheet) {
		return
	}
	rows, err := f.GetRows(sheet)
	if err != nil || len(rows) < 2 {
		return
	}

	headers := rows[0]
	taxCol := findHeader(headers, contains("TAXABLE"))
	if taxCol < 0 {
		taxCol = findHeader(headers, contains("TOTAL VALUE"))
	}
	igstCol := findHeader(headers, containsAny("IGST", "INTEGRATED"))
	cgstCol := findHeader(headers, containsAny("CGST", "CENTRAL"))
	sgstCol := findHeader(headers, func(h string) bool {
		return (strings.Contains(h, "SGST") || strings.Contains(h, "STATE")) && !strings.Contains(h, "CESS")
	})
	cessCol := findHeader(headers, contains("CESS"))
	rateCol := findHeader(headers, containsAny("RATE", "GST%"))
	posCol := findHeader(headers, contains("PLACE OF SUPPLY"))

	hundred := decimal.NewFromInt(100)
	for _, row := range rows[1:] {
		var taxable decimal.Decimal
		if taxCol >= 0 {
			taxable = gstr.Amount(cell(row, taxCol))
		}
		dash[prefix+"_taxable"] = dash[prefix+"_taxable"].Add(taxable)

		if cessCol >= 0 {
			dash[prefix+"_cess"] = dash[prefix+"_cess"].Add(gstr.Amount(cell(row, cessCol)))
		}

		if igstCol >= 0 || cgstCol >= 0 {
			if igstCol >= 0 {
				dash[prefix+"_igst"] = dash[prefix+"_igst"].Add(gstr.Amount(cell(row, igstCol)))
			}
			if cgstCol >= 0 {
				dash[prefix+"_cgst"] = dash[prefix+"_cgst"].Add(gstr.Amount(cell(row, cgstCol)))
			}
			if sgstCol >= 0 {
				dash[prefix+"_sgst"] = dash[prefix+"_sgst"].Add(gstr.Amount(cell(row, sgstCol)))
			}
			continue
		}

		var rate decimal.Decimal
		if rateCol >= 0 {
			rate = gstr.Amount(cell(row, rateCol))
		}
		rowTax := taxable.Mul(rate).Div(hundred)

		name, code := splitPOS(cell(row, posCol))
		b, ok := implicit[name]
		if !ok {
			b = &implicitBucket{code: code, byPrefix: map[string]decimal.Decimal{}}
			implicit[name] = b
		}
		b.total = b.total.Add(rowTax)
		b.byPrefix[prefix] = b.byPrefix[prefix].Add(rowTax)
	}
}

// splitPOS normalizes "29-Karnataka" into ("KARNATAKA", "29").
func splitPOS(pos string) (name, code string) {
	pos = strings.TrimSpace(pos)
	if pos == "" {
		return "UNKNOWN", ""
	}
	if m := posCodePattern.FindStringSubmatch(pos); m != nil {
		code = m[1]
		if len(code) == 1 {
			code = "0" + code
		}
		pos = posCodePattern.ReplaceAllString(pos, "")
	}
	return strings.ToUpper(strings.TrimSpace(pos)), code
}

// inferHomeState picks the place of supply whose half of the implicit
// gross tax is closest to the HSN CGST total. The HSN breakup carries
// explicit tax amounts, so the intra-state share shows up there.
func inferHomeState(implicit map[string]*implicitBucket, hsnCGST decimal.Decimal) string {
	names := make([]string, 0, len(implicit))
	for name := range implicit {
		names = append(names, name)
	}
	sort.Strings(names)

	two := decimal.NewFromInt(2)
	var bestCode string
	var bestDiff decimal.Decimal
	first := true
	for _, name := range names {
		b := implicit[name]
		diff := b.total.Div(two).Sub(hsnCGST).Abs()
		if first || diff.LessThan(bestDiff) {
			first = false
			bestDiff = diff
			bestCode = b.code
		}
	}
	return bestCode
}
