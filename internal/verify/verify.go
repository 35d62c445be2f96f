// Package verify checks an assembled GSTR-1 workbook before filing:
// structurally invalid recipient GSTINs are moved from B2B to the
// consumer section, HSN codes are snapped to the master table and the
// HSN breakup is re-apportioned to match the moves. The output is a
// corrected workbook, an error report and the raw dashboard record.
package verify

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"camate/internal/gstr"
)

const (
	sheetB2B  = "b2b"
	sheetB2CS = "b2cs"
	sheetHSN  = "hsn"
)

// Options carries run-scoped settings.
type Options struct {
	// HomeStateCode is the filer's two-digit state code. Implicit tax on
	// rows whose place of supply matches it splits into CGST and SGST;
	// every other row is inter-state and carries IGST. When empty the
	// home state is inferred from the HSN breakup instead.
	HomeStateCode string
}

// RowError describes one invoice rejected during verification.
type RowError struct {
	GSTIN     string
	PartyName string
	ErrorType string
	Taxable   decimal.Decimal
	Rate      decimal.Decimal
	Action    string
}

// Result is the outcome of one verification pass.
type Result struct {
	TotalChecked int
	TotalInvalid int
	TotalMoved   int

	// Corrected is the workbook with invalid invoices moved and HSN
	// codes fixed, ready for re-upload.
	Corrected []byte

	// ErrorReport is the CSV listing of every rejected invoice.
	ErrorReport []byte

	// Dashboard is the raw per-category record recomputed from the
	// corrected workbook.
	Dashboard gstr.RawReturn

	Errors []RowError
}

type posRate struct {
	POS  string
	Rate string
}

type movedAmounts struct {
	Taxable decimal.Decimal
	Cess    decimal.Decimal
}

// Run verifies the workbook bytes and produces the corrected artifacts.
func Run(workbook []byte, opts Options) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(workbook))
	if err != nil {
		return nil, fmt.Errorf("verify: open workbook: %w", err)
	}
	defer f.Close()

	res := &Result{Dashboard: gstr.RawReturn{}}

	additions := map[posRate]*movedAmounts{}
	deductions := map[string]decimal.Decimal{}

	if err := verifyB2B(f, res, additions, deductions); err != nil {
		return nil, err
	}
	if err := appendB2CS(f, additions); err != nil {
		return nil, err
	}
	if err := reconcileHSN(f, deductions); err != nil {
		return nil, err
	}

	res.ErrorReport = errorReportCSV(res.Errors)
	res.Dashboard = dashboard(f, opts.HomeStateCode)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("verify: save corrected workbook: %w", err)
	}
	res.Corrected = buf.Bytes()
	return res, nil
}

// verifyB2B walks the b2b sheet, records invalid-GSTIN invoices and
// removes them. The removed amounts are grouped by (place of supply,
// rate) for the consumer sheet and by rate for HSN reconciliation.
func verifyB2B(f *excelize.File, res *Result, additions map[posRate]*movedAmounts, deductions map[string]decimal.Decimal) error {
	if !sheetExists(f, sheetB2B) {
		return nil
	}
	rows, err := f.GetRows(sheetB2B)
	if err != nil {
		return fmt.Errorf("verify: read b2b sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil
	}

	headers := rows[0]
	gstinCol := findHeader(headers, contains("GSTIN"))
	partyCol := findHeader(headers, containsAny("NAME", "RECEIVER"))
	if partyCol < 0 {
		partyCol = gstinCol
	}
	taxCol := findHeader(headers, contains("TAXABLE VALUE"))
	rateCol := findHeader(headers, containsAny("RATE", "GST%"))
	posCol := findHeader(headers, contains("PLACE OF SUPPLY"))
	cessCol := findHeader(headers, contains("CESS"))

	if gstinCol < 0 || taxCol < 0 || rateCol < 0 {
		return nil
	}

	var toDelete []int
	for i, row := range rows[1:] {
		gstin := NormalizeGSTIN(cell(row, gstinCol))
		if gstin == "" {
			continue
		}
		res.TotalChecked++
		if ValidGSTIN(gstin) {
			continue
		}

		party := cell(row, partyCol)
		if party == "" {
			party = "Unknown"
		}
		taxable := gstr.Amount(cell(row, taxCol))
		rate := gstr.Amount(cell(row, rateCol))
		pos := cell(row, posCol)
		if pos == "" {
			pos = "Unknown POS"
		}
		cess := gstr.Amount(cell(row, cessCol))

		res.TotalMoved++
		res.Errors = append(res.Errors, RowError{
			GSTIN:     gstin,
			PartyName: party,
			ErrorType: "Invalid/Unregistered GSTIN",
			Taxable:   taxable,
			Rate:      rate,
			Action:    "Moved to B2C",
		})

		key := posRate{POS: pos, Rate: rate.String()}
		m, ok := additions[key]
		if !ok {
			m = &movedAmounts{}
			additions[key] = m
		}
		m.Taxable = m.Taxable.Add(taxable)
		m.Cess = m.Cess.Add(cess)

		deductions[rate.String()] = deductions[rate.String()].Add(taxable)

		toDelete = append(toDelete, i+2)
	}
	res.TotalInvalid = len(res.Errors)

	sort.Sort(sort.Reverse(sort.IntSlice(toDelete)))
	for _, rowIdx := range toDelete {
		if err := f.RemoveRow(sheetB2B, rowIdx); err != nil {
			return fmt.Errorf("verify: remove b2b row %d: %w", rowIdx, err)
		}
	}
	return nil
}

// appendB2CS adds one consumer row per (place of supply, rate) group,
// creating the sheet and its header row when missing.
func appendB2CS(f *excelize.File, additions map[posRate]*movedAmounts) error {
	if len(additions) == 0 {
		return nil
	}
	if !sheetExists(f, sheetB2CS) {
		if _, err := f.NewSheet(sheetB2CS); err != nil {
			return fmt.Errorf("verify: create b2cs sheet: %w", err)
		}
	}
	rows, err := f.GetRows(sheetB2CS)
	if err != nil {
		return fmt.Errorf("verify: read b2cs sheet: %w", err)
	}

	var headers []string
	if len(rows) > 0 {
		headers = rows[0]
	}
	if !anyNonEmpty(headers) {
		headers = []string{"Type", "Place Of Supply", "Rate", "Taxable Value", "Cess Amount", "E-Commerce GSTIN"}
		for i, h := range headers {
			if err := setCell(f, sheetB2CS, i+1, 1, h); err != nil {
				return err
			}
		}
		rows = [][]string{headers}
	}

	typeCol := headerOr(headers, 1, equals("TYPE"))
	posCol := headerOr(headers, 2, equals("PLACE OF SUPPLY"))
	rateCol := headerOr(headers, 3, containsAny("RATE", "GST%"))
	taxCol := headerOr(headers, 4, contains("TAXABLE VALUE"))
	cessCol := headerOr(headers, 5, contains("CESS"))

	keys := make([]posRate, 0, len(additions))
	for k := range additions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].POS != keys[j].POS {
			return keys[i].POS < keys[j].POS
		}
		return keys[i].Rate < keys[j].Rate
	})

	row := len(rows) + 1
	for _, k := range keys {
		m := additions[k]
		// "OE": supplies made other than through an e-commerce operator.
		if err := setCell(f, sheetB2CS, typeCol, row, "OE"); err != nil {
			return err
		}
		if err := setCell(f, sheetB2CS, posCol, row, k.POS); err != nil {
			return err
		}
		if err := setCell(f, sheetB2CS, rateCol, row, k.Rate); err != nil {
			return err
		}
		if err := setCell(f, sheetB2CS, taxCol, row, m.Taxable.String()); err != nil {
			return err
		}
		if err := setCell(f, sheetB2CS, cessCol, row, m.Cess.String()); err != nil {
			return err
		}
		row++
	}
	return nil
}

// reconcileHSN snaps HSN codes to the master table, then shifts taxable
// value from B2B to B2C HSN rows rate by rate so the breakup agrees with
// the invoices moved out of B2B. Deductions are greedy per row; when no
// B2C row exists for a code, the B2B row is duplicated as B2C.
func reconcileHSN(f *excelize.File, deductions map[string]decimal.Decimal) error {
	if !sheetExists(f, sheetHSN) {
		return nil
	}
	rows, err := f.GetRows(sheetHSN)
	if err != nil {
		return fmt.Errorf("verify: read hsn sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil
	}

	headers := rows[0]
	typeCol := findHeader(headers, contains("TYPE"))
	hsnCol := findHeader(headers, contains("HSN"))
	rateCol := findHeader(headers, contains("RATE"))
	taxCol := findHeader(headers, func(h string) bool {
		return strings.Contains(h, "TAXABLE VALUE") && !strings.Contains(h, "TOTAL")
	})
	if taxCol < 0 {
		taxCol = findHeader(headers, contains("TAXABLE"))
	}
	if hsnCol < 0 || taxCol < 0 || rateCol < 0 {
		return nil
	}

	for i, row := range rows[1:] {
		raw := cell(row, hsnCol)
		if raw == "" {
			continue
		}
		if fixed := MatchHSN(raw); fixed != strings.TrimSpace(raw) {
			if err := setCell(f, sheetHSN, hsnCol+1, i+2, fixed); err != nil {
				return err
			}
		}
	}

	if typeCol < 0 || len(deductions) == 0 {
		return nil
	}

	rates := make([]string, 0, len(deductions))
	for r := range deductions {
		rates = append(rates, r)
	}
	sort.Strings(rates)

	for _, rateKey := range rates {
		remaining := deductions[rateKey]
		if !remaining.IsPositive() {
			continue
		}
		targetRate := gstr.Amount(rateKey)

		// Re-read so rows appended for earlier rates are visible.
		rows, err = f.GetRows(sheetHSN)
		if err != nil {
			return fmt.Errorf("verify: read hsn sheet: %w", err)
		}

		type hsnRow struct {
			idx  int
			code string
			tax  decimal.Decimal
			vals []string
		}
		var b2bRows, b2cRows []hsnRow
		for i, row := range rows[1:] {
			if !gstr.Amount(cell(row, rateCol)).Equal(targetRate) {
				continue
			}
			hr := hsnRow{idx: i + 2, code: cell(row, hsnCol), tax: gstr.Amount(cell(row, taxCol)), vals: row}
			switch strings.ToUpper(strings.TrimSpace(cell(row, typeCol))) {
			case "B2B":
				b2bRows = append(b2bRows, hr)
			case "B2C":
				b2cRows = append(b2cRows, hr)
			}
		}

		appendRow := len(rows) + 1
		for _, rb := range b2bRows {
			deduct := rb.tax
			if remaining.LessThan(deduct) {
				deduct = remaining
			}
			if err := setCell(f, sheetHSN, taxCol+1, rb.idx, rb.tax.Sub(deduct).String()); err != nil {
				return err
			}

			matched := -1
			for bi, rc := range b2cRows {
				if rc.code == rb.code {
					matched = bi
					break
				}
			}
			if matched >= 0 {
				rc := b2cRows[matched]
				if err := setCell(f, sheetHSN, taxCol+1, rc.idx, rc.tax.Add(deduct).String()); err != nil {
					return err
				}
				b2cRows[matched].tax = rc.tax.Add(deduct)
			} else {
				for ci, v := range rb.vals {
					if err := setCell(f, sheetHSN, ci+1, appendRow, v); err != nil {
						return err
					}
				}
				if err := setCell(f, sheetHSN, typeCol+1, appendRow, "B2C"); err != nil {
					return err
				}
				if err := setCell(f, sheetHSN, taxCol+1, appendRow, deduct.String()); err != nil {
					return err
				}
				appendRow++
			}

			remaining = remaining.Sub(deduct)
			if !remaining.IsPositive() {
				break
			}
		}
	}
	return nil
}

// errorReportCSV renders the rejected invoices; an empty run still
// produces the header row so downstream consumers get a valid file.
func errorReportCSV(errs []RowError) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"GSTIN", "Party Name", "Error Type", "Taxable Value", "Rate", "Action"})
	for _, e := range errs {
		w.Write([]string{e.GSTIN, e.PartyName, e.ErrorType, e.Taxable.String(), e.Rate.String(), e.Action})
	}
	w.Flush()
	return buf.Bytes()
}

func sheetExists(f *excelize.File, name string) bool {
	idx, err := f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	cellName, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("verify: cell (%d,%d): %w", col, row, err)
	}
	if err := f.SetCellValue(sheet, cellName, value); err != nil {
		return fmt.Errorf("verify: set %s!%s: %w", sheet, cellName, err)
	}
	return nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func findHeader(headers []string, match func(string) bool) int {
	for i, h := range headers {
		if match(strings.ToUpper(strings.TrimSpace(h))) {
			return i
		}
	}
	return -1
}

// headerOr resolves a 1-based column by header match with a positional
// fallback for sheets whose header row deviates from the template.
func headerOr(headers []string, fallback int, match func(string) bool) int {
	if i := findHeader(headers, match); i >= 0 {
		return i + 1
	}
	return fallback
}

func contains(sub string) func(string) bool {
	return func(h string) bool { return strings.Contains(h, sub) }
}

func containsAny(subs ...string) func(string) bool {
	return func(h string) bool {
		for _, sub := range subs {
			if strings.Contains(h, sub) {
				return true
			}
		}
		return false
	}
}

func equals(want string) func(string) bool {
	return func(h string) bool { return h == want }
}

func anyNonEmpty(ss []string) bool {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}
