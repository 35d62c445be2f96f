// Package workbook assembles uploaded per-category CSV exports into the
// GSTR-1 filing workbook. Each CSV is routed to its template sheet by
// filename, its columns remapped to the template headers and its values
// normalized on the way in.
package workbook

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"camate/internal/gstr"
)

// CSVFile is one uploaded source file. Sheet, when set, pins the file
// to a template sheet instead of detecting it from the filename.
type CSVFile struct {
	Name    string
	Sheet   string
	Content []byte
}

// Build routes every recognizable CSV into the template workbook and
// returns the workbook bytes plus the number of sheets filled. Files
// that match no sheet are skipped, not fatal.
func Build(files []CSVFile) ([]byte, int, error) {
	f, err := newTemplate()
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	processed := 0
	for _, file := range files {
		sheet := file.Sheet
		if sheet == "" {
			detected, ok := DetectSheet(file.Name)
			if !ok {
				continue
			}
			sheet = detected
		} else if !ValidSheet(sheet) {
			return nil, 0, fmt.Errorf("workbook: %s: unknown sheet %q", file.Name, sheet)
		}
		rows, err := parseCSV(file.Content)
		if err != nil {
			return nil, 0, fmt.Errorf("workbook: parse %s: %w", file.Name, err)
		}
		if len(rows) == 0 {
			continue
		}

		switch sheet {
		case SheetDocs:
			rows = processDocs(rows)
		case SheetHSN:
			rows = processHSN(rows, file.Name)
		}

		if sheet == SheetExempt {
			err = updateExemptSheet(f, rows)
		} else {
			err = appendRows(f, sheet, rows)
		}
		if err != nil {
			return nil, 0, fmt.Errorf("workbook: fill %s from %s: %w", sheet, file.Name, err)
		}
		processed++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("workbook: save: %w", err)
	}
	return buf.Bytes(), processed, nil
}

// newTemplate creates the empty filing workbook: every sheet with its
// header row, and the exempt sheet pre-seeded with its description rows.
func newTemplate() (*excelize.File, error) {
	f := excelize.NewFile()

	for i, sheet := range templateSheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, fmt.Errorf("workbook: rename initial sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("workbook: create sheet %s: %w", sheet, err)
		}
		for col, m := range sheetMappings[sheet] {
			if err := setCell(f, sheet, col+1, 1, m.Excel); err != nil {
				return nil, err
			}
		}
	}

	for i, desc := range exemptRows {
		if err := setCell(f, SheetExempt, 1, i+2, desc); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// parseCSV reads the file into one map per record keyed by header,
// tolerating a UTF-8 BOM and ragged rows.
func parseCSV(content []byte) ([]map[string]string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// processDocs computes Net Issued and smooths over header variants the
// portal has used for the document series columns.
func processDocs(rows []map[string]string) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		total := gstr.Amount(row["Total Number"])
		cancelled := gstr.Amount(row["Cancelled"])

		nature := firstOf(row, "Nature of Document", "Type of Document")
		from := firstOf(row, "Sr.No.From", "Sr. No. From", "Series From")
		to := firstOf(row, "Sr.No.To", "Sr. No. To", "Series To")

		out = append(out, map[string]string{
			"Nature of Document": nature,
			"Sr.No.From":         from,
			"Sr.No.To":           to,
			"Total Number":       total.String(),
			"Cancelled":          cancelled.String(),
			"Net Issued":         total.Sub(cancelled).String(),
		})
	}
	return out
}

// processHSN stamps each row with the audience taken from the filename
// and defaults a missing rate to zero.
func processHSN(rows []map[string]string, filename string) []map[string]string {
	upper := strings.ToUpper(filename)
	for _, row := range rows {
		if strings.Contains(upper, "B2B") {
			row["Type"] = "B2B"
		} else if strings.Contains(upper, "B2C") {
			row["Type"] = "B2C"
		}
		if row["Rate"] == "" {
			row["Rate"] = "0"
		}
	}
	return rows
}

// appendRows writes the records below the existing content, remapping
// and normalizing each value per the sheet's column mapping.
func appendRows(f *excelize.File, sheet string, rows []map[string]string) error {
	existing, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	headerCols := map[string]int{}
	if len(existing) > 0 {
		for i, h := range existing[0] {
			if h = strings.TrimSpace(h); h != "" {
				headerCols[h] = i + 1
			}
		}
	}

	startRow := lastContentRow(existing) + 1
	for _, row := range rows {
		for _, m := range sheetMappings[sheet] {
			col, ok := headerCols[m.Excel]
			if !ok {
				continue
			}
			val := transformValue(m.Excel, row[m.CSV])
			if err := setCell(f, sheet, col, startRow, coerce(val)); err != nil {
				return err
			}
		}
		startRow++
	}
	return nil
}

// updateExemptSheet fills the fixed description rows in place. Rows
// whose description is not in the template are ignored.
func updateExemptSheet(f *excelize.File, rows []map[string]string) error {
	existing, err := f.GetRows(SheetExempt)
	if err != nil {
		return err
	}

	headerCols := map[string]int{}
	descRows := map[string]int{}
	for i, row := range existing {
		if i == 0 {
			for c, h := range row {
				if h = strings.TrimSpace(h); h != "" {
					headerCols[h] = c + 1
				}
			}
			continue
		}
		if len(row) > 0 && strings.TrimSpace(row[0]) != "" {
			descRows[strings.TrimSpace(row[0])] = i + 1
		}
	}

	for _, row := range rows {
		rowIdx, ok := descRows[strings.TrimSpace(row["Description"])]
		if !ok {
			continue
		}
		for _, m := range sheetMappings[SheetExempt] {
			if m.Excel == "Description" {
				continue
			}
			col, ok := headerCols[m.Excel]
			if !ok {
				continue
			}
			val := row[m.CSV]
			if val == "" {
				continue
			}
			if err := setCell(f, SheetExempt, col, rowIdx, coerce(val)); err != nil {
				return err
			}
		}
	}
	return nil
}

func transformValue(excelHeader, val string) string {
	switch {
	case strings.Contains(excelHeader, "Place Of Supply") || strings.Contains(excelHeader, "Place of supply"):
		return CleanPlaceOfSupply(val)
	case strings.Contains(excelHeader, "Invoice Type"):
		return cleanInvoiceType(val)
	case excelHeader == "RCM Applicable" || excelHeader == "RCM" || excelHeader == "Reverse Charge":
		return expandReverseCharge(val)
	case strings.Contains(excelHeader, "Date"):
		return NormalizeDate(val)
	default:
		return val
	}
}

// coerce writes numerics as numbers so totals stay summable in the
// workbook. Everything else stays a string.
func coerce(val string) any {
	clean := strings.ReplaceAll(val, ",", "")
	if clean == "" {
		return val
	}
	if _, err := strconv.ParseFloat(clean, 64); err == nil {
		if d, derr := decimal.NewFromString(clean); derr == nil {
			f, _ := d.Float64()
			return f
		}
	}
	return val
}

// lastContentRow finds the last row with any value, skipping trailing
// blanks so appended data does not leave gaps.
func lastContentRow(rows [][]string) int {
	for i := len(rows) - 1; i >= 0; i-- {
		for _, v := range rows[i] {
			if strings.TrimSpace(v) != "" {
				return i + 1
			}
		}
	}
	return 1
}

func firstOf(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := row[k]; v != "" {
			return v
		}
	}
	return ""
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	cellName, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("workbook: cell (%d,%d): %w", col, row, err)
	}
	if err := f.SetCellValue(sheet, cellName, value); err != nil {
		return fmt.Errorf("workbook: set %s!%s: %w", sheet, cellName, err)
	}
	return nil
}
