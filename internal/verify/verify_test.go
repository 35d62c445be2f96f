package verify

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"camate/internal/gstr"
)

func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "b2b"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	b2bRows := [][]any{
		{"GSTIN/UIN of Recipient", "Receiver Name", "Invoice Number", "Place Of Supply", "Rate", "Taxable Value", "Cess Amount"},
		{"24AAACC1206D1ZM", "Acme Traders", "INV-001", "24-Gujarat", 18, 1000, 0},
		{"BADGSTIN123", "Shady Vendors", "INV-002", "29-Karnataka", 18, 500, 10},
		{"07ABCDE1234F1Z5", "Delhi Retail", "INV-003", "07-Delhi", 12, 2000, 0},
	}
	writeRows(t, f, "b2b", b2bRows)

	if _, err := f.NewSheet("hsn"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	hsnRows := [][]any{
		{"Type", "HSN", "Description", "Rate", "Taxable Value", "Integrated Tax Amount", "Central Tax Amount", "State/UT Tax Amount", "Cess Amount"},
		{"B2B", "998412", "Telecom", 18, 1500, 90, 90, 90, 0},
		{"B2B", "998413", "Telecom typo", 12, 2000, 240, 0, 0, 0},
		{"B2C", "998412", "Telecom", 18, 300, 54, 0, 0, 0},
	}
	writeRows(t, f, "hsn", hsnRows)

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func writeRows(t *testing.T, f *excelize.File, sheet string, rows [][]any) {
	t.Helper()
	for r, row := range rows {
		for c, v := range row {
			cellName, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cellName, v); err != nil {
				t.Fatalf("set cell %s!%s: %v", sheet, cellName, err)
			}
		}
	}
}

func TestRunMovesInvalidGSTINToB2CS(t *testing.T) {
	res, err := Run(buildWorkbook(t), Options{HomeStateCode: "24"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.TotalChecked != 3 {
		t.Errorf("TotalChecked = %d, want 3", res.TotalChecked)
	}
	if res.TotalInvalid != 1 || res.TotalMoved != 1 {
		t.Errorf("TotalInvalid/TotalMoved = %d/%d, want 1/1", res.TotalInvalid, res.TotalMoved)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("Errors = %d, want 1", len(res.Errors))
	}
	e := res.Errors[0]
	if e.GSTIN != "BADGSTIN123" || e.Action != "Moved to B2C" {
		t.Errorf("unexpected row error: %+v", e)
	}
	if !e.Taxable.Equal(decimal.NewFromInt(500)) {
		t.Errorf("error taxable = %s, want 500", e.Taxable)
	}

	f, err := excelize.OpenReader(bytes.NewReader(res.Corrected))
	if err != nil {
		t.Fatalf("open corrected: %v", err)
	}
	defer f.Close()

	b2b, err := f.GetRows("b2b")
	if err != nil {
		t.Fatalf("read corrected b2b: %v", err)
	}
	if len(b2b) != 3 {
		t.Fatalf("corrected b2b rows = %d, want header plus 2", len(b2b))
	}
	for _, row := range b2b[1:] {
		if strings.Contains(strings.Join(row, ","), "BADGSTIN123") {
			t.Fatal("invalid invoice still present in b2b")
		}
	}

	b2cs, err := f.GetRows("b2cs")
	if err != nil {
		t.Fatalf("read corrected b2cs: %v", err)
	}
	if len(b2cs) != 2 {
		t.Fatalf("b2cs rows = %d, want header plus 1", len(b2cs))
	}
	moved := b2cs[1]
	if moved[0] != "OE" {
		t.Errorf("b2cs type = %q, want OE", moved[0])
	}
	if moved[1] != "29-Karnataka" {
		t.Errorf("b2cs place of supply = %q", moved[1])
	}
	if !gstr.Amount(moved[3]).Equal(decimal.NewFromInt(500)) {
		t.Errorf("b2cs taxable = %q, want 500", moved[3])
	}
	if !gstr.Amount(moved[4]).Equal(decimal.NewFromInt(10)) {
		t.Errorf("b2cs cess = %q, want 10", moved[4])
	}
}

func TestRunReconcilesHSN(t *testing.T) {
	res, err := Run(buildWorkbook(t), Options{HomeStateCode: "24"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(res.Corrected))
	if err != nil {
		t.Fatalf("open corrected: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("hsn")
	if err != nil {
		t.Fatalf("read corrected hsn: %v", err)
	}

	// The typo code snaps to the master table.
	for _, row := range rows[1:] {
		if row[1] == "998413" {
			t.Fatal("unmatched HSN code survived correction")
		}
	}

	// 500 moved at rate 18: deducted from the B2B row, added to the B2C
	// row with the same code.
	var b2bTax, b2cTax decimal.Decimal
	for _, row := range rows[1:] {
		if row[1] != "998412" || !gstr.Amount(row[3]).Equal(decimal.NewFromInt(18)) {
			continue
		}
		switch strings.ToUpper(row[0]) {
		case "B2B":
			b2bTax = gstr.Amount(row[4])
		case "B2C":
			b2cTax = gstr.Amount(row[4])
		}
	}
	if !b2bTax.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("hsn b2b taxable = %s, want 1000", b2bTax)
	}
	if !b2cTax.Equal(decimal.NewFromInt(800)) {
		t.Errorf("hsn b2c taxable = %s, want 800", b2cTax)
	}
}

func TestRunDashboardTotals(t *testing.T) {
	res, err := Run(buildWorkbook(t), Options{HomeStateCode: "24"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	dash := res.Dashboard

	// Two valid B2B invoices remain: 1000 and 2000 taxable.
	if got := gstr.Amount(dash["b2b_taxable"]); !got.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("b2b_taxable = %s, want 3000", got)
	}
	// The moved invoice shows up on the consumer side.
	if got := gstr.Amount(dash["b2c_taxable"]); !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("b2c_taxable = %s, want 500", got)
	}

	// Neither sheet carries explicit tax columns, so taxes are implied
	// from the rate. Gujarat (home) splits, the rest is inter-state:
	// b2b: 1000*18% home -> 90/90, 2000*12% Delhi -> 240 IGST.
	if got := gstr.Amount(dash["b2b_cgst"]); !got.Equal(decimal.NewFromInt(90)) {
		t.Errorf("b2b_cgst = %s, want 90", got)
	}
	if got := gstr.Amount(dash["b2b_sgst"]); !got.Equal(decimal.NewFromInt(90)) {
		t.Errorf("b2b_sgst = %s, want 90", got)
	}
	if got := gstr.Amount(dash["b2b_igst"]); !got.Equal(decimal.NewFromInt(240)) {
		t.Errorf("b2b_igst = %s, want 240", got)
	}
	// Moved consumer supply: 500*18% in Karnataka -> 90 IGST.
	if got := gstr.Amount(dash["b2c_igst"]); !got.Equal(decimal.NewFromInt(90)) {
		t.Errorf("b2c_igst = %s, want 90", got)
	}
	if got := gstr.Amount(dash["b2b_total_tax"]); !got.Equal(decimal.NewFromInt(420)) {
		t.Errorf("b2b_total_tax = %s, want 420", got)
	}

	// HSN carries explicit tax columns and is summed directly. The
	// reconciliation only shifts taxable value between rows, so the
	// sheet total is unchanged.
	if got := gstr.Amount(dash["hsn_taxable"]); !got.Equal(decimal.NewFromInt(3800)) {
		t.Errorf("hsn_taxable = %s, want 3800", got)
	}
	if got := gstr.Amount(dash["hsn_igst"]); !got.Equal(decimal.NewFromInt(384)) {
		t.Errorf("hsn_igst = %s, want 384", got)
	}

	// The dashboard record feeds the aggregation engine as-is.
	summary := gstr.Summarize(dash)
	if !summary.Aggregate.Taxable.Equal(decimal.NewFromInt(3500)) {
		t.Errorf("aggregate taxable = %s, want 3500", summary.Aggregate.Taxable)
	}
}

func TestRunErrorReport(t *testing.T) {
	res, err := Run(buildWorkbook(t), Options{HomeStateCode: "24"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	report := string(res.ErrorReport)
	lines := strings.Split(strings.TrimSpace(report), "\n")
	if len(lines) != 2 {
		t.Fatalf("error report lines = %d, want 2:\n%s", len(lines), report)
	}
	if !strings.HasPrefix(lines[0], "GSTIN,Party Name,Error Type") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "BADGSTIN123") || !strings.Contains(lines[1], "Invalid/Unregistered GSTIN") {
		t.Errorf("unexpected error row: %q", lines[1])
	}
}

func TestRunCleanWorkbookIsUntouched(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", "b2b"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	writeRows(t, f, "b2b", [][]any{
		{"GSTIN/UIN of Recipient", "Receiver Name", "Place Of Supply", "Rate", "Taxable Value"},
		{"24AAACC1206D1ZM", "Acme Traders", "24-Gujarat", 18, 1000},
	})
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	res, err := Run(buf.Bytes(), Options{HomeStateCode: "24"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TotalChecked != 1 || res.TotalInvalid != 0 || res.TotalMoved != 0 {
		t.Errorf("counts = %d/%d/%d, want 1/0/0", res.TotalChecked, res.TotalInvalid, res.TotalMoved)
	}

	out, err := excelize.OpenReader(bytes.NewReader(res.Corrected))
	if err != nil {
		t.Fatalf("open corrected: %v", err)
	}
	defer out.Close()
	if sheetExists(out, "b2cs") {
		rows, _ := out.GetRows("b2cs")
		if len(rows) > 1 {
			t.Error("b2cs gained rows for a clean workbook")
		}
	}
}
