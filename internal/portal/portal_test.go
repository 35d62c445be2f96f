package portal

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "b2b"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	writeRows(t, f, "b2b", [][]any{
		{"GSTIN/UIN", "Invoice No", "Date of Invoice", "Invoice Value", "GST%", "Taxable Value", "CESS", "Place Of Supply", "RCM Applicable"},
		{"24AAACC1206D1ZM", "INV-001", "03-03-2026", 1180, 18, 1000, 0, "24-Gujarat", "No"},
		{"24AAACC1206D1ZM", "INV-001", "03-03-2026", 1180, 12, 150, 0, "24-Gujarat", "No"},
		{"07ABCDE1234F1Z5", "INV-002", "04-03-2026", 590, 18, 500, 0, "07-Delhi", "Yes"},
	})

	if _, err := f.NewSheet("b2cs"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	writeRows(t, f, "b2cs", [][]any{
		{"Type", "Place Of Supply", "GST%", "Taxable Value", "CESS"},
		{"OE", "24-Gujarat", 18, 200, 0},
		{"OE", "24-Gujarat", 18, 300, 5},
		{"OE", "29-Karnataka", 18, 400, 0},
	})

	if _, err := f.NewSheet("hsn"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	writeRows(t, f, "hsn", [][]any{
		{"Type", "HSN", "Description", "UQC", "Total Quantity", "Total Value", "Rate", "Total Taxable Value", "IGST", "CGST", "SGST", "CESS"},
		{"B2B", "998412", "Telecommunication services rendered this period", "NOS-Numbers", 2, 1180, 18, 1000, 0, 90, 90, 0},
	})

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
				t.Fatalf("set cell: %v", err)
			}
		}
	}
}

func TestGenerateHeader(t *testing.T) {
	ret, err := Generate(buildWorkbook(t), "24AAACC1206D1ZM", "032026")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if ret.GSTIN != "24AAACC1206D1ZM" || ret.FP != "032026" || ret.Version != "V1.0" {
		t.Errorf("unexpected header: %+v", ret)
	}
}

func TestGenerateB2BGrouping(t *testing.T) {
	ret, err := Generate(buildWorkbook(t), "24AAACC1206D1ZM", "032026")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(ret.B2B) != 2 {
		t.Fatalf("b2b parties = %d, want 2", len(ret.B2B))
	}

	first := ret.B2B[0]
	if first.CTIN != "24AAACC1206D1ZM" {
		t.Errorf("first ctin = %q", first.CTIN)
	}
	if len(first.Invoices) != 1 {
		t.Fatalf("invoices for first party = %d, want 1", len(first.Invoices))
	}
	inv := first.Invoices[0]
	if inv.Number != "INV-001" || inv.POS != "24" || inv.ReverseCharge != "N" || inv.Type != "R" {
		t.Errorf("unexpected invoice: %+v", inv)
	}
	// Two rate lines of the same invoice become two items.
	if len(inv.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(inv.Items))
	}
	if inv.Items[0].Num != 1 || inv.Items[1].Num != 2 {
		t.Errorf("item numbering = %d,%d", inv.Items[0].Num, inv.Items[1].Num)
	}
	if inv.Items[0].Detail.Rate != 18 || inv.Items[0].Detail.Taxable != 1000 {
		t.Errorf("unexpected first item: %+v", inv.Items[0].Detail)
	}

	second := ret.B2B[1]
	if second.CTIN != "07ABCDE1234F1Z5" {
		t.Errorf("second ctin = %q", second.CTIN)
	}
	if second.Invoices[0].ReverseCharge != "Y" {
		t.Errorf("reverse charge = %q, want Y", second.Invoices[0].ReverseCharge)
	}
}

func TestGenerateB2CSGrouping(t *testing.T) {
	ret, err := Generate(buildWorkbook(t), "24AAACC1206D1ZM", "032026")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(ret.B2CS) != 2 {
		t.Fatalf("b2cs entries = %d, want 2", len(ret.B2CS))
	}

	home := ret.B2CS[0]
	if home.POS != "24" || home.SupplyType != "INTRA" {
		t.Errorf("unexpected home entry: %+v", home)
	}
	if home.Taxable != 500 || home.Cess != 5 {
		t.Errorf("home totals = %v/%v, want 500/5", home.Taxable, home.Cess)
	}

	away := ret.B2CS[1]
	if away.POS != "29" || away.SupplyType != "INTER" {
		t.Errorf("unexpected away entry: %+v", away)
	}
	if away.Taxable != 400 {
		t.Errorf("away taxable = %v, want 400", away.Taxable)
	}
}

func TestGenerateHSN(t *testing.T) {
	ret, err := Generate(buildWorkbook(t), "24AAACC1206D1ZM", "032026")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if ret.HSN == nil || len(ret.HSN.Data) != 1 {
		t.Fatalf("unexpected hsn section: %+v", ret.HSN)
	}
	e := ret.HSN.Data[0]
	if e.Num != 1 || e.Code != "998412" {
		t.Errorf("unexpected hsn entry: %+v", e)
	}
	if len(e.Desc) > 30 {
		t.Errorf("description not truncated: %q", e.Desc)
	}
	if e.UQC != "NOS" {
		t.Errorf("uqc = %q, want NOS", e.UQC)
	}
	if e.Taxable != 1000 || e.CGST != 90 || e.SGST != 90 {
		t.Errorf("unexpected hsn amounts: %+v", e)
	}
}

func TestGenerateSkipsMissingSheets(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	ret, err := Generate(buf.Bytes(), "24AAACC1206D1ZM", "032026")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if ret.B2B != nil || ret.B2CS != nil || ret.HSN != nil {
		t.Errorf("sections populated for empty workbook: %+v", ret)
	}
}
