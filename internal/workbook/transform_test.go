package workbook

import "testing"

func TestDetectSheet(t *testing.T) {
	cases := []struct {
		filename string
		sheet    string
		ok       bool
	}{
		{"B2B_invoices_march.csv", SheetB2B, true},
		{"b2cl.csv", SheetB2CL, true},
		{"B2CS-export.csv", SheetB2CS, true},
		{"EXP_2026.csv", SheetExport, true},
		{"exempt_supplies.csv", SheetExempt, true},
		{"CDNR.csv", SheetCDNR, true},
		{"CDNUR.csv", SheetCDNUR, true},
		{"AT.csv", SheetAT, true},
		{"ATADJ.csv", SheetATAdj, true},
		{"docs_issued.csv", SheetDocs, true},
		{"HSN_B2B.csv", SheetHSN, true},
		{"random.csv", "", false},
	}
	for _, tc := range cases {
		sheet, ok := DetectSheet(tc.filename)
		if sheet != tc.sheet || ok != tc.ok {
			t.Errorf("DetectSheet(%q) = (%q, %v), want (%q, %v)", tc.filename, sheet, ok, tc.sheet, tc.ok)
		}
	}
}

func TestCleanPlaceOfSupply(t *testing.T) {
	cases := map[string]string{
		"33-Tamil Nadu":  "Tamil Nadu",
		"07- Delhi":      "Delhi",
		"Karnataka":      "Karnataka",
		"":               "",
		"29-  Karnataka": "Karnataka",
	}
	for in, want := range cases {
		if got := CleanPlaceOfSupply(in); got != want {
			t.Errorf("CleanPlaceOfSupply(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"03-Mar-26":   "03-03-2026",
		"3-Mar-26":    "03-03-2026",
		"15-Dec-25":   "15-12-2025",
		"2026-03-03":  "2026-03-03",
		"not a date":  "not a date",
		"":            "",
		"31-XYZ-26":   "31-XYZ-26",
	}
	for in, want := range cases {
		if got := NormalizeDate(in); got != want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", in, got, want)
		}
	}
}
