package google

import (
	"context"
	"testing"
	"time"

	ports "camate/internal/sheets"

	"github.com/shopspring/decimal"
)

func TestSummaryRow(t *testing.T) {
	s := ports.RunSummary{
		RunID:        "run-1",
		GSTIN:        "24AAACC1206D1ZM",
		Period:       "032026",
		TotalChecked: 12,
		TotalInvalid: 2,
		TotalMoved:   2,
		Taxable:      decimal.NewFromFloat(1400.5),
		TotalTax:     decimal.NewFromInt(252),
		CompletedAt:  time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC),
	}

	row := summaryRow(s)
	if len(row) != 9 {
		t.Fatalf("row length = %d, want 9", len(row))
	}
	if row[0] != "run-1" || row[1] != "24AAACC1206D1ZM" || row[2] != "032026" {
		t.Errorf("identity columns = %v", row[:3])
	}
	if row[3] != 12 || row[4] != 2 || row[5] != 2 {
		t.Errorf("count columns = %v", row[3:6])
	}
	if row[6] != "1400.50" || row[7] != "252.00" {
		t.Errorf("amount columns = %v", row[6:8])
	}
	if row[8] != "2026-03-15 09:30:00" {
		t.Errorf("completed column = %v", row[8])
	}
}

func TestSummaryRowZeroTime(t *testing.T) {
	row := summaryRow(ports.RunSummary{RunID: "run-1"})
	if row[8] != "" {
		t.Errorf("completed column = %v, want empty", row[8])
	}
}

func TestNewClientValidation(t *testing.T) {
	ctx := context.Background()

	if _, err := NewClient(ctx, "", "Filings", []byte("{}")); err == nil {
		t.Error("NewClient should fail without spreadsheet ID")
	}
	if _, err := NewClient(ctx, "sheet-id", "Filings", nil); err == nil {
		t.Error("NewClient should fail without credentials")
	}
}
