package backend

import (
	"context"
	"strings"
	"testing"

	appconfig "camate/internal/config"
)

func TestTypeIsValid(t *testing.T) {
	tests := []struct {
		t    Type
		want bool
	}{
		{MemoryType, true},
		{SheetsType, true},
		{Type("sqlite"), false},
		{Type(""), false},
	}
	for _, tt := range tests {
		if got := tt.t.IsValid(); got != tt.want {
			t.Errorf("Type(%q).IsValid() = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestCreateMemoryRegister(t *testing.T) {
	factory := NewFactory(nil)

	result, err := factory.CreateRegister(context.Background(), Config{Type: MemoryType})
	if err != nil {
		t.Fatalf("CreateRegister: %v", err)
	}
	if result.Register == nil {
		t.Fatal("expected a register instance")
	}
	if result.Cleanup != nil {
		t.Error("memory register needs no cleanup")
	}
}

func TestCreateRegisterRejectsInvalidType(t *testing.T) {
	factory := NewFactory(nil)

	_, err := factory.CreateRegister(context.Background(), Config{Type: Type("postgres")})
	if err == nil {
		t.Fatal("expected an error for an unknown backend type")
	}
}

func TestCreateRegisterValidatesSheetsConfig(t *testing.T) {
	factory := NewFactory(nil)

	_, err := factory.CreateRegister(context.Background(), Config{Type: SheetsType})
	if err == nil {
		t.Fatal("expected an error for sheets backend without spreadsheet ID")
	}
	if !strings.Contains(err.Error(), "Spreadsheet ID") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&appconfig.Config{
		SummaryBackend:        "sheets",
		GoogleSpreadsheetID:   "sheet-id",
		GoogleSheetName:       "Filings",
		GoogleCredentialsJSON: `{"type":"service_account"}`,
	})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SheetsType {
		t.Errorf("Type = %q, want %q", cfg.Type, SheetsType)
	}
	if cfg.GoogleSpreadsheetID != "sheet-id" || cfg.GoogleSheetName != "Filings" {
		t.Errorf("sheets fields not carried over: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	if _, err := FromAppConfig(&appconfig.Config{SummaryBackend: "bogus"}); err == nil {
		t.Error("expected an error for an unknown backend name")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected an error for nil config")
	}
}
