package backend

import (
	"context"

	"camate/internal/sheets"
)

// Type identifies a filing register backend.
type Type string

const (
	// MemoryType keeps run summaries in process memory.
	MemoryType Type = "memory"
	// SheetsType appends run summaries to a Google Sheets filing register.
	SheetsType Type = "sheets"
)

// IsValid reports whether the type names a known backend.
func (t Type) IsValid() bool {
	switch t {
	case MemoryType, SheetsType:
		return true
	}
	return false
}

func (t Type) String() string {
	return string(t)
}

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result contains the register instance and optional cleanup function.
type Result struct {
	Register sheets.SummaryWriter
	Cleanup  CleanupFunc
}

// Factory creates filing registers based on configuration.
type Factory interface {
	// CreateRegister creates a register instance based on the provided config.
	CreateRegister(ctx context.Context, config Config) (*Result, error)
}
