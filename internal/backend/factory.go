package backend

import (
	"context"
	"fmt"
	"log/slog"

	gsheet "camate/internal/sheets/google"
	"camate/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new register factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateRegister implements Factory.CreateRegister
func (f *DefaultFactory) CreateRegister(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SheetsType:
		return f.createSheetsRegister(ctx, config)
	case MemoryType:
		return f.createMemoryRegister()
	default:
		return nil, fmt.Errorf("unsupported register backend: %s", config.Type)
	}
}

func (f *DefaultFactory) createSheetsRegister(ctx context.Context, config Config) (*Result, error) {
	var (
		cli *gsheet.Client
		err error
	)
	if config.GoogleCredentialsJSON != "" {
		cli, err = gsheet.NewClient(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName, []byte(config.GoogleCredentialsJSON))
	} else {
		cli, err = gsheet.NewClientFromFile(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName, config.GoogleCredentialsFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets register: %w", err)
	}

	f.logger.Info("Initialized Google Sheets filing register",
		"spreadsheet_id", config.GoogleSpreadsheetID)

	return &Result{
		Register: cli,
		Cleanup:  nil,
	}, nil
}

func (f *DefaultFactory) createMemoryRegister() (*Result, error) {
	store := memory.New()

	f.logger.Info("Initialized in-memory filing register")

	return &Result{
		Register: store,
		Cleanup:  nil,
	}, nil
}
