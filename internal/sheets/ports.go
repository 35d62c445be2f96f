package sheets

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RunSummary is one completed verification run, flattened for the firm's
// filing register.
type RunSummary struct {
	RunID        string
	GSTIN        string
	Period       string
	TotalChecked int
	TotalInvalid int
	TotalMoved   int
	Taxable      decimal.Decimal
	TotalTax     decimal.Decimal
	CompletedAt  time.Time
}

// SummaryWriter is the outbound port for the filing register backend.
type SummaryWriter interface {
	Append(ctx context.Context, s RunSummary) (rowRef string, err error)
}
