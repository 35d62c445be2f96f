// Package google appends run summaries to a Google Sheets filing
// register using a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ports "camate/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.SummaryWriter = (*Client)(nil)

// NewClient creates a Sheets client from inline service account JSON.
func NewClient(ctx context.Context, spreadsheetID, sheetName string, credentialsJSON []byte) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Filings"
	}
	if len(credentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", spreadsheetID,
		"sheet", sheetName)

	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// NewClientFromFile creates a Sheets client reading service account
// credentials from a file.
func NewClientFromFile(ctx context.Context, spreadsheetID, sheetName, credentialsFile string) (*Client, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return NewClient(ctx, spreadsheetID, sheetName, credentialsJSON)
}

// Append writes one summary row below the existing content and returns
// the updated range as the row reference.
func (c *Client) Append(ctx context.Context, s ports.RunSummary) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:I", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{summaryRow(s)}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}

	slog.InfoContext(ctx, "Appended run summary",
		"run_id", s.RunID,
		"sheets_ref", ref)

	return ref, nil
}

// summaryRow flattens a summary into the register's column order:
// run, GSTIN, period, counts, amounts, completion time.
func summaryRow(s ports.RunSummary) []any {
	completed := ""
	if !s.CompletedAt.IsZero() {
		completed = s.CompletedAt.UTC().Format("2006-01-02 15:04:05")
	}
	return []any{
		s.RunID,
		s.GSTIN,
		s.Period,
		s.TotalChecked,
		s.TotalInvalid,
		s.TotalMoved,
		s.Taxable.StringFixed(2),
		s.TotalTax.StringFixed(2),
		completed,
	}
}
