// Package memory keeps run summaries in process memory. It backs local
// development and tests where no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"camate/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []sheets.RunSummary
}

func New() *Store {
	return &Store{}
}

// Append stores the summary and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, summary sheets.RunSummary) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, summary)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of the stored summaries in append order.
func (s *Store) Rows() []sheets.RunSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.RunSummary(nil), s.rows...)
}
