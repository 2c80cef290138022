// Package memory is an in-process LedgerMirror used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "opsledger/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows map[string]ports.MirrorRow
}

var _ ports.LedgerMirror = (*Store)(nil)

func New() *Store {
	return &Store{rows: map[string]ports.MirrorRow{}}
}

func (s *Store) Upsert(_ context.Context, row ports.MirrorRow) (string, error) {
	if row.PaymentID == "" {
		return "", fmt.Errorf("mirror row missing payment id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[row.PaymentID] = row
	return "mem:" + row.PaymentID, nil
}

func (s *Store) Remove(_ context.Context, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, paymentID)
	return nil
}

// Get returns the mirrored row, if present.
func (s *Store) Get(paymentID string) (ports.MirrorRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[paymentID]
	return row, ok
}

// Len reports how many rows are mirrored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
