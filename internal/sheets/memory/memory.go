// Package memory is an in-process sheets.TableWriter used for dry runs and
// tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"financeflow/internal/sheets"
)

var _ sheets.TableWriter = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	header []string
	rows   [][]string
	writes int
}

func New() *Store {
	return &Store{}
}

// ReplaceTable keeps a deep copy of the table.
func (s *Store) ReplaceTable(_ context.Context, header []string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.header = slices.Clone(header)
	s.rows = make([][]string, len(rows))
	for i, r := range rows {
		s.rows[i] = slices.Clone(r)
	}
	s.writes++
	return nil
}

// Table returns the last table written.
func (s *Store) Table() (header []string, rows [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.header, s.rows
}

// Writes counts ReplaceTable calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
