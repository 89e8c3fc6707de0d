// Package memory is an in-memory mirror used in tests and when the Google
// Sheets integration is disabled.
package memory

import (
	"context"
	"fmt"
	"sync"

	"porsi/internal/core"
)

type row struct {
	entry core.DailyEntry
	sales core.Money
}

type Store struct {
	mu   sync.Mutex
	rows map[int64]row
}

func New() *Store {
	return &Store{rows: make(map[int64]row)}
}

// UpsertEntry stores the entry together with the sales amount derived from
// the contract price, mirroring the column the real sheet carries.
func (s *Store) UpsertEntry(_ context.Context, e core.DailyEntry, c core.Contract) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[e.ID] = row{entry: e, sales: e.SalesAmount(c.PricePerPortion)}
	return fmt.Sprintf("mem:%d", e.ID), nil
}

func (s *Store) RemoveEntry(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

// Entry reports the stored entry, for test assertions.
func (s *Store) Entry(id int64) (core.DailyEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	return r.entry, ok
}

// Sales reports the mirrored sales amount for an entry.
func (s *Store) Sales(id int64) (core.Money, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	return r.sales, ok
}

// Len reports how many entries are mirrored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
