// Package ledger holds the in-memory transaction snapshot for a session and
// the pure view computations (balance, filtering, sorting) derived from it.
package ledger

import (
	"errors"
	"sync"

	"expensetracker/internal/models"
)

var (
	// ErrMissingID is returned when adding a record the document store has not persisted yet.
	ErrMissingID = errors.New("ledger: transaction has no id")
	// ErrDuplicateID is returned when adding a record whose id is already held.
	ErrDuplicateID = errors.New("ledger: duplicate transaction id")
)

// Store is the authoritative, insertion-ordered collection of a session's
// transactions. It only ever holds records the document store has confirmed.
type Store struct {
	mu      sync.RWMutex
	records []models.Transaction
	ids     map[string]struct{}
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{ids: make(map[string]struct{})}
}

// ReplaceAll swaps the contents for a freshly loaded snapshot. The snapshot is
// put in the default newest-first order; records with an empty or repeated id
// are dropped so ids stay unique.
func (s *Store) ReplaceAll(records []models.Transaction) {
	next := make([]models.Transaction, 0, len(records))
	ids := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		if _, dup := ids[r.ID]; dup {
			continue
		}
		ids[r.ID] = struct{}{}
		next = append(next, r)
	}
	sortStable(next, DefaultSortKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = next
	s.ids = ids
}

// Add appends a record confirmed by the document store.
func (s *Store) Add(record models.Transaction) error {
	if record.ID == "" {
		return ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.ids[record.ID]; dup {
		return ErrDuplicateID
	}
	s.ids[record.ID] = struct{}{}
	s.records = append(s.records, record)
	return nil
}

// Remove deletes the record with the given id. It reports false when no such
// record is held.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; !ok {
		return false
	}
	delete(s.ids, id)
	for i := range s.records {
		if s.records[i].ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			break
		}
	}
	return true
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.ids = make(map[string]struct{})
}

// All returns a copy of the current records.
func (s *Store) All() []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Transaction, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
