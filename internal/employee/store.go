package employee

import (
	"sync"

	"github.com/google/uuid"
)

// Store holds the authoritative employee set in memory, in insertion order.
// Nothing is persisted; the set lives and dies with the process.
//
// Email uniqueness is deliberately not enforced here. The editing surface
// owns that check, and the store accepts whatever it is given.
type Store struct {
	mu        sync.RWMutex
	employees []Employee
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Create assigns a fresh id, appends the record and returns it.
func (s *Store) Create(f Fields) Employee {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := Employee{
		ID:        uuid.NewString(),
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Position:  f.Position,
		Phone:     f.Phone,
		Email:     f.Email,
	}
	s.employees = append(s.employees, e)
	return e
}

// List returns a copy of the full record set in insertion order.
func (s *Store) List() []Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Employee, len(s.employees))
	copy(out, s.employees)
	return out
}

// Get returns the employee with the given id, or ErrNotFound.
func (s *Store) Get(id string) (Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return Employee{}, ErrNotFound
}

// Update merges the patch onto the employee with the given id and returns
// the updated record. The id itself is never overwritten.
func (s *Store) Update(id string, p Patch) (Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.employees {
		if s.employees[i].ID == id {
			p.Apply(&s.employees[i])
			return s.employees[i], nil
		}
	}
	return Employee{}, ErrNotFound
}

// DeleteAll clears the set and reports how many records were removed.
// An already-empty store returns ErrNothingToDelete so callers can tell
// "nothing to do" apart from "cleared N records".
func (s *Store) DeleteAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.employees)
	if n == 0 {
		return 0, ErrNothingToDelete
	}
	s.employees = nil
	return n, nil
}

// EmailExists reports whether any employee already uses the given address.
func (s *Store) EmailExists(email string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.employees {
		if e.Email == email {
			return true
		}
	}
	return false
}
