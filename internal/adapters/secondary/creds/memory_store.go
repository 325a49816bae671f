// Package creds provides an in-memory CredentialStore for embedding and
// testing.
package creds

import (
	"sync"

	"github.com/gridsec/pilotproxy/internal/core/ports"
)

// MemoryStore is a thread-safe in-memory credential store. Records
// accumulate per kind in insertion order; duplicates are kept, matching the
// best-effort accumulation contract.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[ports.CredentialKind][]string
	failOn  map[string]struct{}
}

var _ ports.CredentialStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[ports.CredentialKind][]string),
		failOn:  make(map[string]struct{}),
	}
}

// AddCredential implements ports.CredentialStore.
func (s *MemoryStore) AddCredential(kind ports.CredentialKind, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, fail := s.failOn[value]; fail {
		return errRejected{value: value}
	}
	s.records[kind] = append(s.records[kind], value)
	return nil
}

// Records returns the stored values for kind, in insertion order.
func (s *MemoryStore) Records(kind ports.CredentialKind) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.records[kind]))
	copy(out, s.records[kind])
	return out
}

// Len returns the total number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, values := range s.records {
		total += len(values)
	}
	return total
}

// RejectValue makes subsequent AddCredential calls for value fail. Used to
// exercise the best-effort store contract in tests.
func (s *MemoryStore) RejectValue(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[value] = struct{}{}
}

type errRejected struct{ value string }

func (e errRejected) Error() string {
	return "credential store rejected value " + e.value
}
