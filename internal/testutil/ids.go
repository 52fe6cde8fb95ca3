package testutil

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
)

// SequentialIDs hands out predictable UUIDs for tests.
//
// The n-th call to Next returns ID(n), so golden snapshots and assertions can
// name the IDs a store assigns without reading them back.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu  sync.Mutex
	seq uint64
}

// NewSequentialIDs creates a source whose first ID is ID(1).
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// Next returns the next ID in the sequence.
func (s *SequentialIDs) Next() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return ID(s.seq)
}

// Current returns how many IDs have been handed out.
func (s *SequentialIDs) Current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Reset restarts the sequence. After Reset, Next returns ID(1).
func (s *SequentialIDs) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}

// ID returns the UUID whose low eight bytes encode n:
//
//	ID(1) == 00000000-0000-0000-0000-000000000001
func ID(n uint64) uuid.UUID {
	var id uuid.UUID
	binary.BigEndian.PutUint64(id[8:], n)
	return id
}
