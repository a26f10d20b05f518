// Package runs keeps analysis records in memory, keyed by run id.
package runs

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HendryAvila/minto/internal/pyramid"
)

// ErrNotFound is returned for unknown, evicted or expired run ids.
var ErrNotFound = errors.New("run not found")

// idAttempts bounds the collision retry loop in Create.
const idAttempts = 16

// Store defines the persistence interface for analysis records.
// Abstracted for testability (DIP).
type Store interface {
	// Create assigns a fresh id to rec, stores it and returns the id.
	Create(rec *pyramid.Record) (string, error)
	// Get returns a copy of the record.
	Get(id string) (*pyramid.Record, error)
	// Update applies fn to a copy of the record and commits the copy when
	// fn returns nil. Updates to the same run are serialized.
	Update(id string, fn func(rec *pyramid.Record) error) (*pyramid.Record, error)
	// Delete removes a run. It reports whether the run existed.
	Delete(id string) bool
	// List returns summaries of all live runs, newest first.
	List() []pyramid.RunSummary
	// Sweep removes runs idle longer than the TTL and returns how many.
	Sweep(now time.Time) int
	// Len returns the number of stored runs.
	Len() int
}

type entry struct {
	mu         sync.Mutex // serializes Update for this run
	rec        *pyramid.Record
	lastAccess time.Time
}

// MemoryStore implements Store with a map guarded by a mutex, a TTL on
// last access and an LRU bound on the number of runs.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	maxRuns int
	newID   func() string
}

// NewMemoryStore creates a store. A zero ttl disables expiry and a zero
// maxRuns disables the LRU bound.
func NewMemoryStore(ttl time.Duration, maxRuns int) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		ttl:     ttl,
		maxRuns: maxRuns,
		newID:   shortID,
	}
}

// shortID returns the first 8 hex digits of a random UUID.
func shortID() string {
	return uuid.NewString()[:8]
}

// Create stores rec under a new id, evicting the least recently used run
// when the store is full.
func (s *MemoryStore) Create(rec *pyramid.Record) (string, error) {
	if rec == nil {
		return "", errors.New("creating run: nil record")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ""
	for range idAttempts {
		candidate := s.newID()
		if _, taken := s.entries[candidate]; !taken {
			id = candidate
			break
		}
	}
	if id == "" {
		return "", fmt.Errorf("creating run: no free id after %d attempts", idAttempts)
	}

	if s.maxRuns > 0 {
		for len(s.entries) >= s.maxRuns {
			s.evictOldestLocked()
		}
	}

	stored := rec.Clone()
	stored.ID = id
	rec.ID = id
	s.entries[id] = &entry{rec: stored, lastAccess: timeNow()}
	return id, nil
}

// Get returns a copy of the record and refreshes its last access time.
func (s *MemoryStore) Get(id string) (*pyramid.Record, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec.Clone(), nil
}

// Update runs fn on a copy of the record under the run's lock. The copy
// replaces the stored record only when fn succeeds.
func (s *MemoryStore) Update(id string, fn func(rec *pyramid.Record) error) (*pyramid.Record, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	working := e.rec.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	e.rec = working
	return working.Clone(), nil
}

// Delete removes a run.
func (s *MemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	return true
}

// List returns summaries of live runs, newest first. Listing does not
// count as access.
func (s *MemoryStore) List() []pyramid.RunSummary {
	s.mu.Lock()
	now := timeNow()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !s.expired(e, now) {
			entries = append(entries, e)
		}
	}
	s.mu.Unlock()

	out := make([]pyramid.RunSummary, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.rec.Summary())
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Sweep removes every run idle for longer than the TTL.
func (s *MemoryStore) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored runs, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// lookup finds a live entry and refreshes its access time. Expired
// entries are dropped on sight.
func (s *MemoryStore) lookup(id string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	now := timeNow()
	if s.expired(e, now) {
		delete(s.entries, id)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.lastAccess = now
	return e, nil
}

func (s *MemoryStore) expired(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastAccess) > s.ttl
}

func (s *MemoryStore) evictOldestLocked() {
	oldestID := ""
	var oldest time.Time
	for id, e := range s.entries {
		if oldestID == "" || e.lastAccess.Before(oldest) {
			oldestID, oldest = id, e.lastAccess
		}
	}
	if oldestID != "" {
		delete(s.entries, oldestID)
	}
}
