// Package continuation stores full-length answers behind opaque handles so
// a later "MORE" reply can expand a truncated response without re-running
// the backend. Entries are time-bounded: the answer is already computed, so
// storage, not recomputation, is the right abstraction.
package continuation

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL bounds how long a continuation stays resolvable. The source
// behavior leaves expiry unspecified; 24 hours is the documented choice.
const DefaultTTL = 24 * time.Hour

// defaultCapacity bounds the in-memory store.
const defaultCapacity = 4096

// Entry associates a continuation with its originating task.
type Entry struct {
	TaskID   uint64
	FullText string
}

// Store persists continuation entries for later resolution.
type Store interface {
	Save(ctx context.Context, id string, entry Entry) error
	// Resolve returns the entry for id. The second return is false for
	// unknown or expired ids.
	Resolve(ctx context.Context, id string) (Entry, bool, error)
}

// NewID returns a fresh opaque continuation identifier.
func NewID() string {
	return uuid.NewString()
}

type memoryEntry struct {
	id        string
	value     Entry
	expiresAt time.Time
	element   *list.Element
}

// MemoryStore is an LRU continuation store with TTL eviction.
type MemoryStore struct {
	capacity int
	ttl      time.Duration
	nowFn    func() time.Time

	mu      sync.Mutex
	entries map[string]*memoryEntry
	order   *list.List
}

// NewMemoryStore constructs a MemoryStore. Zero values select the defaults;
// nowFn may be injected for tests.
func NewMemoryStore(capacity int, ttl time.Duration, nowFn func() time.Time) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &MemoryStore{
		capacity: capacity,
		ttl:      ttl,
		nowFn:    nowFn,
		entries:  make(map[string]*memoryEntry),
		order:    list.New(),
	}
}

// Save stores an entry, evicting the least recently used one when full.
func (s *MemoryStore) Save(_ context.Context, id string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[id]; ok {
		existing.value = entry
		existing.expiresAt = s.nowFn().Add(s.ttl)
		s.order.MoveToFront(existing.element)
		return nil
	}

	if len(s.entries) >= s.capacity {
		oldest := s.order.Back()
		if oldest != nil {
			s.remove(oldest.Value.(*memoryEntry))
		}
	}

	e := &memoryEntry{
		id:        id,
		value:     entry,
		expiresAt: s.nowFn().Add(s.ttl),
	}
	e.element = s.order.PushFront(e)
	s.entries[id] = e
	return nil
}

// Resolve returns the stored entry, dropping it if expired.
func (s *MemoryStore) Resolve(_ context.Context, id string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return Entry{}, false, nil
	}
	if s.nowFn().After(e.expiresAt) {
		s.remove(e)
		return Entry{}, false, nil
	}
	s.order.MoveToFront(e.element)
	return e.value, true, nil
}

func (s *MemoryStore) remove(e *memoryEntry) {
	delete(s.entries, e.id)
	s.order.Remove(e.element)
}
