package continuation

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemoryStore_SaveAndResolve(t *testing.T) {
	store := NewMemoryStore(10, time.Hour, nil)
	id := NewID()

	if err := store.Save(context.Background(), id, Entry{TaskID: 7, FullText: "full answer"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	entry, ok, err := store.Resolve(context.Background(), id)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !ok {
		t.Fatalf("expected entry to resolve")
	}
	if entry.TaskID != 7 || entry.FullText != "full answer" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestMemoryStore_UnknownIDMisses(t *testing.T) {
	store := NewMemoryStore(10, time.Hour, nil)
	_, ok, err := store.Resolve(context.Background(), NewID())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ok {
		t.Fatalf("expected miss for unknown id")
	}
}

func TestMemoryStore_EntriesExpire(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore(10, 24*time.Hour, func() time.Time { return now })

	id := NewID()
	if err := store.Save(context.Background(), id, Entry{TaskID: 1, FullText: "text"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	now = now.Add(23 * time.Hour)
	if _, ok, _ := store.Resolve(context.Background(), id); !ok {
		t.Fatalf("expected entry alive within ttl")
	}

	now = now.Add(2 * time.Hour)
	if _, ok, _ := store.Resolve(context.Background(), id); ok {
		t.Fatalf("expected entry expired after ttl")
	}
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	store := NewMemoryStore(2, time.Hour, nil)

	if err := store.Save(context.Background(), "a", Entry{FullText: "a"}); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := store.Save(context.Background(), "b", Entry{FullText: "b"}); err != nil {
		t.Fatalf("save b: %v", err)
	}
	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok, _ := store.Resolve(context.Background(), "a"); !ok {
		t.Fatalf("expected a to resolve")
	}
	if err := store.Save(context.Background(), "c", Entry{FullText: "c"}); err != nil {
		t.Fatalf("save c: %v", err)
	}

	if _, ok, _ := store.Resolve(context.Background(), "b"); ok {
		t.Fatalf("expected b evicted")
	}
	if _, ok, _ := store.Resolve(context.Background(), "a"); !ok {
		t.Fatalf("expected a kept")
	}
	if _, ok, _ := store.Resolve(context.Background(), "c"); !ok {
		t.Fatalf("expected c kept")
	}
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewID()
		if id == "" {
			t.Fatalf("expected non-empty id")
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestMemoryStore_CapacityDefaultApplies(t *testing.T) {
	store := NewMemoryStore(0, 0, nil)
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("id-%d", i)
		if err := store.Save(context.Background(), id, Entry{FullText: id}); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	if _, ok, _ := store.Resolve(context.Background(), "id-0"); !ok {
		t.Fatalf("expected well under default capacity to keep entries")
	}
}
