package state

import (
	"context"
	"strings"
	"sync"
	"testing"
)

type memoryStore struct {
	mu    sync.Mutex
	items map[string]string
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.items[key]
	return val, ok, nil
}

func (m *memoryStore) Set(ctx context.Context, key, value string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = make(map[string]string)
	}
	m.items[key] = value
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *memoryStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *memoryStore) Close() error { return nil }

func TestPendingHedgeRoundTrip(t *testing.T) {
	store := &memoryStore{}
	ctx := context.Background()

	hedge := PendingHedge{
		FillKey:   "oid-7:t-1",
		Side:      "BUY",
		Quantity:  0.5,
		FillPrice: 100.30,
		Reason:    "submission timeout",
		Attempts:  1,
	}
	if err := SavePendingHedge(ctx, store, hedge); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loaded, err := LoadPendingHedges(ctx, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 pending hedge, got %d", len(loaded))
	}
	if loaded[0].FillKey != hedge.FillKey || loaded[0].Quantity != hedge.Quantity {
		t.Fatalf("round trip mismatch: %+v", loaded[0])
	}

	if err := DeletePendingHedge(ctx, store, hedge.FillKey); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loaded, err = LoadPendingHedges(ctx, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected no pending hedges after delete, got %d", len(loaded))
	}
}

func TestPendingHedgeNilStore(t *testing.T) {
	ctx := context.Background()
	if err := SavePendingHedge(ctx, nil, PendingHedge{FillKey: "x"}); err != nil {
		t.Fatalf("nil store must be a no-op, got %v", err)
	}
	loaded, err := LoadPendingHedges(ctx, nil)
	if err != nil || loaded != nil {
		t.Fatalf("nil store must load nothing, got %v err=%v", loaded, err)
	}
}
