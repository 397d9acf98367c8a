package search

import (
	"context"
	"sync"
)

// MemoryBackend keeps items in a map. Useful for tests and small sites that
// reindex on every start.
type MemoryBackend struct {
	items map[string]*Item
	mu    sync.RWMutex
}

func NewMemoryBackend(items ...*Item) *MemoryBackend {
	be := &MemoryBackend{items: make(map[string]*Item, len(items))}
	for _, it := range items {
		be.items[it.ID] = it
	}
	return be
}

func (be *MemoryBackend) Search(ctx context.Context, q Query) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	be.mu.RLock()
	items := make([]*Item, 0, len(be.items))
	for _, it := range be.items {
		items = append(items, it)
	}
	be.mu.RUnlock()
	return Evaluate(items, q), nil
}

func (be *MemoryBackend) Update(_ context.Context, items ...*Item) error {
	be.mu.Lock()
	defer be.mu.Unlock()
	for _, it := range items {
		be.items[it.ID] = it
	}
	return nil
}

func (be *MemoryBackend) Remove(_ context.Context, ids ...string) error {
	be.mu.Lock()
	defer be.mu.Unlock()
	for _, id := range ids {
		delete(be.items, id)
	}
	return nil
}

func (be *MemoryBackend) Clear(_ context.Context) error {
	be.mu.Lock()
	defer be.mu.Unlock()
	be.items = make(map[string]*Item)
	return nil
}

// Replace swaps in a fresh map holding only items.
func (be *MemoryBackend) Replace(_ context.Context, items ...*Item) error {
	fresh := make(map[string]*Item, len(items))
	for _, it := range items {
		fresh[it.ID] = it
	}
	be.mu.Lock()
	be.items = fresh
	be.mu.Unlock()
	return nil
}

func (be *MemoryBackend) Close() error { return nil }
