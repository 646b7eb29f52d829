package store

import (
	"context"
	"slices"
	"sync"

	"github.com/docker/itemd/pkg/item"
)

// MemoryStore holds the collection in process memory. Load and Save copy
// the slice so callers never share backing arrays with the store.
type MemoryStore struct {
	mu    sync.Mutex
	items []item.Item
}

func NewMemoryStore(items ...item.Item) *MemoryStore {
	return &MemoryStore{items: slices.Clone(items)}
}

func (s *MemoryStore) Load(ctx context.Context) ([]item.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]item.Item, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *MemoryStore) Save(ctx context.Context, items []item.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = slices.Clone(items)
	return nil
}
