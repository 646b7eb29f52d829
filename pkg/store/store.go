// Package store persists the item collection as a single document.
//
// A Store has no notion of individual items: it loads the whole ordered
// collection and saves it back in one piece. Callers own the
// load-modify-save cycle.
package store

import (
	"context"
	"fmt"

	"github.com/docker/itemd/pkg/item"
)

// MemoryLocation selects the in-process store in Open.
const MemoryLocation = ":memory:"

// Store defines the interface for item collection storage
type Store interface {
	// Load returns the persisted collection in insertion order. A store
	// that has never been saved yields an empty collection.
	Load(ctx context.Context) ([]item.Item, error)
	// Save replaces the persisted collection with items.
	Save(ctx context.Context, items []item.Item) error
}

// Open returns the store for a location: an in-memory store for
// MemoryLocation, a JSON file store otherwise.
func Open(location string) Store {
	if location == MemoryLocation {
		return NewMemoryStore()
	}
	return NewJSONStore(location)
}

// CorruptStoreError reports a document that exists but is not a valid
// serialized collection of items.
type CorruptStoreError struct {
	Path string
	Err  error
}

func (e *CorruptStoreError) Error() string {
	return fmt.Sprintf("corrupt item store %s: %v", e.Path, e.Err)
}

func (e *CorruptStoreError) Unwrap() error {
	return e.Err
}

// IOError reports a failure to read or write the persistence medium.
// A missing document is not an IOError.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("item store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
