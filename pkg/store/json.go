package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/docker/itemd/pkg/item"
)

// JSONStore keeps the collection in a single human-readable JSON file.
// Writes go through a temporary file and a rename, so readers see either
// the previous or the new document, never a partial one. There is no
// cross-process locking.
type JSONStore struct {
	path string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the location of the document.
func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) Load(ctx context.Context) ([]item.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []item.Item{}, nil
		}
		return nil, &IOError{Op: "read", Path: s.path, Err: err}
	}

	return decode(s.path, data)
}

func (s *JSONStore) Save(ctx context.Context, items []item.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if items == nil {
		items = []item.Item{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return &IOError{Op: "encode", Path: s.path, Err: err}
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}

	return nil
}
