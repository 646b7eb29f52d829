package store

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/docker/itemd/pkg/item"
)

//go:embed items.schema.json
var documentSchema []byte

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(documentSchema))
})

// decode validates a raw document against the collection schema and
// decodes it. Any failure is reported as a CorruptStoreError.
func decode(path string, data []byte) ([]item.Item, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("loading item document schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &CorruptStoreError{Path: path, Err: err}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, &CorruptStoreError{Path: path, Err: errors.New(strings.Join(msgs, "; "))}
	}

	var items []item.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &CorruptStoreError{Path: path, Err: err}
	}

	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.ID]; dup {
			return nil, &CorruptStoreError{Path: path, Err: fmt.Errorf("duplicate item id %q", it.ID)}
		}
		seen[it.ID] = struct{}{}
	}

	if items == nil {
		items = []item.Item{}
	}
	return items, nil
}
