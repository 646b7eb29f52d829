// Package service implements the item operations on top of a store.
//
// Every operation loads the full collection from the store. Mutating
// operations write the full collection back once the target item was
// found, and write nothing otherwise. Mutations are serialized per Service so that two concurrent
// requests in the same process cannot overwrite each other's result.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/docker/itemd/pkg/item"
	"github.com/docker/itemd/pkg/store"
)

const (
	tracerName = "itemd/service"

	// maxIDAttempts bounds regeneration when a generated id is empty or
	// already taken.
	maxIDAttempts = 8
)

var ErrIDExhausted = errors.New("could not generate a unique item id")

type Service struct {
	store  store.Store
	newID  func() string
	tracer trace.Tracer

	// mu serializes load-modify-save sequences.
	mu sync.Mutex
}

type Opt func(*Service)

// WithIDGenerator replaces the random UUID generator.
func WithIDGenerator(gen func() string) Opt {
	return func(s *Service) {
		s.newID = gen
	}
}

func WithTracer(tracer trace.Tracer) Opt {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(st store.Store, opts ...Opt) *Service {
	s := &Service{
		store:  st,
		newID:  uuid.NewString,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every item in insertion order.
func (s *Service) List(ctx context.Context) (_ []item.Item, err error) {
	ctx, span := s.tracer.Start(ctx, "item.list")
	defer func() { endSpan(span, err) }()

	items, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	span.SetAttributes(attribute.Int("item.count", len(items)))
	return items, nil
}

// Get returns the item with the given id. A missing item is reported
// through found, not through err.
func (s *Service) Get(ctx context.Context, id string) (_ item.Item, found bool, err error) {
	ctx, span := s.tracer.Start(ctx, "item.get", trace.WithAttributes(attribute.String("item.id", id)))
	defer func() { endSpan(span, err) }()

	items, err := s.store.Load(ctx)
	if err != nil {
		return item.Item{}, false, fmt.Errorf("getting item %q: %w", id, err)
	}

	i := item.Index(items, id)
	if i < 0 {
		return item.Item{}, false, nil
	}
	return items[i], true, nil
}

// Create appends a new item with a freshly generated id.
func (s *Service) Create(ctx context.Context, fields item.Fields) (_ item.Item, err error) {
	ctx, span := s.tracer.Start(ctx, "item.create")
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.Load(ctx)
	if err != nil {
		return item.Item{}, fmt.Errorf("creating item: %w", err)
	}

	id, err := s.uniqueID(items)
	if err != nil {
		return item.Item{}, err
	}

	created := item.New(id, fields)
	items = append(items, created)
	if err := s.store.Save(ctx, items); err != nil {
		return item.Item{}, fmt.Errorf("creating item: %w", err)
	}

	span.SetAttributes(attribute.String("item.id", id))
	return created, nil
}

// Update merges the present fields of patch into the item with the given
// id. The id itself never changes.
func (s *Service) Update(ctx context.Context, id string, patch item.Patch) (_ item.Item, found bool, err error) {
	ctx, span := s.tracer.Start(ctx, "item.update", trace.WithAttributes(attribute.String("item.id", id)))
	defer func() { endSpan(span, err) }()

	return s.mutate(ctx, id, patch.Apply)
}

// SetCompletion sets isComplete to value. It does not flip the current
// state: calling it twice with the same value changes nothing the second
// time.
func (s *Service) SetCompletion(ctx context.Context, id string, value bool) (_ item.Item, found bool, err error) {
	ctx, span := s.tracer.Start(ctx, "item.set_completion", trace.WithAttributes(
		attribute.String("item.id", id),
		attribute.Bool("item.complete", value),
	))
	defer func() { endSpan(span, err) }()

	return s.mutate(ctx, id, func(it item.Item) item.Item {
		it.IsComplete = value
		return it
	})
}

// Delete removes the item with the given id and reports whether it
// existed. Nothing is written when it did not.
func (s *Service) Delete(ctx context.Context, id string) (_ bool, err error) {
	ctx, span := s.tracer.Start(ctx, "item.delete", trace.WithAttributes(attribute.String("item.id", id)))
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("deleting item %q: %w", id, err)
	}

	kept := make([]item.Item, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return false, nil
	}

	if err := s.store.Save(ctx, kept); err != nil {
		return false, fmt.Errorf("deleting item %q: %w", id, err)
	}
	return true, nil
}

func (s *Service) mutate(ctx context.Context, id string, fn func(item.Item) item.Item) (item.Item, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.Load(ctx)
	if err != nil {
		return item.Item{}, false, fmt.Errorf("updating item %q: %w", id, err)
	}

	i := item.Index(items, id)
	if i < 0 {
		return item.Item{}, false, nil
	}

	updated := fn(items[i])
	updated.ID = items[i].ID
	items[i] = updated

	if err := s.store.Save(ctx, items); err != nil {
		return item.Item{}, false, fmt.Errorf("updating item %q: %w", id, err)
	}
	return updated, true, nil
}

func (s *Service) uniqueID(items []item.Item) (string, error) {
	for range maxIDAttempts {
		id := s.newID()
		if id != "" && item.Index(items, id) < 0 {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
