// Package memory is an in-process document store. Documents are kept as bson
// field maps so that field queries and timestamps behave like MongoDB.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/praya-stock/internal/repository"
)

type observer[T any] struct {
	onChange func([]T)
	onError  func(error)
}

// Collection implements repository.Collection in memory.
type Collection[T any] struct {
	name string
	now  func() time.Time

	mu        sync.RWMutex
	docs      map[string]bson.M
	order     []string
	observers map[int]observer[T]
	nextObsID int
}

var _ repository.Collection[struct{}] = (*Collection[struct{}])(nil)

// NewCollection creates an empty collection.
func NewCollection[T any](name string) *Collection[T] {
	return &Collection[T]{
		name:      name,
		now:       time.Now,
		docs:      make(map[string]bson.M),
		observers: make(map[int]observer[T]),
	}
}

// WithClock overrides the timestamp source, used by tests.
func (c *Collection[T]) WithClock(now func() time.Time) *Collection[T] {
	c.now = now
	return c
}

// Create stores doc and returns its id.
func (c *Collection[T]) Create(ctx context.Context, doc T) (string, error) {
	fields, err := repository.EncodeDocument(doc)
	if err != nil {
		return "", err
	}

	id, _ := fields[repository.FieldID].(string)
	if id == "" {
		id = uuid.NewString()
	}
	now := c.now().UTC()
	fields[repository.FieldID] = id
	fields[repository.FieldCreatedAt] = now
	fields[repository.FieldUpdatedAt] = now

	c.mu.Lock()
	if _, exists := c.docs[id]; exists {
		c.mu.Unlock()
		return "", fmt.Errorf("%s: duplicate id %s", c.name, id)
	}
	c.docs[id] = fields
	c.order = append(c.order, id)
	c.mu.Unlock()

	c.notify()
	return id, nil
}

// Get returns the document with the given id.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	c.mu.RLock()
	fields, ok := c.docs[id]
	c.mu.RUnlock()

	if !ok {
		var zero T
		return zero, fmt.Errorf("%s %s: %w", c.name, id, repository.ErrNotFound)
	}
	return repository.DecodeDocument[T](fields)
}

// List returns every document in insertion order.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	return c.filter(func(bson.M) bool { return true })
}

// FindByField returns documents whose field equals value.
func (c *Collection[T]) FindByField(ctx context.Context, field string, value any) ([]T, error) {
	want := fmt.Sprint(value)
	return c.filter(func(fields bson.M) bool {
		got, ok := fields[field]
		return ok && fmt.Sprint(got) == want
	})
}

// QueryByDateRange returns documents created within [start, end].
func (c *Collection[T]) QueryByDateRange(ctx context.Context, start, end time.Time) ([]T, error) {
	return c.filter(func(fields bson.M) bool {
		created, ok := repository.TimeValue(fields[repository.FieldCreatedAt])
		return ok && !created.Before(start) && !created.After(end)
	})
}

// Update merges fields into the document. Missing ids are ignored.
func (c *Collection[T]) Update(ctx context.Context, id string, fields repository.Fields) error {
	c.mu.Lock()
	doc, ok := c.docs[id]
	if !ok {
		c.mu.Unlock()
		return nil
	}

	next := make(bson.M, len(doc)+len(fields))
	for k, v := range doc {
		next[k] = v
	}
	for k, v := range fields {
		if k == repository.FieldID {
			continue
		}
		next[k] = v
	}
	next[repository.FieldUpdatedAt] = c.now().UTC()
	c.docs[id] = next
	c.mu.Unlock()

	c.notify()
	return nil
}

// Delete removes the document with the given id.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	if _, ok := c.docs[id]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("%s %s: %w", c.name, id, repository.ErrNotFound)
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	c.notify()
	return nil
}

// Subscribe registers an observer and immediately delivers the current
// snapshot. Later snapshots are delivered synchronously after each write, in
// registration order.
func (c *Collection[T]) Subscribe(onChange func([]T), onError func(error)) repository.Unsubscribe {
	c.mu.Lock()
	id := c.nextObsID
	c.nextObsID++
	c.observers[id] = observer[T]{onChange: onChange, onError: onError}
	c.mu.Unlock()

	c.deliver(observer[T]{onChange: onChange, onError: onError})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, id)
			c.mu.Unlock()
		})
	}
}

// Ping always succeeds for the in-memory store.
func (c *Collection[T]) Ping(ctx context.Context) error {
	return nil
}

func (c *Collection[T]) filter(match func(bson.M) bool) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		fields := c.docs[id]
		if !match(fields) {
			continue
		}
		doc, err := repository.DecodeDocument[T](fields)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (c *Collection[T]) notify() {
	c.mu.RLock()
	ids := make([]int, 0, len(c.observers))
	for id := range c.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	observers := make([]observer[T], 0, len(ids))
	for _, id := range ids {
		observers = append(observers, c.observers[id])
	}
	c.mu.RUnlock()

	for _, obs := range observers {
		c.deliver(obs)
	}
}

func (c *Collection[T]) deliver(obs observer[T]) {
	snapshot, err := c.List(context.Background())
	if err != nil {
		if obs.onError != nil {
			obs.onError(err)
		}
		return
	}
	if obs.onChange != nil {
		obs.onChange(snapshot)
	}
}
