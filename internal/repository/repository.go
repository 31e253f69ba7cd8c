// Package repository defines the document store contract shared by the
// MongoDB and in-memory implementations.
package repository

import (
	"context"
	"errors"
	"time"
)

// Collection names used by the application.
const (
	CollectionItems    = "items"
	CollectionIncoming = "incoming_items"
	CollectionOutgoing = "outgoing_items"
)

// Document field names the store manages itself.
const (
	FieldID        = "_id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// ErrNotFound is returned when a document id does not exist.
var ErrNotFound = errors.New("document not found")

// Fields is a partial document used for updates, keyed by bson field name.
type Fields map[string]any

// Unsubscribe stops a subscription. It is safe to call more than once.
type Unsubscribe func()

// Collection is a named set of documents of type T.
//
// Create assigns the id (when the document carries none) and the
// created_at/updated_at timestamps. Update on a missing id is a no-op.
// Subscribe delivers the full collection snapshot once on registration and
// again after every change, until the returned Unsubscribe is called.
type Collection[T any] interface {
	Create(ctx context.Context, doc T) (string, error)
	Get(ctx context.Context, id string) (T, error)
	List(ctx context.Context) ([]T, error)
	FindByField(ctx context.Context, field string, value any) ([]T, error)
	QueryByDateRange(ctx context.Context, start, end time.Time) ([]T, error)
	Update(ctx context.Context, id string, fields Fields) error
	Delete(ctx context.Context, id string) error
	Subscribe(onChange func([]T), onError func(error)) Unsubscribe
}

// Pinger reports store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
