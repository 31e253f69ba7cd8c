package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/praya-stock/internal/repository"
)

// Collection implements repository.Collection on top of a MongoDB collection.
// Live updates are driven by change streams, which require a replica set.
type Collection[T any] struct {
	coll   *mongo.Collection
	logger *zap.Logger
	now    func() time.Time
}

var _ repository.Collection[struct{}] = (*Collection[struct{}])(nil)

// NewCollection binds a typed collection to the client's database.
func NewCollection[T any](c *Client, name string) *Collection[T] {
	return &Collection[T]{
		coll:   c.db.Collection(name),
		logger: c.logger.Named(name),
		now:    time.Now,
	}
}

// Create inserts doc with a generated id and server timestamps.
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

	if _, err := c.coll.InsertOne(ctx, fields); err != nil {
		return "", fmt.Errorf("insert into %s: %w", c.coll.Name(), err)
	}
	return id, nil
}

// Get fetches a single document by id.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var doc T
	err := c.coll.FindOne(ctx, bson.M{repository.FieldID: id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, fmt.Errorf("%s %s: %w", c.coll.Name(), id, repository.ErrNotFound)
	}
	if err != nil {
		return doc, fmt.Errorf("find %s %s: %w", c.coll.Name(), id, err)
	}
	return doc, nil
}

// List returns every document ordered by creation time.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	return c.find(ctx, bson.M{})
}

// FindByField returns documents whose field equals value.
func (c *Collection[T]) FindByField(ctx context.Context, field string, value any) ([]T, error) {
	return c.find(ctx, bson.M{field: value})
}

// QueryByDateRange returns documents created within [start, end].
func (c *Collection[T]) QueryByDateRange(ctx context.Context, start, end time.Time) ([]T, error) {
	return c.find(ctx, bson.M{
		repository.FieldCreatedAt: bson.M{"$gte": start, "$lte": end},
	})
}

// Update sets the given fields. An unknown id matches nothing and is not an error.
func (c *Collection[T]) Update(ctx context.Context, id string, fields repository.Fields) error {
	set := bson.M{}
	for k, v := range fields {
		if k == repository.FieldID {
			continue
		}
		set[k] = v
	}
	set[repository.FieldUpdatedAt] = c.now().UTC()

	res, err := c.coll.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update %s %s: %w", c.coll.Name(), id, err)
	}
	if res.MatchedCount == 0 {
		c.logger.Debug("update matched no document", zap.String("id", id))
	}
	return nil
}

// Delete removes a document by id.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.coll.DeleteOne(ctx, bson.M{repository.FieldID: id})
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", c.coll.Name(), id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", c.coll.Name(), id, repository.ErrNotFound)
	}
	return nil
}

// Subscribe opens a change stream and delivers a fresh snapshot on open and
// after every change event. Callbacks run on a dedicated goroutine.
func (c *Collection[T]) Subscribe(onChange func([]T), onError func(error)) repository.Unsubscribe {
	ctx, cancel := context.WithCancel(context.Background())
	go c.watch(ctx, onChange, onError)

	var once sync.Once
	return func() { once.Do(cancel) }
}

func (c *Collection[T]) watch(ctx context.Context, onChange func([]T), onError func(error)) {
	report := func(err error) {
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("subscription failed", zap.Error(err))
		if onError != nil {
			onError(err)
		}
	}

	stream, err := c.coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		report(fmt.Errorf("watch %s: %w", c.coll.Name(), err))
		return
	}
	defer func() { _ = stream.Close(context.Background()) }()

	emit := func() bool {
		snapshot, err := c.List(ctx)
		if err != nil {
			report(err)
			return false
		}
		if onChange != nil {
			onChange(snapshot)
		}
		return true
	}

	if !emit() {
		return
	}
	for stream.Next(ctx) {
		if !emit() {
			return
		}
	}
	if err := stream.Err(); err != nil {
		report(fmt.Errorf("change stream %s: %w", c.coll.Name(), err))
	}
}

func (c *Collection[T]) find(ctx context.Context, filter bson.M) ([]T, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: repository.FieldCreatedAt, Value: 1},
		{Key: repository.FieldID, Value: 1},
	})

	cursor, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.coll.Name(), err)
	}

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.coll.Name(), err)
	}
	return out, nil
}
