package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/praya-stock/internal/repository"
)

// Client owns the MongoDB connection shared by every collection.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewClient connects to MongoDB and verifies the connection.
func NewClient(ctx context.Context, uri, dbName string, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Client{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}, nil
}

// Ping verifies the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

// EnsureIndexes creates the lookup indexes used by the ledger and reports.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		repository.CollectionItems: {
			{Keys: bson.D{{Key: "code", Value: 1}}},
		},
		repository.CollectionIncoming: {
			{Keys: bson.D{{Key: "item_id", Value: 1}}},
		},
		repository.CollectionOutgoing: {
			{Keys: bson.D{{Key: "item_id", Value: 1}}},
			{Keys: bson.D{{Key: repository.FieldCreatedAt, Value: 1}}},
		},
	}

	for name, indexes := range specs {
		if _, err := c.db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
		c.logger.Debug("indexes ensured", zap.String("collection", name))
	}
	return nil
}

// Close closes the MongoDB connection.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
