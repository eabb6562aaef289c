// Package mongo provides the MongoDB-backed document executor. The service
// holds one Adapter per process, constructed at startup and closed on
// shutdown; the driver manages connection pooling underneath.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eventual-app/eventual/pkg/observability/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config holds MongoDB adapter configuration.
type Config struct {
	URL              string
	Database         string
	ConnectTimeout   time.Duration
	OperationTimeout time.Duration
}

// Adapter provides MongoDB connectivity and implements document.Executor.
type Adapter struct {
	client   *mongo.Client
	database string
	logger   logger.Logger
	timeout  time.Duration
	mu       sync.RWMutex
	closed   bool
}

// NewAdapter connects to MongoDB and verifies connectivity with a ping.
// It does not create collections; the store creates them on first write.
func NewAdapter(cfg Config, log logger.Logger) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("mongodb URL is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongodb database is required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.Info("MongoDB connection established", "database", cfg.Database)
	return &Adapter{
		client:   client,
		database: cfg.Database,
		logger:   log,
		timeout:  cfg.OperationTimeout,
	}, nil
}

func (a *Adapter) Collection(name string) *mongo.Collection {
	return a.client.Database(a.database).Collection(name)
}

func (a *Adapter) Ping(ctx context.Context) error {
	a.mu.RLock()
	closed := a.closed
	a.mu.RUnlock()
	if closed {
		return fmt.Errorf("mongodb adapter is closed")
	}
	return a.client.Ping(ctx, readpref.Primary())
}

// HealthCheck satisfies health.Checkable.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	hcCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.Ping(hcCtx); err != nil {
		a.logger.Error("MongoDB health check failed", "error", err)
		return fmt.Errorf("mongodb health check failed: %w", err)
	}
	return nil
}

// Close disconnects the client. Safe to call more than once.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to close mongodb connection: %w", err)
	}
	return nil
}

// InsertOne inserts a document and returns the store-assigned identifier.
func (a *Adapter) InsertOne(ctx context.Context, collection string, doc bson.M) (interface{}, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	result, err := a.Collection(collection).InsertOne(opCtx, doc)
	if err != nil {
		return nil, err
	}
	return result.InsertedID, nil
}

// FindOne returns the first document matching filter, or (nil, nil) when
// nothing matches.
func (a *Adapter) FindOne(ctx context.Context, collection string, filter, projection bson.M) (bson.M, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()

	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}

	out := bson.M{}
	err := a.Collection(collection).FindOne(opCtx, filter, opts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Find returns the documents selected by filter within the given window.
// A limit of zero leaves the result unbounded.
func (a *Adapter) Find(ctx context.Context, collection string, filter, projection bson.M, sort bson.D, offset, limit int64) ([]bson.M, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()

	opts := options.Find()
	if projection != nil {
		opts.SetProjection(projection)
	}
	if sort != nil {
		opts.SetSort(sort)
	}
	if offset > 0 {
		opts.SetSkip(offset)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := a.Collection(collection).Find(opCtx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(opCtx)

	var docs []bson.M
	if err := cursor.All(opCtx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Count returns the number of documents matching filter.
func (a *Adapter) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	return a.Collection(collection).CountDocuments(opCtx, filter)
}

// FindOneAndUpdate applies update and returns the post-update document, or
// (nil, nil) when nothing matches.
func (a *Adapter) FindOneAndUpdate(ctx context.Context, collection string, filter, update bson.M) (bson.M, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	out := bson.M{}
	err := a.Collection(collection).FindOneAndUpdate(opCtx, filter, update, opts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateOne applies update to the first document matching filter and returns
// the matched count.
func (a *Adapter) UpdateOne(ctx context.Context, collection string, filter, update bson.M) (int64, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	result, err := a.Collection(collection).UpdateOne(opCtx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.MatchedCount, nil
}

// DeleteOne removes the first document matching filter and returns the
// deleted count.
func (a *Adapter) DeleteOne(ctx context.Context, collection string, filter bson.M) (int64, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	result, err := a.Collection(collection).DeleteOne(opCtx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// withOperationTimeout bounds store calls whose caller context carries no
// deadline of its own.
func (a *Adapter) withOperationTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}
