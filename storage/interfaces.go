package storage

import (
	"context"

	"github.com/poiesic/vesselflow/core"
)

// Store is the capability set the pipelines require from a document store.
// Implementations must be safe for use by the single worker that owns them;
// a Store handle is never shared across workers.
type Store interface {
	// BulkInsert writes records unordered. The store may accept some and
	// reject others independently; no ordering guarantee applies on partial
	// failure. Returns the count actually accepted. A non-nil error wraps
	// ErrWriteFailed and may accompany a non-zero accepted count.
	BulkInsert(ctx context.Context, collection string, records []*core.Record) (int, error)

	// InsertOne writes a single record. Used as the degraded fallback after
	// a bulk retry budget is exhausted; callers tolerate and count
	// individual failures.
	InsertOne(ctx context.Context, collection string, record *core.Record) error

	// FindByKey returns records whose keyField equals keyValue, up to limit.
	// A limit <= 0 means no limit.
	FindByKey(ctx context.Context, collection, keyField, keyValue string, limit int) ([]*core.Record, error)

	// DistinctKeys returns the distinct values of keyField in the collection.
	DistinctKeys(ctx context.Context, collection, keyField string) ([]string, error)

	// CreateIndex ensures an index on the given field. Idempotent.
	CreateIndex(ctx context.Context, collection, field string) error

	// Drop removes the collection and its indexes. Dropping a collection
	// that does not exist is not an error.
	Drop(ctx context.Context, collection string) error

	// Count returns the number of documents in the collection.
	Count(ctx context.Context, collection string) (int64, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the handle. The underlying backend may outlive it.
	Close() error
}

// Opener creates Store handles. Opening must be cheap enough to do once per
// chunk: the retry policy's reconnect path is "discard the handle, open a
// new one".
type Opener interface {
	Open(ctx context.Context) (Store, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context) (Store, error)

func (f OpenerFunc) Open(ctx context.Context) (Store, error) { return f(ctx) }
