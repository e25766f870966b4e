// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/poiesic/vesselflow/core"
	"github.com/poiesic/vesselflow/storage"
)

const defaultConnectTimeout = 15 * time.Second

// Config holds connection settings for a MongoDB (or mongos) endpoint.
type Config struct {
	// URI is the mongodb:// connection string, typically pointing at a
	// mongos router in front of the sharded cluster.
	URI string

	// Database is the database name holding the vessel collections.
	Database string

	// ConnectTimeout bounds server selection during Open and Ping.
	ConnectTimeout time.Duration
}

// Opener dials a fresh client per Open call. Workers open one handle per
// chunk and discard it afterwards, so no connection is ever shared.
type Opener struct {
	cfg Config
}

var _ storage.Opener = (*Opener)(nil)

// NewOpener creates an Opener from the given config.
func NewOpener(cfg Config) *Opener {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	return &Opener{cfg: cfg}
}

// Open connects and pings the store. Fails with ErrConnectFailed if the
// store is unreachable within the configured timeout.
func (o *Opener) Open(ctx context.Context) (storage.Store, error) {
	opts := options.Client().
		ApplyURI(o.cfg.URI).
		SetServerSelectionTimeout(o.cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrConnectFailed, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, o.cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %w", storage.ErrConnectFailed, err)
	}

	return &Store{
		client: client,
		db:     client.Database(o.cfg.Database),
	}, nil
}

// Store implements storage.Store over a MongoDB connection.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ storage.Store = (*Store)(nil)

// BulkInsert writes records with an unordered InsertMany. On partial
// failure the accepted count reflects the documents the store actually
// took; the cause is wrapped in ErrWriteFailed.
func (s *Store) BulkInsert(ctx context.Context, collection string, records []*core.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	docs := make([]any, len(records))
	for i, record := range records {
		docs[i] = record
	}

	res, err := s.db.Collection(collection).InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	accepted := 0
	if res != nil {
		accepted = len(res.InsertedIDs)
	}
	if err != nil {
		return accepted, fmt.Errorf("%w: %w", storage.ErrWriteFailed, err)
	}
	return accepted, nil
}

// InsertOne writes a single record.
func (s *Store) InsertOne(ctx context.Context, collection string, record *core.Record) error {
	if _, err := s.db.Collection(collection).InsertOne(ctx, record); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrWriteFailed, err)
	}
	return nil
}

// FindByKey returns records whose keyField equals keyValue, up to limit.
func (s *Store) FindByKey(ctx context.Context, collection, keyField, keyValue string, limit int) ([]*core.Record, error) {
	findOpts := options.Find()
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}

	cursor, err := s.db.Collection(collection).Find(ctx, bson.D{{Key: keyField, Value: keyValue}}, findOpts)
	if err != nil {
		return nil, err
	}

	var records []*core.Record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// DistinctKeys returns the distinct values of keyField in the collection.
func (s *Store) DistinctKeys(ctx context.Context, collection, keyField string) ([]string, error) {
	values, err := s.db.Collection(collection).Distinct(ctx, keyField, bson.D{})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(values))
	for _, v := range values {
		if str, ok := v.(string); ok {
			keys = append(keys, str)
		} else {
			keys = append(keys, fmt.Sprint(v))
		}
	}
	return keys, nil
}

// CreateIndex ensures a single-field ascending index.
func (s *Store) CreateIndex(ctx context.Context, collection, field string) error {
	model := mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}}
	_, err := s.db.Collection(collection).Indexes().CreateOne(ctx, model)
	return err
}

// Drop removes the collection.
func (s *Store) Drop(ctx context.Context, collection string) error {
	return s.db.Collection(collection).Drop(ctx)
}

// Count returns the number of documents in the collection.
func (s *Store) Count(ctx context.Context, collection string) (int64, error) {
	return s.db.Collection(collection).CountDocuments(ctx, bson.D{})
}

// Ping verifies the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrConnectFailed, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
