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


package badger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/vesselflow/core"
	"github.com/poiesic/vesselflow/storage"
)

// Store implements storage.Store on an embedded BadgerDB backend.
// Documents are keyed by content fingerprint, so retried inserts of the
// same records overwrite rather than duplicate.
type Store struct {
	backend *Backend
}

var _ storage.Store = (*Store)(nil)

// Opener hands out Store handles over one shared Backend. Opening a handle
// is free; the expensive part (opening the database) happens once.
type Opener struct {
	backend *Backend
}

var _ storage.Opener = (*Opener)(nil)

// NewOpener creates an Opener over an open Backend.
func NewOpener(backend *Backend) *Opener {
	return &Opener{backend: backend}
}

// Open returns a Store handle. Fails with ErrConnectFailed if the backend
// has been closed.
func (o *Opener) Open(ctx context.Context) (storage.Store, error) {
	if o.backend.IsClosed() {
		return nil, fmt.Errorf("%w: backend is closed", storage.ErrConnectFailed)
	}
	return &Store{backend: o.backend}, nil
}

// BulkInsert writes records unordered in one write batch. Records that fail
// to serialize are rejected individually; the rest are accepted.
func (s *Store) BulkInsert(ctx context.Context, collection string, records []*core.Record) (int, error) {
	if s.backend.IsClosed() {
		return 0, fmt.Errorf("%w: %w", storage.ErrWriteFailed, storage.ErrStoreClosed)
	}

	fields := s.backend.indexedFields(collection)

	wb := s.backend.db.NewWriteBatch()
	defer wb.Cancel()

	accepted := 0
	for _, record := range records {
		data, err := storage.MarshalRecord(record)
		if err != nil {
			s.backend.logger.Warn("rejecting unserializable record", "collection", collection, "err", err)
			continue
		}

		id := core.Fingerprint(record)
		if err := wb.Set(makeDocKey(collection, id), data); err != nil {
			return 0, fmt.Errorf("%w: %w", storage.ErrWriteFailed, err)
		}
		for _, field := range fields {
			value, ok := core.FieldString(record, field)
			if !ok {
				continue
			}
			if err := wb.Set(makeIndexKey(collection, field, value, id), nil); err != nil {
				return 0, fmt.Errorf("%w: %w", storage.ErrWriteFailed, err)
			}
		}
		accepted++
	}

	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("%w: %w", storage.ErrWriteFailed, err)
	}
	return accepted, nil
}

// InsertOne writes a single record in its own transaction.
func (s *Store) InsertOne(ctx context.Context, collection string, record *core.Record) error {
	data, err := storage.MarshalRecord(record)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrWriteFailed, err)
	}

	id := core.Fingerprint(record)
	fields := s.backend.indexedFields(collection)

	err = s.backend.db.Update(func(tx *badger.Txn) error {
		if err := tx.Set(makeDocKey(collection, id), data); err != nil {
			return err
		}
		for _, field := range fields {
			value, ok := core.FieldString(record, field)
			if !ok {
				continue
			}
			if err := tx.Set(makeIndexKey(collection, field, value, id), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrWriteFailed, err)
	}
	return nil
}

// FindByKey returns records whose keyField equals keyValue. Uses the field
// index when one is registered, a full collection scan otherwise.
func (s *Store) FindByKey(ctx context.Context, collection, keyField, keyValue string, limit int) ([]*core.Record, error) {
	var results []*core.Record

	if s.backend.isIndexed(collection, keyField) {
		err := s.backend.WithTx(func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = makeIndexValuePrefix(collection, keyField, keyValue)
			opts.PrefetchValues = false
			iter := tx.NewIterator(opts)
			defer iter.Close()

			scanPrefix := makeIndexScanPrefix(collection, keyField)
			for iter.Rewind(); iter.Valid(); iter.Next() {
				if limit > 0 && len(results) >= limit {
					break
				}
				value, id, ok := splitIndexKey(iter.Item().KeyCopy(nil), scanPrefix)
				if !ok {
					continue
				}
				// The value prefix also matches longer values that happen to
				// start with keyValue plus a separator; only exact values
				// belong to this key.
				if value != keyValue {
					continue
				}
				record, err := s.getDoc(tx, collection, id)
				if err != nil {
					return err
				}
				if record != nil {
					results = append(results, record)
				}
			}
			return nil
		}, false)
		return results, err
	}

	err := s.scanCollection(collection, func(record *core.Record) bool {
		if v, ok := core.FieldString(record, keyField); ok && v == keyValue {
			results = append(results, record)
		}
		return limit <= 0 || len(results) < limit
	})
	return results, err
}

// DistinctKeys returns the distinct values of keyField in the collection.
func (s *Store) DistinctKeys(ctx context.Context, collection, keyField string) ([]string, error) {
	seen := make(map[string]bool)
	var values []string

	if s.backend.isIndexed(collection, keyField) {
		err := s.backend.WithTx(func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = makeIndexScanPrefix(collection, keyField)
			opts.PrefetchValues = false
			iter := tx.NewIterator(opts)
			defer iter.Close()

			for iter.Rewind(); iter.Valid(); iter.Next() {
				value, _, ok := splitIndexKey(iter.Item().KeyCopy(nil), opts.Prefix)
				if !ok || seen[value] {
					continue
				}
				seen[value] = true
				values = append(values, value)
			}
			return nil
		}, false)
		return values, err
	}

	err := s.scanCollection(collection, func(record *core.Record) bool {
		if v, ok := core.FieldString(record, keyField); ok && !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
		return true
	})
	return values, err
}

// CreateIndex registers a field index and backfills it from existing
// documents. Idempotent.
func (s *Store) CreateIndex(ctx context.Context, collection, field string) error {
	if s.backend.isIndexed(collection, field) {
		return nil
	}

	err := s.backend.db.Update(func(tx *badger.Txn) error {
		return tx.Set(makeMetaIndexKey(collection, field), nil)
	})
	if err != nil {
		return err
	}
	s.backend.registerIndex(collection, field)

	// Backfill entries for documents inserted before the index existed.
	wb := s.backend.db.NewWriteBatch()
	defer wb.Cancel()

	err = s.scanCollection(collection, func(record *core.Record) bool {
		value, ok := core.FieldString(record, field)
		if !ok {
			return true
		}
		if err := wb.Set(makeIndexKey(collection, field, value, core.Fingerprint(record)), nil); err != nil {
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	return wb.Flush()
}

// Drop removes the collection's documents, index entries, and registry.
func (s *Store) Drop(ctx context.Context, collection string) error {
	prefixes := [][]byte{
		makeDocScanPrefix(collection),
		[]byte(indexPrefix + ":" + collection + ":"),
		[]byte(metaIndexPrefix + ":" + collection + ":"),
	}
	if err := s.backend.db.DropPrefix(prefixes...); err != nil {
		return err
	}
	s.backend.dropIndexRegistry(collection)
	return nil
}

// Count returns the number of documents in the collection.
func (s *Store) Count(ctx context.Context, collection string) (int64, error) {
	var count int64
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocScanPrefix(collection)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Ping reports whether the backend is usable.
func (s *Store) Ping(ctx context.Context) error {
	if s.backend.IsClosed() {
		return fmt.Errorf("%w: backend is closed", storage.ErrConnectFailed)
	}
	return nil
}

// Close releases the handle. The shared backend stays open.
func (s *Store) Close() error {
	return nil
}

// getDoc fetches and decodes one document inside an open transaction.
// Returns nil, nil for a dangling index entry.
func (s *Store) getDoc(tx *badger.Txn, collection string, id core.ID) (*core.Record, error) {
	item, err := tx.Get(makeDocKey(collection, id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.Record
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalRecord(val)
		return unmarshalErr
	})
	return record, err
}

// scanCollection decodes every document in the collection, calling fn for
// each. Iteration stops when fn returns false.
func (s *Store) scanCollection(collection string, fn func(*core.Record) bool) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocScanPrefix(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.Record
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				record, unmarshalErr = storage.UnmarshalRecord(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			if record == nil {
				continue
			}
			if !fn(record) {
				return nil
			}
		}
		return nil
	}, false)
}
