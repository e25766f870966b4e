package badger

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Backend wraps a BadgerDB instance and provides low-level operations.
// One Backend is shared by every Store handle opened against it; handles
// themselves stay cheap, which is what the per-chunk reconnect path needs.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger

	mu      sync.RWMutex
	indexes map[string]map[string]bool // collection -> indexed fields
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// Ensure directory exists
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	b := &Backend{
		db:      db,
		logger:  slog.Default(),
		indexes: make(map[string]map[string]bool),
	}

	if err := b.loadIndexRegistry(); err != nil {
		db.Close()
		return nil, err
	}

	return b, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// loadIndexRegistry restores the indexed-field registry from meta keys so
// indexes survive a reopen.
func (b *Backend) loadIndexRegistry() error {
	return b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(metaIndexPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			collection, field, ok := parseMetaIndexKey(iter.Item().Key())
			if !ok {
				continue
			}
			b.registerIndex(collection, field)
		}
		return nil
	}, false)
}

func (b *Backend) registerIndex(collection, field string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.indexes[collection] == nil {
		b.indexes[collection] = make(map[string]bool)
	}
	b.indexes[collection][field] = true
}

func (b *Backend) isIndexed(collection, field string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.indexes[collection][field]
}

func (b *Backend) indexedFields(collection string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	fields := make([]string, 0, len(b.indexes[collection]))
	for f := range b.indexes[collection] {
		fields = append(fields, f)
	}
	return fields
}

func (b *Backend) dropIndexRegistry(collection string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.indexes, collection)
}
