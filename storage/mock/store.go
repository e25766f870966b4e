package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/poiesic/vesselflow/core"
	"github.com/poiesic/vesselflow/storage"
)

// MockStore is a test double for storage.Store.
// It records every call and allows custom behavior injection via function
// fields. By default it accepts everything and keeps inserted records in
// memory per collection.
type MockStore struct {
	// BulkInsertFunc is called by BulkInsert if set.
	BulkInsertFunc func(ctx context.Context, collection string, records []*core.Record) (int, error)

	// InsertOneFunc is called by InsertOne if set.
	InsertOneFunc func(ctx context.Context, collection string, record *core.Record) error

	// FindByKeyFunc is called by FindByKey if set.
	FindByKeyFunc func(ctx context.Context, collection, keyField, keyValue string, limit int) ([]*core.Record, error)

	// FailBulkAttempts makes the first N BulkInsert calls fail with
	// ErrWriteFailed before the default behavior takes over.
	FailBulkAttempts int

	mu          sync.Mutex
	records     map[string][]*core.Record
	bulkCalls   int
	singleCalls int
	callTimes   []time.Time
}

var _ storage.Store = (*MockStore)(nil)

// NewMockStore creates a mock store with default accept-everything behavior.
func NewMockStore() *MockStore {
	return &MockStore{records: make(map[string][]*core.Record)}
}

// BulkInsert records the attempt time, honors the failure script, then
// either delegates to BulkInsertFunc or accepts all records.
func (m *MockStore) BulkInsert(ctx context.Context, collection string, records []*core.Record) (int, error) {
	m.mu.Lock()
	m.bulkCalls++
	m.callTimes = append(m.callTimes, time.Now())
	failing := m.bulkCalls <= m.FailBulkAttempts
	m.mu.Unlock()

	if failing {
		return 0, fmt.Errorf("%w: connection reset by peer", storage.ErrWriteFailed)
	}
	if m.BulkInsertFunc != nil {
		return m.BulkInsertFunc(ctx, collection, records)
	}

	m.mu.Lock()
	m.records[collection] = append(m.records[collection], records...)
	m.mu.Unlock()
	return len(records), nil
}

// InsertOne delegates to InsertOneFunc or accepts the record.
func (m *MockStore) InsertOne(ctx context.Context, collection string, record *core.Record) error {
	m.mu.Lock()
	m.singleCalls++
	m.mu.Unlock()

	if m.InsertOneFunc != nil {
		return m.InsertOneFunc(ctx, collection, record)
	}

	m.mu.Lock()
	m.records[collection] = append(m.records[collection], record)
	m.mu.Unlock()
	return nil
}

// FindByKey delegates to FindByKeyFunc or scans the in-memory records.
func (m *MockStore) FindByKey(ctx context.Context, collection, keyField, keyValue string, limit int) ([]*core.Record, error) {
	if m.FindByKeyFunc != nil {
		return m.FindByKeyFunc(ctx, collection, keyField, keyValue, limit)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var results []*core.Record
	for _, record := range m.records[collection] {
		if v, ok := core.FieldString(record, keyField); ok && v == keyValue {
			results = append(results, record)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

// DistinctKeys scans the in-memory records.
func (m *MockStore) DistinctKeys(ctx context.Context, collection, keyField string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool)
	var values []string
	for _, record := range m.records[collection] {
		if v, ok := core.FieldString(record, keyField); ok && !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	return values, nil
}

// CreateIndex is a no-op.
func (m *MockStore) CreateIndex(ctx context.Context, collection, field string) error {
	return nil
}

// Drop clears the collection.
func (m *MockStore) Drop(ctx context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, collection)
	return nil
}

// Count returns the number of in-memory records in the collection.
func (m *MockStore) Count(ctx context.Context, collection string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.records[collection])), nil
}

// Ping always succeeds.
func (m *MockStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (m *MockStore) Close() error { return nil }

// Records returns a copy of the records inserted into a collection.
func (m *MockStore) Records(collection string) []*core.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*core.Record, len(m.records[collection]))
	copy(out, m.records[collection])
	return out
}

// BulkCalls returns how many times BulkInsert was invoked.
func (m *MockStore) BulkCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bulkCalls
}

// SingleCalls returns how many times InsertOne was invoked.
func (m *MockStore) SingleCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.singleCalls
}

// CallTimes returns the timestamps of each BulkInsert attempt, in order.
// Tests use the gaps to verify backoff delays.
func (m *MockStore) CallTimes() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Time, len(m.callTimes))
	copy(out, m.callTimes)
	return out
}

// Opener hands out the same MockStore on every Open, optionally failing
// the first N opens.
type Opener struct {
	Store *MockStore

	// FailOpens makes the first N Open calls fail with ErrConnectFailed.
	FailOpens int

	mu    sync.Mutex
	opens int
}

var _ storage.Opener = (*Opener)(nil)

// NewOpener creates an Opener over the given mock store.
func NewOpener(store *MockStore) *Opener {
	return &Opener{Store: store}
}

// Open returns the shared mock store, honoring the failure script.
func (o *Opener) Open(ctx context.Context) (storage.Store, error) {
	o.mu.Lock()
	o.opens++
	failing := o.opens <= o.FailOpens
	o.mu.Unlock()

	if failing {
		return nil, fmt.Errorf("%w: server selection timed out", storage.ErrConnectFailed)
	}
	return o.Store, nil
}

// Opens returns how many times Open was called.
func (o *Opener) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}
