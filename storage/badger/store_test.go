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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/vesselflow/core"
	"github.com/poiesic/vesselflow/storage"
)

func testRecord(mmsi string, second int) *core.Record {
	lat := 55.5
	lon := 10.2
	return &core.Record{
		MMSI:      mmsi,
		Timestamp: time.Date(2024, 3, 7, 14, 30, second, 0, time.UTC),
		NavStatus: "Under way using engine",
		Latitude:  &lat,
		Longitude: &lon,
	}
}

func testRecords(mmsi string, n int) []*core.Record {
	records := make([]*core.Record, n)
	for i := range records {
		records[i] = testRecord(mmsi, i)
	}
	return records
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("BulkInsertAndCount", func(t *testing.T) {
		st, _, backend, err := NewMemoryStore()
		require.NoError(t, err)
		defer backend.Close()

		n, err := st.BulkInsert(ctx, "raw_data", testRecords("219000001", 10))
		require.NoError(t, err)
		assert.Equal(t, 10, n)

		count, err := st.Count(ctx, "raw_data")
		require.NoError(t, err)
		assert.EqualValues(t, 10, count)
	})

	t.Run("ReinsertIsIdempotent", func(t *testing.T) {
		st, _, backend, err := NewMemoryStore()
		require.NoError(t, err)
		defer backend.Close()

		records := testRecords("219000001", 10)
		_, err = st.BulkInsert(ctx, "raw_data", records)
		require.NoError(t, err)

		// Re-running the same chunk, as a retried bulk write would,
		// overwrites by fingerprint instead of duplicating.
		_, err = st.BulkInsert(ctx, "raw_data", records)
		require.NoError(t, err)

		count, err := st.Count(ctx, "raw_data")
		require.NoError(t, err)
		assert.EqualValues(t, 10, count)
	})

	t.Run("FindByKeyWithIndex", func(t *testing.T) {
		st, _, backend, err := NewMemoryStore()
		require.NoError(t, err)
		defer backend.Close()

		require.NoError(t, st.CreateIndex(ctx, "raw_data", core.KeyField))

		_, err = st.BulkInsert(ctx, "raw_data", testRecords("219000001", 5))
		require.NoError(t, err)
		_, err = st.BulkInsert(ctx, "raw_data", testRecords("219000002", 3))
		require.NoError(t, err)

		found, err := st.FindByKey(ctx, "raw_data", core.KeyField, "219000001", 0)
		require.NoError(t, err)
		assert.Len(t, found, 5)
		for _, rec := range found {
			assert.Equal(t, "219000001", rec.MMSI)
		}

		limited, err := st.FindByKey(ctx, "raw_data", core.KeyField, "219000001", 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})

	t.Run("FindByKeyExactValueOnly", func(t *testing.T) {
		st, _, backend, err := NewMemoryStore()
		require.NoError(t, err)
		defer backend.Close()

		require.NoError(t, st.CreateIndex(ctx, "raw_data", core.KeyField))

		// A key value that extends the searched one past a separator must
		// not ride along on the index prefix scan.
		_, err = st.BulkInsert(ctx, "raw_data", testRecords("219000001", 3))
		require.NoError(t, err)
		_, err = st.BulkInsert(ctx, "raw_data", testRecords("219000001:9", 2))
		require.NoError(t, err)

		found, err := st.FindByKey(ctx, "raw_data", core.KeyField, "219000001", 0)
		require.NoError(t, err)
		assert.Len(t, found, 3)
		for _, rec := range found {
			assert.Equal(t, "219000001", rec.MMSI)
		}
	})

	t.Run("FindByKeyWithoutIndexScans", func(t *testing.T) {
		st, _, backend, err := NewMemoryStore()
		require.NoError(t, err)
		defer backend.Close()

		_, err = st.BulkInsert(ctx, "raw_data", testRecords("219000001", 4))
		require.NoError(t, err)

		found, err := st.FindByKey(ctx, "raw_data", core.KeyField, "219000001", 0)
		require.NoError(t, err)
		assert.Len(t, found, 4)
	})

	t.Run("IndexBackfill", func(t *testing.T) {
		st, _, backend, err := NewMemoryStore()
		require.NoError(t, err)
		defer backend.Close()

		// Documents land first; the index is created afterwards and must
		// cover them.
		_, err = st.BulkInsert(ctx, "raw_data", testRecords("219000001", 6))
		require.NoError(t, err)

		require.NoError(t, st.CreateIndex(ctx, "raw_data", core.KeyField))

		found, err := st.FindByKey(ctx, "raw_data", core.KeyField, "219000001", 0)
		require.NoError(t, err)
		assert.Len(t, found, 6)
	})

	t.Run("DistinctKeys", func(t *testing.T) {
		st, _, backend, err := NewMemoryStore()
		require.NoError(t, err)
		defer backend.Close()

		require.NoError(t, st.CreateIndex(ctx, "raw_data", core.KeyField))

		for i := 0; i < 4; i++ {
			mmsi := fmt.Sprintf("2190000%02d", i)
			_, err = st.BulkInsert(ctx, "raw_data", testRecords(mmsi, 3))
			require.NoError(t, err)
		}

		keys, err := st.DistinctKeys(ctx, "raw_data", core.KeyField)
		require.NoError(t, err)
		assert.Len(t, keys, 4)
	})

	t.Run("Drop", func(t *testing.T) {
		st, _, backend, err := NewMemoryStore()
		require.NoError(t, err)
		defer backend.Close()

		require.NoError(t, st.CreateIndex(ctx, "raw_data", core.KeyField))
		_, err = st.BulkInsert(ctx, "raw_data", testRecords("219000001", 5))
		require.NoError(t, err)
		_, err = st.BulkInsert(ctx, "other", testRecords("219000002", 2))
		require.NoError(t, err)

		require.NoError(t, st.Drop(ctx, "raw_data"))

		count, err := st.Count(ctx, "raw_data")
		require.NoError(t, err)
		assert.Zero(t, count)

		// Other collections are untouched.
		count, err = st.Count(ctx, "other")
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	})

	t.Run("TimestampIndexOrder", func(t *testing.T) {
		st, _, backend, err := NewMemoryStore()
		require.NoError(t, err)
		defer backend.Close()

		require.NoError(t, st.CreateIndex(ctx, "filtered_data", core.TimestampField))
		_, err = st.BulkInsert(ctx, "filtered_data", testRecords("219000001", 5))
		require.NoError(t, err)

		count, err := st.Count(ctx, "filtered_data")
		require.NoError(t, err)
		assert.EqualValues(t, 5, count)
	})

	t.Run("InsertOneRoundTrip", func(t *testing.T) {
		st, _, backend, err := NewMemoryStore()
		require.NoError(t, err)
		defer backend.Close()

		rec := testRecord("219000001", 0)
		rot := -2.5
		rec.ROT = &rot
		rec.Extra = map[string]any{"Name": "VESSEL 1"}

		require.NoError(t, st.InsertOne(ctx, "raw_data", rec))

		found, err := st.FindByKey(ctx, "raw_data", core.KeyField, "219000001", 0)
		require.NoError(t, err)
		require.Len(t, found, 1)

		got := found[0]
		assert.Equal(t, rec.MMSI, got.MMSI)
		assert.True(t, rec.Timestamp.Equal(got.Timestamp))
		require.NotNil(t, got.ROT)
		assert.Equal(t, -2.5, *got.ROT)
		assert.Nil(t, got.SOG, "explicit null survives the round trip")
		assert.Equal(t, "VESSEL 1", got.Extra["Name"])
	})

	t.Run("ClosedBackendRejectsOpens", func(t *testing.T) {
		_, opener, backend, err := NewMemoryStore()
		require.NoError(t, err)
		require.NoError(t, backend.Close())

		_, err = opener.Open(ctx)
		assert.ErrorIs(t, err, storage.ErrConnectFailed)
	})
}
