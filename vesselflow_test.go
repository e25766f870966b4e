package vesselflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/vesselflow/core"
)

func TestOpenTarget(t *testing.T) {
	t.Run("BadgerDirectory", func(t *testing.T) {
		target, err := OpenTarget(t.TempDir(), "", 15*time.Second)
		require.NoError(t, err)
		defer target.Close()

		st, err := target.Opener().Open(context.Background())
		require.NoError(t, err)
		defer st.Close()

		require.NoError(t, st.Ping(context.Background()))

		lat := 55.5
		lon := 10.2
		rec := &core.Record{
			MMSI:      "219000001",
			Timestamp: time.Date(2024, 3, 7, 14, 30, 5, 0, time.UTC),
			NavStatus: "Moored",
			Latitude:  &lat,
			Longitude: &lon,
		}
		require.NoError(t, st.InsertOne(context.Background(), "raw_data", rec))

		count, err := st.Count(context.Background(), "raw_data")
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("DataSurvivesReopen", func(t *testing.T) {
		dir := t.TempDir()

		target, err := OpenTarget(dir, "", 15*time.Second)
		require.NoError(t, err)

		st, err := target.Opener().Open(context.Background())
		require.NoError(t, err)

		lat := 55.5
		lon := 10.2
		rec := &core.Record{
			MMSI:      "219000002",
			Timestamp: time.Date(2024, 3, 7, 14, 30, 5, 0, time.UTC),
			NavStatus: "At anchor",
			Latitude:  &lat,
			Longitude: &lon,
		}
		require.NoError(t, st.InsertOne(context.Background(), "raw_data", rec))
		require.NoError(t, st.Close())
		require.NoError(t, target.Close())

		reopened, err := OpenTarget(dir, "", 15*time.Second)
		require.NoError(t, err)
		defer reopened.Close()

		st, err = reopened.Opener().Open(context.Background())
		require.NoError(t, err)
		defer st.Close()

		count, err := st.Count(context.Background(), "raw_data")
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("MongoURIBuildsLazily", func(t *testing.T) {
		// Resolving a mongodb:// target must not dial anything; the
		// connection happens on Open.
		target, err := OpenTarget("mongodb://localhost:1", "vesselDB", time.Second)
		require.NoError(t, err)
		assert.NoError(t, target.Close())
	})
}
