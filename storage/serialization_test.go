package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/vesselflow/core"
)

func TestRecordSerialization(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		lat := 55.5
		sog := 12.3
		rec := &core.Record{
			MMSI:      "219000001",
			Timestamp: time.Date(2024, 3, 7, 14, 30, 5, 0, time.UTC),
			NavStatus: "Moored",
			Latitude:  &lat,
			SOG:       &sog,
			Extra:     map[string]any{"Name": "VESSEL 1", "Ship type": "Cargo"},
		}

		data, err := MarshalRecord(rec)
		require.NoError(t, err)

		got, err := UnmarshalRecord(data)
		require.NoError(t, err)

		assert.Equal(t, rec.MMSI, got.MMSI)
		assert.True(t, rec.Timestamp.Equal(got.Timestamp))
		assert.Equal(t, rec.NavStatus, got.NavStatus)
		require.NotNil(t, got.Latitude)
		assert.Equal(t, 55.5, *got.Latitude)
		assert.Nil(t, got.Longitude)
		assert.Nil(t, got.ROT)
		assert.Equal(t, "VESSEL 1", got.Extra["Name"])
	})

	t.Run("UnmarshalGarbage", func(t *testing.T) {
		_, err := UnmarshalRecord([]byte("not bson"))
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})
}
