package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	t.Run("DayFirstFormat", func(t *testing.T) {
		ts, err := ParseTimestamp("07/03/2024 14:30:05")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 7, 14, 30, 5, 0, time.UTC), ts)
	})

	t.Run("ISOFormat", func(t *testing.T) {
		ts, err := ParseTimestamp("2024-03-07 14:30:05")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 7, 14, 30, 5, 0, time.UTC), ts)
	})

	t.Run("SurroundingWhitespace", func(t *testing.T) {
		ts, err := ParseTimestamp("  07/03/2024 14:30:05 ")
		require.NoError(t, err)
		assert.Equal(t, 2024, ts.Year())
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := ParseTimestamp("not a timestamp")
		assert.ErrorIs(t, err, ErrBadTimestamp)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := ParseTimestamp("")
		assert.ErrorIs(t, err, ErrBadTimestamp)
	})
}

func TestCoerceFloat(t *testing.T) {
	t.Run("ValidNumber", func(t *testing.T) {
		v := CoerceFloat("12.5")
		require.NotNil(t, v)
		assert.Equal(t, 12.5, *v)
	})

	t.Run("Negative", func(t *testing.T) {
		v := CoerceFloat("-127.0")
		require.NotNil(t, v)
		assert.Equal(t, -127.0, *v)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Nil(t, CoerceFloat(""))
	})

	t.Run("NaNSentinel", func(t *testing.T) {
		assert.Nil(t, CoerceFloat("nan"))
		assert.Nil(t, CoerceFloat("NaN"))
	})

	t.Run("Junk", func(t *testing.T) {
		assert.Nil(t, CoerceFloat("abc"))
	})

	t.Run("Infinity", func(t *testing.T) {
		assert.Nil(t, CoerceFloat("+Inf"))
	})
}

func TestRecordFromRow(t *testing.T) {
	header := CleanHeader([]string{
		"# Timestamp", "Type of mobile", "MMSI", "Latitude", "Longitude",
		"Navigational status", "ROT", "SOG", "COG", "Heading",
	})

	t.Run("FullRow", func(t *testing.T) {
		row := []string{
			"07/03/2024 14:30:05", "Class A", "219000123", "55.5", "10.2",
			"Under way using engine", "-2.5", "12.3", "180.0", "179",
		}
		rec := RecordFromRow(header, row)

		assert.Equal(t, "219000123", rec.MMSI)
		assert.Equal(t, "Under way using engine", rec.NavStatus)
		require.NotNil(t, rec.Latitude)
		assert.Equal(t, 55.5, *rec.Latitude)
		require.NotNil(t, rec.Heading)
		assert.Equal(t, 179.0, *rec.Heading)
		assert.Equal(t, time.Date(2024, 3, 7, 14, 30, 5, 0, time.UTC), rec.Timestamp)
		assert.Equal(t, "Class A", rec.Extra["Type of mobile"])
	})

	t.Run("JunkNumericRetainedAsNull", func(t *testing.T) {
		row := []string{
			"07/03/2024 14:30:05", "Class A", "219000123", "55.5", "10.2",
			"At anchor", "abc", "", "nan", "179",
		}
		rec := RecordFromRow(header, row)

		assert.Nil(t, rec.ROT)
		assert.Nil(t, rec.SOG)
		assert.Nil(t, rec.COG)
		require.NotNil(t, rec.Heading)
		assert.NoError(t, Validate(rec))
	})

	t.Run("ShortRow", func(t *testing.T) {
		row := []string{"07/03/2024 14:30:05", "Class A", "219000123"}
		rec := RecordFromRow(header, row)

		assert.Equal(t, "219000123", rec.MMSI)
		assert.Nil(t, rec.Latitude)
	})
}

func TestFingerprint(t *testing.T) {
	lat := 55.5
	lon := 10.2
	base := &Record{
		MMSI:      "219000123",
		Timestamp: time.Date(2024, 3, 7, 14, 30, 5, 0, time.UTC),
		NavStatus: "Moored",
		Latitude:  &lat,
		Longitude: &lon,
	}

	t.Run("Deterministic", func(t *testing.T) {
		other := *base
		assert.Equal(t, Fingerprint(base), Fingerprint(&other))
	})

	t.Run("ContentSensitive", func(t *testing.T) {
		other := *base
		other.MMSI = "219000124"
		assert.NotEqual(t, Fingerprint(base), Fingerprint(&other))
	})

	t.Run("NullDistinctFromZero", func(t *testing.T) {
		zero := 0.0
		withZero := *base
		withZero.ROT = &zero
		assert.NotEqual(t, Fingerprint(base), Fingerprint(&withZero))
	})

	t.Run("IgnoresStoreID", func(t *testing.T) {
		other := *base
		other.Extra = map[string]any{"_id": "abc123"}
		assert.Equal(t, Fingerprint(base), Fingerprint(&other))
	})
}

func TestFieldString(t *testing.T) {
	rec := &Record{
		MMSI:      "219000123",
		Timestamp: time.Date(2024, 3, 7, 14, 30, 5, 0, time.UTC),
		Extra:     map[string]any{"Name": "VESSEL 1"},
	}

	t.Run("Key", func(t *testing.T) {
		s, ok := FieldString(rec, KeyField)
		require.True(t, ok)
		assert.Equal(t, "219000123", s)
	})

	t.Run("TimestampOrdersLexicographically", func(t *testing.T) {
		earlier, ok := FieldString(rec, TimestampField)
		require.True(t, ok)

		later := &Record{Timestamp: rec.Timestamp.Add(time.Second)}
		laterStr, ok := FieldString(later, TimestampField)
		require.True(t, ok)

		assert.Less(t, earlier, laterStr)
	})

	t.Run("ZeroTimestamp", func(t *testing.T) {
		_, ok := FieldString(&Record{}, TimestampField)
		assert.False(t, ok)
	})

	t.Run("ExtraColumn", func(t *testing.T) {
		s, ok := FieldString(rec, "Name")
		require.True(t, ok)
		assert.Equal(t, "VESSEL 1", s)
	})

	t.Run("UnknownColumn", func(t *testing.T) {
		_, ok := FieldString(rec, "Draught")
		assert.False(t, ok)
	})
}
