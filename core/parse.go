package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// timestampFormats are the two layouts observed in AIS exports.
var timestampFormats = []string{
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an event timestamp in either DD/MM/YYYY HH:MM:SS or
// YYYY-MM-DD HH:MM:SS form. Returns ErrBadTimestamp if neither matches.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampFormats {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}

// RecordFromRow builds a Record from one CSV row. Known columns are mapped
// onto the typed fields; everything else lands in Extra with its raw string
// value. Numeric coercion happens here, once: an empty, "nan", or otherwise
// unparseable numeric value becomes nil, never an error.
func RecordFromRow(header, row []string) *Record {
	rec := &Record{}
	for i, name := range header {
		if i >= len(row) {
			break
		}
		value := strings.TrimSpace(row[i])
		switch name {
		case KeyField:
			rec.MMSI = value
		case NavStatusField:
			rec.NavStatus = value
		case TimestampField, "# Timestamp":
			if ts, err := ParseTimestamp(value); err == nil {
				rec.Timestamp = ts
			}
		case "Latitude":
			rec.Latitude = CoerceFloat(value)
		case "Longitude":
			rec.Longitude = CoerceFloat(value)
		case "ROT":
			rec.ROT = CoerceFloat(value)
		case "SOG":
			rec.SOG = CoerceFloat(value)
		case "COG":
			rec.COG = CoerceFloat(value)
		case "Heading":
			rec.Heading = CoerceFloat(value)
		default:
			if rec.Extra == nil {
				rec.Extra = make(map[string]any)
			}
			rec.Extra[name] = value
		}
	}
	return rec
}

// CleanHeader normalizes CSV header names: whitespace trimmed, stray quotes
// removed. The first column of AIS exports is "# Timestamp" and is kept
// verbatim so RecordFromRow can recognize it.
func CleanHeader(names []string) []string {
	cleaned := make([]string, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		name = strings.ReplaceAll(name, `"`, "")
		cleaned[i] = name
	}
	return cleaned
}

// CoerceFloat parses a numeric telemetry value. Empty strings, the "nan"
// sentinel, unparseable text, and non-finite values all coerce to nil.
func CoerceFloat(s string) *float64 {
	if s == "" || strings.EqualFold(s, "nan") {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
