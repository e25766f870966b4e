package core

import (
	"encoding/binary"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a deterministic 64-bit identifier for domain entities,
// generated by content-based hashing.
type ID uint64

// Well-known column names from the AIS source file. The store indexes
// KeyField on every collection and TimestampField on filtered data.
const (
	KeyField       = "MMSI"
	TimestampField = "Timestamp"
	NavStatusField = "Navigational status"
)

// RequiredFields are the columns every filtered record must carry with a
// usable value. Records missing any of them are skipped, not failed.
var RequiredFields = []string{KeyField, "Latitude", "Longitude", NavStatusField}

// NumericFields are the telemetry columns coerced to float64. Unparseable
// values become an explicit null; the record itself is retained.
var NumericFields = []string{"ROT", "SOG", "COG", "Heading"}

// Record is a single vessel observation. The known telemetry columns are
// typed; nil pointers are stored as explicit nulls. Columns the schema does
// not recognize ride along untouched in Extra.
//
// A Record is never mutated after it has been written to a store.
type Record struct {
	MMSI      string         `bson:"MMSI"`
	Timestamp time.Time      `bson:"Timestamp"`
	NavStatus string         `bson:"Navigational status"`
	Latitude  *float64       `bson:"Latitude"`
	Longitude *float64       `bson:"Longitude"`
	ROT       *float64       `bson:"ROT"`
	SOG       *float64       `bson:"SOG"`
	COG       *float64       `bson:"COG"`
	Heading   *float64       `bson:"Heading"`
	Extra     map[string]any `bson:",inline"`
}

// Fingerprint generates a deterministic ID from a record's content using
// BLAKE2b hashing. Identical observations produce identical IDs, which makes
// re-inserting a record after a failed bulk write idempotent in stores that
// key documents by fingerprint.
func Fingerprint(r *Record) ID {
	var b strings.Builder
	b.WriteString(r.MMSI)
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(r.Timestamp.UnixMicro(), 10))
	b.WriteByte('|')
	b.WriteString(r.NavStatus)
	for _, f := range []*float64{r.Latitude, r.Longitude, r.ROT, r.SOG, r.COG, r.Heading} {
		b.WriteByte('|')
		if f == nil {
			b.WriteString("null")
		} else {
			b.WriteString(strconv.FormatFloat(*f, 'g', -1, 64))
		}
	}

	if len(r.Extra) > 0 {
		keys := make([]string, 0, len(r.Extra))
		for k := range r.Extra {
			if k == "_id" {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteByte('|')
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(anyString(r.Extra[k]))
		}
	}

	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(b.String()))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// FieldString returns the indexable string form of a named field.
// Timestamps are rendered as big-endian microseconds so that lexicographic
// key order matches chronological order.
func FieldString(r *Record, name string) (string, bool) {
	switch name {
	case KeyField:
		return r.MMSI, r.MMSI != ""
	case TimestampField:
		if r.Timestamp.IsZero() {
			return "", false
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(r.Timestamp.UnixMicro()))
		return string(buf), true
	case NavStatusField:
		return r.NavStatus, r.NavStatus != ""
	}
	if v, ok := r.Extra[name]; ok {
		s := anyString(v)
		return s, s != ""
	}
	return "", false
}

func anyString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	}
	return ""
}
