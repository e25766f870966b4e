package badger

import (
	"encoding/binary"
	"strings"

	"github.com/poiesic/vesselflow/core"
)

// Key prefixes for different data types
const (
	docPrefix       = "doc"
	indexPrefix     = "idx"
	metaIndexPrefix = "metaidx"
)

// makeDocKey generates the primary key for a document.
// Format: doc:<collection>:<fingerprint>
// Fingerprints are content hashes, so re-inserting the same observation
// overwrites instead of duplicating.
func makeDocKey(collection string, id core.ID) []byte {
	prefix := docPrefix + ":" + collection + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeDocScanPrefix generates the scan prefix for a collection's documents.
func makeDocScanPrefix(collection string) []byte {
	return []byte(docPrefix + ":" + collection + ":")
}

// makeIndexKey generates a composite key for a field index entry.
// Format: idx:<collection>:<field>:<value>:<fingerprint>
// The fingerprint suffix has fixed width, so the value segment can be
// recovered from the tail even when the value itself contains separators.
func makeIndexKey(collection, field, value string, id core.ID) []byte {
	prefix := indexPrefix + ":" + collection + ":" + field + ":"
	buf := make([]byte, len(prefix)+len(value)+1+8)
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], value)
	buf[offset] = ':'
	offset++
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeIndexScanPrefix generates the scan prefix for all entries of one
// field index.
func makeIndexScanPrefix(collection, field string) []byte {
	return []byte(indexPrefix + ":" + collection + ":" + field + ":")
}

// makeIndexValuePrefix generates the scan prefix for one value of one
// field index.
func makeIndexValuePrefix(collection, field, value string) []byte {
	return []byte(indexPrefix + ":" + collection + ":" + field + ":" + value + ":")
}

// splitIndexKey recovers the value segment and fingerprint from an index
// key, given the scan prefix it was found under.
func splitIndexKey(key, scanPrefix []byte) (value string, id core.ID, ok bool) {
	if len(key) < len(scanPrefix)+9 {
		return "", 0, false
	}
	tail := key[len(scanPrefix):]
	// Last 8 bytes are the fingerprint, preceded by one separator byte.
	value = string(tail[:len(tail)-9])
	id = core.ID(binary.BigEndian.Uint64(tail[len(tail)-8:]))
	return value, id, true
}

// makeMetaIndexKey generates the registry key marking a field as indexed.
// Format: metaidx:<collection>:<field>
func makeMetaIndexKey(collection, field string) []byte {
	return []byte(metaIndexPrefix + ":" + collection + ":" + field)
}

// parseMetaIndexKey splits a registry key back into collection and field.
func parseMetaIndexKey(key []byte) (collection, field string, ok bool) {
	s := strings.TrimPrefix(string(key), metaIndexPrefix+":")
	if s == string(key) {
		return "", "", false
	}
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}
