package badger

import "strings"

// Key prefixes for different data types
const (
	chunkRecordPrefix = "chunk"
	dimensionPrefix   = "dim"
)

// makeChunkKey generates a key for a chunk record, partitioned by provider
// namespace. Format: chunk:<namespace>:<id>
func makeChunkKey(namespace, id string) []byte {
	return []byte(chunkRecordPrefix + ":" + namespace + ":" + id)
}

// makeChunkPrefix generates the iteration prefix for all chunk records in a
// namespace.
func makeChunkPrefix(namespace string) []byte {
	return []byte(chunkRecordPrefix + ":" + namespace + ":")
}

// chunkIDFromKey extracts the chunk identifier from a full key.
func chunkIDFromKey(key []byte, namespace string) string {
	return strings.TrimPrefix(string(key), chunkRecordPrefix+":"+namespace+":")
}

// makeDimensionKey generates the key holding the embedding dimensionality
// recorded for a namespace.
func makeDimensionKey(namespace string) []byte {
	return []byte(dimensionPrefix + ":" + namespace)
}
