package storage

import (
	"context"

	"pdfstash/core"
)

// VectorStore is a persistent set of embedded chunks keyed by deterministic
// identifier. Implementations must be thread-safe.
type VectorStore interface {
	// ExistingIDs returns the set of chunk identifiers already stored under
	// the store's namespace.
	ExistingIDs(ctx context.Context) (map[string]struct{}, error)

	// Add embeds the chunks and stores them under the given identifiers.
	// The ids slice must parallel chunks; ErrIDMismatch otherwise. Either
	// every chunk in the call is stored or none is.
	Add(ctx context.Context, chunks []*core.Chunk, ids []string) error

	// Namespace returns the provider identity this store partitions by.
	Namespace() string
}

// Persister is an optional capability of stores that buffer writes in
// memory. Callers check for it once with a type assertion and invoke
// Persist at batch boundaries.
type Persister interface {
	// Persist forces buffered writes onto durable storage.
	Persist() error
}
