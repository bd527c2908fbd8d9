// Copyright 2025 The pdfstash authors
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
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/mus-format/mus-go/varint"

	"pdfstash/ai"
	"pdfstash/core"
	"pdfstash/storage"
)

// Store is a BadgerDB-backed storage.VectorStore. All records it writes are
// keyed under the provider namespace so that vectors from different
// embedding models never mix.
type Store struct {
	backend  *Backend
	provider *ai.Provider
}

var (
	_ storage.VectorStore = (*Store)(nil)
	_ storage.Persister   = (*Store)(nil)
)

// NewStore creates a vector store over an open backend. The store does not
// own the backend; the caller closes it.
func NewStore(backend *Backend, provider *ai.Provider) (storage.VectorStore, error) {
	if backend == nil {
		return nil, errors.New("badger store: backend is required")
	}
	if provider == nil {
		return nil, errors.New("badger store: provider is required")
	}
	return &Store{backend: backend, provider: provider}, nil
}

// Namespace returns the provider identity this store partitions by.
func (s *Store) Namespace() string {
	return s.provider.Namespace()
}

// ExistingIDs returns every chunk identifier stored under the namespace.
// Only keys are read; values are never prefetched.
func (s *Store) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	namespace := s.Namespace()
	prefix := makeChunkPrefix(namespace)
	ids := make(map[string]struct{})

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			ids[chunkIDFromKey(iter.Item().Key(), namespace)] = struct{}{}
		}
		return nil
	}, false)
	if err != nil {
		return nil, fmt.Errorf("listing existing ids: %w", err)
	}
	return ids, nil
}

// Add embeds the chunks via the store's provider and writes them in a
// single transaction. Vectors are normalized to unit length before storage.
// The first write into an empty namespace records the embedding
// dimensionality; later writes must match it.
func (s *Store) Add(ctx context.Context, chunks []*core.Chunk, ids []string) error {
	if len(chunks) != len(ids) {
		return fmt.Errorf("%w: %d chunks, %d ids", storage.ErrIDMismatch, len(chunks), len(ids))
	}
	if len(chunks) == 0 {
		return nil
	}
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return fmt.Errorf("chunk %s: %w", ids[i], err)
		}
		texts[i] = chunk.Text
	}

	vectors, err := s.provider.Embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, batch has %d",
				storage.ErrDimensionMismatch, i, len(v), dim)
		}
	}

	namespace := s.Namespace()
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := s.checkDimension(tx, namespace, dim); err != nil {
			return err
		}

		for i, chunk := range chunks {
			record := &storage.ChunkRecord{
				ID:       ids[i],
				Text:     chunk.Text,
				Source:   chunk.Metadata.Source,
				Page:     chunk.Metadata.Page,
				Index:    chunk.Index,
				Checksum: chunk.Checksum,
				Vector:   storage.NormalizeVector(vectors[i]),
			}
			if err := tx.Set(makeChunkKey(namespace, ids[i]), storage.MarshalChunkRecord(record)); err != nil {
				return fmt.Errorf("storing chunk %s: %w", ids[i], err)
			}
		}
		return tx.Commit()
	}, true)
}

// checkDimension verifies dim against the namespace's recorded
// dimensionality, recording it on first write.
func (s *Store) checkDimension(tx *badger.Txn, namespace string, dim int) error {
	key := makeDimensionKey(namespace)

	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		buf := make([]byte, varint.Uint64.Size(uint64(dim)))
		varint.Uint64.Marshal(uint64(dim), buf)
		return tx.Set(key, buf)
	}
	if err != nil {
		return err
	}

	var stored uint64
	err = item.Value(func(val []byte) error {
		var err error
		stored, _, err = varint.Uint64.Unmarshal(val)
		return err
	})
	if err != nil {
		return err
	}
	if int(stored) != dim {
		return fmt.Errorf("%w: store has %d-dimensional vectors, batch has %d",
			storage.ErrDimensionMismatch, stored, dim)
	}
	return nil
}

// Get retrieves a stored chunk record by identifier.
// Returns storage.ErrNotFound if no record exists under the namespace.
func (s *Store) Get(ctx context.Context, id string) (*storage.ChunkRecord, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var record *storage.ChunkRecord
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeChunkKey(s.Namespace(), id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			record, err = storage.UnmarshalChunkRecord(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Persist implements storage.Persister by syncing the backend to disk.
func (s *Store) Persist() error {
	return s.backend.Sync()
}
