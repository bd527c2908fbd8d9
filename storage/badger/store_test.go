package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfstash/ai"
	"pdfstash/ai/mock"
	"pdfstash/core"
	"pdfstash/storage"
)

func newTestProvider(model string) (*ai.Provider, *mock.Embedder) {
	embedder := mock.NewEmbedder()
	return &ai.Provider{
		Kind:     ai.KindLocal,
		Model:    model,
		Embedder: embedder,
	}, embedder
}

func testChunk(source string, page, index int, text string) *core.Chunk {
	return &core.Chunk{
		Text:     text,
		Metadata: core.Metadata{Source: source, Page: page},
		Index:    index,
		Checksum: core.ChecksumFromContent(text),
	}
}

func TestStore_ExistingIDs_Empty(t *testing.T) {
	provider, _ := newTestProvider("mock-model")
	store, backend, err := NewMemoryStore(provider)
	require.NoError(t, err)
	defer backend.Close()

	ids, err := store.ExistingIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_AddAndGet(t *testing.T) {
	provider, embedder := newTestProvider("mock-model")
	store, backend, err := NewMemoryStore(provider)
	require.NoError(t, err)
	defer backend.Close()

	chunk := testChunk("a.pdf", 0, 0, "chunk text")
	chunk.ID = "a.pdf:0:0"

	require.NoError(t, store.Add(context.Background(), []*core.Chunk{chunk}, []string{chunk.ID}))
	assert.Equal(t, 1, embedder.CallCount())

	ids, err := store.ExistingIDs(context.Background())
	require.NoError(t, err)
	assert.Contains(t, ids, "a.pdf:0:0")

	record, err := store.(*Store).Get(context.Background(), "a.pdf:0:0")
	require.NoError(t, err)
	assert.Equal(t, "chunk text", record.Text)
	assert.Equal(t, "a.pdf", record.Source)
	assert.Equal(t, 0, record.Page)
	assert.Equal(t, chunk.Checksum, record.Checksum)
	assert.Len(t, record.Vector, 384)
}

func TestStore_Get_NotFound(t *testing.T) {
	provider, _ := newTestProvider("mock-model")
	store, backend, err := NewMemoryStore(provider)
	require.NoError(t, err)
	defer backend.Close()

	_, err = store.(*Store).Get(context.Background(), "missing.pdf:0:0")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_Add_IDListMismatch(t *testing.T) {
	provider, _ := newTestProvider("mock-model")
	store, backend, err := NewMemoryStore(provider)
	require.NoError(t, err)
	defer backend.Close()

	chunk := testChunk("a.pdf", 0, 0, "text")
	chunk.ID = "a.pdf:0:0"

	err = store.Add(context.Background(), []*core.Chunk{chunk}, []string{"a.pdf:0:0", "a.pdf:0:1"})
	assert.ErrorIs(t, err, storage.ErrIDMismatch)
}

func TestStore_Add_EmptyBatch(t *testing.T) {
	provider, embedder := newTestProvider("mock-model")
	store, backend, err := NewMemoryStore(provider)
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, store.Add(context.Background(), nil, nil))
	assert.Zero(t, embedder.CallCount(), "empty batches must not hit the embedder")
}

func TestStore_Add_DimensionMismatch(t *testing.T) {
	provider, embedder := newTestProvider("mock-model")
	store, backend, err := NewMemoryStore(provider)
	require.NoError(t, err)
	defer backend.Close()

	first := testChunk("a.pdf", 0, 0, "first")
	first.ID = "a.pdf:0:0"
	require.NoError(t, store.Add(context.Background(), []*core.Chunk{first}, []string{first.ID}))

	// Same namespace, different vector length.
	embedder.EmbedDocumentsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range vectors {
			vectors[i] = make([]float32, 768)
		}
		return vectors, nil
	}

	second := testChunk("a.pdf", 0, 1, "second")
	second.ID = "a.pdf:0:1"
	err = store.Add(context.Background(), []*core.Chunk{second}, []string{second.ID})
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}

func TestStore_NamespaceIsolation(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	providerA, _ := newTestProvider("model-a")
	providerB, _ := newTestProvider("model-b")

	storeA, err := NewStore(backend, providerA)
	require.NoError(t, err)
	storeB, err := NewStore(backend, providerB)
	require.NoError(t, err)

	chunk := testChunk("a.pdf", 0, 0, "shared text")
	chunk.ID = "a.pdf:0:0"
	require.NoError(t, storeA.Add(context.Background(), []*core.Chunk{chunk}, []string{chunk.ID}))

	idsA, err := storeA.ExistingIDs(context.Background())
	require.NoError(t, err)
	assert.Contains(t, idsA, "a.pdf:0:0")

	idsB, err := storeB.ExistingIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, idsB, "records must not leak across provider namespaces")
}

func TestStore_Persist(t *testing.T) {
	provider, _ := newTestProvider("mock-model")
	store, backend, err := NewMemoryStore(provider)
	require.NoError(t, err)
	defer backend.Close()

	persister, ok := store.(storage.Persister)
	require.True(t, ok, "badger store must expose the persist capability")
	assert.NoError(t, persister.Persist())
}

func TestStore_VectorsAreNormalized(t *testing.T) {
	provider, embedder := newTestProvider("mock-model")
	store, backend, err := NewMemoryStore(provider)
	require.NoError(t, err)
	defer backend.Close()

	embedder.EmbedDocumentsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{3, 4}}, nil
	}

	chunk := testChunk("a.pdf", 0, 0, "text")
	chunk.ID = "a.pdf:0:0"
	require.NoError(t, store.Add(context.Background(), []*core.Chunk{chunk}, []string{chunk.ID}))

	record, err := store.(*Store).Get(context.Background(), "a.pdf:0:0")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, record.Vector[0], 1e-6)
	assert.InDelta(t, 0.8, record.Vector[1], 1e-6)
}
