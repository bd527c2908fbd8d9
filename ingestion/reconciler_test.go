package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfstash/ai"
	"pdfstash/ai/mock"
	"pdfstash/core"
	"pdfstash/storage"
	"pdfstash/storage/badger"
)

// fakeStore is a scripted in-memory VectorStore. Each Add call consumes the
// next error from addErrs; once the script runs out, Adds succeed.
type fakeStore struct {
	namespace    string
	records      map[string]struct{}
	addErrs      []error
	addCalls     [][]string
	persistCalls int
}

var (
	_ storage.VectorStore = (*fakeStore)(nil)
	_ storage.Persister   = (*fakeStore)(nil)
)

func newFakeStore(namespace string, seed ...string) *fakeStore {
	records := make(map[string]struct{})
	for _, id := range seed {
		records[id] = struct{}{}
	}
	return &fakeStore{namespace: namespace, records: records}
}

func (f *fakeStore) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	ids := make(map[string]struct{}, len(f.records))
	for id := range f.records {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (f *fakeStore) Add(ctx context.Context, chunks []*core.Chunk, ids []string) error {
	copied := make([]string, len(ids))
	copy(copied, ids)
	f.addCalls = append(f.addCalls, copied)

	if len(f.addErrs) > 0 {
		err := f.addErrs[0]
		f.addErrs = f.addErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, id := range ids {
		f.records[id] = struct{}{}
	}
	return nil
}

func (f *fakeStore) Namespace() string {
	return f.namespace
}

func (f *fakeStore) Persist() error {
	f.persistCalls++
	return nil
}

func remoteProvider() *ai.Provider {
	return &ai.Provider{Kind: ai.KindRemote, Model: "remote-model"}
}

func localProvider() *ai.Provider {
	return &ai.Provider{Kind: ai.KindLocal, Model: "local-model"}
}

func makeChunks(n int) []*core.Chunk {
	chunks := make([]*core.Chunk, n)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			Text:     "chunk " + strconv.Itoa(i),
			ID:       "doc.pdf:0:" + strconv.Itoa(i),
			Metadata: core.Metadata{Source: "doc.pdf", Page: 0},
			Index:    i,
		}
	}
	return chunks
}

func fastConfig() *Config {
	return &Config{
		BatchSize:      100,
		RetryDelay:     time.Millisecond,
		ReportInterval: 100,
	}
}

func TestReconciler_NothingToAdd(t *testing.T) {
	chunks := makeChunks(5)
	store := newFakeStore("remote/remote-model",
		chunks[0].ID, chunks[1].ID, chunks[2].ID, chunks[3].ID, chunks[4].ID)

	r := NewReconciler(remoteProvider(), store, fastConfig())
	result, err := r.Run(context.Background(), chunks)

	require.NoError(t, err)
	assert.Equal(t, 5, result.TotalChunks)
	assert.Equal(t, 0, result.NewChunks)
	assert.Equal(t, 5, result.Skipped)
	assert.Zero(t, result.Added)
	assert.Zero(t, result.Batches)
	assert.Empty(t, store.addCalls, "a fully ingested corpus must not touch Add")
}

func TestReconciler_BatchSizing(t *testing.T) {
	chunks := makeChunks(250)
	store := newFakeStore("remote/remote-model")

	r := NewReconciler(remoteProvider(), store, fastConfig())
	result, err := r.Run(context.Background(), chunks)

	require.NoError(t, err)
	assert.Equal(t, 250, result.Added)
	assert.Equal(t, 3, result.Batches)
	require.Len(t, store.addCalls, 3)
	assert.Len(t, store.addCalls[0], 100)
	assert.Len(t, store.addCalls[1], 100)
	assert.Len(t, store.addCalls[2], 50)
	assert.Equal(t, 3, store.persistCalls, "every committed batch must be persisted")
}

func TestReconciler_PartialIngestSkipsStored(t *testing.T) {
	chunks := makeChunks(10)
	store := newFakeStore("remote/remote-model", chunks[0].ID, chunks[3].ID, chunks[7].ID)

	r := NewReconciler(remoteProvider(), store, fastConfig())
	result, err := r.Run(context.Background(), chunks)

	require.NoError(t, err)
	assert.Equal(t, 7, result.Added)
	assert.Equal(t, 3, result.Skipped)

	// Re-run: everything is stored now.
	again, err := r.Run(context.Background(), chunks)
	require.NoError(t, err)
	assert.Zero(t, again.Added)
	assert.Equal(t, 10, again.Skipped)
}

func TestReconciler_RateLimitRetriesSameBatch(t *testing.T) {
	chunks := makeChunks(4)
	store := newFakeStore("remote/remote-model")
	store.addErrs = []error{
		fmt.Errorf("%w: 429 from api", ai.ErrRateLimited),
		fmt.Errorf("%w: 429 from api", ai.ErrRateLimited),
		nil,
	}

	r := NewReconciler(remoteProvider(), store, fastConfig())
	result, err := r.Run(context.Background(), chunks)

	require.NoError(t, err)
	assert.Equal(t, 4, result.Added)
	require.Len(t, store.addCalls, 3, "rate-limited batch must be resubmitted as-is")
	assert.Equal(t, store.addCalls[0], store.addCalls[1])
	assert.Equal(t, store.addCalls[1], store.addCalls[2])
}

func TestReconciler_QuotaFallbackSwitchesProvider(t *testing.T) {
	chunks := makeChunks(6)
	remoteStore := newFakeStore("remote/remote-model")
	remoteStore.addErrs = []error{
		fmt.Errorf("%w: exceeded your current quota", ai.ErrQuotaExhausted),
	}

	// The local namespace already holds two of the chunks from an earlier
	// forced-local run; they must not be written twice.
	localStore := newFakeStore("local/local-model", chunks[0].ID, chunks[1].ID)

	r := NewReconciler(remoteProvider(), remoteStore, fastConfig(),
		WithLocalFallback(func(ctx context.Context) (*ai.Provider, error) {
			return localProvider(), nil
		}),
		WithStoreFactory(func(ctx context.Context, p *ai.Provider) (storage.VectorStore, error) {
			return localStore, nil
		}),
	)

	result, err := r.Run(context.Background(), chunks)
	require.NoError(t, err)

	assert.True(t, result.ProviderSwitched)
	assert.Equal(t, ai.KindLocal, r.Provider().Kind)
	assert.Equal(t, 4, result.Added, "chunks already in the local namespace must be skipped")

	require.Len(t, localStore.addCalls, 1)
	assert.NotContains(t, localStore.addCalls[0], chunks[0].ID)
	assert.NotContains(t, localStore.addCalls[0], chunks[1].ID)
	assert.Positive(t, localStore.persistCalls)
}

func TestReconciler_QuotaOnLocalPropagates(t *testing.T) {
	chunks := makeChunks(2)
	store := newFakeStore("local/local-model")
	store.addErrs = []error{
		fmt.Errorf("%w: no budget left", ai.ErrQuotaExhausted),
	}

	r := NewReconciler(localProvider(), store, fastConfig(),
		WithLocalFallback(func(ctx context.Context) (*ai.Provider, error) {
			t.Fatal("fallback must not fire for a local provider")
			return nil, nil
		}),
		WithStoreFactory(func(ctx context.Context, p *ai.Provider) (storage.VectorStore, error) {
			return nil, nil
		}),
	)

	_, err := r.Run(context.Background(), chunks)
	assert.ErrorIs(t, err, ai.ErrQuotaExhausted)
}

func TestReconciler_QuotaWithoutFallbackPropagates(t *testing.T) {
	chunks := makeChunks(2)
	store := newFakeStore("remote/remote-model")
	store.addErrs = []error{
		fmt.Errorf("%w: exceeded your current quota", ai.ErrQuotaExhausted),
	}

	r := NewReconciler(remoteProvider(), store, fastConfig())

	_, err := r.Run(context.Background(), chunks)
	assert.ErrorIs(t, err, ai.ErrQuotaExhausted)
}

func TestReconciler_OtherErrorsPropagate(t *testing.T) {
	chunks := makeChunks(2)
	store := newFakeStore("remote/remote-model")
	boom := errors.New("disk on fire")
	store.addErrs = []error{boom}

	r := NewReconciler(remoteProvider(), store, fastConfig())

	_, err := r.Run(context.Background(), chunks)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, store.addCalls, 1, "unclassified errors must not be retried")
}

func TestReconciler_CommittedBatchesStayCommitted(t *testing.T) {
	chunks := makeChunks(250)
	store := newFakeStore("remote/remote-model")
	boom := errors.New("backend gone")
	// First two batches commit, the third fails.
	store.addErrs = []error{nil, nil, boom}

	r := NewReconciler(remoteProvider(), store, fastConfig())

	result, err := r.Run(context.Background(), chunks)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 200, result.Added)
	assert.Equal(t, 2, result.Batches)
	assert.Len(t, store.records, 200, "committed batches survive a later failure")
}

func TestReconciler_EndToEndWithBadger(t *testing.T) {
	provider := &ai.Provider{
		Kind:     ai.KindRemote,
		Model:    "remote-model",
		Embedder: mock.NewEmbedder(),
	}
	store, backend, err := badger.NewMemoryStore(provider)
	require.NoError(t, err)
	defer backend.Close()

	// Three documents, two chunks each, all on page 0.
	var chunks []*core.Chunk
	for _, src := range []string{"doc1.pdf", "doc2.pdf", "doc3.pdf"} {
		for i := 0; i < 2; i++ {
			chunks = append(chunks, &core.Chunk{
				Text:     src + " chunk " + strconv.Itoa(i),
				Metadata: core.Metadata{Source: src, Page: 0},
			})
		}
	}
	core.AssignIDs(chunks)

	r := NewReconciler(provider, store, fastConfig())
	result, err := r.Run(context.Background(), chunks)
	require.NoError(t, err)
	assert.Equal(t, 6, result.Added)
	assert.Equal(t, 1, result.Batches)

	ids, err := store.ExistingIDs(context.Background())
	require.NoError(t, err)
	for _, want := range []string{
		"doc1.pdf:0:0", "doc1.pdf:0:1",
		"doc2.pdf:0:0", "doc2.pdf:0:1",
		"doc3.pdf:0:0", "doc3.pdf:0:1",
	} {
		assert.Contains(t, ids, want)
	}

	again, err := r.Run(context.Background(), chunks)
	require.NoError(t, err)
	assert.Zero(t, again.Added)
	assert.Equal(t, 6, again.Skipped)
}

func TestMakeBatches(t *testing.T) {
	chunks := makeChunks(7)

	batches := makeBatches(chunks, 3)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 3)
	assert.Len(t, batches[1], 3)
	assert.Len(t, batches[2], 1)

	assert.Empty(t, makeBatches(nil, 3))
	assert.Len(t, makeBatches(chunks, 100), 1)
}

func TestFilterKnown_PreservesOrder(t *testing.T) {
	chunks := makeChunks(5)
	known := map[string]struct{}{
		chunks[1].ID: {},
		chunks[3].ID: {},
	}

	missing := filterKnown(chunks, known)
	require.Len(t, missing, 3)
	assert.Equal(t, chunks[0].ID, missing[0].ID)
	assert.Equal(t, chunks[2].ID, missing[1].ID)
	assert.Equal(t, chunks[4].ID, missing[2].ID)
}
