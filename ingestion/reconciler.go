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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"pdfstash/ai"
	"pdfstash/core"
	"pdfstash/storage"
)

// Config holds reconciler tuning parameters.
type Config struct {
	// BatchSize is the number of chunks embedded and stored per call.
	BatchSize int

	// RetryDelay is the fixed wait between attempts on a rate-limited batch.
	RetryDelay time.Duration

	// ReportInterval is the progress report granularity in chunks.
	ReportInterval int
}

// DefaultConfig returns the standard reconciler configuration.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		RetryDelay:     20 * time.Second,
		ReportInterval: 100,
	}
}

// ProviderFactory constructs an embedding provider on demand.
type ProviderFactory func(ctx context.Context) (*ai.Provider, error)

// StoreFactory opens a vector store for the given provider.
type StoreFactory func(ctx context.Context, provider *ai.Provider) (storage.VectorStore, error)

// Result summarizes a reconciliation run.
type Result struct {
	// TotalChunks is the number of chunks presented.
	TotalChunks int
	// NewChunks is how many were absent from the store at the start.
	NewChunks int
	// Skipped is how many were already stored.
	Skipped int
	// Batches is the number of batches committed.
	Batches int
	// Added is the number of chunks actually written.
	Added int
	// ProviderSwitched reports whether the quota fallback fired.
	ProviderSwitched bool
}

// Reconciler diffs chunks against the store and adds the missing ones.
// Not safe for concurrent use; run one reconciliation at a time.
type Reconciler struct {
	cfg       *Config
	provider  *ai.Provider
	store     storage.VectorStore
	persister storage.Persister

	localFallback  ProviderFactory
	storeFactory   StoreFactory
	progressWriter io.Writer
	logger         *slog.Logger
}

// Option is a functional option for configuring a Reconciler.
type Option func(*Reconciler)

// WithLocalFallback sets the factory used to build the local provider when
// the remote one exhausts its quota. Without it the fallback is disabled
// and quota errors propagate.
func WithLocalFallback(f ProviderFactory) Option {
	return func(r *Reconciler) {
		r.localFallback = f
	}
}

// WithStoreFactory sets the factory used to open a store for the fallback
// provider's namespace.
func WithStoreFactory(f StoreFactory) Option {
	return func(r *Reconciler) {
		r.storeFactory = f
	}
}

// WithProgressWriter enables progress reporting to w.
func WithProgressWriter(w io.Writer) Option {
	return func(r *Reconciler) {
		r.progressWriter = w
	}
}

// WithLogger sets the reconciler's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// NewReconciler creates a reconciler over the given provider and store.
// The store's persist capability is detected once, here.
func NewReconciler(provider *ai.Provider, store storage.VectorStore, cfg *Config, opts ...Option) *Reconciler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	r := &Reconciler{
		cfg:      cfg,
		provider: provider,
		store:    store,
		logger:   slog.Default(),
	}
	r.persister, _ = store.(storage.Persister)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Provider returns the currently active provider. After a quota fallback
// this is the local one.
func (r *Reconciler) Provider() *ai.Provider {
	return r.provider
}

// Run reconciles the chunks against the store. Chunks must already carry
// identifiers. Committed batches stay committed even when a later batch
// fails; the error reports the failure, not a rollback.
func (r *Reconciler) Run(ctx context.Context, chunks []*core.Chunk) (*Result, error) {
	existing, err := r.store.ExistingIDs(ctx)
	if err != nil {
		return nil, err
	}

	newChunks := filterKnown(chunks, existing)
	result := &Result{
		TotalChunks: len(chunks),
		NewChunks:   len(newChunks),
		Skipped:     len(chunks) - len(newChunks),
	}

	r.logger.Info("reconciling corpus against store",
		"namespace", r.store.Namespace(),
		"total", result.TotalChunks,
		"new", result.NewChunks,
		"skipped", result.Skipped)

	if len(newChunks) == 0 {
		r.logger.Info("nothing to add")
		return result, nil
	}

	var tracker *ProgressTracker
	if r.progressWriter != nil {
		tracker = NewProgressTracker(r.progressWriter, len(newChunks), r.cfg.ReportInterval)
		tracker.Start()
	}

	for _, batch := range makeBatches(newChunks, r.cfg.BatchSize) {
		for {
			pending := filterKnown(batch, existing)
			if len(pending) == 0 {
				break
			}

			err := r.addWithRetry(ctx, pending)
			if err == nil {
				for _, chunk := range pending {
					existing[chunk.ID] = struct{}{}
				}
				result.Added += len(pending)
				break
			}

			if r.canFallBack(err) {
				existing, err = r.switchToLocal(ctx)
				if err != nil {
					return result, err
				}
				result.ProviderSwitched = true
				continue
			}
			return result, err
		}

		if r.persister != nil {
			if err := r.persister.Persist(); err != nil {
				return result, fmt.Errorf("persisting batch: %w", err)
			}
		}
		result.Batches++
		if tracker != nil {
			tracker.Increment(len(batch))
		}
	}

	if tracker != nil {
		tracker.Finish()
	}
	return result, nil
}

// addWithRetry adds one batch, waiting out rate limits with a fixed delay.
// There is no attempt cap; only context cancellation or a non-rate-limit
// error ends the loop.
func (r *Reconciler) addWithRetry(ctx context.Context, pending []*core.Chunk) error {
	ids := make([]string, len(pending))
	for i, chunk := range pending {
		ids[i] = chunk.ID
	}

	attempt := 0
	op := func() error {
		attempt++
		err := r.store.Add(ctx, pending, ids)
		if err == nil {
			return nil
		}
		if errors.Is(err, ai.ErrRateLimited) {
			r.logger.Warn("rate limited, retrying batch",
				"attempt", attempt,
				"size", len(pending),
				"delay", r.cfg.RetryDelay)
			return err
		}
		return backoff.Permanent(err)
	}

	return backoff.Retry(op, backoff.WithContext(
		backoff.NewConstantBackOff(r.cfg.RetryDelay), ctx))
}

// canFallBack reports whether err triggers the quota fallback: the active
// provider is remote, the error is quota exhaustion, and both factories are
// wired. A local provider hitting quota exhaustion is not recoverable.
func (r *Reconciler) canFallBack(err error) bool {
	return errors.Is(err, ai.ErrQuotaExhausted) &&
		r.provider.Kind == ai.KindRemote &&
		r.localFallback != nil &&
		r.storeFactory != nil
}

// switchToLocal swaps in the local provider and a store for its namespace,
// then returns that namespace's existing-identifier set so the caller can
// re-partition the remaining work.
func (r *Reconciler) switchToLocal(ctx context.Context) (map[string]struct{}, error) {
	provider, err := r.localFallback(ctx)
	if err != nil {
		return nil, fmt.Errorf("switching to local provider: %w", err)
	}

	store, err := r.storeFactory(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("opening store for %s: %w", provider.Namespace(), err)
	}

	r.logger.Warn("embedding quota exhausted, switching to local provider",
		"from", r.provider.Namespace(),
		"to", provider.Namespace())

	r.provider = provider
	r.store = store
	r.persister, _ = store.(storage.Persister)

	existing, err := store.ExistingIDs(ctx)
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// filterKnown returns the chunks whose identifiers are absent from known,
// preserving order.
func filterKnown(chunks []*core.Chunk, known map[string]struct{}) []*core.Chunk {
	var missing []*core.Chunk
	for _, chunk := range chunks {
		if _, ok := known[chunk.ID]; !ok {
			missing = append(missing, chunk)
		}
	}
	return missing
}

// makeBatches splits chunks into consecutive slices of at most size
// elements. The final batch may be smaller.
func makeBatches(chunks []*core.Chunk, size int) [][]*core.Chunk {
	if size <= 0 {
		size = DefaultConfig().BatchSize
	}
	var batches [][]*core.Chunk
	for start := 0; start < len(chunks); start += size {
		end := start + size
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[start:end])
	}
	return batches
}
