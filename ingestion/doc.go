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


// Package ingestion reconciles a chunked corpus against the vector store.
//
// The Reconciler snapshots the store's existing identifiers, partitions the
// incoming chunks into new and already-stored, and adds only the new ones in
// fixed-size batches. Each committed batch stays committed: a later failure
// never rolls back earlier batches, and re-running ingestion over the same
// corpus adds nothing.
//
// Per batch, two failure modes get special handling:
//
//   - ai.ErrRateLimited: the batch is retried after a fixed delay, without
//     an attempt limit. Only context cancellation stops the loop.
//   - ai.ErrQuotaExhausted on a remote provider: the reconciler switches to
//     the local provider, opens a store for the new namespace, refreshes the
//     existing-identifier set, and resubmits the remaining work.
//
// Every other error propagates and aborts the run.
package ingestion
