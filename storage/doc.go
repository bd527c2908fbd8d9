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


// Package storage defines the vector store abstraction used by ingestion.
//
// VectorStore is the consumer-facing interface: a persistent, diffable set
// of embedded chunks keyed by deterministic identifier. Implementations
// partition their contents by provider namespace, since vectors produced by
// different embedding models are not comparable.
//
// Persister is an optional capability. Stores that buffer writes in memory
// expose it so callers can force data onto disk at batch boundaries; callers
// detect it once with a type assertion at construction time.
//
// The badger sub-package provides the BadgerDB-backed implementation.
// Record serialization uses the MUS format via hand-written serializers in
// this package.
package storage
