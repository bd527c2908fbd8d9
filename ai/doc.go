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


// Package ai provides the embedding capability used by the ingestion
// pipeline, polymorphic over two variants:
//
//   - Remote: the OpenAI embeddings API, selected when a credential is
//     configured.
//   - Local: an Ollama-served model, selected when forced via configuration,
//     when no credential is present, or as a fallback when the remote
//     variant cannot be constructed.
//
// The active variant is represented as a tagged Provider value; the store
// reconciler holds the mutable slot and swaps it only through the documented
// quota-fallback transition.
//
// Backend failures are classified at the adapter boundary into the
// transient ErrRateLimited and the permanent ErrQuotaExhausted so that
// callers can branch with errors.Is instead of parsing API responses.
//
// The ai/mock sub-package provides a deterministic test double.
package ai
