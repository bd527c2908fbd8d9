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


// Package core defines the domain model for PDF ingestion: page-level
// documents, overlapping text chunks, and the deterministic identifier
// scheme that makes re-ingestion idempotent.
//
// A chunk identifier is the composite key "source:page:index", where index
// is the 0-based position of the chunk within its page. Because identifiers
// are a pure function of chunk order, running the same corpus through the
// pipeline twice produces byte-for-byte identical identifiers, which is what
// allows the store reconciler to skip everything it has already embedded.
package core
