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


// Package corpus turns a directory of PDF files into ordered chunks ready
// for identifier assignment.
//
// DirectoryLoader walks a single directory (non-recursive), extracts one
// document per PDF page, and returns documents in (source, page) order.
// Text extraction runs on a worker pool since it is CPU-bound, but results
// are re-sorted so the output order never depends on scheduling.
//
// Splitter cuts page documents into overlapping chunks using a recursive
// character splitter; every chunk inherits its page's metadata.
package corpus
