// Copyright 2025 Poiesic Systems
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

// Package bulk ingests many documents from disk for one user. It wraps
// ingestion.Pipeline with progress reporting and caller-side retry of
// transient embedding failures.
//
// The pipeline itself never retries: an embedding outage fails the
// document. Bulk loads retry that document with exponential backoff,
// because the manifest check makes a repeated Ingest safe.
package bulk
