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


// Package ingestion turns uploaded documents into searchable chunks.
//
// The Pipeline type runs each document through a fixed sequence:
//   - Check whether the (user, filename) pair is already stored
//   - Extract plain text from the payload
//   - Split the text into overlapping windows
//   - Embed all windows in one batch
//   - Store the windows with their embeddings and record a manifest
//
// Documents are processed sequentially and a failure in one never stops
// the others. The package also provides Detacher, the worker pool used to
// run fire-and-forget tasks whose failures are reported through a hook.
package ingestion
