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

package ingestion

import "errors"

var (
	// ErrInvalidChunkConfig is returned when the chunk size and overlap
	// cannot guarantee forward progress.
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

	// ErrNoText is returned when a document yields no text to chunk.
	ErrNoText = errors.New("document contains no text")

	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrManifestRepositoryRequired is returned when a manifest repository is not provided.
	ErrManifestRepositoryRequired = errors.New("manifest repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrExtractorRequired is returned when an extractor is not provided.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrFailureHookRequired is returned when a nil failure hook is configured.
	ErrFailureHookRequired = errors.New("failure hook required")

	// ErrDetacherReleased is returned when a task is submitted after Release.
	ErrDetacherReleased = errors.New("detacher released")

	// ErrDetacherOverloaded is reported when every worker is busy and the
	// backlog is full.
	ErrDetacherOverloaded = errors.New("detacher overloaded")
)
