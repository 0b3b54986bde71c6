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

package ai

import "context"

// Embedder converts text to fixed-length vectors.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Failures wrap core.ErrEmbeddingService.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The result has one vector per input, in input order, each of length
	// Dimensions(). Any other shape is reported as core.ErrEmbeddingService.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the configured vector length.
	Dimensions() int
}

// Completer runs a single-shot, non-streaming chat completion.
type Completer interface {
	// Complete sends the system and user prompts and returns the model's
	// text answer. maxTokens <= 0 leaves the limit to the model.
	Complete(ctx context.Context, system, prompt string, maxTokens int) (string, error)
}

// AIProvider aggregates the AI services used by ragchat.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Completer returns the completion service used for query rewriting.
	Completer() Completer

	// Close releases resources held by the provider and its services.
	Close() error
}
