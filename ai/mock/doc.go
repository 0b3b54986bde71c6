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

// Package mock provides test double implementations of AI service interfaces.
//
// # Usage in Tests
//
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//	calls := mockProvider.Completions.Calls()
//	closed := mockProvider.CloseCount()
//
//	embedder := mock.NewMockEmbedderWithDimensions(8)
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, core.ErrEmbeddingService
//	}
//
// # Default Behavior
//
//   - MockEmbedder: deterministic unit vectors derived from an FNV hash of the text
//   - MockCompleter: echoes the prompt in lower case
package mock
