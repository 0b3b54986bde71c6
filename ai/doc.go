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

// Package ai provides abstractions for the AI services used by ragchat.
//
// The package defines two service interfaces and an aggregate:
//
//   - Embedder: generates vector embeddings from text
//   - Completer: runs single-shot chat completions
//   - AIProvider: aggregates both for convenient initialization
//
// Implementations live in sub-packages:
//
//   - ai/openai: langchaingo clients for OpenAI-compatible APIs
//   - ai/mock: deterministic test doubles
//
// Public production constructors return interface types. Mock constructors
// return concrete types so tests can inject behavior and count calls.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "Hello world")
package ai
