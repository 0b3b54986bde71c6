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

// Package storage provides the storage abstraction layer for ragchat.
//
// This package defines repository interfaces that decouple persistence from
// the chat and ingestion logic:
//
//   - ConversationRepository: append-only conversation turns (storage/badger)
//   - DocumentRepository: document chunks and similarity search (storage/chromem)
//   - ManifestRepository: completed-ingestion records (storage/badger)
//
// Repositories are constructed once at process start and shared by every
// request. All implementations must be safe for concurrent use.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/var/lib/ragchat/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	conversations, err := badger.NewConversationRepository(backend)
//
// Tests use in-memory storage:
//
//	conversations, manifests, backend, err := badger.NewMemoryRepositories()
//
// # Encoding
//
// Records are encoded with the MUS serializers in package core. The
// helpers in this package wrap decoding failures in ErrSerializationFailed.
package storage
