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

package storage

import (
	"context"
	"time"

	"github.com/poiesic/ragchat/core"
)

// ConversationRepository persists and queries conversation turns.
type ConversationRepository interface {
	// AppendTurns stores one or more turns.
	// IDs are generated from a sequence and CreatedAt is set to now if zero.
	// Returns the turns with IDs populated. Write failures wrap core.ErrStoreWrite.
	AppendTurns(ctx context.Context, turns ...*core.ConversationTurn) ([]*core.ConversationTurn, error)

	// RecentTurns returns up to limit turns for a user across all sessions
	// except excludeSessionID, ordered by CreatedAt descending (newest first).
	// An empty excludeSessionID excludes nothing.
	RecentTurns(ctx context.Context, userID, excludeSessionID string, limit int) ([]*core.ConversationTurn, error)

	// SessionTurns returns up to limit turns of a single session created
	// strictly before the given time, ordered by CreatedAt descending.
	// A zero before returns the newest turns.
	SessionTurns(ctx context.Context, userID, sessionID string, before time.Time, limit int) ([]*core.ConversationTurn, error)

	// Close releases resources held by the repository.
	Close() error
}

// DocumentRepository persists document chunks and performs similarity
// search over them. Ranking is delegated to the backing vector store.
type DocumentRepository interface {
	// StoreChunks writes one chunk per entry with ChunkIndex equal to its
	// position. Returns ErrLengthMismatch if the slices differ in length.
	// Write failures wrap core.ErrStoreWrite.
	StoreChunks(ctx context.Context, userID, filename string, chunks []string, embeddings [][]float32) error

	// Search returns up to topK chunks belonging to userID, ordered by
	// descending similarity. Returns an empty slice when nothing matches.
	Search(ctx context.Context, userID string, queryVector []float32, topK int) ([]core.DocumentMatch, error)

	// HasDocument reports whether any chunk is stored for (userID, filename).
	HasDocument(ctx context.Context, userID, filename string) (bool, error)

	// CountChunks returns the number of chunks stored for (userID, filename).
	CountChunks(ctx context.Context, userID, filename string) (int, error)

	// Close releases resources held by the repository.
	Close() error
}

// ManifestRepository records completed document ingestions.
type ManifestRepository interface {
	// PutManifest stores the manifest, replacing any previous one for the
	// same (UserID, Filename).
	PutManifest(ctx context.Context, manifest *core.DocumentManifest) error

	// GetManifest returns the manifest for (userID, filename).
	// Returns ErrNotFound if none exists.
	GetManifest(ctx context.Context, userID, filename string) (*core.DocumentManifest, error)
}
