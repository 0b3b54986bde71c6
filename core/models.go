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

package core

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored records.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ContentHash returns the hex encoded BLAKE2b-256 digest of a document payload.
func ContentHash(data []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser marks a turn sent by the human user.
	RoleUser Role = "user"
	// RoleAssistant marks a turn produced by the agent.
	RoleAssistant Role = "assistant"
)

// ConversationTurn is a single message in a chat session.
// Turns are append-only and never mutated once written.
type ConversationTurn struct {
	Id        ID
	SessionID string
	UserID    string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// DocumentChunk is one window of an ingested document together with its embedding.
type DocumentChunk struct {
	UserID     string
	Filename   string
	ChunkIndex int // 0-based position within the document
	Content    string
	Embedding  []float32
}

// DocumentMatch is a chunk returned by similarity search.
type DocumentMatch struct {
	Content  string
	Score    float32
	Metadata map[string]string
}

// DocumentManifest records that every chunk of a document was stored.
// It is written after the chunks, so a chunked document without a
// manifest indicates an interrupted ingestion.
type DocumentManifest struct {
	UserID      string
	Filename    string
	ChunkCount  int
	ContentHash string
	StoredAt    time.Time
}

// RequestContext carries per-turn values to every tool invocation.
// It lives for a single chat turn and is never persisted.
type RequestContext struct {
	Username         string
	ExcludeSessionID string // current session, left out of history lookups
	Query            string
	ReceivedAt       time.Time
}

// NewRequestContext builds the context for a turn received now.
func NewRequestContext(username, sessionID, query string) *RequestContext {
	return &RequestContext{
		Username:         username,
		ExcludeSessionID: sessionID,
		Query:            query,
		ReceivedAt:       time.Now().UTC(),
	}
}
