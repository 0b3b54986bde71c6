package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	a := IDFromContent("alice/report.pdf")
	b := IDFromContent("alice/report.pdf")
	c := IDFromContent("bob/report.pdf")

	assert.Equal(t, a, b, "identical content should produce identical IDs")
	assert.NotEqual(t, a, c)
}

func TestContentHash(t *testing.T) {
	h1 := ContentHash([]byte("%PDF-1.4 sample"))
	h2 := ContentHash([]byte("%PDF-1.4 sample"))
	h3 := ContentHash([]byte("%PDF-1.4 other"))

	assert.Len(t, h1, 64, "BLAKE2b-256 hex digest is 64 characters")
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}

func TestNewRequestContext(t *testing.T) {
	before := time.Now().UTC()
	rc := NewRequestContext("alice", "session-1", "what did we discuss?")

	require.NotNil(t, rc)
	assert.Equal(t, "alice", rc.Username)
	assert.Equal(t, "session-1", rc.ExcludeSessionID)
	assert.Equal(t, "what did we discuss?", rc.Query)
	assert.False(t, rc.ReceivedAt.Before(before))
}

func TestConversationTurnMUS(t *testing.T) {
	turn := ConversationTurn{
		Id:        42,
		SessionID: "0f8b2c1e-session",
		UserID:    "alice",
		Role:      RoleAssistant,
		Content:   "Héllo, wörld",
		CreatedAt: time.Date(2025, 3, 14, 15, 9, 26, 535000, time.UTC),
	}

	buf := make([]byte, ConversationTurnMUS.Size(turn))
	n := ConversationTurnMUS.Marshal(turn, buf)
	assert.Equal(t, len(buf), n)

	decoded, read, err := ConversationTurnMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, n, read)
	assert.Equal(t, turn, decoded)
}

func TestDocumentManifestMUS(t *testing.T) {
	manifest := DocumentManifest{
		UserID:      "alice",
		Filename:    "handbook.pdf",
		ChunkCount:  17,
		ContentHash: ContentHash([]byte("payload")),
		StoredAt:    time.Date(2025, 1, 2, 3, 4, 5, 6000, time.UTC),
	}

	buf := make([]byte, DocumentManifestMUS.Size(manifest))
	DocumentManifestMUS.Marshal(manifest, buf)

	decoded, _, err := DocumentManifestMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, manifest, decoded)
}

func TestConversationTurnMUSTruncated(t *testing.T) {
	turn := ConversationTurn{Id: 1, SessionID: "s", UserID: "u", Role: RoleUser, Content: "hello"}
	buf := make([]byte, ConversationTurnMUS.Size(turn))
	ConversationTurnMUS.Marshal(turn, buf)

	_, _, err := ConversationTurnMUS.Unmarshal(buf[:len(buf)/2])
	assert.Error(t, err)
}
