package storage

import (
	"testing"
	"time"

	"github.com/poiesic/ragchat/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalTurn(t *testing.T) {
	turn := &core.ConversationTurn{
		Id:        7,
		SessionID: "abcdef0123456789",
		UserID:    "alice",
		Role:      core.RoleUser,
		Content:   "What did we talk about last time?",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalTurn(MarshalTurn(turn))
	require.NoError(t, err)
	assert.Equal(t, turn.Id, decoded.Id)
	assert.Equal(t, turn.SessionID, decoded.SessionID)
	assert.Equal(t, turn.Role, decoded.Role)
	assert.Equal(t, turn.Content, decoded.Content)
	assert.True(t, turn.CreatedAt.Equal(decoded.CreatedAt))
}

func TestUnmarshalTurn_Truncated(t *testing.T) {
	data := MarshalTurn(&core.ConversationTurn{Id: 1, SessionID: "s", UserID: "u", Role: core.RoleUser, Content: "hello there"})

	_, err := UnmarshalTurn(data[:3])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalManifest(t *testing.T) {
	manifest := &core.DocumentManifest{
		UserID:      "alice",
		Filename:    "handbook.pdf",
		ChunkCount:  4,
		ContentHash: core.ContentHash([]byte("pdf")),
		StoredAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalManifest(MarshalManifest(manifest))
	require.NoError(t, err)
	assert.Equal(t, manifest.Filename, decoded.Filename)
	assert.Equal(t, manifest.ChunkCount, decoded.ChunkCount)
	assert.Equal(t, manifest.ContentHash, decoded.ContentHash)
	assert.True(t, manifest.StoredAt.Equal(decoded.StoredAt))
}
