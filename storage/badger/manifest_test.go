package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestRoundTrip(t *testing.T) {
	convRepo, manifests, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { convRepo.Close(); backend.Close() }()

	ctx := context.Background()
	m := &core.DocumentManifest{UserID: "alice", Filename: "a.pdf", ChunkCount: 3, ContentHash: "abc"}
	require.NoError(t, manifests.PutManifest(ctx, m))
	assert.False(t, m.StoredAt.IsZero())

	got, err := manifests.GetManifest(ctx, "alice", "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, 3, got.ChunkCount)
	assert.Equal(t, "abc", got.ContentHash)

	// Replace
	m.ChunkCount = 5
	require.NoError(t, manifests.PutManifest(ctx, m))
	got, err = manifests.GetManifest(ctx, "alice", "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, 5, got.ChunkCount)
}

func TestManifestNotFound(t *testing.T) {
	convRepo, manifests, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { convRepo.Close(); backend.Close() }()

	ctx := context.Background()
	require.NoError(t, manifests.PutManifest(ctx, &core.DocumentManifest{UserID: "alice", Filename: "a.pdf", ChunkCount: 1}))

	_, err = manifests.GetManifest(ctx, "bob", "a.pdf")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestManifestInvalid(t *testing.T) {
	convRepo, manifests, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { convRepo.Close(); backend.Close() }()

	err = manifests.PutManifest(context.Background(), &core.DocumentManifest{UserID: "alice", Filename: "a.pdf"})
	assert.ErrorIs(t, err, core.ErrStoreWrite)
	assert.ErrorIs(t, err, core.ErrInvalidManifest)
}

func TestManifestRejectsNUL(t *testing.T) {
	convRepo, manifests, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { convRepo.Close(); backend.Close() }()

	ctx := context.Background()
	err = manifests.PutManifest(ctx, &core.DocumentManifest{UserID: "alice\x00a", Filename: "b.pdf", ChunkCount: 1})
	assert.ErrorIs(t, err, core.ErrInvalidIdentifier)

	_, err = manifests.GetManifest(ctx, "alice", "a\x00b.pdf")
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	assert.ErrorIs(t, err, core.ErrInvalidIdentifier)
}
