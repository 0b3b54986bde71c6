package chromem

import (
	"context"
	"testing"

	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreChunksAndCount(t *testing.T) {
	repo := NewMemoryRepository()
	defer repo.Close()
	ctx := context.Background()

	err := repo.StoreChunks(ctx, "alice", "a.pdf",
		[]string{"one", "two", "three"},
		[][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	require.NoError(t, err)

	count, err := repo.CountChunks(ctx, "alice", "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	has, err := repo.HasDocument(ctx, "alice", "a.pdf")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repo.HasDocument(ctx, "bob", "a.pdf")
	require.NoError(t, err)
	assert.False(t, has)

	has, err = repo.HasDocument(ctx, "alice", "b.pdf")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStoreChunks_LengthMismatch(t *testing.T) {
	repo := NewMemoryRepository()
	err := repo.StoreChunks(context.Background(), "alice", "a.pdf",
		[]string{"one", "two"}, [][]float32{{1, 0}})
	assert.ErrorIs(t, err, storage.ErrLengthMismatch)
}

func TestStoreChunks_MissingIdentifiers(t *testing.T) {
	repo := NewMemoryRepository()
	err := repo.StoreChunks(context.Background(), "", "a.pdf", []string{"x"}, [][]float32{{1}})
	assert.ErrorIs(t, err, core.ErrStoreWrite)
	err = repo.StoreChunks(context.Background(), "alice", "", []string{"x"}, [][]float32{{1}})
	assert.ErrorIs(t, err, core.ErrStoreWrite)
}

func TestSearch_OrderAndLimit(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.StoreChunks(ctx, "alice", "a.pdf",
		[]string{"east", "north", "north-east"},
		[][]float32{{1, 0}, {0, 1}, {1, 1}}))
	require.NoError(t, repo.StoreChunks(ctx, "bob", "b.pdf",
		[]string{"bob east"}, [][]float32{{1, 0}}))

	matches, err := repo.Search(ctx, "alice", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "east", matches[0].Content)
	assert.Equal(t, "north-east", matches[1].Content)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
	assert.Equal(t, "a.pdf", matches[0].Metadata[MetaFilename])
	assert.Equal(t, "0", matches[0].Metadata[MetaChunkIndex])

	// topK larger than the collection
	matches, err = repo.Search(ctx, "alice", []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
	for _, m := range matches {
		assert.Equal(t, "alice", m.Metadata[MetaUserID])
	}
}

func TestSearch_EmptyCollection(t *testing.T) {
	repo := NewMemoryRepository()
	matches, err := repo.Search(context.Background(), "nobody", []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestSearch_InvalidQuery(t *testing.T) {
	repo := NewMemoryRepository()
	_, err := repo.Search(context.Background(), "", []float32{1}, 5)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	_, err = repo.Search(context.Background(), "alice", []float32{1}, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestPersistentRepository(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewPersistentRepository(dir)
	require.NoError(t, err)
	require.NoError(t, repo.StoreChunks(ctx, "alice", "a.pdf", []string{"x", "y"}, [][]float32{{1, 0}, {0, 1}}))
	require.NoError(t, repo.Close())

	reopened, err := NewPersistentRepository(dir)
	require.NoError(t, err)
	count, err := reopened.CountChunks(ctx, "alice", "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
