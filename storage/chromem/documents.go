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

// Package chromem implements storage.DocumentRepository on top of the
// embedded chromem-go vector database.
package chromem

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
)

// Metadata keys attached to every stored chunk.
const (
	MetaUserID     = "user_id"
	MetaFilename   = "filename"
	MetaChunkIndex = "chunk_index"
)

// DocumentRepository stores chunks in one chromem collection per user.
type DocumentRepository struct {
	db          *chromem.DB
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
	logger      *slog.Logger
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewMemoryRepository creates a DocumentRepository that keeps everything in memory.
func NewMemoryRepository() *DocumentRepository {
	return newRepository(chromem.NewDB())
}

// NewPersistentRepository creates a DocumentRepository persisted under path.
func NewPersistentRepository(path string) (*DocumentRepository, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open chromem db: %w", err)
	}
	return newRepository(db), nil
}

func newRepository(db *chromem.DB) *DocumentRepository {
	return &DocumentRepository{
		db:          db,
		collections: make(map[string]*chromem.Collection),
		logger:      slog.Default().With("component", "chromem"),
	}
}

// chunkID is the deterministic document ID of one chunk.
func chunkID(filename string, index int) string {
	return filename + "#" + strconv.Itoa(index)
}

// collection returns the user's collection, creating it on first use.
func (r *DocumentRepository) collection(userID string) (*chromem.Collection, error) {
	r.mu.RLock()
	col, exists := r.collections[userID]
	r.mu.RUnlock()
	if exists {
		return col, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if col, exists := r.collections[userID]; exists {
		return col, nil
	}

	// Embeddings are always supplied by the caller, so no embedding func.
	col, err := r.db.GetOrCreateCollection("user_"+userID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	r.collections[userID] = col
	return col, nil
}

// StoreChunks writes the chunks of one document.
func (r *DocumentRepository) StoreChunks(ctx context.Context, userID, filename string, chunks []string, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("%w: %d chunks, %d embeddings", storage.ErrLengthMismatch, len(chunks), len(embeddings))
	}
	if userID == "" {
		return fmt.Errorf("%w: %w", core.ErrStoreWrite, core.ErrEmptyUserID)
	}
	if filename == "" {
		return fmt.Errorf("%w: %w", core.ErrStoreWrite, core.ErrEmptyFilename)
	}
	if len(chunks) == 0 {
		return nil
	}

	col, err := r.collection(userID)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrStoreWrite, err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, content := range chunks {
		docs[i] = chromem.Document{
			ID:        chunkID(filename, i),
			Content:   content,
			Embedding: embeddings[i],
			Metadata: map[string]string{
				MetaUserID:     userID,
				MetaFilename:   filename,
				MetaChunkIndex: strconv.Itoa(i),
			},
		}
	}

	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStoreWrite, err)
	}

	r.logger.Debug("stored chunks", "user", userID, "filename", filename, "chunks", len(chunks))
	return nil
}

// Search returns up to topK of the user's chunks ordered by descending similarity.
func (r *DocumentRepository) Search(ctx context.Context, userID string, queryVector []float32, topK int) ([]core.DocumentMatch, error) {
	if userID == "" || topK < 1 || len(queryVector) == 0 {
		return nil, storage.ErrInvalidQuery
	}

	col, err := r.collection(userID)
	if err != nil {
		return nil, err
	}

	matches := []core.DocumentMatch{}
	// chromem rejects nResults larger than the collection
	n := min(topK, col.Count())
	if n == 0 {
		return matches, nil
	}

	results, err := col.QueryEmbedding(ctx, queryVector, n, map[string]string{MetaUserID: userID}, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	for _, result := range results {
		matches = append(matches, core.DocumentMatch{
			Content:  result.Content,
			Score:    result.Similarity,
			Metadata: result.Metadata,
		})
	}
	return matches, nil
}

// HasDocument reports whether the first chunk of the document is stored.
func (r *DocumentRepository) HasDocument(ctx context.Context, userID, filename string) (bool, error) {
	count, err := r.countFrom(ctx, userID, filename, 1)
	return count > 0, err
}

// CountChunks counts the contiguous chunks stored for the document.
func (r *DocumentRepository) CountChunks(ctx context.Context, userID, filename string) (int, error) {
	return r.countFrom(ctx, userID, filename, -1)
}

// countFrom checks chunk IDs from index 0 until one is missing or limit is reached.
// A negative limit means no limit.
func (r *DocumentRepository) countFrom(ctx context.Context, userID, filename string, limit int) (int, error) {
	if userID == "" || filename == "" {
		return 0, storage.ErrInvalidQuery
	}
	col, err := r.collection(userID)
	if err != nil {
		return 0, err
	}

	count := 0
	for limit < 0 || count < limit {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if _, err := col.GetByID(ctx, chunkID(filename, count)); err != nil {
			break
		}
		count++
	}
	return count, nil
}

// Close is a no-op; persistent databases write through on every add.
func (r *DocumentRepository) Close() error {
	return nil
}
