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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/ragchat/ai"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
)

// State is the terminal state of one document ingestion.
type State int

const (
	StateSkipped State = iota
	StateStored
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSkipped:
		return "skipped"
	case StateStored:
		return "stored"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Document is an uploaded file.
type Document struct {
	Filename string
	Data     []byte
}

// Result reports how one document ended.
type Result struct {
	Filename string
	State    State
	Chunks   int   // chunks stored, or already present when skipped
	Err      error // set only when State is StateFailed
}

// Pipeline orchestrates extraction, chunking, embedding and storage of documents.
type Pipeline struct {
	documents storage.DocumentRepository
	manifests storage.ManifestRepository
	embedder  ai.Embedder
	extractor Extractor
	chunker   *Chunker
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithExtractor replaces the default PDF extractor.
func WithExtractor(extractor Extractor) Option {
	return func(p *Pipeline) error {
		if extractor == nil {
			return ErrExtractorRequired
		}
		p.extractor = extractor
		return nil
	}
}

// WithChunking sets the window size and overlap.
// Default is DefaultChunkSize / DefaultChunkOverlap.
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		chunker, err := NewChunker(size, overlap)
		if err != nil {
			return err
		}
		p.chunker = chunker
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	manifests storage.ManifestRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if manifests == nil {
		return nil, ErrManifestRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		documents: documents,
		manifests: manifests,
		embedder:  embedder,
		extractor: NewPDFExtractor(),
		chunker:   DefaultChunker(),
		logger:    slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			return nil, optErr
		}
	}

	return p, nil
}

// IngestAll processes documents one after another. A failed document
// never prevents the following ones from being processed.
func (p *Pipeline) IngestAll(ctx context.Context, userID string, docs []Document) []Result {
	results := make([]Result, 0, len(docs))
	for _, doc := range docs {
		results = append(results, p.Ingest(ctx, userID, doc))
	}
	return results
}

// Ingest runs one document to a terminal state and logs it.
func (p *Pipeline) Ingest(ctx context.Context, userID string, doc Document) Result {
	start := time.Now()
	result := p.ingest(ctx, userID, doc)

	logger := p.logger.With("user", userID, "filename", doc.Filename,
		"state", result.State.String(), "chunks", result.Chunks, "elapsed", time.Since(start))
	switch result.State {
	case StateFailed:
		logger.Warn("document ingestion failed", "err", result.Err)
	case StateSkipped:
		logger.Info("document already stored, skipping")
	default:
		logger.Info("document stored")
	}
	return result
}

func (p *Pipeline) ingest(ctx context.Context, userID string, doc Document) Result {
	failed := func(err error) Result {
		return Result{Filename: doc.Filename, State: StateFailed, Err: err}
	}

	if userID == "" {
		return failed(core.ErrEmptyUserID)
	}
	if doc.Filename == "" {
		return failed(core.ErrEmptyFilename)
	}

	// Check
	exists, err := p.documents.HasDocument(ctx, userID, doc.Filename)
	if err != nil {
		return failed(fmt.Errorf("check existing document: %w", err))
	}
	if exists {
		return Result{Filename: doc.Filename, State: StateSkipped, Chunks: p.checkManifest(ctx, userID, doc)}
	}

	// Extract
	text, err := p.extractor.Extract(ctx, doc.Data)
	if err != nil {
		return failed(err)
	}

	// Chunk
	if strings.TrimSpace(text) == "" {
		return failed(ErrNoText)
	}
	chunks := p.chunker.Chunk(text)
	if len(chunks) == 0 {
		return failed(ErrNoText)
	}

	// Embed
	embeddings, err := p.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return failed(err)
	}

	// Store
	if err := p.documents.StoreChunks(ctx, userID, doc.Filename, chunks, embeddings); err != nil {
		return failed(err)
	}

	manifest := &core.DocumentManifest{
		UserID:      userID,
		Filename:    doc.Filename,
		ChunkCount:  len(chunks),
		ContentHash: core.ContentHash(doc.Data),
	}
	if err := p.manifests.PutManifest(ctx, manifest); err != nil {
		// The chunks are in place; a later upload reports the missing manifest.
		p.logger.Error("failed to record manifest", "user", userID, "filename", doc.Filename, "err", err)
	}

	return Result{Filename: doc.Filename, State: StateStored, Chunks: len(chunks)}
}

// checkManifest logs what is known about an already stored document and
// returns its recorded chunk count. Stored chunks are never merged or
// replaced, whatever the manifest says.
func (p *Pipeline) checkManifest(ctx context.Context, userID string, doc Document) int {
	logger := p.logger.With("user", userID, "filename", doc.Filename)

	manifest, err := p.manifests.GetManifest(ctx, userID, doc.Filename)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.Warn("document has chunks but no manifest, ingestion may have been interrupted")
		return 0
	case err != nil:
		logger.Warn("failed to read manifest", "err", err)
		return 0
	}

	if manifest.ContentHash != core.ContentHash(doc.Data) {
		logger.Warn("content changed since document was stored, keeping stored version",
			"stored_at", manifest.StoredAt)
	}
	return manifest.ChunkCount
}
