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

package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/ragchat/ai"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
)

// DefaultTopK is the number of matches returned when no positive topK is given.
const DefaultTopK = 5

// NoDocumentsMessage is the rendering of an empty result set.
const NoDocumentsMessage = "No relevant documents found."

// Searcher performs semantic search over a user's stored document chunks.
type Searcher struct {
	documents storage.DocumentRepository
	embedder  ai.Embedder
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	documents storage.DocumentRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Searcher, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		documents: documents,
		embedder:  provider.Embedder(),
		logger:    slog.Default().With("component", "search"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to topK of the user's chunks most similar to query.
func (s *Searcher) Search(ctx context.Context, userID, query string, topK int) ([]core.DocumentMatch, error) {
	return s.SearchWithMonitor(ctx, userID, query, topK, nil)
}

// SearchWithMonitor is Search with stage callbacks.
func (s *Searcher) SearchWithMonitor(ctx context.Context, userID, query string, topK int, monitor SearchMonitor) ([]core.DocumentMatch, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK < 1 {
		topK = DefaultTopK
	}

	monitor.Start(userID, query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterEmbedding(len(embedding))

	matches, err := s.documents.Search(ctx, userID, embedding, topK)
	if err != nil {
		s.logger.Error("error searching documents", "user", userID, "err", err)
		return nil, err
	}
	monitor.AfterDocumentSearch(matches)

	s.logger.Debug("document search finished", "user", userID, "matches", len(matches))
	monitor.Finish(matches)
	return matches, nil
}

// Format renders matches for the agent.
func Format(matches []core.DocumentMatch) string {
	if len(matches) == 0 {
		return NoDocumentsMessage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d relevant document excerpts:\n", len(matches))
	for i, m := range matches {
		source := m.Metadata["filename"]
		if source == "" {
			source = "unknown"
		}
		fmt.Fprintf(&b, "\n[%d] %s", i+1, source)
		if idx, ok := m.Metadata["chunk_index"]; ok {
			fmt.Fprintf(&b, " (chunk %s)", idx)
		}
		fmt.Fprintf(&b, " score=%.3f\n%s\n", m.Score, m.Content)
	}
	return b.String()
}
