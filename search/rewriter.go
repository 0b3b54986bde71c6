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
	"log/slog"
	"strings"

	"github.com/poiesic/ragchat/ai"
)

// RewriteMaxTokens caps the length of a rewritten query.
const RewriteMaxTokens = 150

const rewritePrompt = `You are a query optimization expert. Your job is to rewrite user queries for better vector database search results.

Guidelines:
- Expand abbreviations and acronyms
- Add context keywords
- Remove stop words and noise
- Keep queries concise but descriptive
- Focus on nouns, key concepts, and relationships
- If the query is vague, make specific assumptions

Return ONLY the rewritten query, no explanations.`

// Rewriter turns a user message into a retrieval query.
type Rewriter struct {
	completer ai.Completer
	logger    *slog.Logger
}

// NewRewriter creates a Rewriter over the given completer.
func NewRewriter(completer ai.Completer) (*Rewriter, error) {
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	return &Rewriter{
		completer: completer,
		logger:    slog.Default().With("component", "rewriter"),
	}, nil
}

// Rewrite returns the optimized query, or the original query when the
// model fails or returns nothing.
func (r *Rewriter) Rewrite(ctx context.Context, query string) string {
	answer, err := r.completer.Complete(ctx, rewritePrompt, query, RewriteMaxTokens)
	if err != nil {
		r.logger.Warn("query rewrite failed, using original", "err", err)
		return query
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return query
	}
	r.logger.Debug("rewrote query", "original", query, "rewritten", answer)
	return answer
}
