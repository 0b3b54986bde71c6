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

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/search"
)

// Tool ids.
const (
	RecentConversationTool = "retrieve-recent-conversation"
	RewriteQueryTool       = "rewrite-query"
	SearchDocsTool         = "search-docs"
	KnowledgeGraphTool     = "query-knowledge-graph"
)

// DefaultSearchTopK is the number of document matches given to the model.
const DefaultSearchTopK = 5

// NoKnowledgeGraphMessage is returned by the knowledge graph tool.
const NoKnowledgeGraphMessage = "No knowledge graph is configured for this assistant. Answer from documents and conversation history instead."

// HistoryReader renders a user's recent conversations.
type HistoryReader interface {
	Recent(ctx context.Context, userID, excludeSessionID string, limit int) string
}

// QueryRewriter optimizes a query for retrieval.
type QueryRewriter interface {
	Rewrite(ctx context.Context, query string) string
}

// DocumentSearcher runs semantic search for a user.
type DocumentSearcher interface {
	Search(ctx context.Context, userID, query string, topK int) ([]core.DocumentMatch, error)
}

type queryInput struct {
	Query string `json:"query"`
}

// decodeArgs unmarshals tool arguments. Missing, blank, null or
// empty-string arguments decode as an empty object.
func decodeArgs(input json.RawMessage, v any) error {
	switch strings.TrimSpace(string(input)) {
	case "", "null", `""`:
		return nil
	}
	if err := json.Unmarshal(input, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToolInput, err)
	}
	return nil
}

func decodeQuery(input json.RawMessage) (string, error) {
	var in queryInput
	if err := decodeArgs(input, &in); err != nil {
		return "", err
	}
	if strings.TrimSpace(in.Query) == "" {
		return "", fmt.Errorf("%w: query is required", ErrInvalidToolInput)
	}
	return in.Query, nil
}

type recentConversation struct {
	history HistoryReader
}

// NewRecentConversationTool exposes the user's other sessions to the model.
func NewRecentConversationTool(history HistoryReader) (Tool, error) {
	if history == nil {
		return nil, ErrHistoryRequired
	}
	return &recentConversation{history: history}, nil
}

func (t *recentConversation) Name() string { return RecentConversationTool }

func (t *recentConversation) Description() string {
	return "REQUIRED when user asks about previous conversations or past sessions. " +
		"Retrieves conversation history for the current user from their past sessions (excluding the current session). " +
		"Use this when user asks 'what did we talk about', 'last time', 'before', 'yesterday', or references past interactions. " +
		"Returns formatted chat history grouped by session."
}

func (t *recentConversation) Schema() map[string]any {
	return ObjectSchema(map[string]any{
		"limit": IntegerProperty("Maximum number of messages to retrieve. Use 10-20 for quick context, 30-50 for detailed history.", 20),
	})
}

func (t *recentConversation) Execute(ctx context.Context, rc *core.RequestContext, input json.RawMessage) (string, error) {
	var in struct {
		Limit int `json:"limit"`
	}
	if err := decodeArgs(input, &in); err != nil {
		return "", err
	}
	// Recent applies the default for a zero limit
	return t.history.Recent(ctx, rc.Username, rc.ExcludeSessionID, in.Limit), nil
}

type rewriteQuery struct {
	rewriter QueryRewriter
}

// NewRewriteQueryTool exposes query rewriting to the model.
func NewRewriteQueryTool(rewriter QueryRewriter) (Tool, error) {
	if rewriter == nil {
		return nil, ErrRewriterRequired
	}
	return &rewriteQuery{rewriter: rewriter}, nil
}

func (t *rewriteQuery) Name() string { return RewriteQueryTool }

func (t *rewriteQuery) Description() string {
	return "Rewrite a user query to improve semantic search results in documents. Always call this before search-docs."
}

func (t *rewriteQuery) Schema() map[string]any {
	return ObjectSchema(map[string]any{
		"query": StringProperty("The original user query that needs to be rewritten for better semantic search"),
	}, "query")
}

func (t *rewriteQuery) Execute(ctx context.Context, rc *core.RequestContext, input json.RawMessage) (string, error) {
	query, err := decodeQuery(input)
	if err != nil {
		return "", err
	}
	return t.rewriter.Rewrite(ctx, query), nil
}

type searchDocs struct {
	searcher DocumentSearcher
	topK     int
}

// NewSearchDocsTool exposes document search to the model.
// A topK below one uses DefaultSearchTopK.
func NewSearchDocsTool(searcher DocumentSearcher, topK int) (Tool, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if topK < 1 {
		topK = DefaultSearchTopK
	}
	return &searchDocs{searcher: searcher, topK: topK}, nil
}

func (t *searchDocs) Name() string { return SearchDocsTool }

func (t *searchDocs) Description() string {
	return "Search the user's uploaded documents using semantic search. Call rewrite-query first and pass its output here."
}

func (t *searchDocs) Schema() map[string]any {
	return ObjectSchema(map[string]any{
		"query": StringProperty("The search query string"),
	}, "query")
}

func (t *searchDocs) Execute(ctx context.Context, rc *core.RequestContext, input json.RawMessage) (string, error) {
	query, err := decodeQuery(input)
	if err != nil {
		return "", err
	}
	matches, err := t.searcher.Search(ctx, rc.Username, query, t.topK)
	if err != nil {
		return "", err
	}
	return search.Format(matches), nil
}

type knowledgeGraph struct{}

// NewKnowledgeGraphTool returns the knowledge graph tool. No graph
// backend exists, so it always says so.
func NewKnowledgeGraphTool() Tool {
	return knowledgeGraph{}
}

func (knowledgeGraph) Name() string { return KnowledgeGraphTool }

func (knowledgeGraph) Description() string {
	return "Query the knowledge graph to retrieve relevant nodes and relationships"
}

func (knowledgeGraph) Schema() map[string]any {
	return ObjectSchema(map[string]any{
		"query": StringProperty("The entities or relationship to look up"),
	}, "query")
}

func (knowledgeGraph) Execute(ctx context.Context, rc *core.RequestContext, input json.RawMessage) (string, error) {
	return NoKnowledgeGraphMessage, nil
}

// DefaultTools builds the standard chat toolset.
func DefaultTools(history HistoryReader, rewriter QueryRewriter, searcher DocumentSearcher, topK int) (*Registry, error) {
	recent, err := NewRecentConversationTool(history)
	if err != nil {
		return nil, err
	}
	rewrite, err := NewRewriteQueryTool(rewriter)
	if err != nil {
		return nil, err
	}
	docs, err := NewSearchDocsTool(searcher, topK)
	if err != nil {
		return nil, err
	}
	return NewRegistry(recent, rewrite, docs, NewKnowledgeGraphTool())
}
