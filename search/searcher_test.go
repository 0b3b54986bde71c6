package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/ragchat/ai/mock"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage/chromem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDims = 16

type recordingMonitor struct {
	stages []string
}

func (m *recordingMonitor) Start(userID, query string) {
	m.stages = append(m.stages, "start")
}

func (m *recordingMonitor) AfterEmbedding(dims int) {
	m.stages = append(m.stages, "embed")
}

func (m *recordingMonitor) AfterDocumentSearch(matches []core.DocumentMatch) {
	m.stages = append(m.stages, "search")
}

func (m *recordingMonitor) Finish(matches []core.DocumentMatch) {
	m.stages = append(m.stages, "finish")
}

func newTestSearcher(t *testing.T) (*Searcher, *chromem.DocumentRepository, *mock.MockEmbedder) {
	t.Helper()
	documents := chromem.NewMemoryRepository()
	embedder := mock.NewMockEmbedderWithDimensions(testDims)
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockCompleter())

	searcher, err := NewSearcher(documents, provider)
	require.NoError(t, err)
	return searcher, documents, embedder
}

func storeTexts(t *testing.T, documents *chromem.DocumentRepository, userID, filename string, texts ...string) {
	t.Helper()
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = mock.Vector(text, testDims)
	}
	require.NoError(t, documents.StoreChunks(context.Background(), userID, filename, texts, vectors))
}

func TestNewSearcher_Required(t *testing.T) {
	_, err := NewSearcher(nil, mock.NewMockProvider())
	assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)
	_, err = NewSearcher(chromem.NewMemoryRepository(), nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}

func TestSearch_ExactChunkRanksFirst(t *testing.T) {
	searcher, documents, _ := newTestSearcher(t)
	storeTexts(t, documents, "alice", "guide.pdf", "install the agent", "configure the relay", "rotate the keys")

	monitor := &recordingMonitor{}
	matches, err := searcher.SearchWithMonitor(context.Background(), "alice", "configure the relay", 2, monitor)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "configure the relay", matches[0].Content)
	assert.Equal(t, "guide.pdf", matches[0].Metadata["filename"])
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
	assert.Equal(t, []string{"start", "embed", "search", "finish"}, monitor.stages)
}

func TestSearch_ScopedToUser(t *testing.T) {
	searcher, documents, _ := newTestSearcher(t)
	storeTexts(t, documents, "bob", "secret.pdf", "bob's private notes")

	matches, err := searcher.Search(context.Background(), "alice", "bob's private notes", 5)
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestSearch_DefaultTopK(t *testing.T) {
	searcher, documents, _ := newTestSearcher(t)
	texts := make([]string, 8)
	for i := range texts {
		texts[i] = strings.Repeat("x", i+1)
	}
	storeTexts(t, documents, "alice", "many.pdf", texts...)

	matches, err := searcher.Search(context.Background(), "alice", "xxx", 0)
	require.NoError(t, err)
	assert.Len(t, matches, DefaultTopK)
}

func TestSearch_EmptyQuery(t *testing.T) {
	searcher, _, embedder := newTestSearcher(t)
	_, err := searcher.Search(context.Background(), "alice", "  ", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Zero(t, embedder.CallCount())
}

func TestSearch_EmbeddingFailure(t *testing.T) {
	searcher, _, embedder := newTestSearcher(t)
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, core.ErrEmbeddingService
	}
	_, err := searcher.Search(context.Background(), "alice", "anything", 5)
	assert.ErrorIs(t, err, core.ErrEmbeddingService)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, NoDocumentsMessage, Format(nil))

	out := Format([]core.DocumentMatch{
		{Content: "first", Score: 0.9, Metadata: map[string]string{"filename": "a.pdf", "chunk_index": "0"}},
		{Content: "second", Score: 0.5},
	})
	assert.True(t, strings.HasPrefix(out, "Found 2 relevant document excerpts:"))
	assert.Contains(t, out, "[1] a.pdf (chunk 0) score=0.900\nfirst\n")
	assert.Contains(t, out, "[2] unknown score=0.500\nsecond\n")
}

func TestRewriter(t *testing.T) {
	completer := mock.NewMockCompleter()
	rewriter, err := NewRewriter(completer)
	require.NoError(t, err)

	completer.CompleteFunc = func(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
		return "  kubernetes deployment configuration  ", nil
	}
	assert.Equal(t, "kubernetes deployment configuration", rewriter.Rewrite(context.Background(), "k8s deploy cfg"))

	calls := completer.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, RewriteMaxTokens, calls[0].MaxTokens)
	assert.Equal(t, "k8s deploy cfg", calls[0].Prompt)
	assert.Contains(t, calls[0].System, "Return ONLY the rewritten query")
}

func TestRewriter_FallsBack(t *testing.T) {
	completer := mock.NewMockCompleter()
	rewriter, err := NewRewriter(completer)
	require.NoError(t, err)

	completer.CompleteFunc = func(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
		return "", errors.New("model unavailable")
	}
	assert.Equal(t, "original", rewriter.Rewrite(context.Background(), "original"))

	completer.CompleteFunc = func(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
		return "   ", nil
	}
	assert.Equal(t, "original", rewriter.Rewrite(context.Background(), "original"))

	_, err = NewRewriter(nil)
	assert.ErrorIs(t, err, ErrCompleterRequired)
}
