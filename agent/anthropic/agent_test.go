package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/poiesic/ragchat/agent"
	"github.com/poiesic/ragchat/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sseEvent struct {
	name string
	data string
}

func textTurn(parts ...string) []sseEvent {
	events := []sseEvent{
		{"message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-test","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":3,"output_tokens":0}}}`},
		{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
	}
	for _, p := range parts {
		text, _ := json.Marshal(p)
		events = append(events, sseEvent{"content_block_delta", fmt.Sprintf(`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":%s}}`, text)})
	}
	return append(events,
		sseEvent{"content_block_stop", `{"type":"content_block_stop","index":0}`},
		sseEvent{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":4}}`},
		sseEvent{"message_stop", `{"type":"message_stop"}`},
	)
}

func toolTurn(id, name string) []sseEvent {
	return []sseEvent{
		{"message_start", `{"type":"message_start","message":{"id":"msg_2","type":"message","role":"assistant","model":"claude-test","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":3,"output_tokens":0}}}`},
		{"content_block_start", fmt.Sprintf(`{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":%q,"name":%q,"input":{}}}`, id, name)},
		{"content_block_stop", `{"type":"content_block_stop","index":0}`},
		{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"tool_use","stop_sequence":null},"usage":{"output_tokens":4}}`},
		{"message_stop", `{"type":"message_stop"}`},
	}
}

// fakeMessages serves one scripted stream per request and keeps the bodies.
type fakeMessages struct {
	mu     sync.Mutex
	turns  [][]sseEvent
	bodies []map[string]any
}

func (f *fakeMessages) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	f.mu.Lock()
	f.bodies = append(f.bodies, body)
	if len(f.turns) == 0 {
		f.mu.Unlock()
		http.Error(w, `{"type":"error","error":{"type":"api_error","message":"no script"}}`, http.StatusInternalServerError)
		return
	}
	events := f.turns[0]
	f.turns = f.turns[1:]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	for _, e := range events {
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.name, e.data)
	}
}

type recordTool struct {
	mu    sync.Mutex
	users []string
}

func (t *recordTool) Name() string           { return "whoami" }
func (t *recordTool) Description() string    { return "returns the user" }
func (t *recordTool) Schema() map[string]any { return agent.ObjectSchema(map[string]any{}) }
func (t *recordTool) Execute(ctx context.Context, rc *core.RequestContext, input json.RawMessage) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.users = append(t.users, rc.Username)
	return rc.Username, nil
}

func newTestAgent(t *testing.T, fake *fakeMessages, tools ...agent.Tool) *Agent {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	registry, err := agent.NewRegistry(tools...)
	require.NoError(t, err)
	a, err := New("test-key", registry, []option.RequestOption{
		option.WithBaseURL(srv.URL + "/"),
		option.WithMaxRetries(0),
	}, WithModel("claude-test"))
	require.NoError(t, err)
	return a
}

func request() agent.Request {
	return agent.Request{
		Message:  "hi",
		Thread:   "s1",
		Resource: "alice",
		Context:  core.NewRequestContext("alice", "s1", "hi"),
	}
}

func TestStream_TextDeltas(t *testing.T) {
	fake := &fakeMessages{turns: [][]sseEvent{textTurn("Hel", "lo!")}}
	a := newTestAgent(t, fake)

	var chunks []string
	full, err := a.Stream(context.Background(), request(), func(s string) error {
		chunks = append(chunks, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", full)
	assert.Equal(t, []string{"Hel", "lo!"}, chunks)

	require.Len(t, fake.bodies, 1)
	assert.Equal(t, "claude-test", fake.bodies[0]["model"])
	assert.Equal(t, true, fake.bodies[0]["stream"])
}

func TestStream_ToolRoundTrip(t *testing.T) {
	fake := &fakeMessages{turns: [][]sseEvent{toolTurn("tu_1", "whoami"), textTurn("You are alice.")}}
	tool := &recordTool{}
	a := newTestAgent(t, fake, tool)

	full, err := a.Stream(context.Background(), request(), func(string) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "You are alice.", full)
	assert.Equal(t, []string{"alice"}, tool.users)

	require.Len(t, fake.bodies, 2)
	tools, _ := fake.bodies[0]["tools"].([]any)
	require.Len(t, tools, 1)

	// user, assistant tool_use, user tool_result
	messages, _ := fake.bodies[1]["messages"].([]any)
	require.Len(t, messages, 3)
	last, _ := messages[2].(map[string]any)
	assert.Equal(t, "user", last["role"])
	raw, _ := json.Marshal(last["content"])
	assert.True(t, strings.Contains(string(raw), `"tool_use_id":"tu_1"`), string(raw))
}

func TestStream_MaxTurns(t *testing.T) {
	fake := &fakeMessages{turns: [][]sseEvent{toolTurn("a", "whoami"), toolTurn("b", "whoami")}}
	a := newTestAgent(t, fake, &recordTool{})
	a.maxTurns = 2

	_, err := a.Stream(context.Background(), request(), func(string) error { return nil })
	assert.ErrorIs(t, err, agent.ErrMaxTurns)
}

func TestStream_UpstreamError(t *testing.T) {
	a := newTestAgent(t, &fakeMessages{})
	_, err := a.Stream(context.Background(), request(), func(string) error { return nil })
	assert.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	registry, err := agent.NewRegistry()
	require.NoError(t, err)
	_, err = New("", registry, nil)
	assert.ErrorIs(t, err, ErrAPIKeyRequired)
	_, err = New("k", nil, nil)
	assert.ErrorIs(t, err, agent.ErrRegistryRequired)
	_, err = New("k", registry, nil, WithMaxTurns(0))
	assert.Error(t, err)
}
