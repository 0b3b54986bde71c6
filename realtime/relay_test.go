package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstreamFrame struct {
	kind int
	data []byte
}

// fakeUpstream accepts one socket, records frames and lets the test script replies.
type fakeUpstream struct {
	server   *httptest.Server
	authz    chan string
	frames   chan upstreamFrame
	conns    chan *websocket.Conn
	rejectAs int
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{
		authz:  make(chan string, 1),
		frames: make(chan upstreamFrame, 16),
		conns:  make(chan *websocket.Conn, 1),
	}
	upgrader := websocket.Upgrader{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.authz <- r.Header.Get("Authorization")
		if f.rejectAs != 0 {
			w.WriteHeader(f.rejectAs)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.conns <- conn
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				close(f.frames)
				return
			}
			f.frames <- upstreamFrame{kind, data}
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeUpstream) wsURL() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http")
}

func (f *fakeUpstream) next(t *testing.T) upstreamFrame {
	t.Helper()
	select {
	case frame, ok := <-f.frames:
		require.True(t, ok, "upstream closed")
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for upstream frame")
	}
	return upstreamFrame{}
}

func startRelay(t *testing.T, upstream *fakeUpstream) string {
	t.Helper()
	relay := NewRelay(Config{WebSocketURL: upstream.wsURL(), ConnectTimeout: 2 * time.Second})
	srv := httptest.NewServer(relay)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialRelay(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestRelay_ForwardsBothWays(t *testing.T) {
	upstream := newFakeUpstream(t)
	client := dialRelay(t, startRelay(t, upstream))

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"auth","token":"ek_123"}`)))
	assert.Equal(t, "Bearer ek_123", <-upstream.authz)

	// session.update is the first upstream frame; the auth frame is never forwarded
	first := upstream.next(t)
	assert.JSONEq(t, `{"type":"session.update","session":{"type":"realtime","modalities":["text","audio"]}}`, string(first.data))
	assert.Equal(t, "connected", readJSON(t, client)["type"])

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"input_audio_buffer.append","audio":"AAA"}`)))
	require.NoError(t, client.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}))
	got := upstream.next(t)
	assert.Equal(t, websocket.TextMessage, got.kind)
	assert.Equal(t, `{"type":"input_audio_buffer.append","audio":"AAA"}`, string(got.data))
	got = upstream.next(t)
	assert.Equal(t, websocket.BinaryMessage, got.kind)
	assert.Equal(t, []byte{1, 2, 3}, got.data)

	conn := <-upstream.conns
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"response.audio.delta","delta":"x"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"response.done"}`)))
	kind, data, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)
	assert.Equal(t, `{"type":"response.audio.delta","delta":"x"}`, string(data))
	_, data, err = client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"response.done"}`, string(data))
}

func TestRelay_UpstreamCloseClosesClient(t *testing.T) {
	upstream := newFakeUpstream(t)
	client := dialRelay(t, startRelay(t, upstream))

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"auth","token":"t"}`)))
	<-upstream.authz
	upstream.next(t)
	assert.Equal(t, "connected", readJSON(t, client)["type"])

	conn := <-upstream.conns
	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	conn.Close()

	// The client sees its socket close and nothing else arrives
	_, _, err := client.ReadMessage()
	require.Error(t, err)
	_, _, err = client.ReadMessage()
	assert.Error(t, err)
}

func TestRelay_ClientCloseClosesUpstream(t *testing.T) {
	upstream := newFakeUpstream(t)
	client := dialRelay(t, startRelay(t, upstream))

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"auth","token":"t"}`)))
	<-upstream.authz
	upstream.next(t)
	readJSON(t, client)

	client.Close()
	select {
	case _, ok := <-upstream.frames:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("upstream was not closed")
	}
}

func TestRelay_RequiresAuthFrame(t *testing.T) {
	upstream := newFakeUpstream(t)
	client := dialRelay(t, startRelay(t, upstream))

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"session.update"}`)))
	frame := readJSON(t, client)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, ErrAuthFrameRequired.Error(), frame["message"])

	select {
	case <-upstream.authz:
		t.Fatal("relay dialed upstream without a token")
	default:
	}
}

func TestRelay_UpstreamAuthRejected(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.rejectAs = http.StatusUnauthorized
	client := dialRelay(t, startRelay(t, upstream))

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"auth","token":"bad"}`)))
	frame := readJSON(t, client)
	assert.Equal(t, "error", frame["type"])
	assert.Contains(t, frame["message"], "upstream authentication failed")

	_, _, err := client.ReadMessage()
	assert.Error(t, err)
}

func TestRelay_UpstreamUnreachable(t *testing.T) {
	relay := NewRelay(Config{WebSocketURL: "ws://127.0.0.1:1", ConnectTimeout: time.Second})
	srv := httptest.NewServer(relay)
	defer srv.Close()
	client := dialRelay(t, "ws"+strings.TrimPrefix(srv.URL, "http"))

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"auth","token":"t"}`)))
	frame := readJSON(t, client)
	assert.Equal(t, "error", frame["type"])
	assert.Contains(t, frame["message"], "upstream transport error")
}

func TestRelay_SilentClientTimesOut(t *testing.T) {
	upstream := newFakeUpstream(t)
	relay := NewRelay(Config{WebSocketURL: upstream.wsURL(), ConnectTimeout: 100 * time.Millisecond})
	srv := httptest.NewServer(relay)
	defer srv.Close()
	client := dialRelay(t, "ws"+strings.TrimPrefix(srv.URL, "http"))

	start := time.Now()
	frame := readJSON(t, client)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, ErrAuthTimeout.Error(), frame["message"])
	assert.Less(t, time.Since(start), 2*time.Second)

	_, _, err := client.ReadMessage()
	assert.Error(t, err)

	select {
	case <-upstream.authz:
		t.Fatal("relay dialed upstream without an auth frame")
	default:
	}
}
