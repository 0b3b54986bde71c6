package realtime

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/poiesic/ragchat/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSDPExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/realtime/calls", r.URL.Path)
		assert.Equal(t, DefaultModel, r.URL.Query().Get("model"))
		assert.Equal(t, "application/sdp", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "v=0 offer", string(body))
		w.Header().Set("Content-Type", "application/sdp")
		_, _ = io.WriteString(w, "v=0 answer")
	}))
	defer srv.Close()

	ex, err := NewSDPExchanger(Config{APIKey: "sk-test", APIBaseURL: srv.URL + "/v1/"}, nil)
	require.NoError(t, err)

	answer, err := ex.Exchange(context.Background(), "v=0 offer")
	require.NoError(t, err)
	assert.Equal(t, "v=0 answer", answer)
}

func TestSDPExchange_MissingOffer(t *testing.T) {
	ex, err := NewSDPExchanger(Config{APIKey: "k"}, nil)
	require.NoError(t, err)
	_, err = ex.Exchange(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingSDP)
}

func TestSDPExchange_UpstreamErrorTruncated(t *testing.T) {
	long := strings.Repeat("e", 500)
	status := http.StatusForbidden
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, long)
	}))
	defer srv.Close()

	ex, err := NewSDPExchanger(Config{APIKey: "k", APIBaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = ex.Exchange(context.Background(), "offer")
	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusForbidden, upstreamErr.StatusCode)
	assert.Len(t, upstreamErr.Body, maxErrorBody)
	assert.ErrorIs(t, err, core.ErrUpstreamAuth)

	status = http.StatusBadGateway
	_, err = ex.Exchange(context.Background(), "offer")
	assert.ErrorIs(t, err, core.ErrUpstreamTransport)
}

func TestSDPExchange_RequiresKey(t *testing.T) {
	_, err := NewSDPExchanger(Config{}, nil)
	assert.ErrorIs(t, err, ErrAPIKeyRequired)
}

func TestSessionIssuer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/realtime/sessions", r.URL.Path)
		var req sessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.Equal(t, "alloy", req.Voice)
		assert.Contains(t, req.Instructions, "You MUST speak ONLY English")
		_, _ = io.WriteString(w, `{"id":"sess_1","client_secret":{"value":"ek_abc","expires_at":123}}`)
	}))
	defer srv.Close()

	issuer, err := NewSessionIssuer(Config{APIKey: "k", APIBaseURL: srv.URL}, nil)
	require.NoError(t, err)

	session, err := issuer.Issue(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "default", session.SessionID)
	assert.JSONEq(t, `{"value":"ek_abc","expires_at":123}`, string(session.ClientSecret))

	out, err := json.Marshal(session)
	require.NoError(t, err)
	assert.JSONEq(t, `{"client_secret":{"value":"ek_abc","expires_at":123},"session_id":"default"}`, string(out))
}

func TestSessionIssuer_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key"}}`)
	}))
	defer srv.Close()

	issuer, err := NewSessionIssuer(Config{APIKey: "k", APIBaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = issuer.Issue(context.Background(), "c1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenAI API error: Incorrect API key")
	assert.ErrorIs(t, err, core.ErrUpstreamAuth)
}
