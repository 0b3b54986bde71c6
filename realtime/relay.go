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

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/poiesic/ragchat/core"
)

const closeGracePeriod = time.Second

var sessionUpdate = []byte(`{"type":"session.update","session":{"type":"realtime","modalities":["text","audio"]}}`)

type authFrame struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Relay is an http.Handler that bridges a browser WebSocket to the
// realtime API.
type Relay struct {
	config   Config
	upgrader websocket.Upgrader
	dialer   *websocket.Dialer
	logger   *slog.Logger
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithCheckOrigin replaces the origin check. The default accepts every origin.
func WithCheckOrigin(check func(r *http.Request) bool) RelayOption {
	return func(r *Relay) {
		r.upgrader.CheckOrigin = check
	}
}

// WithRelayLogger sets a custom logger.
func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRelay creates a relay.
func NewRelay(config Config, opts ...RelayOption) *Relay {
	config = config.withDefaults()
	r := &Relay{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.ConnectTimeout,
		},
		logger: slog.Default().With("component", "realtime-relay"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ServeHTTP upgrades the request and runs the relay until either side closes.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	client, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// Upgrade has already replied to the client
		r.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer client.Close()
	r.logger.Debug("browser connected", "remote", req.RemoteAddr)

	token, err := r.awaitAuth(client)
	if err != nil {
		r.logger.Warn("rejecting realtime client", "err", err)
		r.fail(client, err.Error())
		return
	}

	upstream, err := r.dial(req.Context(), token)
	if err != nil {
		r.logger.Error("upstream connection failed", "err", err)
		r.fail(client, "OpenAI connection error: "+err.Error())
		return
	}
	defer upstream.Close()

	if err := upstream.WriteMessage(websocket.TextMessage, sessionUpdate); err != nil {
		r.logger.Error("failed to send session update", "err", err)
		r.fail(client, "OpenAI connection error: "+err.Error())
		return
	}
	if err := client.WriteMessage(websocket.TextMessage, []byte(`{"type":"connected"}`)); err != nil {
		r.logger.Warn("failed to confirm connection to browser", "err", err)
		return
	}
	r.logger.Info("realtime relay connected", "remote", req.RemoteAddr)

	r.pump(client, upstream)
	r.logger.Info("realtime relay closed", "remote", req.RemoteAddr)
}

// dial opens the upstream socket with the client's token.
func (r *Relay) dial(ctx context.Context, token string) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	ctx, cancel := context.WithTimeout(ctx, r.config.ConnectTimeout)
	defer cancel()

	conn, resp, err := r.dialer.DialContext(ctx, r.config.socketURL(), header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: handshake status %d", classifyStatus(resp.StatusCode), resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamTransport, err)
	}
	return conn, nil
}

// pump copies frames both ways until one direction ends, then closes both.
func (r *Relay) pump(client, upstream *websocket.Conn) {
	var once sync.Once
	shutdown := func(reason string, err error) {
		once.Do(func() {
			if err != nil && !isNormalClose(err) {
				r.logger.Warn("relay stream ended", "direction", reason, "err", err)
			} else {
				r.logger.Debug("relay stream ended", "direction", reason)
			}
			deadline := time.Now().Add(closeGracePeriod)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = client.WriteControl(websocket.CloseMessage, msg, deadline)
			_ = upstream.WriteControl(websocket.CloseMessage, msg, deadline)
			client.Close()
			upstream.Close()
		})
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		shutdown("upstream->client", copyFrames(client, upstream))
	}()
	go func() {
		defer wg.Done()
		shutdown("client->upstream", copyFrames(upstream, client))
	}()
	wg.Wait()
}

// copyFrames forwards every frame from src to dst keeping its message type.
func copyFrames(dst, src *websocket.Conn) error {
	for {
		kind, data, err := src.ReadMessage()
		if err != nil {
			return err
		}
		if err := dst.WriteMessage(kind, data); err != nil {
			return err
		}
	}
}

// awaitAuth reads the auth frame within the connect timeout and clears
// the deadline afterwards.
func (r *Relay) awaitAuth(conn *websocket.Conn) (string, error) {
	if err := conn.SetReadDeadline(time.Now().Add(r.config.ConnectTimeout)); err != nil {
		return "", err
	}
	token, err := readAuth(conn)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", ErrAuthTimeout
		}
		return "", err
	}
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return "", err
	}
	return token, nil
}

func readAuth(conn *websocket.Conn) (string, error) {
	kind, data, err := conn.ReadMessage()
	if err != nil {
		return "", err
	}
	if kind != websocket.TextMessage {
		return "", ErrAuthFrameRequired
	}
	var frame authFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.Type != "auth" || frame.Token == "" {
		return "", ErrAuthFrameRequired
	}
	return frame.Token, nil
}

func (r *Relay) fail(conn *websocket.Conn, message string) {
	payload, _ := json.Marshal(errorFrame{Type: "error", Message: message})
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		r.logger.Debug("failed to send error frame", "err", err)
		return
	}
	deadline := time.Now().Add(closeGracePeriod)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}

func isNormalClose(err error) bool {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return true
	}
	return errors.Is(err, net.ErrClosed)
}
