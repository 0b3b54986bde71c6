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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/poiesic/ragchat/core"
)

// Session is an ephemeral credential for a browser realtime connection.
type Session struct {
	// ClientSecret is returned to the browser exactly as received.
	ClientSecret json.RawMessage `json:"client_secret"`
	SessionID    string          `json:"session_id"`
}

type sessionRequest struct {
	Model        string `json:"model"`
	Voice        string `json:"voice"`
	Instructions string `json:"instructions"`
}

type sessionResponse struct {
	ClientSecret json.RawMessage `json:"client_secret"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SessionIssuer mints ephemeral realtime client secrets.
type SessionIssuer struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// NewSessionIssuer creates an issuer. A nil client uses one with the
// configured connect timeout.
func NewSessionIssuer(config Config, client *http.Client) (*SessionIssuer, error) {
	if config.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}
	config = config.withDefaults()
	if client == nil {
		client = &http.Client{Timeout: 3 * config.ConnectTimeout}
	}
	return &SessionIssuer{
		config: config,
		client: client,
		logger: slog.Default().With("component", "realtime-session"),
	}, nil
}

// Issue creates an upstream session for conversationID.
func (s *SessionIssuer) Issue(ctx context.Context, conversationID string) (*Session, error) {
	if conversationID == "" {
		conversationID = "default"
	}
	payload, err := json.Marshal(sessionRequest{
		Model:        s.config.Model,
		Voice:        s.config.Voice,
		Instructions: s.config.Instructions,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.sessionsURL(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	s.logger.Debug("creating realtime session", "conversation", conversationID)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading session: %w", core.ErrUpstreamTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiErrorResponse
		message := "Unknown error"
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}
		return nil, fmt.Errorf("OpenAI API error: %s: %w", message, newUpstreamError(resp.StatusCode, body))
	}

	var parsed sessionResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.ClientSecret) == 0 {
		return nil, fmt.Errorf("%w: session response has no client_secret", core.ErrUpstreamTransport)
	}
	s.logger.Info("realtime session created", "conversation", conversationID)

	return &Session{ClientSecret: parsed.ClientSecret, SessionID: conversationID}, nil
}
