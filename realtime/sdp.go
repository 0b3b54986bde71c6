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
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/poiesic/ragchat/core"
)

// SDPExchanger forwards a WebRTC offer to the realtime calls endpoint.
type SDPExchanger struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// NewSDPExchanger creates an exchanger. A nil client uses one with the
// configured connect timeout.
func NewSDPExchanger(config Config, client *http.Client) (*SDPExchanger, error) {
	if config.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}
	config = config.withDefaults()
	if client == nil {
		client = &http.Client{Timeout: 3 * config.ConnectTimeout}
	}
	return &SDPExchanger{
		config: config,
		client: client,
		logger: slog.Default().With("component", "realtime-sdp"),
	}, nil
}

// Exchange posts offer as application/sdp and returns the answer body.
func (e *SDPExchanger) Exchange(ctx context.Context, offer string) (string, error) {
	if strings.TrimSpace(offer) == "" {
		return "", ErrMissingSDP
	}
	e.logger.Debug("exchanging SDP offer", "bytes", len(offer))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.callsURL(), strings.NewReader(offer))
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrUpstreamTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+e.config.APIKey)
	req.Header.Set("Content-Type", "application/sdp")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrUpstreamTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading answer: %w", core.ErrUpstreamTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstreamErr := newUpstreamError(resp.StatusCode, body)
		e.logger.Error("SDP exchange rejected", "status", resp.StatusCode, "err", upstreamErr)
		return "", upstreamErr
	}
	return string(body), nil
}
