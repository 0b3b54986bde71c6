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

// Package tts turns reply text into speech through the OpenAI speech API.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "tts-1"
	DefaultVoice   = "alloy"
	DefaultFormat  = "mp3"

	defaultTimeout = 60 * time.Second
	maxErrorBody   = 200
)

var (
	// ErrAPIKeyRequired indicates no API key was configured.
	ErrAPIKeyRequired = errors.New("tts api key is required")

	// ErrEmptyText indicates there is nothing to synthesize.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrSynthesis indicates the speech service failed.
	ErrSynthesis = errors.New("speech synthesis failed")
)

// Synthesizer converts text to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// OpenAI implements Synthesizer over /v1/audio/speech.
type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	voice   string
	format  string
	client  *http.Client
	logger  *slog.Logger
}

// Option configures the synthesizer.
type Option func(*OpenAI)

// WithBaseURL overrides the API root, e.g. for a compatible proxy.
func WithBaseURL(url string) Option {
	return func(o *OpenAI) {
		if url != "" {
			o.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithVoice selects the voice.
func WithVoice(voice string) Option {
	return func(o *OpenAI) {
		if voice != "" {
			o.voice = voice
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *OpenAI) {
		if client != nil {
			o.client = client
		}
	}
}

// NewOpenAI creates a synthesizer using tts-1, alloy and mp3 by default.
func NewOpenAI(apiKey string, opts ...Option) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}
	o := &OpenAI{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		voice:   DefaultVoice,
		format:  DefaultFormat,
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  slog.Default().With("component", "tts"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize returns the encoded audio for text.
func (o *OpenAI) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	payload, err := json.Marshal(speechRequest{
		Model:          o.model,
		Input:          text,
		Voice:          o.voice,
		ResponseFormat: o.format,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading audio: %w", ErrSynthesis, err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrSynthesis, resp.StatusCode, body)
	}

	o.logger.Debug("speech generated", "chars", len(text), "bytes", len(body), "elapsed", time.Since(start))
	return body, nil
}
