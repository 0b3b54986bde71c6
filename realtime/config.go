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
	"fmt"
	"strings"
	"time"
)

const (
	DefaultModel          = "gpt-4o-mini-realtime-preview-2024-12-17"
	DefaultVoice          = "alloy"
	DefaultAPIBaseURL     = "https://api.openai.com/v1"
	DefaultWebSocketURL   = "wss://api.openai.com/v1/realtime"
	DefaultConnectTimeout = 10 * time.Second
)

// DefaultInstructions is the voice persona sent when a session is issued.
const DefaultInstructions = "You are a warm, friendly, and inviting voice assistant. You MUST speak ONLY English. " +
	"If spoken to in another language, politely explain in English that you can only communicate in English. " +
	"Start every new conversation with a very warm and welcoming tone."

// Config holds the upstream settings for all realtime entry points.
type Config struct {
	// APIKey authenticates SDP exchanges and session issuing. The relay
	// uses the browser-supplied token instead.
	APIKey string

	Model          string
	Voice          string
	Instructions   string
	APIBaseURL     string
	WebSocketURL   string
	ConnectTimeout time.Duration
}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	return Config{
		Model:          DefaultModel,
		Voice:          DefaultVoice,
		Instructions:   DefaultInstructions,
		APIBaseURL:     DefaultAPIBaseURL,
		WebSocketURL:   DefaultWebSocketURL,
		ConnectTimeout: DefaultConnectTimeout,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.Voice == "" {
		c.Voice = d.Voice
	}
	if c.Instructions == "" {
		c.Instructions = d.Instructions
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = d.APIBaseURL
	}
	if c.WebSocketURL == "" {
		c.WebSocketURL = d.WebSocketURL
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	return c
}

func (c Config) socketURL() string {
	return fmt.Sprintf("%s?model=%s", c.WebSocketURL, c.Model)
}

func (c Config) callsURL() string {
	return fmt.Sprintf("%s/realtime/calls?model=%s", c.APIBaseURL, c.Model)
}

func (c Config) sessionsURL() string {
	return c.APIBaseURL + "/realtime/sessions"
}
