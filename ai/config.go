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

package ai

import (
	"fmt"
	"strings"
)

const (
	DefaultBaseURL             = "https://api.openai.com/v1"
	DefaultEmbeddingModel      = "text-embedding-3-small"
	DefaultEmbeddingDimensions = 1536
	DefaultChatModel           = "gpt-4o-mini"
	DefaultRewriteModel        = "gpt-4o-mini"
)

// Config holds configuration for AI service providers.
type Config struct {
	// APIKey is the bearer credential for the OpenAI-compatible API.
	APIKey string

	// BaseURL is the base URL for the OpenAI-compatible API.
	// Example: "https://api.openai.com/v1"
	BaseURL string

	// EmbeddingModel is the model identifier to use for text embeddings.
	EmbeddingModel string

	// EmbeddingDimensions is the length of every embedding vector the
	// model returns. Vectors of any other length are rejected.
	EmbeddingDimensions int

	// ChatModel is the model identifier used by the chat agent.
	ChatModel string

	// RewriteModel is the model identifier used for query rewriting.
	RewriteModel string

	// RequestsPerSecond caps embedding calls. Zero disables the limit.
	RequestsPerSecond float64
}

// ConfigOption is a functional option for configuring Config.
type ConfigOption func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) ConfigOption {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithEmbeddingModel sets the embedding model and its vector length.
func WithEmbeddingModel(model string, dimensions int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
		c.EmbeddingDimensions = dimensions
	}
}

// WithChatModel sets the agent model.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithRewriteModel sets the query rewrite model.
func WithRewriteModel(model string) ConfigOption {
	return func(c *Config) {
		c.RewriteModel = model
	}
}

// WithRequestsPerSecond sets the embedding rate limit.
func WithRequestsPerSecond(rps float64) ConfigOption {
	return func(c *Config) {
		c.RequestsPerSecond = rps
	}
}

// DefaultConfig returns the configuration for the hosted OpenAI API.
// The API key is left empty and must be supplied.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:             DefaultBaseURL,
		EmbeddingModel:      DefaultEmbeddingModel,
		EmbeddingDimensions: DefaultEmbeddingDimensions,
		ChatModel:           DefaultChatModel,
		RewriteModel:        DefaultRewriteModel,
	}
}

// NewConfig creates a Config from defaults and the given options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures BaseURL ends with /v1.
func (c *Config) Normalize() {
	if c.BaseURL != "" && !strings.HasSuffix(c.BaseURL, "/v1") {
		c.BaseURL = strings.TrimSuffix(c.BaseURL, "/") + "/v1"
	}
}

// Validate normalizes the config and reports the first missing value.
func (c *Config) Validate() error {
	c.Normalize()

	if c.APIKey == "" {
		return fmt.Errorf("%w: APIKey", ErrConfigMissing)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("%w: BaseURL", ErrConfigMissing)
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: EmbeddingModel", ErrConfigMissing)
	}
	if c.EmbeddingDimensions < 1 {
		return fmt.Errorf("%w: EmbeddingDimensions must be positive", ErrConfigInvalid)
	}
	if c.ChatModel == "" {
		return fmt.Errorf("%w: ChatModel", ErrConfigMissing)
	}
	if c.RewriteModel == "" {
		return fmt.Errorf("%w: RewriteModel", ErrConfigMissing)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: RequestsPerSecond cannot be negative", ErrConfigInvalid)
	}
	return nil
}
