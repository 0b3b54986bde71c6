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

// Package config assembles the application configuration from defaults,
// an optional TOML file, the environment (including a .env file) and
// command-line overrides, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/ragchat/ai"
	"github.com/poiesic/ragchat/ingestion"
	"github.com/poiesic/ragchat/realtime"
)

// Agent providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const (
	DefaultAddr       = ":8080"
	DefaultDataDir    = "./data"
	DefaultSearchTopK = 5
	DefaultWorkers    = 8
)

var (
	// ErrConfigInvalid indicates a value is out of range.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrConfigMissing indicates a required value is not set.
	ErrConfigMissing = errors.New("missing required configuration")
)

// Config is the application configuration.
type Config struct {
	AI *ai.Config

	Addr     string
	DataDir  string
	InMemory bool

	AgentProvider   string
	AnthropicAPIKey string
	AnthropicModel  string

	Realtime realtime.Config

	ChunkSize    int
	ChunkOverlap int
	SearchTopK   int
	Workers      int
}

// Option overrides a loaded value.
type Option func(*Config)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(c *Config) { c.Addr = addr }
}

// WithDataDir sets the storage directory.
func WithDataDir(dir string) Option {
	return func(c *Config) { c.DataDir = dir }
}

// WithInMemory keeps all data in memory.
func WithInMemory(inMemory bool) Option {
	return func(c *Config) { c.InMemory = inMemory }
}

// WithAgentProvider selects the agent backend.
func WithAgentProvider(provider string) Option {
	return func(c *Config) { c.AgentProvider = provider }
}

// WithChunking sets the chunk window.
func WithChunking(size, overlap int) Option {
	return func(c *Config) {
		c.ChunkSize = size
		c.ChunkOverlap = overlap
	}
}

// WithSearchTopK sets the number of document matches given to the agent.
func WithSearchTopK(k int) Option {
	return func(c *Config) { c.SearchTopK = k }
}

// WithAI applies options to the embedded AI config.
func WithAI(opts ...ai.ConfigOption) Option {
	return func(c *Config) {
		for _, opt := range opts {
			opt(c.AI)
		}
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AI:            ai.DefaultConfig(),
		Addr:          DefaultAddr,
		DataDir:       DefaultDataDir,
		AgentProvider: ProviderOpenAI,
		Realtime:      realtime.DefaultConfig(),
		ChunkSize:     ingestion.DefaultChunkSize,
		ChunkOverlap:  ingestion.DefaultChunkOverlap,
		SearchTopK:    DefaultSearchTopK,
		Workers:       DefaultWorkers,
	}
}

// Load builds the configuration. path names an optional TOML file; an
// empty path skips it. A .env file in the working directory is loaded
// if present, without overriding variables already set.
func Load(path string, opts ...Option) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := cfg.loadEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(cfg)
	}

	// The realtime endpoints share the OpenAI credential
	if cfg.Realtime.APIKey == "" {
		cfg.Realtime.APIKey = cfg.AI.APIKey
	}
	return cfg, nil
}

// Validate reports the first invalid or missing value.
func (c *Config) Validate() error {
	if err := c.AI.Validate(); err != nil {
		return err
	}
	switch c.AgentProvider {
	case ProviderOpenAI:
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("%w: ANTHROPIC_API_KEY is required for the anthropic agent", ErrConfigMissing)
		}
	default:
		return fmt.Errorf("%w: unknown agent provider %q", ErrConfigInvalid, c.AgentProvider)
	}
	if !c.InMemory && c.DataDir == "" {
		return fmt.Errorf("%w: DataDir", ErrConfigMissing)
	}
	if _, err := ingestion.NewChunker(c.ChunkSize, c.ChunkOverlap); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	if c.SearchTopK < 1 {
		return fmt.Errorf("%w: SearchTopK must be positive", ErrConfigInvalid)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: Workers must be positive", ErrConfigInvalid)
	}
	return nil
}

// fileConfig is the TOML layout. Zero values leave defaults untouched.
type fileConfig struct {
	Server struct {
		Addr     string `toml:"addr"`
		DataDir  string `toml:"data_dir"`
		InMemory *bool  `toml:"in_memory"`
		Workers  int    `toml:"workers"`
	} `toml:"server"`
	OpenAI struct {
		APIKey              string   `toml:"api_key"`
		BaseURL             string   `toml:"base_url"`
		EmbeddingModel      string   `toml:"embedding_model"`
		EmbeddingDimensions int      `toml:"embedding_dimensions"`
		ChatModel           string   `toml:"chat_model"`
		RewriteModel        string   `toml:"rewrite_model"`
		RequestsPerSecond   *float64 `toml:"requests_per_second"`
	} `toml:"openai"`
	Agent struct {
		Provider        string `toml:"provider"`
		AnthropicAPIKey string `toml:"anthropic_api_key"`
		AnthropicModel  string `toml:"anthropic_model"`
	} `toml:"agent"`
	Realtime struct {
		Model          string `toml:"model"`
		Voice          string `toml:"voice"`
		ConnectTimeout string `toml:"connect_timeout"`
	} `toml:"realtime"`
	Ingestion struct {
		ChunkSize    int  `toml:"chunk_size"`
		ChunkOverlap *int `toml:"chunk_overlap"`
	} `toml:"ingestion"`
	Search struct {
		TopK int `toml:"top_k"`
	} `toml:"search"`
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: parsing %s: %w", ErrConfigInvalid, path, err)
	}

	setString(&c.Addr, f.Server.Addr)
	setString(&c.DataDir, f.Server.DataDir)
	if f.Server.InMemory != nil {
		c.InMemory = *f.Server.InMemory
	}
	setInt(&c.Workers, f.Server.Workers)

	setString(&c.AI.APIKey, f.OpenAI.APIKey)
	setString(&c.AI.BaseURL, f.OpenAI.BaseURL)
	setString(&c.AI.EmbeddingModel, f.OpenAI.EmbeddingModel)
	setInt(&c.AI.EmbeddingDimensions, f.OpenAI.EmbeddingDimensions)
	setString(&c.AI.ChatModel, f.OpenAI.ChatModel)
	setString(&c.AI.RewriteModel, f.OpenAI.RewriteModel)
	if f.OpenAI.RequestsPerSecond != nil {
		c.AI.RequestsPerSecond = *f.OpenAI.RequestsPerSecond
	}

	setString(&c.AgentProvider, f.Agent.Provider)
	setString(&c.AnthropicAPIKey, f.Agent.AnthropicAPIKey)
	setString(&c.AnthropicModel, f.Agent.AnthropicModel)

	setString(&c.Realtime.Model, f.Realtime.Model)
	setString(&c.Realtime.Voice, f.Realtime.Voice)
	if f.Realtime.ConnectTimeout != "" {
		d, err := time.ParseDuration(f.Realtime.ConnectTimeout)
		if err != nil {
			return fmt.Errorf("%w: realtime.connect_timeout: %w", ErrConfigInvalid, err)
		}
		c.Realtime.ConnectTimeout = d
	}

	setInt(&c.ChunkSize, f.Ingestion.ChunkSize)
	if f.Ingestion.ChunkOverlap != nil {
		c.ChunkOverlap = *f.Ingestion.ChunkOverlap
	}
	setInt(&c.SearchTopK, f.Search.TopK)
	return nil
}

func (c *Config) loadEnv(lookup func(string) (string, bool)) error {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	setString(&c.AI.APIKey, get("OPENAI_API_KEY"))
	setString(&c.AI.BaseURL, get("OPENAI_BASE_URL"))
	setString(&c.AI.EmbeddingModel, get("RAGCHAT_EMBEDDING_MODEL"))
	setString(&c.AI.ChatModel, get("RAGCHAT_CHAT_MODEL"))
	setString(&c.AnthropicAPIKey, get("ANTHROPIC_API_KEY"))
	setString(&c.AnthropicModel, get("RAGCHAT_ANTHROPIC_MODEL"))
	setString(&c.AgentProvider, get("RAGCHAT_AGENT"))
	setString(&c.DataDir, get("RAGCHAT_DATA_DIR"))

	if port := get("PORT"); port != "" {
		c.Addr = ":" + port
	}
	setString(&c.Addr, get("RAGCHAT_ADDR"))

	if v := get("RAGCHAT_EMBEDDING_DIMENSIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: RAGCHAT_EMBEDDING_DIMENSIONS: %w", ErrConfigInvalid, err)
		}
		c.AI.EmbeddingDimensions = n
	}
	if v := get("RAGCHAT_IN_MEMORY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: RAGCHAT_IN_MEMORY: %w", ErrConfigInvalid, err)
		}
		c.InMemory = b
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
