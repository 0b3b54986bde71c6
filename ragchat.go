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

// Package ragchat wires the storage, AI, ingestion, agent and transport
// layers into one Service built from a config.Config.
package ragchat

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/ragchat/agent"
	agentanthropic "github.com/poiesic/ragchat/agent/anthropic"
	agentopenai "github.com/poiesic/ragchat/agent/openai"
	"github.com/poiesic/ragchat/ai"
	"github.com/poiesic/ragchat/ai/openai"
	"github.com/poiesic/ragchat/bulk"
	"github.com/poiesic/ragchat/chat"
	"github.com/poiesic/ragchat/config"
	"github.com/poiesic/ragchat/history"
	"github.com/poiesic/ragchat/ingestion"
	"github.com/poiesic/ragchat/realtime"
	"github.com/poiesic/ragchat/search"
	"github.com/poiesic/ragchat/server"
	"github.com/poiesic/ragchat/storage/badger"
	"github.com/poiesic/ragchat/storage/chromem"
	"github.com/poiesic/ragchat/tts"
)

// Subdirectories of DataDir.
const (
	ConversationDir = "conversations"
	VectorDir       = "vectors"
)

// Service owns every long-lived component.
type Service struct {
	config        *config.Config
	backend       *badger.Backend
	conversations *badger.ConversationRepository
	manifests     *badger.ManifestRepository
	documents     *chromem.DocumentRepository
	provider      ai.AIProvider
	detacher      *ingestion.Detacher
	history       *history.Store
	pipeline      *ingestion.Pipeline
	searcher      *search.Searcher
	rewriter      *search.Rewriter
	agent         agent.Agent
	orchestrator  *chat.Orchestrator
	logger        *slog.Logger
}

// Option configures a Service.
type Option func(*options)

type options struct {
	provider ai.AIProvider
	agent    agent.Agent
	logger   *slog.Logger
}

// WithProvider replaces the OpenAI provider built from the config.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) { o.provider = provider }
}

// WithAgent replaces the agent built from the config.
func WithAgent(a agent.Agent) Option {
	return func(o *options) { o.agent = a }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New validates cfg and opens every component. On failure everything
// already opened is closed again.
func New(cfg *config.Config, opts ...Option) (svc *Service, err error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	s := &Service{config: cfg, logger: o.logger}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	if err := s.openStorage(); err != nil {
		return nil, err
	}

	s.provider = o.provider
	if s.provider == nil {
		if s.provider, err = openai.NewProvider(cfg.AI); err != nil {
			return nil, err
		}
	}

	if s.detacher, err = ingestion.NewDetacher(
		ingestion.WithWorkers(cfg.Workers),
		ingestion.WithDetacherLogger(s.logger),
	); err != nil {
		return nil, err
	}
	if s.history, err = history.NewStore(s.conversations, s.detacher, history.WithLogger(s.logger)); err != nil {
		return nil, err
	}

	if s.pipeline, err = ingestion.NewPipeline(s.documents, s.manifests, s.provider.Embedder(),
		ingestion.WithChunking(cfg.ChunkSize, cfg.ChunkOverlap),
		ingestion.WithLogger(s.logger),
	); err != nil {
		return nil, err
	}
	if s.searcher, err = search.NewSearcher(s.documents, s.provider, search.WithLogger(s.logger)); err != nil {
		return nil, err
	}
	if s.rewriter, err = search.NewRewriter(s.provider.Completer()); err != nil {
		return nil, err
	}

	s.agent = o.agent
	if s.agent == nil {
		if s.agent, err = s.newAgent(); err != nil {
			return nil, err
		}
	}

	chatOpts := []chat.Option{
		chat.WithIngester(s.pipeline),
		chat.WithLogger(s.logger),
	}
	if synth, err := tts.NewOpenAI(cfg.AI.APIKey, tts.WithBaseURL(cfg.AI.BaseURL)); err == nil {
		chatOpts = append(chatOpts, chat.WithSynthesizer(synth))
	}
	if s.orchestrator, err = chat.NewOrchestrator(s.agent, s.history, chatOpts...); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) openStorage() error {
	var err error
	if s.config.InMemory {
		s.backend, err = badger.OpenBackend("", true)
	} else {
		s.backend, err = badger.OpenBackend(filepath.Join(s.config.DataDir, ConversationDir), false)
	}
	if err != nil {
		return fmt.Errorf("opening conversation store: %w", err)
	}

	if s.conversations, err = badger.NewConversationRepository(s.backend); err != nil {
		return err
	}
	s.manifests = badger.NewManifestRepository(s.backend)

	if s.config.InMemory {
		s.documents = chromem.NewMemoryRepository()
		return nil
	}
	if s.documents, err = chromem.NewPersistentRepository(filepath.Join(s.config.DataDir, VectorDir)); err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}
	return nil
}

func (s *Service) newAgent() (agent.Agent, error) {
	registry, err := agent.DefaultTools(s.history, s.rewriter, s.searcher, s.config.SearchTopK)
	if err != nil {
		return nil, err
	}

	switch s.config.AgentProvider {
	case config.ProviderAnthropic:
		opts := []agentanthropic.Option{
			agentanthropic.WithHistory(s.history),
			agentanthropic.WithLogger(s.logger),
		}
		if s.config.AnthropicModel != "" {
			opts = append(opts, agentanthropic.WithModel(s.config.AnthropicModel))
		}
		return agentanthropic.New(s.config.AnthropicAPIKey, registry, nil, opts...)
	default:
		return agentopenai.New(s.config.AI.APIKey, s.config.AI.BaseURL, s.config.AI.ChatModel, registry,
			agentopenai.WithHistory(s.history),
			agentopenai.WithLogger(s.logger),
		)
	}
}

// Close waits for detached writes and releases storage and the provider.
// It is safe on a partially built Service.
func (s *Service) Close() error {
	var errs []error
	if s.detacher != nil {
		s.detacher.Release()
	}
	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Error("error closing AI provider", "err", err)
		}
	}
	if s.documents != nil {
		if err := s.documents.Close(); err != nil {
			s.logger.Error("error closing document store", "err", err)
			errs = append(errs, err)
		}
	}
	if s.conversations != nil {
		if err := s.conversations.Close(); err != nil {
			s.logger.Error("error closing conversation repository", "err", err)
			errs = append(errs, err)
		}
	}
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Config returns the configuration the service was built from.
func (s *Service) Config() *config.Config { return s.config }

// History returns the conversation store adapter.
func (s *Service) History() *history.Store { return s.history }

// Pipeline returns the document ingestion pipeline.
func (s *Service) Pipeline() *ingestion.Pipeline { return s.pipeline }

// Searcher returns the document searcher.
func (s *Service) Searcher() *search.Searcher { return s.searcher }

// Orchestrator returns the chat turn orchestrator.
func (s *Service) Orchestrator() *chat.Orchestrator { return s.orchestrator }

// NewLoader returns a bulk loader over the service pipeline.
func (s *Service) NewLoader(opts ...bulk.Option) (*bulk.Loader, error) {
	return bulk.NewLoader(s.pipeline, append([]bulk.Option{bulk.WithLogger(s.logger)}, opts...)...)
}

// NewServer returns the HTTP surface with the realtime endpoints enabled.
func (s *Service) NewServer(opts ...server.Option) (*server.Server, error) {
	sessions, err := realtime.NewSessionIssuer(s.config.Realtime, nil)
	if err != nil {
		return nil, err
	}
	sdp, err := realtime.NewSDPExchanger(s.config.Realtime, nil)
	if err != nil {
		return nil, err
	}
	relay := realtime.NewRelay(s.config.Realtime, realtime.WithRelayLogger(s.logger))

	base := []server.Option{
		server.WithAddr(s.config.Addr),
		server.WithRealtime(sessions, sdp, relay),
		server.WithLogger(s.logger),
	}
	return server.New(s.orchestrator, append(base, opts...)...), nil
}
