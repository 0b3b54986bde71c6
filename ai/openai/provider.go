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

package openai

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/ragchat/ai"
)

// DefaultRequestTimeout bounds one embedding or completion request.
const DefaultRequestTimeout = 60 * time.Second

// Provider serves the embedder and the rewrite completer from one
// validated config over a shared HTTP client.
type Provider struct {
	embedder  *Embedder
	completer *Completer
	client    *http.Client
	logger    *slog.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithHTTPClient replaces the shared HTTP client.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		if client != nil {
			p.client = client
		}
	}
}

// NewProvider validates config and builds both services.
func NewProvider(config *ai.Config, opts ...ProviderOption) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		client: &http.Client{Timeout: DefaultRequestTimeout},
		logger: slog.Default().With("component", "openai-provider"),
	}
	for _, opt := range opts {
		opt(p)
	}

	var err error
	if p.embedder, err = newEmbedder(config, p.client); err != nil {
		return nil, err
	}
	if p.completer, err = newCompleter(config, p.client); err != nil {
		return nil, err
	}
	p.logger.Debug("provider ready",
		"baseURL", config.BaseURL,
		"embeddingModel", config.EmbeddingModel,
		"rewriteModel", config.RewriteModel)
	return p, nil
}

func (p *Provider) Embedder() ai.Embedder { return p.embedder }

func (p *Provider) Completer() ai.Completer { return p.completer }

// Close drops idle keep-alive connections of the shared client.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	p.logger.Debug("closed OpenAI provider")
	return nil
}
