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

package mock

import (
	"sync/atomic"

	"github.com/poiesic/ragchat/ai"
)

// MockProvider bundles a MockEmbedder and a MockCompleter and counts
// Close calls, so tests can check both the services and the shutdown.
type MockProvider struct {
	Embeddings  *MockEmbedder
	Completions *MockCompleter

	// CloseErr is returned by every Close call.
	CloseErr error

	closed atomic.Int32
}

var _ ai.AIProvider = (*MockProvider)(nil)

// NewMockProvider returns a provider with default mock services.
func NewMockProvider() *MockProvider {
	return NewMockProviderWithServices(nil, nil)
}

// NewMockProviderWithServices uses the given services. A nil service is
// replaced by a default one.
func NewMockProviderWithServices(embedder *MockEmbedder, completer *MockCompleter) *MockProvider {
	if embedder == nil {
		embedder = NewMockEmbedder()
	}
	if completer == nil {
		completer = NewMockCompleter()
	}
	return &MockProvider{Embeddings: embedder, Completions: completer}
}

func (p *MockProvider) Embedder() ai.Embedder { return p.Embeddings }

func (p *MockProvider) Completer() ai.Completer { return p.Completions }

// Close records the call and returns CloseErr.
func (p *MockProvider) Close() error {
	p.closed.Add(1)
	return p.CloseErr
}

// CloseCount reports how many times Close was called.
func (p *MockProvider) CloseCount() int {
	return int(p.closed.Load())
}
