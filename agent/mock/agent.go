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

// Package mock provides a scripted agent.Agent for tests.
package mock

import (
	"context"
	"sync"

	"github.com/poiesic/ragchat/agent"
)

// Agent streams a fixed list of chunks and then returns Err, if set.
type Agent struct {
	// Chunks are emitted in order.
	Chunks []string

	// Err is returned after all chunks have been emitted.
	Err error

	// StreamFunc replaces the scripted behavior when set.
	StreamFunc func(ctx context.Context, req agent.Request, onChunk func(string) error) (string, error)

	mu       sync.Mutex
	requests []agent.Request
}

var _ agent.Agent = (*Agent)(nil)

// NewAgent returns an agent that streams chunks.
func NewAgent(chunks ...string) *Agent {
	return &Agent{Chunks: chunks}
}

// Stream records the request and plays the script.
func (a *Agent) Stream(ctx context.Context, req agent.Request, onChunk func(string) error) (string, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	a.mu.Unlock()

	if a.StreamFunc != nil {
		return a.StreamFunc(ctx, req, onChunk)
	}

	var full string
	for _, chunk := range a.Chunks {
		if err := ctx.Err(); err != nil {
			return full, err
		}
		if err := onChunk(chunk); err != nil {
			return full, err
		}
		full += chunk
	}
	return full, a.Err
}

// Requests returns a copy of the recorded requests.
func (a *Agent) Requests() []agent.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]agent.Request(nil), a.requests...)
}
