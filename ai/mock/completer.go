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
	"context"
	"strings"
	"sync"
)

// CompleteCall records the arguments of one Complete invocation.
type CompleteCall struct {
	System    string
	Prompt    string
	MaxTokens int
}

// MockCompleter is a test double for ai.Completer.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, the prompt is echoed back in lower case.
	CompleteFunc func(ctx context.Context, system, prompt string, maxTokens int) (string, error)

	mu    sync.Mutex
	calls []CompleteCall
}

// NewMockCompleter creates a mock completer with default echo behavior.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete records the call and returns the scripted answer.
func (m *MockCompleter) Complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, CompleteCall{System: system, Prompt: prompt, MaxTokens: maxTokens})
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, system, prompt, maxTokens)
	}
	return strings.ToLower(prompt), nil
}

// Calls returns a copy of the recorded calls.
func (m *MockCompleter) Calls() []CompleteCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CompleteCall(nil), m.calls...)
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Reset clears recorded calls and the custom function.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.CompleteFunc = nil
}
