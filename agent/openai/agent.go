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

// Package openai implements agent.Agent over langchaingo's OpenAI client.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/ragchat/agent"
	"github.com/poiesic/ragchat/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	// ErrModelRequired indicates no model was configured.
	ErrModelRequired = errors.New("model is required")

	// ErrAPIKeyRequired indicates no API key was configured.
	ErrAPIKeyRequired = errors.New("api key is required")
)

// Agent runs the chat tool loop on an OpenAI-compatible chat model.
type Agent struct {
	model        llms.Model
	registry     *agent.Registry
	history      agent.ThreadLoader
	instructions string
	maxTurns     int
	maxTokens    int
	threadTurns  int
	logger       *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent) error

// WithHistory enables thread memory.
func WithHistory(loader agent.ThreadLoader) Option {
	return func(a *Agent) error {
		a.history = loader
		return nil
	}
}

// WithInstructions replaces the system prompt.
func WithInstructions(instructions string) Option {
	return func(a *Agent) error {
		a.instructions = instructions
		return nil
	}
}

// WithMaxTurns bounds the tool loop.
func WithMaxTurns(n int) Option {
	return func(a *Agent) error {
		if n < 1 {
			return fmt.Errorf("max turns must be positive, got %d", n)
		}
		a.maxTurns = n
		return nil
	}
}

// WithMaxTokens caps each model response.
func WithMaxTokens(n int) Option {
	return func(a *Agent) error {
		a.maxTokens = n
		return nil
	}
}

// WithThreadTurns sets how many session turns are replayed.
func WithThreadTurns(n int) Option {
	return func(a *Agent) error {
		a.threadTurns = n
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// New builds an agent over a langchaingo OpenAI client.
func New(apiKey, baseURL, model string, registry *agent.Registry, opts ...Option) (*Agent, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}
	if model == "" {
		return nil, ErrModelRequired
	}
	clientOpts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(baseURL))
	}
	client, err := openai.New(clientOpts...)
	if err != nil {
		return nil, err
	}
	return NewWithModel(client, registry, opts...)
}

// NewWithModel builds an agent over any langchaingo model that supports tools.
func NewWithModel(model llms.Model, registry *agent.Registry, opts ...Option) (*Agent, error) {
	if model == nil {
		return nil, ErrModelRequired
	}
	if registry == nil {
		return nil, agent.ErrRegistryRequired
	}

	a := &Agent{
		model:        model,
		registry:     registry,
		instructions: agent.Instructions,
		maxTurns:     agent.DefaultMaxTurns,
		maxTokens:    agent.DefaultMaxTokens,
		threadTurns:  agent.DefaultThreadTurns,
		logger:       slog.Default().With("component", "openai-agent"),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Stream implements agent.Agent.
func (a *Agent) Stream(ctx context.Context, req agent.Request, onChunk func(string) error) (string, error) {
	if req.Context == nil {
		return "", agent.ErrRequestContextRequired
	}

	messages := a.initialMessages(ctx, req)
	tools := a.toolDefinitions()

	var full strings.Builder
	streaming := func(ctx context.Context, chunk []byte) error {
		// Tool call deltas arrive as a JSON array on the same callback
		if bytes.HasPrefix(bytes.TrimSpace(chunk), []byte("[{")) {
			return nil
		}
		if len(chunk) == 0 {
			return nil
		}
		full.Write(chunk)
		return onChunk(string(chunk))
	}

	for turn := 0; turn < a.maxTurns; turn++ {
		opts := []llms.CallOption{
			llms.WithStreamingFunc(streaming),
		}
		if len(tools) > 0 {
			opts = append(opts, llms.WithTools(tools))
		}
		if a.maxTokens > 0 {
			opts = append(opts, llms.WithMaxTokens(a.maxTokens))
		}

		resp, err := a.model.GenerateContent(ctx, messages, opts...)
		if err != nil {
			return full.String(), fmt.Errorf("model call failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return full.String(), nil
		}

		choice := resp.Choices[0]
		if len(choice.ToolCalls) == 0 {
			return full.String(), nil
		}

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			assistant.Parts = append(assistant.Parts, llms.TextPart(choice.Content))
		}
		for _, call := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, call)
		}
		messages = append(messages, assistant)

		for _, call := range choice.ToolCalls {
			messages = append(messages, a.runTool(ctx, req.Context, call))
		}
	}

	return full.String(), fmt.Errorf("%w (%d)", agent.ErrMaxTurns, a.maxTurns)
}

func (a *Agent) runTool(ctx context.Context, rc *core.RequestContext, call llms.ToolCall) llms.MessageContent {
	var name, args string
	if call.FunctionCall != nil {
		name = call.FunctionCall.Name
		args = call.FunctionCall.Arguments
	}

	a.logger.Debug("tool called", "tool", name, "id", call.ID)
	output, err := a.registry.Execute(ctx, name, rc, json.RawMessage(args))
	if err != nil {
		a.logger.Warn("tool failed", "tool", name, "err", err)
		output = "Error: " + err.Error()
	}

	return llms.MessageContent{
		Role: llms.ChatMessageTypeTool,
		Parts: []llms.ContentPart{
			llms.ToolCallResponse{
				ToolCallID: call.ID,
				Name:       name,
				Content:    output,
			},
		},
	}
}

func (a *Agent) initialMessages(ctx context.Context, req agent.Request) []llms.MessageContent {
	thread := agent.LoadThread(ctx, a.history, req, a.threadTurns, a.logger)

	messages := make([]llms.MessageContent, 0, len(thread)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, a.instructions))
	for _, turn := range thread {
		role := llms.ChatMessageTypeHuman
		if turn.Role == core.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Message))
	return messages
}

func (a *Agent) toolDefinitions() []llms.Tool {
	registered := a.registry.Tools()
	tools := make([]llms.Tool, 0, len(registered))
	for _, tool := range registered {
		tools = append(tools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  tool.Schema(),
			},
		})
	}
	return tools
}
