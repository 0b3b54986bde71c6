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

// Package anthropic implements agent.Agent over the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/poiesic/ragchat/agent"
	"github.com/poiesic/ragchat/core"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5"

// ErrAPIKeyRequired indicates no API key was configured.
var ErrAPIKeyRequired = errors.New("anthropic api key is required")

// Agent runs the chat tool loop on Claude with streaming responses.
type Agent struct {
	client       anthropic.Client
	model        string
	registry     *agent.Registry
	history      agent.ThreadLoader
	instructions string
	maxTurns     int
	maxTokens    int64
	threadTurns  int
	logger       *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent) error

// WithModel selects the Claude model.
func WithModel(model string) Option {
	return func(a *Agent) error {
		if model != "" {
			a.model = model
		}
		return nil
	}
}

// WithHistory enables thread memory.
func WithHistory(loader agent.ThreadLoader) Option {
	return func(a *Agent) error {
		a.history = loader
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

// New creates an agent. Extra request options, such as a base URL,
// are passed to the SDK client.
func New(apiKey string, registry *agent.Registry, clientOpts []option.RequestOption, opts ...Option) (*Agent, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}
	if registry == nil {
		return nil, agent.ErrRegistryRequired
	}

	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, clientOpts...)
	a := &Agent{
		client:       anthropic.NewClient(reqOpts...),
		model:        DefaultModel,
		registry:     registry,
		instructions: agent.Instructions,
		maxTurns:     agent.DefaultMaxTurns,
		maxTokens:    agent.DefaultMaxTokens,
		threadTurns:  agent.DefaultThreadTurns,
		logger:       slog.Default().With("component", "anthropic-agent"),
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
	tools := a.toolParams()

	var full strings.Builder
	for turn := 0; turn < a.maxTurns; turn++ {
		if ctx.Err() != nil {
			return full.String(), ctx.Err()
		}

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: a.maxTokens,
			Messages:  messages,
			System:    []anthropic.TextBlockParam{{Text: a.instructions}},
		}
		if len(tools) > 0 {
			params.Tools = tools
		}

		resp, err := a.streamMessage(ctx, params, func(text string) error {
			full.WriteString(text)
			return onChunk(text)
		})
		if err != nil {
			return full.String(), err
		}

		var results []anthropic.ContentBlockParamUnion
		for _, block := range resp.Content {
			if block.Type != "tool_use" {
				continue
			}
			a.logger.Debug("tool called", "tool", block.Name, "id", block.ID)
			output, err := a.registry.Execute(ctx, block.Name, req.Context, block.Input)
			if err != nil {
				a.logger.Warn("tool failed", "tool", block.Name, "err", err)
				results = append(results, anthropic.NewToolResultBlock(block.ID, "Error: "+err.Error(), true))
				continue
			}
			results = append(results, anthropic.NewToolResultBlock(block.ID, output, false))
		}

		if len(results) == 0 {
			return full.String(), nil
		}
		messages = append(messages, resp.ToParam(), anthropic.NewUserMessage(results...))
	}

	return full.String(), fmt.Errorf("%w (%d)", agent.ErrMaxTurns, a.maxTurns)
}

func (a *Agent) streamMessage(ctx context.Context, params anthropic.MessageNewParams, onText func(string) error) (*anthropic.Message, error) {
	stream := a.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			a.logger.Debug("failed to accumulate stream event", "err", err)
		}

		switch evt := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := evt.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				if err := onText(delta.Text); err != nil {
					return nil, err
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("claude API error: %w", err)
	}
	return &message, nil
}

func (a *Agent) initialMessages(ctx context.Context, req agent.Request) []anthropic.MessageParam {
	thread := agent.LoadThread(ctx, a.history, req, a.threadTurns, a.logger)

	messages := make([]anthropic.MessageParam, 0, len(thread)+1)
	for _, turn := range thread {
		block := anthropic.NewTextBlock(turn.Content)
		if turn.Role == core.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	// The API requires the conversation to start with a user turn
	for len(messages) > 0 && messages[0].Role != anthropic.MessageParamRoleUser {
		messages = messages[1:]
	}
	return append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Message)))
}

func (a *Agent) toolParams() []anthropic.ToolUnionParam {
	registered := a.registry.Tools()
	tools := make([]anthropic.ToolUnionParam, 0, len(registered))
	for _, tool := range registered {
		props, required := agent.SchemaProperties(tool.Schema())
		tools = append(tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name(),
				Description: anthropic.String(tool.Description()),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: props,
					Required:   required,
				},
			},
		})
	}
	return tools
}
