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

// Package chat runs one chat turn end to end: ingest attachments, record
// the user turn, stream the agent reply and record the assistant turn.
package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/ragchat/agent"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/ingestion"
	"github.com/poiesic/ragchat/tts"
)

var (
	ErrAgentRequired    = errors.New("agent is required")
	ErrRecorderRequired = errors.New("turn recorder is required")
	ErrInvalidTurn      = errors.New("invalid chat turn")
)

// Turn is one inbound chat message.
type Turn struct {
	SessionID string
	UserID    string
	Message   string
	Voice     bool
	Documents []ingestion.Document
}

// Sink receives the streamed reply. Chunk is called once per token in
// order; exactly one of Done or Error ends the stream.
type Sink interface {
	Chunk(text string) error
	Done(fullText, audio string) error
	Error(err error) error
}

// Ingester stores attached documents.
type Ingester interface {
	IngestAll(ctx context.Context, userID string, docs []ingestion.Document) []ingestion.Result
}

// TurnRecorder persists turns without blocking the caller.
type TurnRecorder interface {
	Append(sessionID, userID string, role core.Role, content string)
}

// Orchestrator wires the chat dependencies together.
type Orchestrator struct {
	agent       agent.Agent
	recorder    TurnRecorder
	ingester    Ingester
	synthesizer tts.Synthesizer
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithIngester enables document attachments.
func WithIngester(ingester Ingester) Option {
	return func(o *Orchestrator) { o.ingester = ingester }
}

// WithSynthesizer enables voice replies.
func WithSynthesizer(s tts.Synthesizer) Option {
	return func(o *Orchestrator) { o.synthesizer = s }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(a agent.Agent, recorder TurnRecorder, opts ...Option) (*Orchestrator, error) {
	if a == nil {
		return nil, ErrAgentRequired
	}
	if recorder == nil {
		return nil, ErrRecorderRequired
	}
	o := &Orchestrator{
		agent:    a,
		recorder: recorder,
		logger:   slog.Default().With("component", "chat"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// HandleTurn runs the turn and reports the reply through sink. An agent
// failure is sent to sink.Error and returned.
func (o *Orchestrator) HandleTurn(ctx context.Context, turn Turn, sink Sink) error {
	if err := validate(turn); err != nil {
		return o.fail(sink, err)
	}
	logger := o.logger.With("user", turn.UserID, "session", turn.SessionID)

	if len(turn.Documents) > 0 {
		o.ingest(ctx, logger, turn)
	}

	rc := core.NewRequestContext(turn.UserID, turn.SessionID, turn.Message)
	o.recorder.Append(turn.SessionID, turn.UserID, core.RoleUser, turn.Message)
	logger.Info("chat request", "chars", len(turn.Message), "voice", turn.Voice)

	fullText, err := o.agent.Stream(ctx, agent.Request{
		Message:  turn.Message,
		Thread:   turn.SessionID,
		Resource: turn.UserID,
		Context:  rc,
	}, sink.Chunk)
	if err != nil {
		logger.Error("agent stream failed", "err", err)
		return o.fail(sink, err)
	}

	if fullText != "" {
		o.recorder.Append(turn.SessionID, turn.UserID, core.RoleAssistant, fullText)
	}

	var audio string
	if turn.Voice && fullText != "" {
		audio = o.speak(ctx, logger, fullText)
	}
	return sink.Done(fullText, audio)
}

func (o *Orchestrator) ingest(ctx context.Context, logger *slog.Logger, turn Turn) {
	if o.ingester == nil {
		logger.Warn("documents attached but ingestion is disabled", "count", len(turn.Documents))
		return
	}
	for _, result := range o.ingester.IngestAll(ctx, turn.UserID, turn.Documents) {
		if result.Err != nil {
			logger.Warn("attached document not stored", "file", result.Filename, "err", result.Err)
		}
	}
}

func (o *Orchestrator) speak(ctx context.Context, logger *slog.Logger, text string) string {
	if o.synthesizer == nil {
		logger.Warn("voice requested but no synthesizer is configured")
		return ""
	}
	audio, err := o.synthesizer.Synthesize(ctx, text)
	if err != nil {
		logger.Error("speech generation failed", "err", err)
		return ""
	}
	return base64.StdEncoding.EncodeToString(audio)
}

func (o *Orchestrator) fail(sink Sink, err error) error {
	if sinkErr := sink.Error(err); sinkErr != nil {
		return errors.Join(err, sinkErr)
	}
	return err
}

func validate(turn Turn) error {
	switch {
	case turn.SessionID == "":
		return fmt.Errorf("%w: %w", ErrInvalidTurn, core.ErrEmptySessionID)
	case turn.UserID == "":
		return fmt.Errorf("%w: %w", ErrInvalidTurn, core.ErrEmptyUserID)
	case strings.TrimSpace(turn.Message) == "":
		return fmt.Errorf("%w: %w", ErrInvalidTurn, core.ErrEmptyContent)
	}
	return nil
}
