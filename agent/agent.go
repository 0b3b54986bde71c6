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

package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/ragchat/core"
)

const (
	// DefaultMaxTurns bounds the number of model calls in one tool loop.
	DefaultMaxTurns = 8

	// DefaultThreadTurns is the number of session turns replayed to the model.
	DefaultThreadTurns = 10

	// DefaultMaxTokens caps a single model response.
	DefaultMaxTokens = 2048
)

// Request is one user message addressed to the agent.
type Request struct {
	Message  string
	Thread   string // session id
	Resource string // user id
	Context  *core.RequestContext
}

// Agent streams a reply to a single message.
type Agent interface {
	// Stream runs the agent and calls onChunk for every text token as it
	// arrives. It returns the full reply text. An error returned by
	// onChunk aborts the stream.
	Stream(ctx context.Context, req Request, onChunk func(string) error) (string, error)
}

// ThreadLoader provides a session's recent turns, oldest first.
// history.Store satisfies it.
type ThreadLoader interface {
	Thread(ctx context.Context, userID, sessionID string, before time.Time, limit int) ([]core.ConversationTurn, error)
}

// LoadThread returns the thread memory for req. A nil loader or a failed
// lookup yields no memory; the failure is logged.
func LoadThread(ctx context.Context, loader ThreadLoader, req Request, limit int, logger *slog.Logger) []core.ConversationTurn {
	if loader == nil || req.Thread == "" || req.Resource == "" {
		return nil
	}
	if limit < 1 {
		limit = DefaultThreadTurns
	}

	var before time.Time
	if req.Context != nil {
		before = req.Context.ReceivedAt
	}

	turns, err := loader.Thread(ctx, req.Resource, req.Thread, before, limit)
	if err != nil {
		logger.Warn("failed to load thread memory", "thread", req.Thread, "err", err)
		return nil
	}
	return turns
}
