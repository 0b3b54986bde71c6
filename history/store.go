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

package history

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
)

const (
	// DefaultRecentLimit is used when Recent is called without a positive limit.
	DefaultRecentLimit = 20

	// DefaultThreadLimit is the number of session turns replayed to the agent.
	DefaultThreadLimit = 10

	sessionPrefixLen = 8
)

// Messages returned by Recent when no history can be shown.
const (
	NoHistoryMessage   = "No previous conversation history found for this user."
	MissingUserMessage = "Error: Unable to identify user for conversation history lookup."
)

// TaskRunner runs work detached from the caller.
// ingestion.Detacher satisfies it.
type TaskRunner interface {
	Go(name string, fn func(ctx context.Context) error)
}

// Store is the conversation adapter used by the chat orchestrator and
// the agent's history tool.
type Store struct {
	repo   storage.ConversationRepository
	runner TaskRunner
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewStore creates a Store.
func NewStore(repo storage.ConversationRepository, runner TaskRunner, opts ...Option) (*Store, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if runner == nil {
		return nil, ErrRunnerRequired
	}

	s := &Store{
		repo:   repo,
		runner: runner,
		logger: slog.Default().With("component", "history"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Append records a turn without waiting for the write.
// Failures are reported by the runner's failure hook and never reach the caller.
func (s *Store) Append(sessionID, userID string, role core.Role, content string) {
	turn := &core.ConversationTurn{
		SessionID: sessionID,
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	s.runner.Go("append-turn", func(ctx context.Context) error {
		if _, err := s.repo.AppendTurns(ctx, turn); err != nil {
			return fmt.Errorf("append %s turn for session %s: %w", role, sessionID, err)
		}
		return nil
	})
}

// Recent renders the user's latest turns from other sessions, oldest
// first and grouped by session. It always returns readable text.
func (s *Store) Recent(ctx context.Context, userID, excludeSessionID string, limit int) string {
	if userID == "" {
		s.logger.Error("history lookup without a user")
		return MissingUserMessage
	}
	if limit < 1 {
		limit = DefaultRecentLimit
	}

	turns, err := s.repo.RecentTurns(ctx, userID, excludeSessionID, limit)
	if err != nil {
		err = fmt.Errorf("%w: %w", core.ErrHistoryUnavailable, err)
		s.logger.Error("failed to retrieve conversations", "user", userID, "err", err)
		return fmt.Sprintf("Unable to retrieve conversation history: %v", err)
	}
	s.logger.Debug("retrieved conversations", "user", userID, "count", len(turns))

	if len(turns) == 0 {
		return NoHistoryMessage
	}

	slices.Reverse(turns)

	var b strings.Builder
	fmt.Fprintf(&b, "Previous conversations for %s (%d messages):\n\n", userID, len(turns))
	currentSession := ""
	for i, turn := range turns {
		if i == 0 || turn.SessionID != currentSession {
			currentSession = turn.SessionID
			fmt.Fprintf(&b, "\n[Session: %s...]\n", shortSession(currentSession))
		}
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}
	return b.String()
}

// Thread returns up to limit turns of one session created before the
// cutoff, oldest first. A zero cutoff returns the latest turns.
func (s *Store) Thread(ctx context.Context, userID, sessionID string, before time.Time, limit int) ([]core.ConversationTurn, error) {
	if limit < 1 {
		limit = DefaultThreadLimit
	}
	turns, err := s.repo.SessionTurns(ctx, userID, sessionID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrHistoryUnavailable, err)
	}

	thread := make([]core.ConversationTurn, len(turns))
	for i, turn := range turns {
		thread[len(turns)-1-i] = *turn
	}
	return thread, nil
}

func shortSession(sessionID string) string {
	runes := []rune(sessionID)
	if len(runes) > sessionPrefixLen {
		return string(runes[:sessionPrefixLen])
	}
	return sessionID
}
