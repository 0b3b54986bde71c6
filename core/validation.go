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

package core

import (
	"fmt"
	"strings"
	"time"
)

// ValidateTurn validates a ConversationTurn according to domain rules.
//
// Validation rules:
//   - SessionID and UserID must not be empty or contain NUL
//   - Role must be user or assistant
//   - Content must not be empty
//   - CreatedAt must not be in the future
//
// NOT validated:
//   - ID (assigned by the repository sequence)
func ValidateTurn(turn *ConversationTurn) error {
	if turn == nil {
		return fmt.Errorf("%w: turn is nil", ErrInvalidTurn)
	}

	if turn.SessionID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrEmptySessionID)
	}

	if turn.UserID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrEmptyUserID)
	}

	if err := ValidateIdentifiers(turn.UserID, turn.SessionID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, err)
	}

	if err := ValidateRole(turn.Role); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, err)
	}

	if turn.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrEmptyContent)
	}

	if !IsValidTimestamp(turn.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateManifest validates a DocumentManifest.
func ValidateManifest(manifest *DocumentManifest) error {
	if manifest == nil {
		return fmt.Errorf("%w: manifest is nil", ErrInvalidManifest)
	}
	if manifest.UserID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, ErrEmptyUserID)
	}
	if manifest.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, ErrEmptyFilename)
	}
	if err := ValidateIdentifiers(manifest.UserID, manifest.Filename); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if manifest.ChunkCount < 1 {
		return fmt.Errorf("%w: chunk count %d", ErrInvalidManifest, manifest.ChunkCount)
	}
	return nil
}

// ValidateIdentifiers rejects identifiers containing a NUL byte. NUL
// separates the parts of composite storage keys.
func ValidateIdentifiers(ids ...string) error {
	for _, id := range ids {
		if strings.IndexByte(id, 0) >= 0 {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
		}
	}
	return nil
}

// ValidateRole validates that a Role has a known value.
func ValidateRole(role Role) error {
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: value %q", ErrInvalidRole, string(role))
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
