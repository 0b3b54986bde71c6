package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateTurn(t *testing.T) {
	validTime := time.Now().Add(-1 * time.Hour)
	futureTime := time.Now().Add(1 * time.Hour)

	tests := []struct {
		name    string
		turn    *ConversationTurn
		wantErr error
	}{
		{
			name: "valid user turn",
			turn: &ConversationTurn{
				SessionID: "session-1",
				UserID:    "alice",
				Role:      RoleUser,
				Content:   "Hello world",
				CreatedAt: validTime,
			},
			wantErr: nil,
		},
		{
			name: "valid assistant turn with ID 0",
			turn: &ConversationTurn{
				Id:        0,
				SessionID: "session-1",
				UserID:    "alice",
				Role:      RoleAssistant,
				Content:   "Hi there",
				CreatedAt: validTime,
			},
			wantErr: nil,
		},
		{
			name:    "nil turn",
			turn:    nil,
			wantErr: ErrInvalidTurn,
		},
		{
			name: "missing session",
			turn: &ConversationTurn{
				UserID:    "alice",
				Role:      RoleUser,
				Content:   "Hello",
				CreatedAt: validTime,
			},
			wantErr: ErrEmptySessionID,
		},
		{
			name: "missing user",
			turn: &ConversationTurn{
				SessionID: "session-1",
				Role:      RoleUser,
				Content:   "Hello",
				CreatedAt: validTime,
			},
			wantErr: ErrEmptyUserID,
		},
		{
			name: "NUL in user",
			turn: &ConversationTurn{
				SessionID: "b",
				UserID:    "a\x00x",
				Role:      RoleUser,
				Content:   "Hello",
				CreatedAt: validTime,
			},
			wantErr: ErrInvalidIdentifier,
		},
		{
			name: "NUL in session",
			turn: &ConversationTurn{
				SessionID: "x\x00b",
				UserID:    "a",
				Role:      RoleUser,
				Content:   "Hello",
				CreatedAt: validTime,
			},
			wantErr: ErrInvalidIdentifier,
		},
		{
			name: "unknown role",
			turn: &ConversationTurn{
				SessionID: "session-1",
				UserID:    "alice",
				Role:      Role("system"),
				Content:   "Hello",
				CreatedAt: validTime,
			},
			wantErr: ErrInvalidRole,
		},
		{
			name: "empty content",
			turn: &ConversationTurn{
				SessionID: "session-1",
				UserID:    "alice",
				Role:      RoleUser,
				CreatedAt: validTime,
			},
			wantErr: ErrEmptyContent,
		},
		{
			name: "future timestamp",
			turn: &ConversationTurn{
				SessionID: "session-1",
				UserID:    "alice",
				Role:      RoleUser,
				Content:   "Hello",
				CreatedAt: futureTime,
			},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTurn(tt.turn)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateTurn() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateTurn() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidTurn) {
				t.Errorf("ValidateTurn() error = %v should wrap ErrInvalidTurn", err)
			}
		})
	}
}

func TestValidateManifest(t *testing.T) {
	tests := []struct {
		name     string
		manifest *DocumentManifest
		wantErr  error
	}{
		{
			name:     "valid",
			manifest: &DocumentManifest{UserID: "alice", Filename: "a.pdf", ChunkCount: 3},
		},
		{
			name:     "nil",
			manifest: nil,
			wantErr:  ErrInvalidManifest,
		},
		{
			name:     "missing user",
			manifest: &DocumentManifest{Filename: "a.pdf", ChunkCount: 3},
			wantErr:  ErrEmptyUserID,
		},
		{
			name:     "missing filename",
			manifest: &DocumentManifest{UserID: "alice", ChunkCount: 3},
			wantErr:  ErrEmptyFilename,
		},
		{
			name:     "NUL in user",
			manifest: &DocumentManifest{UserID: "alice\x00a.pdf", Filename: "b.pdf", ChunkCount: 3},
			wantErr:  ErrInvalidIdentifier,
		},
		{
			name:     "zero chunks",
			manifest: &DocumentManifest{UserID: "alice", Filename: "a.pdf"},
			wantErr:  ErrInvalidManifest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateManifest(tt.manifest)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateManifest() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateManifest() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRole(t *testing.T) {
	if err := ValidateRole(RoleUser); err != nil {
		t.Errorf("RoleUser should be valid: %v", err)
	}
	if err := ValidateRole(RoleAssistant); err != nil {
		t.Errorf("RoleAssistant should be valid: %v", err)
	}
	if err := ValidateRole(""); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("empty role should be invalid, got %v", err)
	}
}

func TestIsValidTimestamp(t *testing.T) {
	if !IsValidTimestamp(time.Now().Add(-time.Minute)) {
		t.Error("past timestamp should be valid")
	}
	if IsValidTimestamp(time.Now().Add(time.Hour)) {
		t.Error("future timestamp should be invalid")
	}
}
