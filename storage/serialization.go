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

package storage

import (
	"fmt"

	"github.com/poiesic/ragchat/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return id, nil
}

// MarshalTurn serializes a ConversationTurn to bytes.
func MarshalTurn(turn *core.ConversationTurn) []byte {
	buf := make([]byte, core.ConversationTurnMUS.Size(*turn))
	core.ConversationTurnMUS.Marshal(*turn, buf)
	return buf
}

// UnmarshalTurn deserializes a ConversationTurn from bytes.
func UnmarshalTurn(data []byte) (*core.ConversationTurn, error) {
	turn, _, err := core.ConversationTurnMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &turn, nil
}

// MarshalManifest serializes a DocumentManifest to bytes.
func MarshalManifest(manifest *core.DocumentManifest) []byte {
	buf := make([]byte, core.DocumentManifestMUS.Size(*manifest))
	core.DocumentManifestMUS.Marshal(*manifest, buf)
	return buf
}

// UnmarshalManifest deserializes a DocumentManifest from bytes.
func UnmarshalManifest(data []byte) (*core.DocumentManifest, error) {
	manifest, _, err := core.DocumentManifestMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &manifest, nil
}
