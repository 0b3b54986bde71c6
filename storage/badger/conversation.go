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

package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
)

// ConversationRepository implements storage.ConversationRepository for BadgerDB.
//
// Each turn is stored once under its ID and referenced from two time
// ordered indexes: one per user and one per (user, session).
type ConversationRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(backend *Backend) (*ConversationRepository, error) {
	idSeq, err := backend.GetSequence(turnIDSeq)
	if err != nil {
		return nil, err
	}

	return &ConversationRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ConversationRepository) Close() error {
	return r.idSeq.Release()
}

// AppendTurns adds one or more turns to storage.
func (r *ConversationRepository) AppendTurns(ctx context.Context, turns ...*core.ConversationTurn) ([]*core.ConversationTurn, error) {
	if r.backend.IsClosed() {
		return nil, fmt.Errorf("%w: %w", core.ErrStoreWrite, storage.ErrStorageClosed)
	}

	now := time.Now().UTC()
	for _, turn := range turns {
		if turn != nil && turn.CreatedAt.IsZero() {
			turn.CreatedAt = now
		}
		if err := core.ValidateTurn(turn); err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrStoreWrite, err)
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, turn := range turns {
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			turn.Id = core.ID(nextID)

			if err := tx.Set(makeTurnKey(turn.Id), storage.MarshalTurn(turn)); err != nil {
				return err
			}

			id := storage.MarshalID(turn.Id)
			userKey := makeUserIndexKey(turn.UserID, turn.CreatedAt, turn.Id)
			if err := tx.Set(userKey, id); err != nil {
				return err
			}
			sessionKey := makeSessionIndexKey(turn.UserID, turn.SessionID, turn.CreatedAt, turn.Id)
			if err := tx.Set(sessionKey, id); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStoreWrite, err)
	}

	return turns, nil
}

// RecentTurns retrieves a user's most recent turns outside the excluded session,
// ordered by CreatedAt descending.
func (r *ConversationRepository) RecentTurns(ctx context.Context, userID, excludeSessionID string, limit int) ([]*core.ConversationTurn, error) {
	if userID == "" || limit < 1 || core.ValidateIdentifiers(userID) != nil {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.ConversationTurn
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeUserIndexPrefix(userID)
		start := append(append([]byte{}, prefix...), seekEnd...)

		return scanReverse(tx, prefix, start, func(val []byte) (bool, error) {
			if err := ctx.Err(); err != nil {
				return false, err
			}
			turn, err := r.resolveIndexValue(tx, val)
			if err != nil {
				return false, err
			}
			if turn == nil || (excludeSessionID != "" && turn.SessionID == excludeSessionID) {
				return true, nil
			}
			results = append(results, turn)
			return len(results) < limit, nil
		})
	}, false)

	return results, err
}

// SessionTurns retrieves the turns of one session created before the
// given time, ordered by CreatedAt descending.
func (r *ConversationRepository) SessionTurns(ctx context.Context, userID, sessionID string, before time.Time, limit int) ([]*core.ConversationTurn, error) {
	if userID == "" || sessionID == "" || limit < 1 || core.ValidateIdentifiers(userID, sessionID) != nil {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.ConversationTurn
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeSessionIndexPrefix(userID, sessionID)
		var start []byte
		if before.IsZero() {
			start = append(append([]byte{}, prefix...), seekEnd...)
		} else {
			// ID 0 is never assigned, so this key sorts before every turn
			// written at exactly `before`.
			start = makeSessionIndexKey(userID, sessionID, before, 0)
		}

		return scanReverse(tx, prefix, start, func(val []byte) (bool, error) {
			turn, err := r.resolveIndexValue(tx, val)
			if err != nil {
				return false, err
			}
			if turn != nil {
				results = append(results, turn)
			}
			return len(results) < limit, nil
		})
	}, false)

	return results, err
}

// resolveIndexValue loads the turn referenced by an index entry.
func (r *ConversationRepository) resolveIndexValue(tx *badger.Txn, val []byte) (*core.ConversationTurn, error) {
	id, err := storage.UnmarshalID(val)
	if err != nil {
		return nil, err
	}
	return r.readTurn(tx, makeTurnKey(id))
}

// readTurn reads a turn by key. Returns nil if the key is absent.
func (r *ConversationRepository) readTurn(tx *badger.Txn, key []byte) (*core.ConversationTurn, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var turn *core.ConversationTurn
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		turn, unmarshalErr = storage.UnmarshalTurn(val)
		return unmarshalErr
	})
	return turn, err
}
