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

// ManifestRepository implements storage.ManifestRepository for BadgerDB.
type ManifestRepository struct {
	backend *Backend
}

var _ storage.ManifestRepository = (*ManifestRepository)(nil)

// NewManifestRepository creates a new ManifestRepository.
func NewManifestRepository(backend *Backend) *ManifestRepository {
	return &ManifestRepository{
		backend: backend,
	}
}

// PutManifest stores a manifest keyed by (UserID, Filename).
func (r *ManifestRepository) PutManifest(ctx context.Context, manifest *core.DocumentManifest) error {
	if err := core.ValidateManifest(manifest); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStoreWrite, err)
	}
	if manifest.StoredAt.IsZero() {
		manifest.StoredAt = time.Now().UTC()
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeManifestKey(manifest.UserID, manifest.Filename)
		if err := tx.Set(key, storage.MarshalManifest(manifest)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrStoreWrite, err)
	}
	return nil
}

// GetManifest retrieves the manifest for (userID, filename).
func (r *ManifestRepository) GetManifest(ctx context.Context, userID, filename string) (*core.DocumentManifest, error) {
	if err := core.ValidateIdentifiers(userID, filename); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidQuery, err)
	}
	var result *core.DocumentManifest
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeManifestKey(userID, filename))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalManifest(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}
