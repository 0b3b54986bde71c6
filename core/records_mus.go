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
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for stored records. Timestamps are encoded as Unix
// microseconds, matching the precision of the badger index keys.
var (
	IDMUS               = idMUS{}
	ConversationTurnMUS = conversationTurnMUS{}
	DocumentManifestMUS = documentManifestMUS{}
)

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

type conversationTurnMUS struct{}

func (conversationTurnMUS) Marshal(v ConversationTurn, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.SessionID, bs[n:])
	n += ord.String.Marshal(v.UserID, bs[n:])
	n += ord.String.Marshal(string(v.Role), bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	return n
}

func (conversationTurnMUS) Unmarshal(bs []byte) (v ConversationTurn, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	v.SessionID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UserID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var role string
	role, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Role = Role(role)
	v.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (conversationTurnMUS) Size(v ConversationTurn) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.SessionID)
	size += ord.String.Size(v.UserID)
	size += ord.String.Size(string(v.Role))
	size += ord.String.Size(v.Content)
	return size + sizeTime(v.CreatedAt)
}

func (s conversationTurnMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type documentManifestMUS struct{}

func (documentManifestMUS) Marshal(v DocumentManifest, bs []byte) (n int) {
	n = ord.String.Marshal(v.UserID, bs)
	n += ord.String.Marshal(v.Filename, bs[n:])
	n += varint.Int64.Marshal(int64(v.ChunkCount), bs[n:])
	n += ord.String.Marshal(v.ContentHash, bs[n:])
	n += marshalTime(v.StoredAt, bs[n:])
	return n
}

func (documentManifestMUS) Unmarshal(bs []byte) (v DocumentManifest, n int, err error) {
	var n1 int
	v.UserID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Filename, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var count int64
	count, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ChunkCount = int(count)
	v.ContentHash, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.StoredAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (documentManifestMUS) Size(v DocumentManifest) (size int) {
	size = ord.String.Size(v.UserID)
	size += ord.String.Size(v.Filename)
	size += varint.Int64.Size(int64(v.ChunkCount))
	size += ord.String.Size(v.ContentHash)
	return size + sizeTime(v.StoredAt)
}

func (s documentManifestMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}
