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
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/ragchat/core"
)

const (
	turnPrefix        = "convturn"
	turnUserPrefix    = "convuser"
	turnSessionPrefix = "convsess"
	turnIDSeq         = "convturnseq"
	manifestPrefix    = "docmanifest"

	// separates variable-length identifiers inside composite keys
	keySeparator = 0x00
)

// seekEnd is appended to an index prefix to position a reverse
// iterator after every key under that prefix.
var seekEnd = bytes.Repeat([]byte{0xff}, 17)

// makeTurnKey generates a key for a conversation turn by ID.
func makeTurnKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", turnPrefix, id))
}

// makeUserIndexPrefix generates the prefix shared by all of a user's turns.
// Format: prefix:userID\x00
func makeUserIndexPrefix(userID string) []byte {
	buf := make([]byte, 0, len(turnUserPrefix)+len(userID)+2)
	buf = append(buf, turnUserPrefix...)
	buf = append(buf, ':')
	buf = append(buf, userID...)
	return append(buf, keySeparator)
}

// makeUserIndexKey generates a composite key for the per-user time index.
// Format: prefix:userID\x00timestamp:id
func makeUserIndexKey(userID string, timestamp time.Time, id core.ID) []byte {
	return appendTimeID(makeUserIndexPrefix(userID), timestamp, id)
}

// makeSessionIndexPrefix generates the prefix shared by the turns of one session.
// Format: prefix:userID\x00sessionID\x00
func makeSessionIndexPrefix(userID, sessionID string) []byte {
	buf := make([]byte, 0, len(turnSessionPrefix)+len(userID)+len(sessionID)+3)
	buf = append(buf, turnSessionPrefix...)
	buf = append(buf, ':')
	buf = append(buf, userID...)
	buf = append(buf, keySeparator)
	buf = append(buf, sessionID...)
	return append(buf, keySeparator)
}

// makeSessionIndexKey generates a composite key for the per-session time index.
func makeSessionIndexKey(userID, sessionID string, timestamp time.Time, id core.ID) []byte {
	return appendTimeID(makeSessionIndexPrefix(userID, sessionID), timestamp, id)
}

// appendTimeID writes timestamp and id in BigEndian order so that
// lexicographic key order matches chronological order.
func appendTimeID(prefix []byte, timestamp time.Time, id core.ID) []byte {
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeManifestKey generates the key of a document manifest.
// Format: prefix:userID\x00filename
func makeManifestKey(userID, filename string) []byte {
	buf := make([]byte, 0, len(manifestPrefix)+len(userID)+len(filename)+2)
	buf = append(buf, manifestPrefix...)
	buf = append(buf, ':')
	buf = append(buf, userID...)
	buf = append(buf, keySeparator)
	return append(buf, filename...)
}
