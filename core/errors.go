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

import "errors"

// Service failure taxonomy. Adapters wrap their causes with one of these
// so callers can branch with errors.Is.
var (
	// ErrExtraction indicates a document payload could not be converted to text.
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbeddingService indicates the remote embedding service failed or
	// returned a malformed response.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrHistoryUnavailable indicates conversation history could not be read.
	ErrHistoryUnavailable = errors.New("conversation history unavailable")

	// ErrUpstreamAuth indicates the realtime upstream rejected the credential.
	ErrUpstreamAuth = errors.New("upstream authentication failed")

	// ErrUpstreamTransport indicates the realtime upstream could not be reached
	// or failed mid-exchange.
	ErrUpstreamTransport = errors.New("upstream transport error")

	// ErrStoreWrite indicates a persistence write failed.
	ErrStoreWrite = errors.New("store write failed")
)

// Domain validation errors
var (
	// ErrInvalidTurn indicates a ConversationTurn failed validation.
	ErrInvalidTurn = errors.New("invalid conversation turn")

	// ErrInvalidManifest indicates a DocumentManifest failed validation.
	ErrInvalidManifest = errors.New("invalid document manifest")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidRole indicates an unknown Role value.
	ErrInvalidRole = errors.New("invalid role")

	// ErrEmptyUserID indicates the user identifier is missing.
	ErrEmptyUserID = errors.New("user id cannot be empty")

	// ErrEmptySessionID indicates the session identifier is missing.
	ErrEmptySessionID = errors.New("session id cannot be empty")

	// ErrEmptyFilename indicates the document filename is missing.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrInvalidIdentifier indicates an identifier contains a NUL byte.
	ErrInvalidIdentifier = errors.New("identifier cannot contain NUL")
)
