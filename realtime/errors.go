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

package realtime

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/poiesic/ragchat/core"
)

const maxErrorBody = 200

var (
	// ErrMissingSDP indicates an empty SDP offer.
	ErrMissingSDP = errors.New("missing SDP")

	// ErrAuthFrameRequired indicates the first client frame was not a valid auth frame.
	ErrAuthFrameRequired = errors.New("first message must be an auth frame with a token")

	// ErrAuthTimeout indicates the client sent no auth frame within the connect timeout.
	ErrAuthTimeout = errors.New("timed out waiting for auth frame")

	// ErrAPIKeyRequired indicates a server-side API key is missing.
	ErrAPIKeyRequired = errors.New("OPENAI_API_KEY environment variable not set")
)

// UpstreamError is a non-2xx answer from the realtime API.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func newUpstreamError(status int, body []byte) *UpstreamError {
	text := []rune(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return &UpstreamError{StatusCode: status, Body: string(text)}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("OpenAI error (%d): %s", e.StatusCode, e.Body)
}

// Unwrap classifies the failure.
func (e *UpstreamError) Unwrap() error {
	return classifyStatus(e.StatusCode)
}

func classifyStatus(status int) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return core.ErrUpstreamAuth
	}
	return core.ErrUpstreamTransport
}
