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

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

var errStreamingUnsupported = errors.New("streaming not supported")

type chunkFrame struct {
	Chunk string `json:"chunk"`
}

type doneFrame struct {
	Done     bool   `json:"done"`
	FullText string `json:"fullText"`
	Audio    string `json:"audio"`
}

type errorFrame struct {
	Error string `json:"error"`
}

// sseSink writes chat events as server-sent events, flushing each frame.
type sseSink struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSESink(w http.ResponseWriter) (*sseSink, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseSink{w: w, flusher: flusher}, nil
}

func (s *sseSink) Chunk(text string) error {
	return s.send(chunkFrame{Chunk: text})
}

func (s *sseSink) Done(fullText, audio string) error {
	return s.send(doneFrame{Done: true, FullText: fullText, Audio: audio})
}

func (s *sseSink) Error(err error) error {
	return s.send(errorFrame{Error: err.Error()})
}

func (s *sseSink) send(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
