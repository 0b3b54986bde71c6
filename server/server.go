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

// Package server exposes the chat and realtime endpoints over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/ragchat/chat"
	"github.com/poiesic/ragchat/ingestion"
	"github.com/poiesic/ragchat/realtime"
)

const (
	// RootMessage is the body of GET /.
	RootMessage = "RAG Hybrid Memory API is running!"

	// SessionHeader carries the chat session id.
	SessionHeader = "x-session-id"

	DefaultAddr          = ":8080"
	DefaultMaxUploadSize = 32 << 20

	shutdownTimeout = 5 * time.Second
	maxSDPSize      = 1 << 20
)

// ErrRealtimeDisabled is reported when a realtime endpoint has no backend.
var ErrRealtimeDisabled = errors.New("realtime is not configured")

// TurnHandler runs one chat turn.
type TurnHandler interface {
	HandleTurn(ctx context.Context, turn chat.Turn, sink chat.Sink) error
}

// SessionIssuer mints realtime client secrets.
type SessionIssuer interface {
	Issue(ctx context.Context, conversationID string) (*realtime.Session, error)
}

// SDPExchanger answers WebRTC offers.
type SDPExchanger interface {
	Exchange(ctx context.Context, offer string) (string, error)
}

// Server is the HTTP front end.
type Server struct {
	addr          string
	chat          TurnHandler
	sessions      SessionIssuer
	sdp           SDPExchanger
	relay         http.Handler
	maxUploadSize int64
	logger        *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithRealtime enables the realtime endpoints. Any argument may be nil.
func WithRealtime(sessions SessionIssuer, sdp SDPExchanger, relay http.Handler) Option {
	return func(s *Server) {
		s.sessions = sessions
		s.sdp = sdp
		s.relay = relay
	}
}

// WithMaxUploadSize bounds the multipart body of /chat.
func WithMaxUploadSize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadSize = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a server around the chat handler.
func New(handler TurnHandler, opts ...Option) *Server {
	s := &Server{
		addr:          DefaultAddr,
		chat:          handler,
		maxUploadSize: DefaultMaxUploadSize,
		logger:        slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /realtime", s.handleRealtimeSession)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /realtime-sdp", s.handleSDP)
	mux.HandleFunc("GET /realtime-ws", s.handleRelay)
	return corsMiddleware(s.loggingMiddleware(mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, RootMessage)
}

func (s *Server) handleRealtimeSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeError(w, http.StatusInternalServerError, ErrRealtimeDisabled)
		return
	}
	conversationID := r.URL.Query().Get("conversationId")
	if conversationID == "" {
		conversationID = "default"
	}

	session, err := s.sessions.Issue(r.Context(), conversationID)
	if err != nil {
		s.logger.Error("realtime session failed", "conversation", conversationID, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleSDP(w http.ResponseWriter, r *http.Request) {
	if s.sdp == nil {
		writeError(w, http.StatusInternalServerError, ErrRealtimeDisabled)
		return
	}
	offer, err := io.ReadAll(io.LimitReader(r.Body, maxSDPSize))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	answer, err := s.sdp.Exchange(r.Context(), string(offer))
	if err != nil {
		s.logger.Error("SDP exchange failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/sdp")
	_, _ = io.WriteString(w, answer)
}

func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	if s.relay == nil {
		writeError(w, http.StatusInternalServerError, ErrRealtimeDisabled)
		return
	}
	s.relay.ServeHTTP(w, r)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	w.Header().Set(SessionHeader, sessionID)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid multipart body: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	turn := chat.Turn{
		SessionID: sessionID,
		UserID:    r.FormValue("userId"),
		Message:   r.FormValue("message"),
		Voice:     r.FormValue("voice") == "true",
	}
	if turn.UserID == "" || strings.TrimSpace(turn.Message) == "" {
		writeError(w, http.StatusBadRequest, errors.New("message and userId are required"))
		return
	}

	docs, err := readDocuments(r.MultipartForm.File["documents"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	turn.Documents = docs

	sink, err := newSSESink(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if err := s.chat.HandleTurn(r.Context(), turn, sink); err != nil {
		s.logger.Warn("chat turn ended with error", "session", sessionID, "err", err)
	}
}

func readDocuments(headers []*multipart.FileHeader) ([]ingestion.Document, error) {
	docs := make([]ingestion.Document, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		docs = append(docs, ingestion.Document{Filename: fh.Filename, Data: data})
	}
	return docs, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
