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

package bulk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/ragchat/ingestion"
)

// DocumentIngester ingests one document. ingestion.Pipeline satisfies it.
type DocumentIngester interface {
	Ingest(ctx context.Context, userID string, doc ingestion.Document) ingestion.Result
}

// Summary is the outcome of a Load.
type Summary struct {
	Results []ingestion.Result
	Stored  int
	Skipped int
	Failed  int
}

// Loader reads files from disk and feeds them to a pipeline.
type Loader struct {
	pipeline DocumentIngester
	policy   RetryPolicy
	progress io.Writer
	logger   *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithRetryPolicy replaces DefaultRetryPolicy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(l *Loader) { l.policy = policy }
}

// WithProgress writes a running tally to w.
func WithProgress(w io.Writer) Option {
	return func(l *Loader) { l.progress = w }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a loader.
func NewLoader(pipeline DocumentIngester, opts ...Option) (*Loader, error) {
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	l := &Loader{
		pipeline: pipeline,
		policy:   DefaultRetryPolicy(),
		logger:   slog.Default().With("component", "bulk"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load ingests every path for userID in order. Documents are named by
// their base file name. Failures never stop the remaining files; they are
// joined into the returned error.
func (l *Loader) Load(ctx context.Context, userID string, paths []string) (*Summary, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	progress := NewProgress(l.progress, len(paths))
	progress.Start()
	defer progress.Finish()

	summary := &Summary{Results: make([]ingestion.Result, 0, len(paths))}
	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		result := l.loadOne(ctx, userID, path)
		progress.Record(result)
		summary.Results = append(summary.Results, result)

		switch result.State {
		case ingestion.StateStored:
			summary.Stored++
		case ingestion.StateSkipped:
			summary.Skipped++
		case ingestion.StateFailed:
			summary.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", path, result.Err))
		}
	}
	return summary, errors.Join(errs...)
}

func (l *Loader) loadOne(ctx context.Context, userID, path string) ingestion.Result {
	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Error("failed to read document", "path", path, "err", err)
		return ingestion.Result{Filename: name, State: ingestion.StateFailed, Err: err}
	}
	doc := ingestion.Document{Filename: name, Data: data}

	var result ingestion.Result
	err = RetryWithBackoff(ctx, l.policy, func(ctx context.Context) error {
		result = l.pipeline.Ingest(ctx, userID, doc)
		return result.Err
	})
	if err != nil && result.Err == nil {
		// The context ended between attempts
		result = ingestion.Result{Filename: name, State: ingestion.StateFailed, Err: err}
	}
	return result
}
