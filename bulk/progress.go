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
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/poiesic/ragchat/ingestion"
)

// Progress prints a one-line running tally of document outcomes.
type Progress struct {
	writer  io.Writer
	total   int
	counts  map[ingestion.State]int
	done    int
	start   time.Time
	started bool
	mu      sync.Mutex
}

// NewProgress creates a tracker for total documents writing to w.
// A nil writer discards output.
func NewProgress(w io.Writer, total int) *Progress {
	if w == nil {
		w = io.Discard
	}
	return &Progress{
		writer: w,
		total:  total,
		counts: make(map[ingestion.State]int),
	}
}

// Start resets the tally and the clock.
func (p *Progress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.start = time.Now()
	p.started = true
	p.done = 0
	clear(p.counts)
}

// Record counts one finished document and reprints the line.
func (p *Progress) Record(result ingestion.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.counts[result.State]++
	if p.done < p.total {
		p.done++
	}
	p.report()
}

// Finish prints the final line followed by a newline.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.report()
	fmt.Fprintln(p.writer)
}

// Count returns how many documents ended in state.
func (p *Progress) Count(state ingestion.State) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[state]
}

// report must be called with the lock held.
func (p *Progress) report() {
	rate := 0.0
	if elapsed := time.Since(p.start).Seconds(); elapsed > 0 {
		rate = float64(p.done) / elapsed
	}
	fmt.Fprintf(p.writer, "\rIngested %d/%d documents (stored %d, skipped %d, failed %d) - %.1f docs/s",
		p.done, p.total,
		p.counts[ingestion.StateStored], p.counts[ingestion.StateSkipped], p.counts[ingestion.StateFailed],
		rate)
}
