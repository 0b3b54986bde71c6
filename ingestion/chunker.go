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

package ingestion

import (
	"fmt"
	"strings"
)

const (
	DefaultChunkSize    = 300
	DefaultChunkOverlap = 60
)

// Chunker splits text into overlapping fixed-size windows.
// Sizes are counted in runes.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker validates the window configuration once.
func NewChunker(size, overlap int) (*Chunker, error) {
	if err := validateChunkConfig(size, overlap); err != nil {
		return nil, err
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// DefaultChunker returns a chunker with 300 rune windows overlapping by 60.
func DefaultChunker() *Chunker {
	return &Chunker{size: DefaultChunkSize, overlap: DefaultChunkOverlap}
}

// Size returns the window length.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of runes shared by consecutive windows.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits text into windows. Empty text yields an empty slice.
func (c *Chunker) Chunk(text string) []string {
	return chunk(text, c.size, c.overlap)
}

// Chunk splits text with the given window size and overlap.
func Chunk(text string, size, overlap int) ([]string, error) {
	if err := validateChunkConfig(size, overlap); err != nil {
		return nil, err
	}
	return chunk(text, size, overlap), nil
}

func validateChunkConfig(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: size %d must be positive", ErrInvalidChunkConfig, size)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: overlap %d cannot be negative", ErrInvalidChunkConfig, overlap)
	}
	if overlap >= size {
		return fmt.Errorf("%w: overlap %d must be smaller than size %d", ErrInvalidChunkConfig, overlap, size)
	}
	return nil
}

// chunk computes window positions on the untrimmed text and trims each
// window afterwards, so boundaries do not depend on whitespace.
func chunk(text string, size, overlap int) []string {
	runes := []rune(text)
	length := len(runes)
	chunks := []string{}

	step := size - overlap
	for start := 0; start < length; start += step {
		end := min(start+size, length)
		chunks = append(chunks, strings.TrimSpace(string(runes[start:end])))
		if end == length {
			break
		}
	}
	return chunks
}
