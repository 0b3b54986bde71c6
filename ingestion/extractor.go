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
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/poiesic/ragchat/core"
)

// Extractor converts a binary document payload into plain text.
type Extractor interface {
	// Extract returns the document text. Failures wrap core.ErrExtraction.
	Extract(ctx context.Context, payload []byte) (string, error)
}

// PDFExtractor extracts page text from PDF documents.
type PDFExtractor struct{}

var _ Extractor = PDFExtractor{}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor() PDFExtractor {
	return PDFExtractor{}
}

// Extract joins the plain text of every page, in page order, with newlines.
func (PDFExtractor) Extract(ctx context.Context, payload []byte) (text string, err error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("%w: empty payload", core.ErrExtraction)
	}

	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", core.ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrExtraction, err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %w", core.ErrExtraction, i, err)
		}
		pages = append(pages, pageText)
	}

	return strings.Join(pages, "\n"), nil
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, payload []byte) (string, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, payload []byte) (string, error) {
	return f(ctx, payload)
}
