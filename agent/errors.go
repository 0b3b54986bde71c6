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

package agent

import "errors"

var (
	// ErrUnknownTool indicates the model asked for a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrDuplicateTool indicates a tool name was registered twice.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrInvalidToolInput indicates the tool arguments could not be decoded.
	ErrInvalidToolInput = errors.New("invalid tool input")

	// ErrMaxTurns indicates the tool loop hit its turn limit without a final answer.
	ErrMaxTurns = errors.New("exceeded maximum agent turns")

	// ErrRequestContextRequired indicates a request was made without a request context.
	ErrRequestContextRequired = errors.New("request context is required")

	// ErrHistoryRequired indicates a history dependency was not provided.
	ErrHistoryRequired = errors.New("history store is required")

	// ErrRewriterRequired indicates a rewriter dependency was not provided.
	ErrRewriterRequired = errors.New("query rewriter is required")

	// ErrSearcherRequired indicates a searcher dependency was not provided.
	ErrSearcherRequired = errors.New("document searcher is required")

	// ErrRegistryRequired indicates a tool registry was not provided.
	ErrRegistryRequired = errors.New("tool registry is required")
)
