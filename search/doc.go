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

// Package search answers document questions for the agent.
//
// The Searcher embeds a query and hands the vector to the document store,
// which owns ranking. The Rewriter asks a small model to turn a chat
// message into a better retrieval query and falls back to the original
// text whenever the model fails or answers with nothing.
package search
