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

// Package agent defines the chat agent contract and the tools it may call.
//
// An Agent streams a reply to one user message. Before the first model
// call it replays the session's recent turns as thread memory, then it
// runs a bounded tool loop over the tools held in a Registry:
//
//   - retrieve-recent-conversation renders the user's other sessions
//   - rewrite-query turns a message into a retrieval query
//   - search-docs runs semantic search over the user's documents
//   - query-knowledge-graph reports that no graph is configured
//
// Every tool receives the per-turn core.RequestContext, so tools never
// need the user or session passed through model-visible arguments.
//
// Providers live in subpackages: agent/openai (langchaingo), agent/anthropic
// (anthropic-sdk-go) and agent/mock for tests.
package agent
