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

// Package realtime connects browsers to the OpenAI realtime voice API.
//
// Three entry points share one Config:
//
//   - Relay proxies a browser WebSocket to the upstream realtime socket.
//     The first browser frame must be {"type":"auth","token":"..."}; the
//     token is used as the upstream bearer credential and the frame is
//     never forwarded. After the upstream handshake the relay sends a
//     session.update upstream and {"type":"connected"} to the browser,
//     then copies frames verbatim in both directions until either side
//     closes.
//   - SDPExchanger posts a WebRTC SDP offer and returns the answer.
//   - SessionIssuer mints an ephemeral client secret for browser use.
//
// Upstream failures are classified as core.ErrUpstreamAuth (HTTP 401 or
// 403) or core.ErrUpstreamTransport (everything else).
package realtime
