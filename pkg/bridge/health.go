/*
 * Copyright 2026 The MassaPay Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package bridge

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/massapay/massa-agent/pkg/version"
)

const healthCloseReason = "Health check complete"

type healthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func healthPayload() []byte {
	payload, _ := json.Marshal(healthStatus{Status: "ok", Version: version.ProtocolVersion})

	return payload
}

// handleHealth answers WebSocket probes with one frame and a normal close.
// Plain GETs receive the same JSON body.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(healthPayload())

		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Health upgrade failed")

		return
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)

	if err := conn.SetWriteDeadline(deadline); err != nil {
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, healthPayload()); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to write health frame")

		return
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, healthCloseReason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
}
