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

package session

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrTransportClosed = errors.New("transport closed")

const defaultWriteTimeout = 30 * time.Second

// WSTransport serializes writes to one websocket connection. Reads stay with
// the connection handler.
type WSTransport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// NewWSTransport wraps conn. writeTimeout <= 0 selects 30s.
func NewWSTransport(conn *websocket.Conn, writeTimeout time.Duration) *WSTransport {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	return &WSTransport{conn: conn, writeTimeout: writeTimeout}
}

// Send writes one text frame.
func (t *WSTransport) Send(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransportClosed
	}

	if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
		return err
	}

	return t.conn.WriteMessage(websocket.TextMessage, frame)
}

// Close sends a close frame with code and reason, then closes the socket.
// Later calls are no-ops.
func (t *WSTransport) Close(code int, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	t.closed = true

	msg := websocket.FormatCloseMessage(code, reason)
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))

	return t.conn.Close()
}

// Abort closes the socket without a close handshake.
func (t *WSTransport) Abort() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	t.closed = true

	return t.conn.Close()
}

func (t *WSTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
